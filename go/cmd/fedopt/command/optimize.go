/*
Copyright 2026 The Vitess Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package command

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fedopt/fedopt/go/cmd/fedopt/cli"
	"github.com/fedopt/fedopt/go/fed/algebra"
	"github.com/fedopt/fedopt/go/fed/federrors"
	"github.com/fedopt/fedopt/go/fed/log"
	"github.com/fedopt/fedopt/go/fed/planner"
	"github.com/fedopt/fedopt/go/fed/planner/plancontext"
)

type optimizeOptions struct {
	Bindings      map[string]string
	DefaultGraphs []string
	NamedGraphs   []string
}

func (o *optimizeOptions) register(fs *pflag.FlagSet) {
	fs.StringToStringVar(&o.Bindings, "bind", nil, "initial binding of a query variable, as name=term; terms are written <iri>, \"literal\", 42 or true")
	fs.StringSliceVar(&o.DefaultGraphs, "default-graph", nil, "IRI of a default graph of the query dataset")
	fs.StringSliceVar(&o.NamedGraphs, "named-graph", nil, "IRI of a named graph of the query dataset")
}

// Optimize returns the optimize command.
func Optimize(e *env) *cobra.Command {
	opts := &optimizeOptions{}
	cmd := &cobra.Command{
		Use:                   "optimize [--bind <name>=<term> ...] [--default-graph <iri> ...] [--named-graph <iri> ...] <tree.json|->",
		Short:                 "Optimizes a query tree and prints the plan as JSON.",
		Example:               "fedopt --config-file federation.yaml optimize query.json",
		DisableFlagsInUseLine: true,
		Args:                  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := e.optimize(cmd, args[0], opts)
			if err != nil {
				return err
			}
			plan, err := cli.NewPlan(res)
			if err != nil {
				return err
			}
			data, err := cli.MarshalJSON(plan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
			return nil
		},
	}
	opts.register(cmd.Flags())
	return cmd
}

// Explain returns the explain command.
func Explain(e *env) *cobra.Command {
	opts := &optimizeOptions{}
	var verbose bool
	cmd := &cobra.Command{
		Use:                   "explain [--verbose] [--bind <name>=<term> ...] <tree.json|->",
		Short:                 "Optimizes a query tree and shows the plan and what each pass did.",
		DisableFlagsInUseLine: true,
		Args:                  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := e.optimize(cmd, args[0], opts)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "path: %s\n", cli.Path(res))
			if res.SingleOwner {
				fmt.Fprintf(w, "owner: %s\n", res.Owner)
			}
			fmt.Fprintf(w, "hints: %s\n\n", res.Hints.String())
			fmt.Fprintln(w, algebra.ToTree(res.Tree))
			if len(res.Reports) == 0 {
				return nil
			}
			return cli.WritePassReports(w, res.Reports, verbose)
		},
	}
	opts.register(cmd.Flags())
	cmd.Flags().BoolVar(&verbose, "verbose", false, "list the rewrites of every pass")
	return cmd
}

func (e *env) optimize(cmd *cobra.Command, path string, opts *optimizeOptions) (res *planner.Result, err error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	tree, err := algebra.Parse(data)
	if err != nil {
		return nil, err
	}

	pctx := plancontext.CreatePlanningContext(e.fed, e.estimator, e.cfg.LocalSpace(), e.cfg)
	if pctx.Bindings, err = cli.ParseBindings(opts.Bindings); err != nil {
		return nil, err
	}
	if pctx.Dataset, err = cli.ParseDataset(opts.DefaultGraphs, opts.NamedGraphs); err != nil {
		return nil, err
	}

	// malformed trees are reported, not crashed on
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(error)
			if !ok || federrors.ID(perr) == "" {
				panic(r)
			}
			res, err = nil, perr
		}
	}()
	log.V(1).Infof("optimizing %s as query %s", path, pctx.QueryID)
	return planner.Optimize(cmd.Context(), pctx, tree)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, federrors.Wrapf(err, "reading the query tree from stdin")
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, federrors.Wrapf(err, "reading the query tree")
	}
	return data, nil
}
