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

	"github.com/spf13/cobra"

	"github.com/fedopt/fedopt/go/cmd/fedopt/cli"
	"github.com/fedopt/fedopt/go/fed/planner"
)

// Passes returns the passes command.
func Passes(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "passes [--json]",
		Short: "Lists the optimizer passes the configuration runs, in order.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := planner.NewPipeline(e.cfg)
			if err != nil {
				return err
			}
			if !asJSON {
				return cli.WritePasses(cmd.OutOrStdout(), pipeline.Names())
			}
			data, err := cli.MarshalJSON(pipeline.Names())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the names as a JSON list")
	return cmd
}
