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
// Package command holds the subcommands of fedopt.
package command

import (
	"os"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/fedopt/fedopt/go/fed/config"
	"github.com/fedopt/fedopt/go/fed/estimator"
	"github.com/fedopt/fedopt/go/fed/federation"
	"github.com/fedopt/fedopt/go/fed/federrors"
	"github.com/fedopt/fedopt/go/fed/log"
	"github.com/fedopt/fedopt/go/fed/stats"
	"github.com/fedopt/fedopt/go/fed/utils"
)

// env is what the subcommands share once the persistent flags are parsed.
type env struct {
	configFile  string
	metricsFile string

	cfg       *config.Config
	fed       *federation.Federation
	estimator *estimator.Caching
}

// Main returns the fedopt root command. Every call builds fresh commands.
func Main() *cobra.Command {
	e := &env{}
	rootCmd := &cobra.Command{
		Use:   "fedopt",
		Short: "fedopt plans queries over a federation of sources.",
		Long: "fedopt rewrites a query tree for a federation of sources: it assigns patterns to the members\n" +
			"that can answer them, groups what one member can evaluate alone and orders the joins.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.writeMetrics()
		},
		Run: func(cmd *cobra.Command, _ []string) { cmd.Help() },
	}

	fs := rootCmd.PersistentFlags()
	fs.StringVarP(&e.configFile, "config-file", "f", "", "optimizer configuration and federation members, in any format viper reads")
	rootCmd.MarkPersistentFlagFilename("config-file", "yaml", "yml", "json", "toml")
	fs.StringVar(&e.metricsFile, "metrics-file", "", "write the optimizer metrics to this file, in the Prometheus text format, when the command ends")
	config.RegisterFlags(fs)
	log.RegisterFlags(fs)
	utils.NormalizeUnderscores(fs)
	rootCmd.SetGlobalNormalizationFunc(fs.GetNormalizeFunc())

	rootCmd.AddCommand(Optimize(e))
	rootCmd.AddCommand(Explain(e))
	rootCmd.AddCommand(Passes(e))

	return rootCmd
}

func (e *env) load(cmd *cobra.Command) error {
	if err := log.Init(cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(cmd.Flags(), e.configFile)
	if err != nil {
		return err
	}
	fed, err := cfg.BuildFederation()
	if err != nil {
		return err
	}
	e.cfg, e.fed = cfg, fed
	e.estimator = estimator.NewCaching(estimator.Heuristic{}, cfg.EstimatorCacheTTL)

	log.V(1).Infof("federation of %d members, default %s", len(fed.Members()), fed.Default().ID)
	return nil
}

func (e *env) writeMetrics() error {
	if e.metricsFile == "" {
		return nil
	}
	families, err := stats.Registry.Gather()
	if err != nil {
		return federrors.Wrapf(err, "gathering metrics")
	}
	f, err := os.Create(e.metricsFile)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(f, mf); err != nil {
			return federrors.Wrapf(err, "writing metrics to %s", e.metricsFile)
		}
	}
	return f.Close()
}
