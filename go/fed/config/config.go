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

// Package config loads optimizer settings from a config file, FEDOPT_
// environment variables and command line flags, in increasing precedence.
package config

import (
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fedopt/fedopt/go/fed/federation"
	"github.com/fedopt/fedopt/go/fed/federrors"
	"github.com/fedopt/fedopt/go/fed/hints"
	"github.com/fedopt/fedopt/go/fed/utils"
)

const envPrefix = "FEDOPT"

// Keys, shared by the config file, the environment and the flags.
const (
	KeyHintsEnabled           = "hints-enabled"
	KeyDisabledPasses         = "disabled-passes"
	KeyDefaultCardinality     = "default-cardinality"
	KeyHintNamespace          = "hint-namespace"
	KeyEstimatorCacheTTL      = "estimator-cache-ttl"
	KeyBloomFalsePositiveRate = "bloom-false-positive-rate"
	KeyFederation             = "federation"
	KeyLocalPredicates        = "local-predicates"
	KeyLocalNamespaces        = "local-namespaces"
)

// DefaultSourceID names the member of the federation built when none is configured.
const DefaultSourceID = "local"

// SourceConfig describes one federation member. Predicates, when given, are
// loaded into the member's bloom filter.
type SourceConfig struct {
	ID            string   `mapstructure:"id"`
	Endpoint      string   `mapstructure:"endpoint"`
	Default       bool     `mapstructure:"default"`
	Predicates    []string `mapstructure:"predicates"`
	ExpectedItems int      `mapstructure:"expected-items"`
}

type Config struct {
	HintsEnabled           bool           `mapstructure:"hints-enabled"`
	DisabledPasses         []string       `mapstructure:"disabled-passes"`
	DefaultCardinality     float64        `mapstructure:"default-cardinality"`
	HintNamespace          string         `mapstructure:"hint-namespace"`
	EstimatorCacheTTL      time.Duration  `mapstructure:"estimator-cache-ttl"`
	BloomFalsePositiveRate float64        `mapstructure:"bloom-false-positive-rate"`
	Federation             []SourceConfig `mapstructure:"federation"`
	LocalPredicates        []string       `mapstructure:"local-predicates"`
	LocalNamespaces        []string       `mapstructure:"local-namespaces"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		HintsEnabled:           true,
		DisabledPasses:         []string{},
		DefaultCardinality:     1000,
		HintNamespace:          hints.DefaultNamespace,
		EstimatorCacheTTL:      5 * time.Minute,
		BloomFalsePositiveRate: 0.01,
		LocalPredicates:        []string{},
		LocalNamespaces:        []string{},
	}
}

// flagValues only backs the registered flags; Load reads them through viper.
var flagValues = Default()

// RegisterFlags installs the optimizer flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	utils.SetFlagBoolVar(fs, &flagValues.HintsEnabled, KeyHintsEnabled, flagValues.HintsEnabled, "honour query hints and use the hint-aware join ordering passes")
	utils.SetFlagStringSliceVar(fs, &flagValues.DisabledPasses, KeyDisabledPasses, flagValues.DisabledPasses, "optimizer passes to skip, by name")
	utils.SetFlagFloat64Var(fs, &flagValues.DefaultCardinality, KeyDefaultCardinality, flagValues.DefaultCardinality, "cardinality assumed when the estimator fails")
	utils.SetFlagStringVar(fs, &flagValues.HintNamespace, KeyHintNamespace, flagValues.HintNamespace, "predicate namespace of query hints")
	utils.SetFlagDurationVar(fs, &flagValues.EstimatorCacheTTL, KeyEstimatorCacheTTL, flagValues.EstimatorCacheTTL, "how long cardinality estimates are cached, 0 caches forever")
	utils.SetFlagFloat64Var(fs, &flagValues.BloomFalsePositiveRate, KeyBloomFalsePositiveRate, flagValues.BloomFalsePositiveRate, "target false positive rate of the member bloom filters")
	utils.SetFlagStringSliceVar(fs, &flagValues.LocalPredicates, KeyLocalPredicates, flagValues.LocalPredicates, "predicates answered by the default member")
	utils.SetFlagStringSliceVar(fs, &flagValues.LocalNamespaces, KeyLocalNamespaces, flagValues.LocalNamespaces, "predicate namespaces answered by the default member")
}

// Load reads the configuration. file may be empty; fs may be nil.
func Load(fs *pflag.FlagSet, file string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault(KeyHintsEnabled, def.HintsEnabled)
	v.SetDefault(KeyDisabledPasses, def.DisabledPasses)
	v.SetDefault(KeyDefaultCardinality, def.DefaultCardinality)
	v.SetDefault(KeyHintNamespace, def.HintNamespace)
	v.SetDefault(KeyEstimatorCacheTTL, def.EstimatorCacheTTL)
	v.SetDefault(KeyBloomFalsePositiveRate, def.BloomFalsePositiveRate)
	v.SetDefault(KeyLocalPredicates, def.LocalPredicates)
	v.SetDefault(KeyLocalNamespaces, def.LocalNamespaces)

	if fs != nil {
		for _, key := range []string{
			KeyHintsEnabled, KeyDisabledPasses, KeyDefaultCardinality, KeyHintNamespace,
			KeyEstimatorCacheTTL, KeyBloomFalsePositiveRate, KeyLocalPredicates, KeyLocalNamespaces,
		} {
			if f := fs.Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, federrors.Wrapf(err, "binding flag %s", key)
				}
			}
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, federrors.Wrapf(err, "reading config file %s", file)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, federrors.Wrapf(err, "decoding configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have a restricted range.
func (c *Config) Validate() error {
	switch {
	case c.DefaultCardinality <= 0:
		return federrors.Errorf(federrors.InvalidArgument, "%s must be positive, got %v", KeyDefaultCardinality, c.DefaultCardinality)
	case c.BloomFalsePositiveRate <= 0 || c.BloomFalsePositiveRate >= 1:
		return federrors.Errorf(federrors.InvalidArgument, "%s must be between 0 and 1, got %v", KeyBloomFalsePositiveRate, c.BloomFalsePositiveRate)
	case c.HintNamespace == "":
		return federrors.Errorf(federrors.InvalidArgument, "%s must not be empty", KeyHintNamespace)
	}
	return nil
}

// PassDisabled reports whether the named pass was switched off.
func (c *Config) PassDisabled(name string) bool {
	return slices.Contains(c.DisabledPasses, name)
}

// BuildFederation turns the configured members into a Federation, loading
// each member's predicates into a bloom filter. Without configured members the
// federation is a single default member named DefaultSourceID.
func (c *Config) BuildFederation() (*federation.Federation, error) {
	if len(c.Federation) == 0 {
		return federation.New(&federation.Source{ID: DefaultSourceID, Default: true})
	}
	members := make([]*federation.Source, 0, len(c.Federation))
	for _, sc := range c.Federation {
		src := &federation.Source{ID: sc.ID, Endpoint: sc.Endpoint, Default: sc.Default}
		if len(sc.Predicates) > 0 {
			bloom := federation.NewBloom(max(sc.ExpectedItems, len(sc.Predicates)), c.BloomFalsePositiveRate)
			for _, p := range sc.Predicates {
				bloom.Add(p)
			}
			src.Filter = bloom
		}
		members = append(members, src)
	}
	return federation.New(members...)
}

// LocalSpace returns the predicates the default member answers locally.
func (c *Config) LocalSpace() *federation.PropertySpace {
	return federation.NewPropertySpace(c.LocalPredicates, c.LocalNamespaces)
}
