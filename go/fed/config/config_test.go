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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedopt/fedopt/go/fed/federation"
	"github.com/fedopt/fedopt/go/fed/federrors"
	"github.com/fedopt/fedopt/go/fed/hints"
)

const federationYAML = `
default-cardinality: 250
disabled-passes: [service_optimizer]
local-namespaces: ["http://local.org/"]
federation:
  - id: local
    default: true
  - id: dbpedia
    endpoint: http://dbpedia.org/sparql
    expected-items: 100
    predicates:
      - http://dbpedia.org/ontology/birthPlace
      - http://dbpedia.org/ontology/author
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fedopt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, "")
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.HintsEnabled, cfg.HintsEnabled)
	assert.Equal(t, def.DefaultCardinality, cfg.DefaultCardinality)
	assert.Equal(t, def.HintNamespace, cfg.HintNamespace)
	assert.Equal(t, def.EstimatorCacheTTL, cfg.EstimatorCacheTTL)
	assert.Equal(t, def.BloomFalsePositiveRate, cfg.BloomFalsePositiveRate)
	assert.Empty(t, cfg.DisabledPasses)
	assert.Empty(t, cfg.Federation)
	assert.Empty(t, cfg.LocalPredicates)
}

func TestLoadFile(t *testing.T) {
	cfg, err := Load(nil, writeConfig(t, federationYAML))
	require.NoError(t, err)

	assert.Equal(t, 250.0, cfg.DefaultCardinality)
	assert.True(t, cfg.PassDisabled("service_optimizer"))
	assert.False(t, cfg.PassDisabled("slice_pushdown"))
	assert.Equal(t, hints.DefaultNamespace, cfg.HintNamespace)
	require.Len(t, cfg.Federation, 2)
	assert.Equal(t, SourceConfig{
		ID:            "dbpedia",
		Endpoint:      "http://dbpedia.org/sparql",
		ExpectedItems: 100,
		Predicates:    []string{"http://dbpedia.org/ontology/birthPlace", "http://dbpedia.org/ontology/author"},
	}, cfg.Federation[1])

	assert.True(t, cfg.LocalSpace().IsLocal("http://local.org/name"))
}

func TestPrecedence(t *testing.T) {
	path := writeConfig(t, "default-cardinality: 250\nhints-enabled: false\nestimator-cache-ttl: 1m\n")
	t.Setenv("FEDOPT_DEFAULT_CARDINALITY", "500")
	t.Setenv("FEDOPT_ESTIMATOR_CACHE_TTL", "30s")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--default-cardinality=750", "--disabled-passes=a,b"}))

	cfg, err := Load(fs, path)
	require.NoError(t, err)
	// flag beats env beats file
	assert.Equal(t, 750.0, cfg.DefaultCardinality)
	assert.Equal(t, 30*time.Second, cfg.EstimatorCacheTTL)
	assert.False(t, cfg.HintsEnabled)
	assert.Equal(t, []string{"a", "b"}, cfg.DisabledPasses)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "reading config file")

	_, err = Load(nil, writeConfig(t, "default-cardinality: -1\n"))
	require.ErrorContains(t, err, "default-cardinality must be positive")
	assert.Equal(t, federrors.InvalidArgument, federrors.Code(err))

	_, err = Load(nil, writeConfig(t, "bloom-false-positive-rate: 1.5\n"))
	require.ErrorContains(t, err, "bloom-false-positive-rate must be between 0 and 1")
}

func TestBuildFederation(t *testing.T) {
	cfg, err := Load(nil, writeConfig(t, federationYAML))
	require.NoError(t, err)

	fed, err := cfg.BuildFederation()
	require.NoError(t, err)
	assert.Equal(t, "local", fed.Default().ID)
	assert.Equal(t, federation.AlwaysMaybe, fed.FilterFor("local"))

	filter := fed.FilterFor("dbpedia")
	for _, p := range cfg.Federation[1].Predicates {
		ok, err := filter.MayContain(p)
		require.NoError(t, err)
		assert.True(t, ok, p)
	}

	s, ok := fed.ResolveEndpoint("http://dbpedia.org/sparql")
	require.True(t, ok)
	assert.Equal(t, "dbpedia", s.ID)
}

func TestBuildFederationWithoutMembers(t *testing.T) {
	fed, err := Default().BuildFederation()
	require.NoError(t, err)
	require.Len(t, fed.Members(), 1)
	assert.Equal(t, DefaultSourceID, fed.Default().ID)
}

func TestBuildFederationNeedsOneDefault(t *testing.T) {
	cfg := Default()
	cfg.Federation = []SourceConfig{{ID: "a"}, {ID: "b"}}
	_, err := cfg.BuildFederation()
	require.Error(t, err)
	assert.Equal(t, "FED09002", federrors.ID(err))
}
