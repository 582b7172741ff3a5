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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nsf/jsondiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedopt/fedopt/go/fed/federrors"
	"github.com/fedopt/fedopt/go/fed/planner"
	"github.com/fedopt/fedopt/go/test/utils"
)

const federationFile = "testdata/federation.yaml"

func TestMain(m *testing.M) {
	code := m.Run()
	if code == 0 {
		if err := utils.GetLeaks(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			code = 1
		}
	}
	os.Exit(code)
}

// run executes fedopt with args and returns what it printed.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := Main()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

type optimizeCase struct {
	Comment string          `json:"comment"`
	Query   json.RawMessage `json:"query"`
	Plan    json.RawMessage `json:"plan"`
}

func readOptimizeCases(t *testing.T, filename string) []optimizeCase {
	t.Helper()
	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	var cases []optimizeCase
	require.NoError(t, json.Unmarshal(data, &cases))
	return cases
}

func TestOptimizeCases(t *testing.T) {
	opts := jsondiff.DefaultConsoleOptions()
	for _, tcase := range readOptimizeCases(t, "testdata/optimize_cases.json") {
		t.Run(tcase.Comment, func(t *testing.T) {
			out, err := run(t, string(tcase.Query), "--config-file", federationFile, "optimize", "-")
			require.NoError(t, err)

			compare, s := jsondiff.Compare(tcase.Plan, []byte(out), &opts)
			if compare != jsondiff.FullMatch {
				t.Errorf("Diff:\n%s\n[%s] \n[%s]", s, tcase.Plan, out)
			}
		})
	}
}

func TestOptimizeFile(t *testing.T) {
	query := `{"kind": "statement_pattern", "subject": {"var": "s"}, "predicate": {"iri": "http://ex.org/name"}, "object": {"var": "n"}}`
	path := filepath.Join(t.TempDir(), "query.json")
	require.NoError(t, os.WriteFile(path, []byte(query), 0o644))

	out, err := run(t, "", "optimize", path)
	require.NoError(t, err)

	var plan map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Equal(t, "single_owner", plan["path"])
	assert.Equal(t, "local", plan["owner"], "the federation defaults to a single local member")
}

func TestOptimizeBindings(t *testing.T) {
	query := `{
  "kind": "join",
  "left": {"kind": "statement_pattern", "subject": {"var": "x"}, "predicate": {"iri": "http://ex.org/name"}, "object": {"var": "n"}},
  "right": {"kind": "statement_pattern", "subject": {"var": "x"}, "predicate": {"iri": "http://ex.org/knows"}, "object": {"var": "f"}}
}`

	out, err := run(t, query, "--config-file", federationFile, "optimize", "--bind", "x=<http://ex.org/alice>", "-")
	require.NoError(t, err)

	assert.Contains(t, out, `SELECT ?n ?x WHERE { <http://ex.org/alice> <http://ex.org/name> ?n . }`)
	assert.Contains(t, out, `SELECT ?f ?x WHERE { <http://ex.org/alice> <http://ex.org/knows> ?f . }`)
}

func TestOptimizeErrors(t *testing.T) {
	_, err := run(t, "", "optimize", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "reading the query tree")

	_, err = run(t, `{"kind": "statement_pattern"`, "optimize", "-")
	assert.EqualError(t, err, "FED09001: malformed query tree: document is not valid JSON")

	_, err = run(t, `{"kind": "join", "left": {"kind": "singleton_set"}}`, "optimize", "-")
	assert.ErrorContains(t, err, "FED09001")

	_, err = run(t, `{"kind": "singleton_set"}`, "optimize", "--bind", "x=alice", "-")
	assert.Equal(t, federrors.InvalidArgument, federrors.Code(err))

	_, err = run(t, "", "optimize")
	assert.Error(t, err)
}

func TestOptimizeMalformedTree(t *testing.T) {
	query := `{
  "kind": "union",
  "left": {"kind": "statement_pattern", "subject": {"var": "s"}, "predicate": {"iri": "http://ex.org/knows"}, "object": {"var": "f"}},
  "right": {"kind": "statement_pattern", "subject": {"var": "s"}, "predicate": {"iri": "http://ex.org/name"}, "object": {"var": "n"}}
}`

	_, err := run(t, query, "--config-file", federationFile, "optimize", "-")

	require.Error(t, err)
	assert.Equal(t, "FED09001", federrors.ID(err))
}

func TestExplain(t *testing.T) {
	tcases := readOptimizeCases(t, "testdata/optimize_cases.json")

	out, err := run(t, string(tcases[1].Query), "--config-file", federationFile, "explain", "--verbose", "-")
	require.NoError(t, err)

	assert.Contains(t, out, "path: pipeline")
	assert.Contains(t, out, "hints: joinOrder=fixed")
	assert.Contains(t, out, "Owned (@remote prepared)")
	assert.Contains(t, out, planner.FederationJoinOptimizer)
	assert.Contains(t, out, planner.SlicePushdown)

	out, err = run(t, string(tcases[0].Query), "--config-file", federationFile, "explain", "-")
	require.NoError(t, err)

	assert.Contains(t, out, "path: single_owner")
	assert.Contains(t, out, "owner: local")
	assert.NotContains(t, out, planner.FederationJoinOptimizer)
}

func TestPasses(t *testing.T) {
	out, err := run(t, "", "passes", "--json")
	require.NoError(t, err)
	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	pipeline, err := planner.NewPipeline(nil)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Names(), names)

	out, err = run(t, "", "--hints-enabled=false", "--disabled-passes", planner.SlicePushdown, "passes")
	require.NoError(t, err)
	assert.Contains(t, out, planner.LegacyMultiJoinOptimizer)
	assert.NotContains(t, out, planner.JoinOrderOptimizer)
	assert.NotContains(t, out, planner.SlicePushdown)

	_, err = run(t, "", "--disabled_passes", "join_reorderer", "passes")
	assert.EqualError(t, err, "unknown optimizer pass 'join_reorderer'")
}

func TestMetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.txt")
	query := `{"kind": "statement_pattern", "subject": {"var": "s"}, "predicate": {"iri": "http://ex.org/name"}, "object": {"var": "n"}}`

	_, err := run(t, query, "--metrics-file", path, "optimize", "-")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `fedopt_optimizations_total{path="single_owner"}`)
}

func TestConfigFileErrors(t *testing.T) {
	_, err := run(t, "", "--config-file", filepath.Join(t.TempDir(), "missing.yaml"), "passes")
	assert.ErrorContains(t, err, "reading config file")

	_, err = run(t, "", "--bloom-false-positive-rate", "2", "passes")
	assert.Equal(t, federrors.InvalidArgument, federrors.Code(err))
}
