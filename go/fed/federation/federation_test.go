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

package federation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedopt/fedopt/go/fed/federrors"
)

func TestBloomHasNoFalseNegatives(t *testing.T) {
	const n = 10000
	b := NewBloom(n, 0.01)
	for i := 0; i < n; i++ {
		b.Add(fmt.Sprintf("http://ex.org/p%d", i))
	}
	for i := 0; i < n; i++ {
		ok, err := b.MayContain(fmt.Sprintf("http://ex.org/p%d", i))
		require.NoError(t, err)
		require.True(t, ok, "key %d missing", i)
	}

	falsePositives := 0
	for i := 0; i < n; i++ {
		if ok, _ := b.MayContain(fmt.Sprintf("http://other.org/q%d", i)); ok {
			falsePositives++
		}
	}
	// generous bound, the target rate is 1%
	assert.Less(t, falsePositives, n/20)
}

func TestBloomSizing(t *testing.T) {
	b := NewBloom(0, 5)
	assert.GreaterOrEqual(t, b.Hashes(), 1)
	ok, err := b.MayContain("anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewFederation(t *testing.T) {
	tcases := []struct {
		name    string
		members []*Source
		wantErr string
	}{
		{name: "no default", members: []*Source{{ID: "a"}}, wantErr: "FED09002: federation needs exactly one default member, got 0"},
		{name: "two defaults", members: []*Source{{ID: "a", Default: true}, {ID: "b", Default: true}}, wantErr: "got 2"},
		{name: "duplicate", members: []*Source{{ID: "a", Default: true}, {ID: "a"}}, wantErr: "duplicate federation member 'a'"},
		{name: "missing id", members: []*Source{{Default: true}}, wantErr: "federation member without an id"},
		{name: "ok", members: []*Source{{ID: "a", Default: true}, {ID: "b"}}},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := New(tc.members...)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				assert.Equal(t, federrors.InvalidArgument, federrors.Code(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a", f.Default().ID)
			assert.Len(t, f.Members(), 2)
		})
	}
}

func TestLookupAndResolve(t *testing.T) {
	filter := NewBloom(10, 0.01)
	f, err := New(
		&Source{ID: "local", Default: true},
		&Source{ID: "dbpedia", Endpoint: "http://dbpedia.org/sparql", Filter: filter},
	)
	require.NoError(t, err)

	s, err := f.Lookup("dbpedia")
	require.NoError(t, err)
	assert.Equal(t, "http://dbpedia.org/sparql", s.Endpoint)

	_, err = f.Lookup("wikidata")
	assert.Equal(t, federrors.NotFound, federrors.Code(err))
	assert.Equal(t, "FED05001", federrors.ID(err))

	s, ok := f.ResolveEndpoint("http://dbpedia.org/sparql")
	require.True(t, ok)
	assert.Equal(t, "dbpedia", s.ID)
	s, ok = f.ResolveEndpoint("local")
	require.True(t, ok)
	assert.True(t, s.Default)
	_, ok = f.ResolveEndpoint("http://elsewhere.org/sparql")
	assert.False(t, ok)

	assert.Same(t, filter, f.FilterFor("dbpedia"))
	assert.Equal(t, AlwaysMaybe, f.FilterFor("local"))
	assert.Equal(t, AlwaysMaybe, f.FilterFor("unknown"))
}

func TestFilterMap(t *testing.T) {
	b := NewBloom(1, 0.01)
	m := FilterMap{"a": b}
	assert.Same(t, b, m.FilterFor("a"))
	ok, err := m.FilterFor("b").MayContain("x")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPropertySpace(t *testing.T) {
	ps := NewPropertySpace([]string{"http://ex.org/label"}, []string{"http://local.org/", ""})
	assert.True(t, ps.IsLocal("http://ex.org/label"))
	assert.True(t, ps.IsLocal("http://local.org/anything"))
	assert.False(t, ps.IsLocal("http://ex.org/name"))

	var none *PropertySpace
	assert.False(t, none.IsLocal("http://ex.org/label"))
}
