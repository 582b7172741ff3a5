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

package planner

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedopt/fedopt/go/fed/algebra"
	"github.com/fedopt/fedopt/go/fed/stats"
	"github.com/fedopt/fedopt/go/test/utils"
)

func TestPushDownSliceOverUnion(t *testing.T) {
	l, r := pattern("s", "name", "o"), pattern("s", "age", "o")
	s := algebra.NewSlice(&algebra.Union{Left: l, Right: r}, 10, 5)

	out, structural := PushDownSlice(s)

	assert.True(t, structural)
	want := algebra.NewSlice(&algebra.Union{
		Left:  algebra.NewSlice(l, 0, 15),
		Right: algebra.NewSlice(r, 0, 15),
	}, 10, 5)
	utils.MustMatchTree(t, want, out)
	// the input is not touched
	assert.Same(t, l, s.Arg.(*algebra.Union).Left)
}

func TestPushDownSliceOverService(t *testing.T) {
	s := algebra.NewSlice(service("ep", pattern("s", "name", "o")), 0, 5)

	out, structural := PushDownSlice(s)

	assert.False(t, structural)
	assert.Same(t, s, out)
}

func TestPushDownSlice(t *testing.T) {
	a, b, c := pattern("s", "name", "o"), pattern("s", "age", "o"), pattern("s", "knows", "o")
	ranked := &algebra.RankedNaryJoin{Args: []algebra.Node{a, b}}

	tcases := []struct {
		name       string
		in         *algebra.Slice
		want       algebra.Node
		structural bool
	}{
		{
			name:       "nary union branches are bounded",
			in:         algebra.NewSlice(&algebra.NaryUnion{Args: []algebra.Node{a, b, c}}, 2, 3),
			want:       algebra.NewSlice(&algebra.NaryUnion{Args: []algebra.Node{algebra.NewSlice(a, 0, 5), algebra.NewSlice(b, 0, 5), algebra.NewSlice(c, 0, 5)}}, 2, 3),
			structural: true,
		},
		{
			name: "ranked join gets a limit hint",
			in:   algebra.NewSlice(ranked, 3, 4),
			want: algebra.NewSlice(&algebra.RankedNaryJoin{Args: []algebra.Node{a, b}, LimitHint: 7}, 3, 4),
		},
		{
			name:       "projection is transparent",
			in:         algebra.NewSlice(&algebra.Projection{Arg: a, Elems: []algebra.ProjectionElem{{Source: "s", Target: "s"}}}, 1, 2),
			want:       algebra.NewSlice(&algebra.Projection{Arg: algebra.NewSlice(a, 0, 4), Elems: []algebra.ProjectionElem{{Source: "s", Target: "s"}}}, 1, 2),
			structural: true,
		},
		{
			name:       "distinct is transparent",
			in:         algebra.NewSlice(&algebra.Distinct{Arg: &algebra.Reduced{Arg: a}}, 0, 10),
			want:       algebra.NewSlice(&algebra.Distinct{Arg: &algebra.Reduced{Arg: algebra.NewSlice(a, 0, 11)}}, 0, 10),
			structural: true,
		},
		{
			name:       "union below a projection",
			in:         algebra.NewSlice(&algebra.Projection{Arg: &algebra.Union{Left: a, Right: b}}, 0, 10),
			want:       algebra.NewSlice(&algebra.Projection{Arg: &algebra.Union{Left: algebra.NewSlice(a, 0, 10), Right: algebra.NewSlice(b, 0, 10)}}, 0, 10),
			structural: true,
		},
		{
			name: "service below a projection",
			in:   algebra.NewSlice(&algebra.Distinct{Arg: service("ep", a)}, 0, 10),
			want: algebra.NewSlice(&algebra.Distinct{Arg: service("ep", a)}, 0, 10),
		},
		{
			name: "node directly below",
			in:   algebra.NewSlice(&algebra.NaryJoin{Args: []algebra.Node{a, b}}, 0, 10),
			want: algebra.NewSlice(&algebra.NaryJoin{Args: []algebra.Node{a, b}}, 0, 10),
		},
		{
			name: "offset only",
			in:   algebra.NewSlice(&algebra.Union{Left: a, Right: b}, 5, -1),
			want: algebra.NewSlice(&algebra.Union{Left: a, Right: b}, 5, -1),
		},
		{
			name:       "nested union branches",
			in:         algebra.NewSlice(&algebra.Union{Left: &algebra.Union{Left: a, Right: b}, Right: c}, 0, 1),
			want:       algebra.NewSlice(&algebra.Union{Left: algebra.NewSlice(&algebra.Union{Left: algebra.NewSlice(a, 0, 1), Right: algebra.NewSlice(b, 0, 1)}, 0, 1), Right: algebra.NewSlice(c, 0, 1)}, 0, 1),
			structural: true,
		},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			out, structural := PushDownSlice(tc.in)
			assert.Equal(t, tc.structural, structural)
			utils.MustMatchTree(t, tc.want, out)

			again, structural := PushDownSlice(out.(*algebra.Slice))
			assert.False(t, structural)
			assert.Same(t, out, again, "pushing twice changes nothing")
		})
	}
}

func TestPushDownSliceOverflow(t *testing.T) {
	a, b := pattern("s", "name", "o"), pattern("s", "age", "o")
	s := algebra.NewSlice(&algebra.Union{Left: a, Right: b}, math.MaxInt64-1, 10)

	out, _ := PushDownSlice(s)

	branch := out.(*algebra.Slice).Arg.(*algebra.Union).Left.(*algebra.Slice)
	assert.EqualValues(t, math.MaxInt64, branch.Limit)
}

func TestPushDownSlicesPass(t *testing.T) {
	a, b := pattern("s", "name", "o"), pattern("s", "age", "o")
	inner := algebra.NewSlice(&algebra.Union{Left: a, Right: b}, 0, 2)
	root := &algebra.NaryJoin{Args: []algebra.Node{
		algebra.NewSlice(&algebra.Union{Left: a, Right: b}, 1, 1),
		service("ep", inner),
	}}
	before := testutil.ToFloat64(stats.SlicesPushed)

	out, res := pushDownSlices(localOnly(t), root)

	require.True(t, res.Changed())
	assert.Equal(t, before+1, testutil.ToFloat64(stats.SlicesPushed))
	join := out.(*algebra.NaryJoin)
	utils.MustMatchTree(t, algebra.NewSlice(&algebra.Union{Left: algebra.NewSlice(a, 0, 2), Right: algebra.NewSlice(b, 0, 2)}, 1, 1), join.Args[0])
	assert.Same(t, root.Args[1], join.Args[1], "slices inside a service are left alone")
}
