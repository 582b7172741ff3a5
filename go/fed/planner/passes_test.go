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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedopt/fedopt/go/fed/algebra"
	"github.com/fedopt/fedopt/go/fed/hints"
	"github.com/fedopt/fedopt/go/test/utils"
)

var alice = algebra.NewIRI(ex + "alice")

func constant(t algebra.Term) *algebra.Constant { return &algebra.Constant{Value: t} }

func TestBindingsFoldFilters(t *testing.T) {
	ctx := localOnly(t)
	ctx.Bindings = algebra.BindingSet{"x": alice}
	root := &algebra.Filter{
		Arg:       pattern("x", "name", "n"),
		Condition: &algebra.Compare{Left: algebra.NewVar("x"), Right: constant(alice), Op: algebra.EQ},
	}

	bound, res := assignBindings(ctx, root)
	require.True(t, res.Changed())
	out, res := optimizeConstants(ctx, bound)
	require.True(t, res.Changed())

	want := &algebra.StatementPattern{Subject: algebra.NewVar("x").WithValue(alice), Predicate: iri(ex + "name"), Object: algebra.NewVar("n")}
	utils.MustMatchTree(t, want, out)
	assert.Equal(t, []string{"n", "x"}, out.BindingNames(), "a bound variable keeps its name")
}

func TestOptimizeConstants(t *testing.T) {
	sp := pattern("s", "name", "n")
	unrelated := &algebra.Compare{Left: constant(algebra.NewLiteral("a")), Right: constant(alice), Op: algebra.LT}

	tcases := []struct {
		name string
		in   algebra.Node
		want algebra.Node
	}{
		{
			name: "filter that never holds",
			in:   &algebra.Filter{Arg: sp, Condition: falseExpr},
			want: &algebra.EmptySet{Names: []string{"n", "s"}},
		},
		{
			name: "filter that always holds",
			in:   &algebra.Filter{Arg: sp, Condition: &algebra.Not{Arg: constant(algebra.NewInteger(0))}},
			want: sp,
		},
		{
			name: "conjunction with a true side",
			in:   &algebra.Filter{Arg: sp, Condition: &algebra.And{Left: trueExpr, Right: &algebra.Bound{Var: algebra.NewVar("n")}}},
			want: &algebra.Filter{Arg: sp, Condition: &algebra.Bound{Var: algebra.NewVar("n")}},
		},
		{
			name: "comparison that cannot be decided",
			in:   &algebra.Filter{Arg: sp, Condition: unrelated},
			want: &algebra.Filter{Arg: sp, Condition: unrelated},
		},
		{
			name: "join condition that always holds",
			in:   &algebra.LeftJoin{Left: sp, Right: pattern("s", "age", "a"), Condition: &algebra.Bound{Var: algebra.NewVar("s").WithValue(alice)}},
			want: &algebra.LeftJoin{Left: sp, Right: pattern("s", "age", "a")},
		},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			out, _ := optimizeConstants(localOnly(t), tc.in)
			utils.MustMatchTree(t, tc.want, out)
		})
	}
}

func TestOptimizeCompares(t *testing.T) {
	sp := pattern("s", "name", "n")
	toResource := &algebra.Filter{Arg: sp, Condition: &algebra.Compare{Left: constant(alice), Right: algebra.NewVar("s"), Op: algebra.EQ}}
	toLiteral := &algebra.Filter{Arg: sp, Condition: &algebra.Compare{Left: algebra.NewVar("n"), Right: constant(algebra.NewLiteral("Bob")), Op: algebra.EQ}}

	out, res := optimizeCompares(localOnly(t), toResource)
	require.True(t, res.Changed())
	utils.MustMatchTree(t, &algebra.Filter{Arg: sp, Condition: &algebra.SameTerm{Left: constant(alice), Right: algebra.NewVar("s")}}, out)

	out, res = optimizeCompares(localOnly(t), toLiteral)
	assert.False(t, res.Changed())
	assert.Same(t, toLiteral, out)
}

func TestSplitConjunctions(t *testing.T) {
	sp := pattern("s", "name", "n")
	a := &algebra.Bound{Var: algebra.NewVar("s")}
	b := &algebra.Bound{Var: algebra.NewVar("n")}
	c := &algebra.SameTerm{Left: algebra.NewVar("s"), Right: constant(alice)}
	root := &algebra.Filter{Arg: sp, Condition: &algebra.And{Left: &algebra.And{Left: a, Right: b}, Right: c}}

	out, res := splitConjunctions(localOnly(t), root)

	require.True(t, res.Changed())
	want := &algebra.Filter{Condition: a, Arg: &algebra.Filter{Condition: b, Arg: &algebra.Filter{Condition: c, Arg: sp}}}
	utils.MustMatchTree(t, want, out)
}

func TestOptimizeDisjunctions(t *testing.T) {
	sp := pattern("s", "name", "n")
	st := &algebra.SameTerm{Left: algebra.NewVar("s"), Right: constant(alice)}
	other := &algebra.Compare{Left: algebra.NewVar("n"), Right: constant(algebra.NewLiteral("Bob")), Op: algebra.EQ}

	out, res := optimizeDisjunctions(localOnly(t), &algebra.Filter{Arg: sp, Condition: &algebra.Or{Left: st, Right: other}})

	require.True(t, res.Changed())
	want := &algebra.Union{
		Left:  &algebra.Filter{Arg: sp, Condition: st},
		Right: &algebra.Filter{Arg: &algebra.Filter{Arg: sp, Condition: &algebra.Not{Arg: st}}, Condition: other},
	}
	utils.MustMatchTree(t, want, out)
	u := out.(*algebra.Union)
	assert.Equal(t, u.Left.BindingNames(), u.Right.BindingNames())

	plain := &algebra.Filter{Arg: sp, Condition: &algebra.Or{Left: other, Right: other}}
	out, res = optimizeDisjunctions(localOnly(t), plain)
	assert.False(t, res.Changed())
	assert.Same(t, plain, out)
}

func TestOptimizeDisjunctionsKeepsFallibleLeft(t *testing.T) {
	optional := &algebra.LeftJoin{Left: pattern("s", "name", "y"), Right: pattern("s", "knows", "x")}
	cases := []struct {
		name string
		cond algebra.ValueExpr
	}{{
		name: "sameTerm over an optional variable",
		cond: &algebra.Or{
			Left:  &algebra.SameTerm{Left: algebra.NewVar("x"), Right: constant(alice)},
			Right: &algebra.Bound{Var: algebra.NewVar("y")},
		},
	}, {
		name: "comparison on the left",
		cond: &algebra.Or{
			Left:  &algebra.Compare{Left: algebra.NewVar("y"), Right: constant(algebra.NewLiteral("Bob")), Op: algebra.EQ},
			Right: &algebra.SameTerm{Left: algebra.NewVar("s"), Right: constant(alice)},
		},
	}}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := &algebra.Filter{Arg: optional, Condition: tc.cond}
			out, res := optimizeDisjunctions(localOnly(t), in)
			assert.False(t, res.Changed())
			assert.Same(t, in, out)
		})
	}

	// ?s is bound on the left of the optional, so its sameTerm cannot fail.
	st := &algebra.SameTerm{Left: algebra.NewVar("s"), Right: constant(alice)}
	in := &algebra.Filter{Arg: optional, Condition: &algebra.Or{Left: st, Right: &algebra.Bound{Var: algebra.NewVar("x")}}}
	out, res := optimizeDisjunctions(localOnly(t), in)
	require.True(t, res.Changed())
	assert.IsType(t, &algebra.Union{}, out)
}

func TestOptimizeSameTerms(t *testing.T) {
	fixed := func(name string) *algebra.Var { return algebra.NewVar(name).WithValue(alice) }
	st := func(name string) *algebra.SameTerm {
		return &algebra.SameTerm{Left: algebra.NewVar(name), Right: constant(alice)}
	}

	t.Run("mandatory variable", func(t *testing.T) {
		root := &algebra.Filter{Condition: st("s"), Arg: &algebra.Join{Left: pattern("s", "name", "n"), Right: pattern("s", "age", "a")}}

		out, res := optimizeSameTerms(localOnly(t), root)

		require.True(t, res.Changed())
		want := &algebra.Join{
			Left:  &algebra.StatementPattern{Subject: fixed("s"), Predicate: iri(ex + "name"), Object: algebra.NewVar("n")},
			Right: &algebra.StatementPattern{Subject: fixed("s"), Predicate: iri(ex + "age"), Object: algebra.NewVar("a")},
		}
		utils.MustMatchTree(t, want, out)
	})

	for _, tc := range []struct {
		name string
		root algebra.Node
	}{
		{
			name: "variable of the optional side",
			root: &algebra.Filter{Condition: st("f"), Arg: &algebra.LeftJoin{Left: pattern("s", "name", "n"), Right: pattern("s", "knows", "f")}},
		},
		{
			name: "below a projection",
			root: &algebra.Filter{Condition: st("s"), Arg: &algebra.Projection{Arg: pattern("s", "name", "n"), Elems: []algebra.ProjectionElem{{Source: "s", Target: "s"}}}},
		},
		{
			name: "sliced input",
			root: &algebra.Filter{Condition: st("s"), Arg: &algebra.Join{Left: pattern("s", "name", "n"), Right: algebra.NewSlice(pattern("s", "age", "a"), 0, 1)}},
		},
		{
			name: "two constants",
			root: &algebra.Filter{Condition: &algebra.SameTerm{Left: constant(alice), Right: constant(alice)}, Arg: pattern("s", "name", "n")},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out, res := optimizeSameTerms(localOnly(t), tc.root)
			assert.False(t, res.Changed())
			assert.Same(t, tc.root, out)
		})
	}
}

func TestPruneQueryModel(t *testing.T) {
	a, b := pattern("s", "name", "n"), pattern("s", "age", "a")
	empty := func(n algebra.Node) *algebra.EmptySet { return &algebra.EmptySet{Names: n.BindingNames()} }

	tcases := []struct {
		name string
		in   algebra.Node
		want algebra.Node
	}{
		{name: "join with an empty side", in: &algebra.Join{Left: empty(a), Right: b}, want: &algebra.EmptySet{Names: []string{"a", "n", "s"}}},
		{name: "join with the empty row", in: &algebra.Join{Left: &algebra.SingletonSet{}, Right: b}, want: b},
		{name: "nary join drops empty rows", in: &algebra.NaryJoin{Args: []algebra.Node{&algebra.SingletonSet{}, a, b}}, want: &algebra.NaryJoin{Args: []algebra.Node{a, b}}},
		{name: "nary join left with one operand", in: &algebra.NaryJoin{Args: []algebra.Node{&algebra.SingletonSet{}, a}}, want: a},
		{name: "ranked join with an empty operand", in: &algebra.RankedNaryJoin{Args: []algebra.Node{a, empty(b)}}, want: &algebra.EmptySet{Names: []string{"a", "n", "s"}}},
		{name: "optional without rows", in: &algebra.LeftJoin{Left: a, Right: &algebra.EmptySet{Names: []string{"s"}}}, want: a},
		{name: "optional without rows binds more", in: &algebra.LeftJoin{Left: a, Right: empty(b)}, want: &algebra.LeftJoin{Left: a, Right: empty(b)}},
		{name: "optional of nothing", in: &algebra.LeftJoin{Left: empty(a), Right: b}, want: &algebra.EmptySet{Names: []string{"a", "n", "s"}}},
		{name: "union branch without rows", in: &algebra.Union{Left: empty(a), Right: a}, want: a},
		{name: "nary union branches without rows", in: &algebra.NaryUnion{Args: []algebra.Node{empty(a), a, empty(a)}}, want: a},
		{name: "nary union keeps the rest", in: &algebra.NaryUnion{Args: []algebra.Node{a, empty(a), a}}, want: &algebra.NaryUnion{Args: []algebra.Node{a, a}}},
		{
			name: "emptiness travels up",
			in: &algebra.Projection{
				Elems: []algebra.ProjectionElem{{Source: "s", Target: "s"}},
				Arg:   algebra.NewSlice(&algebra.Filter{Arg: &algebra.NaryJoin{Args: []algebra.Node{empty(a), b}}, Condition: trueExpr}, 0, 1),
			},
			want: &algebra.EmptySet{Names: []string{"s"}},
		},
		{name: "nothing to prune", in: &algebra.NaryJoin{Args: []algebra.Node{a, b}}, want: &algebra.NaryJoin{Args: []algebra.Node{a, b}}},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			out, _ := pruneQueryModel(localOnly(t), tc.in)
			utils.MustMatchTree(t, tc.want, out)
		})
	}
}

func TestExtractNaryJoins(t *testing.T) {
	a, b, c := pattern("s", "name", "o"), pattern("s", "age", "o"), pattern("s", "knows", "o")
	fixed := &algebra.NaryJoin{Args: []algebra.Node{a, b}, Fixed: true}

	tcases := []struct {
		name string
		in   algebra.Node
		want algebra.Node
	}{
		{name: "nested joins", in: &algebra.Join{Left: &algebra.Join{Left: a, Right: b}, Right: c}, want: &algebra.NaryJoin{Args: []algebra.Node{a, b, c}}},
		{name: "fixed joins stay whole", in: &algebra.Join{Left: fixed, Right: c}, want: &algebra.NaryJoin{Args: []algebra.Node{fixed, c}}},
		{name: "nested unions", in: &algebra.Union{Left: a, Right: &algebra.Union{Left: b, Right: c}}, want: &algebra.NaryUnion{Args: []algebra.Node{a, b, c}}},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			out, res := extractNaryJoins(localOnly(t), tc.in)
			assert.True(t, res.Changed())
			utils.MustMatchTree(t, tc.want, out)
		})
	}
}

func TestExtractQueryHints(t *testing.T) {
	ctx := localOnly(t)
	a := pattern("s", "name", "n")

	out, res := extractQueryHints(ctx, &algebra.NaryJoin{Args: []algebra.Node{hintPattern(hints.JoinOrder, "fixed"), a, hintPattern("bogus", "x")}})

	assert.True(t, res.Changed())
	assert.Same(t, a, out)
	assert.True(t, ctx.Hints.FixedJoinOrder())
	assert.Equal(t, "joinOrder=fixed", ctx.Hints.String())
}

func TestLegacyMultiJoin(t *testing.T) {
	ctx := localOnly(t)
	ctx.Config.HintsEnabled = false
	a, b := pattern("s", "name", "n"), pattern("s", "knows", "f")
	ctx.Estimator = cardinalities(map[algebra.Node]float64{a: 1000, b: 10})

	out, res := legacyMultiJoin(ctx, &algebra.Join{Left: a, Right: &algebra.Join{Left: b, Right: hintPattern(hints.JoinOrder, "fixed")}})

	assert.True(t, res.Changed())
	assert.Nil(t, ctx.Hints, "hints are not read")
	utils.MustMatchTree(t, &algebra.NaryJoin{Args: []algebra.Node{b, a}}, out)
}

func TestJoinOrderPasses(t *testing.T) {
	a, b := pattern("s", "name", "n"), pattern("s", "knows", "f")
	est := cardinalities(map[algebra.Node]float64{a: 1000, b: 10})

	t.Run("cost order", func(t *testing.T) {
		ctx := localOnly(t)
		ctx.Estimator = est
		out, res := optimizeJoinOrder(ctx, &algebra.Distinct{Arg: &algebra.NaryJoin{Args: []algebra.Node{a, b}}})
		assert.True(t, res.Changed())
		utils.MustMatchTree(t, &algebra.Distinct{Arg: &algebra.NaryJoin{Args: []algebra.Node{b, a}}}, out)
	})

	t.Run("fixed order", func(t *testing.T) {
		ctx := localOnly(t)
		ctx.Estimator = est
		ctx.Hints = &hints.Setup{JoinOrder: hints.JoinOrderFixed}
		root := &algebra.NaryJoin{Args: []algebra.Node{a, b}}

		synced, res := synchronizeHints(ctx, root)
		require.True(t, res.Changed())
		out, res := optimizeJoinOrder(ctx, synced)

		assert.False(t, res.Changed())
		utils.MustMatchTree(t, &algebra.NaryJoin{Args: []algebra.Node{a, b}, Fixed: true}, out)
	})

	t.Run("owned joins", func(t *testing.T) {
		ctx := localOnly(t)
		ctx.Estimator = est
		root := &algebra.Owned{Source: "local", Arg: &algebra.NaryJoin{Args: []algebra.Node{a, b}}}

		out, res := optimizeJoinOrder(ctx, root)
		assert.False(t, res.Changed())
		assert.Same(t, root, out)

		out, res = reorderOwned(ctx, root)
		assert.True(t, res.Changed())
		utils.MustMatchTree(t, &algebra.Owned{Source: "local", Arg: &algebra.NaryJoin{Args: []algebra.Node{b, a}}}, out)

		ctx.Hints = &hints.Setup{JoinOrder: hints.JoinOrderCost, LocalReorder: false}
		out, _ = reorderOwned(ctx, root)
		assert.Same(t, root, out)
	})
}

func TestOptimizeServices(t *testing.T) {
	knows := pattern("s", "knows", "f")
	member := &algebra.Service{Endpoint: iri(remoteEndpoint), Arg: knows}

	out, res := optimizeServices(localAndRemote(t), member)
	require.True(t, res.Changed())
	utils.MustMatchTree(t, &algebra.Owned{Source: "remote", Arg: knows}, out)

	for _, tc := range []struct {
		name  string
		root  algebra.Node
		setup *hints.Setup
	}{
		{name: "silent", root: &algebra.Service{Endpoint: iri(remoteEndpoint), Arg: knows, Silent: true}},
		{name: "variable endpoint", root: service("ep", knows)},
		{name: "unknown endpoint", root: &algebra.Service{Endpoint: iri("http://elsewhere.org/sparql"), Arg: knows}},
		{name: "inlining switched off", root: member, setup: &hints.Setup{InlineService: false}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := localAndRemote(t)
			ctx.Hints = tc.setup
			out, res := optimizeServices(ctx, tc.root)
			assert.False(t, res.Changed())
			assert.Same(t, tc.root, out)
		})
	}
}

func TestOptimizeFederationJoins(t *testing.T) {
	name1, name2 := pattern("s", "name", "n"), pattern("x", "name", "m")
	knows := pattern("s", "knows", "f")
	cond := &algebra.Bound{Var: algebra.NewVar("n")}
	call := service("ep", name2)

	tcases := []struct {
		name string
		in   algebra.Node
		want algebra.Node
	}{
		{
			name: "neighbouring operands are grouped",
			in:   &algebra.NaryJoin{Args: []algebra.Node{name1, name2, knows}},
			want: &algebra.NaryJoin{Args: []algebra.Node{
				&algebra.Owned{Source: "local", Arg: &algebra.NaryJoin{Args: []algebra.Node{name1, name2}}},
				&algebra.Owned{Source: "remote", Arg: knows},
			}},
		},
		{
			name: "single owner sub-tree",
			in:   &algebra.Filter{Condition: cond, Arg: &algebra.NaryJoin{Args: []algebra.Node{name1, name2}}},
			want: &algebra.Owned{Source: "local", Arg: &algebra.Filter{Condition: cond, Arg: &algebra.NaryJoin{Args: []algebra.Node{name1, name2}}}},
		},
		{
			name: "remote calls are never owned",
			in:   &algebra.NaryJoin{Args: []algebra.Node{name1, call}},
			want: &algebra.NaryJoin{Args: []algebra.Node{&algebra.Owned{Source: "local", Arg: name1}, call}},
		},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			out, res := optimizeFederationJoins(localAndRemote(t), tc.in)
			assert.True(t, res.Changed())
			utils.MustMatchTree(t, tc.want, out)
		})
	}
}

func TestPruneOwnedTupleExprs(t *testing.T) {
	a, b := pattern("s", "name", "n"), pattern("s", "age", "a")

	out, res := pruneOwnedTupleExprs(localOnly(t), &algebra.Owned{Source: "local", Arg: &algebra.NaryJoin{Args: []algebra.Node{
		&algebra.Owned{Source: "local", Arg: a}, b,
	}}})
	require.True(t, res.Changed())
	utils.MustMatchTree(t, &algebra.Owned{Source: "local", Arg: &algebra.NaryJoin{Args: []algebra.Node{a, b}}}, out)

	other := &algebra.Owned{Source: "local", Arg: &algebra.Owned{Source: "remote", Arg: a}}
	out, res = pruneOwnedTupleExprs(localOnly(t), other)
	assert.False(t, res.Changed())
	assert.Same(t, other, out)

	out, _ = pruneOwnedTupleExprs(localOnly(t), &algebra.NaryJoin{Args: []algebra.Node{a}})
	assert.Same(t, a, out)
}

func TestRenderQuery(t *testing.T) {
	name, age := pattern("s", "name", "n"), pattern("s", "age", "a")
	xsdInteger := "^^<" + algebra.XSDInteger + ">"

	tcases := []struct {
		name    string
		node    algebra.Node
		dataset *algebra.Dataset
		want    string
	}{
		{
			name:    "pattern over a dataset",
			node:    name,
			dataset: &algebra.Dataset{DefaultGraphs: []algebra.Term{algebra.NewIRI(ex + "g")}, NamedGraphs: []algebra.Term{algebra.NewIRI(ex + "h")}},
			want:    "SELECT ?n ?s FROM <http://ex.org/g> FROM NAMED <http://ex.org/h> WHERE { ?s <http://ex.org/name> ?n . }",
		},
		{
			name: "join with a filter",
			node: &algebra.NaryJoin{Args: []algebra.Node{name, &algebra.Filter{Arg: age, Condition: &algebra.Compare{Left: algebra.NewVar("a"), Right: constant(algebra.NewInteger(30)), Op: algebra.GT}}}},
			want: `SELECT ?a ?n ?s WHERE { ?s <http://ex.org/name> ?n . { ?s <http://ex.org/age> ?a . FILTER ((?a > "30"` + xsdInteger + `)) } }`,
		},
		{
			name: "sliced union",
			node: algebra.NewSlice(&algebra.Union{Left: pattern("s", "name", "o"), Right: pattern("s", "age", "o")}, 0, 5),
			want: "SELECT ?o ?s WHERE { { SELECT * WHERE { { ?s <http://ex.org/name> ?o . } UNION { ?s <http://ex.org/age> ?o . } } OFFSET 0 LIMIT 5 } }",
		},
		{
			name: "optional with a bound value",
			node: &algebra.LeftJoin{
				Left:      &algebra.StatementPattern{Subject: algebra.NewVar("s").WithValue(alice), Predicate: iri(ex + "name"), Object: algebra.NewVar("n")},
				Right:     pattern("s", "age", "a"),
				Condition: &algebra.Bound{Var: algebra.NewVar("a")},
			},
			want: "SELECT ?a ?n ?s WHERE { <http://ex.org/alice> <http://ex.org/name> ?n . OPTIONAL { ?s <http://ex.org/age> ?a . FILTER (bound(?a)) } }",
		},
		{
			name: "nothing to select",
			node: &algebra.SingletonSet{},
			want: "SELECT * WHERE { {} }",
		},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RenderQuery(tc.node, tc.dataset))
		})
	}
}

func TestPrepareOwnedTupleExprs(t *testing.T) {
	a := pattern("s", "name", "n")
	root := &algebra.NaryJoin{Args: []algebra.Node{&algebra.Owned{Source: "remote", Arg: a}, service("ep", &algebra.Owned{Source: "local", Arg: a})}}

	out, res := prepareOwnedTupleExprs(localOnly(t), root)

	require.True(t, res.Changed())
	owned := out.(*algebra.NaryJoin).Args[0].(*algebra.Owned)
	assert.Equal(t, &algebra.Prepared{Query: "SELECT ?n ?s WHERE { ?s <http://ex.org/name> ?n . }", Bindings: []string{"n", "s"}}, owned.Prepared)
	assert.Same(t, root.Args[1], out.(*algebra.NaryJoin).Args[1], "owned trees inside remote calls are not prepared")

	again, res := prepareOwnedTupleExprs(localOnly(t), out)
	assert.False(t, res.Changed())
	assert.Same(t, out, again)
}

func TestCheckValid(t *testing.T) {
	ctx := localOnly(t)

	assert.PanicsWithError(t, "FED09001: malformed query tree: Union: branches bind [n s] and [a s]", func() {
		checkValid(ctx, &algebra.Union{Left: pattern("s", "name", "n"), Right: pattern("s", "age", "a")})
	})
	assert.PanicsWithError(t, "FED09001: malformed query tree: NaryJoin: no operands", func() {
		checkValid(ctx, &algebra.Distinct{Arg: &algebra.NaryJoin{}})
	})
	assert.PanicsWithError(t, "FED09001: malformed query tree: Slice: negative offset", func() {
		checkValid(ctx, algebra.NewSlice(pattern("s", "name", "n"), -1, 1))
	})
	assert.PanicsWithError(t, "FED09001: malformed query tree: Join: input 1 is nil", func() {
		checkValid(ctx, &algebra.Join{Left: pattern("s", "name", "n")})
	})

	root := &algebra.Union{Left: pattern("s", "name", "n"), Right: pattern("s", "age", "n")}
	out, res := checkValid(ctx, root)
	assert.False(t, res.Changed())
	assert.Same(t, root, out)
}
