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
	"fmt"

	"github.com/fedopt/fedopt/go/fed/algebra"
	"github.com/fedopt/fedopt/go/fed/planner/plancontext"
)

// splitConjunctions turns Filter(a && b, x) into Filter(a, Filter(b, x)).
func splitConjunctions(_ *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	return algebra.TopDown(root, func(n algebra.Node) (algebra.Node, *algebra.ApplyResult) {
		f, ok := n.(*algebra.Filter)
		if !ok {
			return n, algebra.NoRewrite
		}
		and, ok := f.Condition.(*algebra.And)
		if !ok {
			return n, algebra.NoRewrite
		}
		return &algebra.Filter{
			Arg:       &algebra.Filter{Arg: f.Arg, Condition: and.Right},
			Condition: and.Left,
		}, algebra.Rewrote(fmt.Sprintf("split %s", and))
	}, nil)
}

// optimizeDisjunctions turns Filter(a || b, x), where a or b holds a sameTerm,
// into Union(Filter(a, x), Filter(b, Filter(!a, x))). The second branch
// excludes the rows of the first so no row is produced twice; each branch can
// then have its sameTerm turned into a constant. A row on which a raises an
// error would be dropped by both branches, so a must be error free on every
// row of x.
func optimizeDisjunctions(_ *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	return algebra.TopDown(root, func(n algebra.Node) (algebra.Node, *algebra.ApplyResult) {
		f, ok := n.(*algebra.Filter)
		if !ok {
			return n, algebra.NoRewrite
		}
		or, ok := f.Condition.(*algebra.Or)
		if !ok || !(algebra.ContainsSameTerm(or.Left) || algebra.ContainsSameTerm(or.Right)) {
			return n, algebra.NoRewrite
		}
		if !errorFree(or.Left, f.Arg) {
			return n, algebra.NoRewrite
		}
		return &algebra.Union{
			Left: &algebra.Filter{Arg: f.Arg, Condition: or.Left},
			Right: &algebra.Filter{
				Arg:       &algebra.Filter{Arg: algebra.Clone(f.Arg), Condition: &algebra.Not{Arg: or.Left}},
				Condition: or.Right,
			},
		}, algebra.Rewrote(fmt.Sprintf("split %s into a union", or))
	}, nil)
}

// optimizeSameTerms turns Filter(sameTerm(?v, c), x) into x with ?v fixed to
// c. This is only done when ?v is certain to be bound by a pattern of x and x
// does not project or slice, where fixing the value early could change which
// rows come out.
func optimizeSameTerms(_ *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	return algebra.BottomUp(root, func(n algebra.Node) (algebra.Node, *algebra.ApplyResult) {
		f, ok := n.(*algebra.Filter)
		if !ok {
			return n, algebra.NoRewrite
		}
		st, ok := f.Condition.(*algebra.SameTerm)
		if !ok {
			return n, algebra.NoRewrite
		}
		v, value, ok := varAndConstant(st)
		if !ok || !mandatoryPatternVar(f.Arg, v.Name) || containsScope(f.Arg) {
			return n, algebra.NoRewrite
		}

		out, _ := algebra.BottomUp(f.Arg, func(n algebra.Node) (algebra.Node, *algebra.ApplyResult) {
			return algebra.MapVars(n, func(o *algebra.Var) *algebra.Var {
				if o.Name != v.Name || o.HasValue() {
					return o
				}
				return o.WithValue(value)
			}), algebra.NoRewrite
		}, nil)
		return out, algebra.Rewrote(fmt.Sprintf("fixed ?%s to %s", v.Name, value))
	}, nil)
}

func varAndConstant(st *algebra.SameTerm) (*algebra.Var, algebra.Term, bool) {
	if v, ok := st.Left.(*algebra.Var); ok && !v.HasValue() && !v.Anonymous {
		if c, ok := st.Right.(*algebra.Constant); ok {
			return v, c.Value, true
		}
	}
	if v, ok := st.Right.(*algebra.Var); ok && !v.HasValue() && !v.Anonymous {
		if c, ok := st.Left.(*algebra.Constant); ok {
			return v, c.Value, true
		}
	}
	return nil, algebra.Term{}, false
}

// errorFree reports whether the condition e evaluates to true or false, never
// to an error, on every row of arg. Comparisons may fail on incompatible
// terms and unbound variables make sameTerm fail, so only sameTerm over bound
// operands, bound and boolean constants qualify.
func errorFree(e algebra.ValueExpr, arg algebra.Node) bool {
	switch e := e.(type) {
	case *algebra.Bound:
		return true
	case *algebra.Constant:
		_, ok := e.Value.EffectiveBoolean()
		return ok
	case *algebra.Not:
		return errorFree(e.Arg, arg)
	case *algebra.And:
		return errorFree(e.Left, arg) && errorFree(e.Right, arg)
	case *algebra.Or:
		return errorFree(e.Left, arg) && errorFree(e.Right, arg)
	case *algebra.SameTerm:
		return certainlyBound(e.Left, arg) && certainlyBound(e.Right, arg)
	}
	return false
}

func certainlyBound(e algebra.ValueExpr, arg algebra.Node) bool {
	switch e := e.(type) {
	case *algebra.Constant:
		return true
	case *algebra.Var:
		return e.HasValue() || mandatoryPatternVar(arg, e.Name)
	}
	return false
}

// mandatoryPatternVar reports whether name is bound by a statement pattern of
// n that every result row of n went through.
func mandatoryPatternVar(n algebra.Node, name string) bool {
	switch n := n.(type) {
	case *algebra.StatementPattern:
		for _, v := range n.Vars() {
			if v.Name == name && !v.HasValue() {
				return true
			}
		}
		return false
	case *algebra.Join, *algebra.NaryJoin, *algebra.RankedNaryJoin:
		for _, in := range n.Inputs() {
			if mandatoryPatternVar(in, name) {
				return true
			}
		}
		return false
	case *algebra.LeftJoin:
		return mandatoryPatternVar(n.Left, name)
	case *algebra.Filter, *algebra.Distinct, *algebra.Reduced, *algebra.Owned:
		return mandatoryPatternVar(n.Inputs()[0], name)
	}
	return false
}

// containsScope reports whether n holds a node that hides or limits the rows
// of its input.
func containsScope(n algebra.Node) bool {
	found := false
	algebra.Visit(n, func(n algebra.Node) bool {
		switch n.(type) {
		case *algebra.Projection, *algebra.Slice:
			found = true
		}
		return !found
	})
	return found
}
