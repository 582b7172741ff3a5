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

// assignBindings gives every variable named in the initial binding set its
// value. Binding names do not change: a valued variable still binds its name.
func assignBindings(ctx *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	if len(ctx.Bindings) == 0 {
		return root, algebra.NoRewrite
	}
	bind := func(v *algebra.Var) *algebra.Var {
		if v.HasValue() {
			return v
		}
		if t, ok := ctx.Bindings[v.Name]; ok {
			return v.WithValue(t)
		}
		return v
	}
	return algebra.BottomUp(root, func(n algebra.Node) (algebra.Node, *algebra.ApplyResult) {
		out := algebra.MapVars(n, bind)
		if out == n {
			return n, algebra.NoRewrite
		}
		return out, algebra.Rewrote(fmt.Sprintf("bound values in %s", n.Kind()))
	}, nil)
}

var (
	trueExpr  = &algebra.Constant{Value: algebra.NewBoolean(true)}
	falseExpr = &algebra.Constant{Value: algebra.NewBoolean(false)}
)

func boolConstant(b bool) *algebra.Constant {
	if b {
		return trueExpr
	}
	return falseExpr
}

// foldConstants evaluates what can be evaluated before the query runs. It
// returns e itself when nothing folds.
func foldConstants(e algebra.ValueExpr) algebra.ValueExpr {
	return algebra.RewriteExpr(e, func(e algebra.ValueExpr) algebra.ValueExpr {
		switch e := e.(type) {
		case *algebra.Var:
			if e.HasValue() {
				return &algebra.Constant{Value: *e.Value}
			}
		case *algebra.Bound:
			if e.Var.HasValue() {
				return trueExpr
			}
		case *algebra.Compare:
			l, lok := e.Left.(*algebra.Constant)
			r, rok := e.Right.(*algebra.Constant)
			if lok && rok {
				if res, ok := algebra.CompareTerms(l.Value, r.Value, e.Op); ok {
					return boolConstant(res)
				}
			}
		case *algebra.SameTerm:
			l, lok := e.Left.(*algebra.Constant)
			r, rok := e.Right.(*algebra.Constant)
			if lok && rok {
				return boolConstant(l.Value == r.Value)
			}
		case *algebra.Not:
			if b, ok := constantBool(e.Arg); ok {
				return boolConstant(!b)
			}
		case *algebra.And:
			if b, ok := constantBool(e.Left); ok {
				if !b {
					return falseExpr
				}
				return e.Right
			}
			if b, ok := constantBool(e.Right); ok {
				if !b {
					return falseExpr
				}
				return e.Left
			}
		case *algebra.Or:
			if b, ok := constantBool(e.Left); ok {
				if b {
					return trueExpr
				}
				return e.Right
			}
			if b, ok := constantBool(e.Right); ok {
				if b {
					return trueExpr
				}
				return e.Left
			}
		}
		return e
	})
}

// constantBool is the effective boolean value of e, when e is a constant that
// has one.
func constantBool(e algebra.ValueExpr) (bool, bool) {
	c, ok := e.(*algebra.Constant)
	if !ok {
		return false, false
	}
	return c.Value.EffectiveBoolean()
}

// optimizeConstants folds filter and join conditions. A filter that always
// holds disappears; one that never holds, or always errors, empties its input.
func optimizeConstants(_ *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	return algebra.BottomUp(root, func(n algebra.Node) (algebra.Node, *algebra.ApplyResult) {
		switch n := n.(type) {
		case *algebra.Filter:
			cond := foldConstants(n.Condition)
			if c, ok := cond.(*algebra.Constant); ok {
				if b, ok := c.Value.EffectiveBoolean(); ok && b {
					return n.Arg, algebra.Rewrote(fmt.Sprintf("removed filter %s that always holds", n.Condition))
				}
				return &algebra.EmptySet{Names: n.BindingNames()}, algebra.Rewrote(fmt.Sprintf("filter %s never holds", n.Condition))
			}
			if cond != n.Condition {
				return &algebra.Filter{Arg: n.Arg, Condition: cond}, algebra.Rewrote(fmt.Sprintf("folded %s to %s", n.Condition, cond))
			}
		case *algebra.LeftJoin:
			if n.Condition == nil {
				return n, algebra.NoRewrite
			}
			cond := foldConstants(n.Condition)
			if b, ok := constantBool(cond); ok && b {
				return &algebra.LeftJoin{Left: n.Left, Right: n.Right}, algebra.Rewrote(fmt.Sprintf("removed join condition %s that always holds", n.Condition))
			}
			if cond != n.Condition {
				return &algebra.LeftJoin{Left: n.Left, Right: n.Right, Condition: cond}, algebra.Rewrote(fmt.Sprintf("folded %s to %s", n.Condition, cond))
			}
		}
		return n, algebra.NoRewrite
	}, nil)
}

// optimizeCompares turns equality with a resource into sameTerm, which
// sources can answer with an index lookup.
func optimizeCompares(_ *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	rewrite := func(e algebra.ValueExpr) algebra.ValueExpr {
		return algebra.RewriteExpr(e, func(e algebra.ValueExpr) algebra.ValueExpr {
			cmp, ok := e.(*algebra.Compare)
			if !ok || cmp.Op != algebra.EQ {
				return e
			}
			if isVarAndResource(cmp.Left, cmp.Right) || isVarAndResource(cmp.Right, cmp.Left) {
				return &algebra.SameTerm{Left: cmp.Left, Right: cmp.Right}
			}
			return e
		})
	}
	return algebra.BottomUp(root, func(n algebra.Node) (algebra.Node, *algebra.ApplyResult) {
		switch n := n.(type) {
		case *algebra.Filter:
			if cond := rewrite(n.Condition); cond != n.Condition {
				return &algebra.Filter{Arg: n.Arg, Condition: cond}, algebra.Rewrote(fmt.Sprintf("rewrote %s to %s", n.Condition, cond))
			}
		case *algebra.LeftJoin:
			if n.Condition == nil {
				return n, algebra.NoRewrite
			}
			if cond := rewrite(n.Condition); cond != n.Condition {
				return &algebra.LeftJoin{Left: n.Left, Right: n.Right, Condition: cond}, algebra.Rewrote(fmt.Sprintf("rewrote %s to %s", n.Condition, cond))
			}
		}
		return n, algebra.NoRewrite
	}, nil)
}

func isVarAndResource(a, b algebra.ValueExpr) bool {
	v, ok := a.(*algebra.Var)
	if !ok || v.HasValue() {
		return false
	}
	c, ok := b.(*algebra.Constant)
	return ok && c.Value.IsResource()
}
