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
	"slices"
	"strings"

	"github.com/fedopt/fedopt/go/fed/algebra"
	"github.com/fedopt/fedopt/go/fed/planner/plancontext"
)

// reorderOperands orders the operands of j given the variables in bound.
// bound itself is not changed.
func reorderOperands(ctx *plancontext.PlanningContext, j *algebra.NaryJoin, bound *BoundVarSet) (algebra.Node, *algebra.ApplyResult) {
	ordered := OrderJoinArgs(ctx, j.Args, bound.Clone())
	if slices.Equal(ordered, j.Args) {
		return j, algebra.NoRewrite
	}
	return &algebra.NaryJoin{Args: ordered, Fixed: j.Fixed}, algebra.Rewrote("reordered join: " + operandList(ordered))
}

func operandList(args []algebra.Node) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, fmt.Sprintf("%s(%s)", a.Kind(), algebra.ShortDescription(a)))
	}
	return strings.Join(parts, ", ")
}

// synchronizeHints carries the query hints onto the joins: with a fixed join
// order every n-ary join keeps the order the query was written in.
func synchronizeHints(ctx *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	if !ctx.Hints.FixedJoinOrder() {
		return root, algebra.NoRewrite
	}
	return algebra.BottomUp(root, func(n algebra.Node) (algebra.Node, *algebra.ApplyResult) {
		j, ok := n.(*algebra.NaryJoin)
		if !ok || j.Fixed {
			return n, algebra.NoRewrite
		}
		return &algebra.NaryJoin{Args: j.Args, Fixed: true}, algebra.Rewrote("fixed join order")
	}, nil)
}

// optimizeJoinOrder orders every n-ary join outside owned sub-trees. The
// bound set an operand sees holds the initial bindings and whatever the
// operands placed before it bind.
func optimizeJoinOrder(ctx *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	o := &joinOrderer{ctx: ctx}
	return o.order(root, NewBoundVarSet(ctx.InitialBindings()...))
}

// reorderOwned orders the joins inside owned sub-trees from the initial
// bindings, the only ones the owning source will know about.
func reorderOwned(ctx *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	if !ctx.Hints.ShouldReorderLocal() {
		return root, algebra.NoRewrite
	}
	o := &joinOrderer{ctx: ctx}
	return algebra.BottomUp(root, func(n algebra.Node) (algebra.Node, *algebra.ApplyResult) {
		owned, ok := n.(*algebra.Owned)
		if !ok {
			return n, algebra.NoRewrite
		}
		arg, res := o.order(owned.Arg, NewBoundVarSet(ctx.InitialBindings()...))
		if arg == owned.Arg {
			return n, algebra.NoRewrite
		}
		return owned.Clone([]algebra.Node{arg}), res
	}, stopAtRemote)
}

type joinOrderer struct {
	ctx *plancontext.PlanningContext
}

// order reorders the joins under n. bound is what is bound when n starts;
// it is not changed.
func (o *joinOrderer) order(n algebra.Node, bound *BoundVarSet) (algebra.Node, *algebra.ApplyResult) {
	switch n := n.(type) {
	case *algebra.StatementPattern, *algebra.EmptySet, *algebra.SingletonSet,
		*algebra.Service, *algebra.Owned:
		return n, algebra.NoRewrite
	case *algebra.NaryJoin:
		var res *algebra.ApplyResult
		var current algebra.Node = n
		if !n.Fixed {
			current, res = reorderOperands(o.ctx, n, bound)
		}
		out, r := o.orderSequence(current, bound)
		return out, res.Merge(r)
	case *algebra.Join, *algebra.LeftJoin, *algebra.RankedNaryJoin:
		return o.orderSequence(n, bound)
	case *algebra.Union, *algebra.NaryUnion, *algebra.Filter, *algebra.Distinct,
		*algebra.Reduced, *algebra.Slice:
		return o.orderEach(n, func() *BoundVarSet { return bound })
	case *algebra.Projection:
		// a sub-select does not see the variables of the enclosing query
		return o.orderEach(n, func() *BoundVarSet { return NewBoundVarSet(o.ctx.InitialBindings()...) })
	}
	panic(fmt.Sprintf("unknown node %T", n))
}

// orderSequence walks the inputs of n in order, each seeing the bindings of
// the inputs before it.
func (o *joinOrderer) orderSequence(n algebra.Node, bound *BoundVarSet) (algebra.Node, *algebra.ApplyResult) {
	running := bound.Clone()
	return o.rebuild(n, func(in algebra.Node) *BoundVarSet {
		b := running.Clone()
		running.Add(in.BindingNames()...)
		return b
	})
}

// orderEach walks every input of n with the same bound set.
func (o *joinOrderer) orderEach(n algebra.Node, bound func() *BoundVarSet) (algebra.Node, *algebra.ApplyResult) {
	return o.rebuild(n, func(algebra.Node) *BoundVarSet { return bound() })
}

func (o *joinOrderer) rebuild(n algebra.Node, boundFor func(algebra.Node) *BoundVarSet) (algebra.Node, *algebra.ApplyResult) {
	var res *algebra.ApplyResult
	inputs := n.Inputs()
	var newInputs []algebra.Node
	for i, in := range inputs {
		out, r := o.order(in, boundFor(in))
		res = res.Merge(r)
		if out == in {
			continue
		}
		if newInputs == nil {
			newInputs = slices.Clone(inputs)
		}
		newInputs[i] = out
	}
	if newInputs == nil {
		return n, res
	}
	return n.Clone(newInputs), res
}
