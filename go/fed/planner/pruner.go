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
	"slices"

	"github.com/fedopt/fedopt/go/fed/algebra"
	"github.com/fedopt/fedopt/go/fed/planner/plancontext"
)

// pruneQueryModel removes the parts of the tree that cannot contribute rows,
// and the join operands that cannot remove any.
func pruneQueryModel(_ *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	return algebra.BottomUp(root, pruneNode, nil)
}

func pruneNode(n algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	switch n := n.(type) {
	case *algebra.Join:
		switch {
		case isEmpty(n.Left) || isEmpty(n.Right):
			return emptied(n)
		case isSingleton(n.Left):
			return n.Right, algebra.Rewrote("dropped empty row from join")
		case isSingleton(n.Right):
			return n.Left, algebra.Rewrote("dropped empty row from join")
		}
	case *algebra.NaryJoin:
		if slices.ContainsFunc(n.Args, isEmpty) {
			return emptied(n)
		}
		if slices.ContainsFunc(n.Args, isSingleton) {
			return collapseJoin(slices.DeleteFunc(slices.Clone(n.Args), isSingleton), n.Fixed), algebra.Rewrote("dropped empty row from join")
		}
		if len(n.Args) == 1 {
			return n.Args[0], algebra.Rewrote("removed join with a single operand")
		}
	case *algebra.RankedNaryJoin:
		if slices.ContainsFunc(n.Args, isEmpty) {
			return emptied(n)
		}
	case *algebra.LeftJoin:
		if isEmpty(n.Left) {
			return emptied(n)
		}
		if isEmpty(n.Right) && slices.Equal(n.Left.BindingNames(), n.BindingNames()) {
			return n.Left, algebra.Rewrote("removed optional part without rows")
		}
	case *algebra.Union:
		switch {
		case isEmpty(n.Left) && isEmpty(n.Right):
			return emptied(n)
		case isEmpty(n.Left):
			return n.Right, algebra.Rewrote("removed union branch without rows")
		case isEmpty(n.Right):
			return n.Left, algebra.Rewrote("removed union branch without rows")
		}
	case *algebra.NaryUnion:
		if !slices.ContainsFunc(n.Args, isEmpty) {
			return n, algebra.NoRewrite
		}
		kept := slices.DeleteFunc(slices.Clone(n.Args), isEmpty)
		switch len(kept) {
		case 0:
			return emptied(n)
		case 1:
			return kept[0], algebra.Rewrote("removed union branches without rows")
		}
		return &algebra.NaryUnion{Args: kept}, algebra.Rewrote("removed union branches without rows")
	case *algebra.Service, *algebra.Projection, *algebra.Distinct, *algebra.Reduced,
		*algebra.Filter, *algebra.Slice, *algebra.Owned:
		if isEmpty(n.Inputs()[0]) {
			return emptied(n)
		}
	}
	return n, algebra.NoRewrite
}

func emptied(n algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	return &algebra.EmptySet{Names: n.BindingNames()}, algebra.Rewrote(n.Kind().String() + " produces no rows")
}

// collapseJoin builds the join of args, the single operand when there is only
// one, or the empty row when there is none.
func collapseJoin(args []algebra.Node, fixed bool) algebra.Node {
	switch len(args) {
	case 0:
		return &algebra.SingletonSet{}
	case 1:
		return args[0]
	}
	return &algebra.NaryJoin{Args: args, Fixed: fixed}
}

func isEmpty(n algebra.Node) bool {
	_, ok := n.(*algebra.EmptySet)
	return ok
}

func isSingleton(n algebra.Node) bool {
	_, ok := n.(*algebra.SingletonSet)
	return ok
}
