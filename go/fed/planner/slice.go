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
	"math"

	"github.com/fedopt/fedopt/go/fed/algebra"
	"github.com/fedopt/fedopt/go/fed/planner/plancontext"
	"github.com/fedopt/fedopt/go/fed/stats"
)

// PushDownSlice moves the row bound of s as close to the leaves as it can.
// The returned node replaces s; it is s itself when nothing changed. The
// boolean reports a structural change: a Slice inserted somewhere below s.
// Setting the limit hint of a ranked join changes the tree but is not
// structural.
//
// Projection, Distinct and Reduced are treated as transparent. For Distinct
// and Reduced this is a heuristic: when duplicates cluster at the start of
// the stream, the inner bound can cut off rows the outer slice needed.
func PushDownSlice(s *algebra.Slice) (algebra.Node, bool) {
	if !s.HasLimit() {
		return s, false
	}
	arg, structural := pushBound(s.Arg, rowBound(s.Offset, s.Limit), true)
	if arg == s.Arg {
		return s, false
	}
	return s.Clone([]algebra.Node{arg}), structural
}

// pushBound pushes a bound of at most bound rows into n. direct is true while
// n sits right below the slice that set the bound.
func pushBound(n algebra.Node, bound int64, direct bool) (algebra.Node, bool) {
	switch n := n.(type) {
	case *algebra.Union:
		left, lChanged := boundBranch(n.Left, bound)
		right, rChanged := boundBranch(n.Right, bound)
		if left == n.Left && right == n.Right {
			return n, false
		}
		return &algebra.Union{Left: left, Right: right}, lChanged || rChanged
	case *algebra.NaryUnion:
		var args []algebra.Node
		structural := false
		for i, branch := range n.Args {
			out, changed := boundBranch(branch, bound)
			structural = structural || changed
			if out == branch {
				continue
			}
			if args == nil {
				args = append([]algebra.Node(nil), n.Args...)
			}
			args[i] = out
		}
		if args == nil {
			return n, false
		}
		return &algebra.NaryUnion{Args: args}, structural
	case *algebra.RankedNaryJoin:
		if n.LimitHint > 0 && n.LimitHint <= bound {
			return n, false
		}
		return &algebra.RankedNaryJoin{Args: n.Args, LimitHint: bound}, false
	case *algebra.Projection, *algebra.Distinct, *algebra.Reduced:
		child := n.Inputs()[0]
		out, structural := pushBound(child, bound, false)
		if out == child {
			return n, false
		}
		return n.Clone([]algebra.Node{out}), structural
	case *algebra.Service:
		// the remote side decides what a truncated answer means
		return n, false
	}

	if direct {
		return n, false
	}
	if inner, ok := n.(*algebra.Slice); ok && inner.Offset == 0 && inner.HasLimit() && inner.Limit <= rowBound(bound, 1) {
		return n, false
	}
	// one extra row lets the evaluator tell whether more results exist
	return algebra.NewSlice(n, 0, rowBound(bound, 1)), true
}

// boundBranch wraps a union branch in Slice(0, bound) and pushes that slice
// further down. A branch that already carries a tighter slice is not wrapped
// again.
func boundBranch(branch algebra.Node, bound int64) (algebra.Node, bool) {
	if inner, ok := branch.(*algebra.Slice); ok && inner.Offset == 0 && inner.HasLimit() && inner.Limit <= bound {
		return PushDownSlice(inner)
	}
	out, _ := PushDownSlice(algebra.NewSlice(branch, 0, bound))
	return out, true
}

// rowBound adds without overflowing.
func rowBound(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

func pushDownSlices(_ *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	return algebra.TopDown(root, func(n algebra.Node) (algebra.Node, *algebra.ApplyResult) {
		s, ok := n.(*algebra.Slice)
		if !ok {
			return n, algebra.NoRewrite
		}
		out, structural := PushDownSlice(s)
		if out == n {
			return n, algebra.NoRewrite
		}
		if structural {
			stats.SlicesPushed.Inc()
			return out, algebra.Rewrote(fmt.Sprintf("pushed %s toward the leaves", algebra.ShortDescription(s)))
		}
		return out, algebra.Rewrote(fmt.Sprintf("set limit hint from %s", algebra.ShortDescription(s)))
	}, func(n algebra.Node) algebra.VisitRule {
		switch n.(type) {
		case *algebra.Slice, *algebra.Service:
			return algebra.SkipChildren
		}
		return algebra.VisitChildren
	})
}
