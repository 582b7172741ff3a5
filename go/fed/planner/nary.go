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
	"github.com/fedopt/fedopt/go/fed/hints"
	"github.com/fedopt/fedopt/go/fed/planner/plancontext"
)

// extractNaryJoins flattens nested binary joins into one NaryJoin and nested
// unions into one NaryUnion. Fixed joins keep their operands where they are.
func extractNaryJoins(_ *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	return algebra.BottomUp(root, func(n algebra.Node) (algebra.Node, *algebra.ApplyResult) {
		switch n := n.(type) {
		case *algebra.Join:
			args := flattenJoin(n.Inputs())
			return &algebra.NaryJoin{Args: args}, algebra.Rewrote(fmt.Sprintf("extracted join of %d operands", len(args)))
		case *algebra.NaryJoin:
			if n.Fixed {
				break
			}
			if args := flattenJoin(n.Args); len(args) != len(n.Args) {
				return &algebra.NaryJoin{Args: args}, algebra.Rewrote(fmt.Sprintf("extracted join of %d operands", len(args)))
			}
		case *algebra.Union:
			args := flattenUnion(n.Inputs())
			return &algebra.NaryUnion{Args: args}, algebra.Rewrote(fmt.Sprintf("extracted union of %d branches", len(args)))
		case *algebra.NaryUnion:
			if args := flattenUnion(n.Args); len(args) != len(n.Args) {
				return &algebra.NaryUnion{Args: args}, algebra.Rewrote(fmt.Sprintf("extracted union of %d branches", len(args)))
			}
		}
		return n, algebra.NoRewrite
	}, nil)
}

func flattenJoin(args []algebra.Node) []algebra.Node {
	var out []algebra.Node
	for _, a := range args {
		if j, ok := a.(*algebra.NaryJoin); ok && !j.Fixed {
			out = append(out, j.Args...)
			continue
		}
		out = append(out, a)
	}
	return out
}

func flattenUnion(args []algebra.Node) []algebra.Node {
	var out []algebra.Node
	for _, a := range args {
		if u, ok := a.(*algebra.NaryUnion); ok {
			out = append(out, u.Args...)
			continue
		}
		out = append(out, a)
	}
	return out
}

// extractQueryHints removes the hint patterns and keeps what they say for
// the passes that follow.
func extractQueryHints(ctx *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	out, setup, res := hints.Extract(root, ctx.HintNamespace())
	if setup != nil {
		ctx.Hints = setup
	}
	return out, res
}

// legacyMultiJoin is the join handling used when hints are switched off:
// hint patterns are dropped unread, joins are flattened and every join is
// ordered from the initial bindings alone.
func legacyMultiJoin(ctx *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	out, res := hints.Strip(root, ctx.HintNamespace())
	out, flattened := extractNaryJoins(ctx, out)
	res = res.Merge(flattened)

	out, reordered := algebra.BottomUp(out, func(n algebra.Node) (algebra.Node, *algebra.ApplyResult) {
		j, ok := n.(*algebra.NaryJoin)
		if !ok || j.Fixed {
			return n, algebra.NoRewrite
		}
		return reorderOperands(ctx, j, NewBoundVarSet(ctx.InitialBindings()...))
	}, func(n algebra.Node) algebra.VisitRule {
		if _, ok := n.(*algebra.Service); ok {
			return algebra.SkipChildren
		}
		return algebra.VisitChildren
	})
	return out, res.Merge(reordered)
}
