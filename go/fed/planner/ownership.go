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

	"github.com/fedopt/fedopt/go/fed/algebra"
	"github.com/fedopt/fedopt/go/fed/planner/plancontext"
)

// optimizeServices turns a remote call to a federation member into an owned
// sub-tree, so it is planned together with the rest of what that member
// answers. SILENT calls stay remote calls: their failures must not fail the
// query.
func optimizeServices(ctx *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	if !ctx.Hints.ShouldInlineService() {
		return root, algebra.NoRewrite
	}
	return algebra.BottomUp(root, func(n algebra.Node) (algebra.Node, *algebra.ApplyResult) {
		s, ok := n.(*algebra.Service)
		if !ok || s.Silent {
			return n, algebra.NoRewrite
		}
		member, ok := serviceMember(ctx, s)
		if !ok {
			return n, algebra.NoRewrite
		}
		return &algebra.Owned{Source: member, Arg: s.Arg}, algebra.Rewrote(fmt.Sprintf("service %s runs at %s", s.Endpoint, member))
	}, stopAtRemote)
}

// optimizeFederationJoins marks the sub-trees that run entirely at one
// member. A sub-tree with one owner becomes Owned as a whole; otherwise
// neighbouring join operands with the same owner are grouped into one owned
// join.
func optimizeFederationJoins(ctx *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	return ownSubtrees(ctx, root)
}

func ownSubtrees(ctx *plancontext.PlanningContext, n algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	switch n := n.(type) {
	case *algebra.Owned, *algebra.Service:
		return n, algebra.NoRewrite
	}
	if owner, ok := exclusiveOwner(ctx, n); ok && owner != "" {
		return &algebra.Owned{Source: owner, Arg: n}, algebra.Rewrote(fmt.Sprintf("%s runs at %s", n.Kind(), owner))
	}
	if j, ok := n.(*algebra.NaryJoin); ok {
		return groupJoinOperands(ctx, j)
	}

	var res *algebra.ApplyResult
	inputs := n.Inputs()
	var newInputs []algebra.Node
	for i, in := range inputs {
		out, r := ownSubtrees(ctx, in)
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

// groupJoinOperands wraps every run of neighbouring operands that share an
// owner into one owned join.
func groupJoinOperands(ctx *plancontext.PlanningContext, j *algebra.NaryJoin) (algebra.Node, *algebra.ApplyResult) {
	var res *algebra.ApplyResult
	var args []algebra.Node
	changed := false

	for start := 0; start < len(j.Args); {
		owner, ok := exclusiveOwner(ctx, j.Args[start])
		end := start + 1
		if ok && owner != "" {
			for end < len(j.Args) {
				next, ok := exclusiveOwner(ctx, j.Args[end])
				if !ok || next != owner {
					break
				}
				end++
			}
		}

		if end-start == 1 {
			out, r := ownSubtrees(ctx, j.Args[start])
			res = res.Merge(r)
			changed = changed || out != j.Args[start]
			args = append(args, out)
		} else {
			group := slices.Clone(j.Args[start:end])
			args = append(args, &algebra.Owned{Source: owner, Arg: &algebra.NaryJoin{Args: group, Fixed: j.Fixed}})
			res = res.Merge(algebra.Rewrote(fmt.Sprintf("%d join operands run at %s", len(group), owner)))
			changed = true
		}
		start = end
	}

	if !changed {
		return j, res
	}
	return &algebra.NaryJoin{Args: args, Fixed: j.Fixed}, res
}

// exclusiveOwner is the member every leaf of n belongs to, when n holds no
// remote call that is still to be made.
func exclusiveOwner(ctx *plancontext.PlanningContext, n algebra.Node) (string, bool) {
	hasService := false
	algebra.Visit(n, func(n algebra.Node) bool {
		if _, ok := n.(*algebra.Service); ok {
			hasService = true
		}
		return !hasService
	})
	if hasService {
		return "", false
	}
	return subtreeOwner(ctx, n)
}

// pruneOwnedTupleExprs removes owned markers nested inside an owned sub-tree
// of the same member, and the single operand joins left behind.
func pruneOwnedTupleExprs(_ *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	return algebra.BottomUp(root, func(n algebra.Node) (algebra.Node, *algebra.ApplyResult) {
		switch n := n.(type) {
		case *algebra.Owned:
			arg, res := algebra.BottomUp(n.Arg, func(in algebra.Node) (algebra.Node, *algebra.ApplyResult) {
				if inner, ok := in.(*algebra.Owned); ok && inner.Source == n.Source {
					return inner.Arg, algebra.Rewrote(fmt.Sprintf("removed nested owner %s", inner.Source))
				}
				return in, algebra.NoRewrite
			}, nil)
			if arg == n.Arg {
				return n, algebra.NoRewrite
			}
			return &algebra.Owned{Source: n.Source, Arg: arg}, res
		case *algebra.NaryJoin:
			if len(n.Args) == 1 {
				return n.Args[0], algebra.Rewrote("removed join with a single operand")
			}
		}
		return n, algebra.NoRewrite
	}, nil)
}
