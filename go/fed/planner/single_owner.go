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

// DetectSingleOwner finds the one federation member that owns every leaf of
// root. ok is true only when that member is the default source, in which case
// the query can go to it as it is. owner is empty when the leaves span more
// than one member.
func DetectSingleOwner(ctx *plancontext.PlanningContext, root algebra.Node) (owner string, ok bool) {
	owner, single := subtreeOwner(ctx, root)
	if !single {
		return "", false
	}
	if owner == "" {
		owner = ctx.DefaultSource()
	}
	return owner, owner == ctx.DefaultSource()
}

// SingleOwnerTree returns the tree to hand to a single owner: a copy of root
// with the hint patterns removed, and the hints they carried. With hints
// switched off the patterns are removed unread.
func SingleOwnerTree(ctx *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *hints.Setup) {
	if !ctx.Config.HintsEnabled {
		out, _ := hints.Strip(algebra.Clone(root), ctx.HintNamespace())
		return out, nil
	}
	out, setup, _ := hints.Extract(algebra.Clone(root), ctx.HintNamespace())
	return out, setup
}

// subtreeOwner returns the member every leaf under n belongs to. An empty
// owner with single set means n has no leaf that needs a member.
func subtreeOwner(ctx *plancontext.PlanningContext, n algebra.Node) (owner string, single bool) {
	switch n := n.(type) {
	case *algebra.StatementPattern:
		if hints.IsHint(n, ctx.HintNamespace()) {
			return "", true
		}
		candidates := patternCandidates(ctx, n)
		if len(candidates) != 1 {
			return "", false
		}
		return candidates[0], true
	case *algebra.Service:
		return serviceMember(ctx, n)
	case *algebra.Owned:
		return n.Source, true
	case *algebra.EmptySet, *algebra.SingletonSet:
		return "", true
	case *algebra.Join, *algebra.LeftJoin, *algebra.NaryJoin, *algebra.RankedNaryJoin,
		*algebra.Union, *algebra.NaryUnion, *algebra.Projection, *algebra.Distinct,
		*algebra.Reduced, *algebra.Filter, *algebra.Slice:
		for _, in := range n.Inputs() {
			o, ok := subtreeOwner(ctx, in)
			if !ok {
				return "", false
			}
			switch {
			case o == "":
			case owner == "":
				owner = o
			case owner != o:
				return "", false
			}
		}
		return owner, true
	}
	panic(fmt.Sprintf("unknown node %T", n))
}

// serviceMember resolves the member a remote call goes to. Calls with a
// variable endpoint, or an endpoint outside the federation, have no member.
func serviceMember(ctx *plancontext.PlanningContext, s *algebra.Service) (string, bool) {
	if !s.Endpoint.HasValue() || s.Endpoint.Value.Kind != algebra.IRI {
		return "", false
	}
	src, ok := ctx.Federation.ResolveEndpoint(s.Endpoint.Value.Value)
	if !ok {
		return "", false
	}
	return src.ID, true
}
