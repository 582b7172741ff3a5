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
	"github.com/fedopt/fedopt/go/fed/hints"
	"github.com/fedopt/fedopt/go/fed/planner/plancontext"
	"github.com/fedopt/fedopt/go/fed/stats"
)

// SelectSources records on every statement pattern the members that may
// answer it, asking each member's membership filter about the predicate.
// Patterns no member can answer become an EmptySet. Remote calls and owned
// sub-trees are left alone.
func SelectSources(ctx *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	prefer := ctx.Hints.PreferredSource()
	return algebra.BottomUp(root, func(n algebra.Node) (algebra.Node, *algebra.ApplyResult) {
		sp, ok := n.(*algebra.StatementPattern)
		if !ok || hints.IsHint(sp, ctx.HintNamespace()) {
			return n, algebra.NoRewrite
		}

		candidates := patternCandidates(ctx, sp)
		if prefer != "" && slices.Contains(candidates, prefer) {
			candidates = []string{prefer}
		}
		if len(candidates) == 0 {
			stats.PatternsPruned.Inc()
			return &algebra.EmptySet{Names: sp.BindingNames()},
				algebra.Rewrote(fmt.Sprintf("no source for %s", algebra.ShortDescription(sp)))
		}
		if sp.Sources != nil && slices.Equal(candidates, sp.Sources) {
			return n, algebra.NoRewrite
		}

		out := sp.Clone(nil).(*algebra.StatementPattern)
		out.Sources = candidates
		return out, algebra.Rewrote(fmt.Sprintf("sources of %s: %s", algebra.ShortDescription(sp), strings.Join(candidates, ",")))
	}, stopAtRemote)
}

// patternCandidates lists, in federation order, the members that may hold
// matches for sp. Patterns in the local property space belong to the default
// source. A previous selection in sp.Sources is only ever narrowed.
func patternCandidates(ctx *plancontext.PlanningContext, sp *algebra.StatementPattern) []string {
	if ctx.IsLocal(sp) {
		return []string{ctx.DefaultSource()}
	}
	key := ""
	if sp.Predicate.HasValue() && sp.Predicate.Value.Kind == algebra.IRI {
		key = sp.Predicate.Value.Value
	}
	var out []string
	for _, m := range ctx.Federation.Members() {
		if sp.Sources != nil && !slices.Contains(sp.Sources, m.ID) {
			continue
		}
		if key == "" || ctx.MayContain(m.ID, key) {
			out = append(out, m.ID)
		}
	}
	return out
}

func stopAtRemote(n algebra.Node) algebra.VisitRule {
	switch n.(type) {
	case *algebra.Service, *algebra.Owned:
		return algebra.SkipChildren
	}
	return algebra.VisitChildren
}
