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
	"github.com/fedopt/fedopt/go/fed/federrors"
	"github.com/fedopt/fedopt/go/fed/planner/plancontext"
)

// checkValid panics on trees no pass is expected to handle. These are
// programming errors of whoever built the tree, so they are not returned as
// errors.
func checkValid(_ *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	if root == nil {
		panic(federrors.FED09001("nil root"))
	}
	algebra.Visit(root, func(n algebra.Node) bool {
		if msg := malformed(n); msg != "" {
			panic(federrors.FED09001(fmt.Sprintf("%s: %s", n.Kind(), msg)))
		}
		return true
	})
	return root, algebra.NoRewrite
}

func malformed(n algebra.Node) string {
	for i, in := range n.Inputs() {
		if in == nil {
			return fmt.Sprintf("input %d is nil", i)
		}
	}
	switch n := n.(type) {
	case *algebra.StatementPattern:
		if n.Subject == nil || n.Predicate == nil || n.Object == nil {
			return "pattern position is nil"
		}
	case *algebra.NaryJoin, *algebra.RankedNaryJoin:
		if len(n.Inputs()) == 0 {
			return "no operands"
		}
	case *algebra.NaryUnion:
		if len(n.Args) == 0 {
			return "no branches"
		}
		return unionMismatch(n.Args)
	case *algebra.Union:
		return unionMismatch(n.Inputs())
	case *algebra.Service:
		if n.Endpoint == nil {
			return "no endpoint"
		}
	case *algebra.Filter:
		if n.Condition == nil {
			return "no condition"
		}
	case *algebra.Slice:
		if n.Offset < 0 {
			return "negative offset"
		}
	case *algebra.Owned:
		if n.Source == "" {
			return "no source"
		}
	}
	return ""
}

// unionMismatch reports branches that bind different variables.
func unionMismatch(branches []algebra.Node) string {
	first := branches[0].BindingNames()
	for _, b := range branches[1:] {
		if names := b.BindingNames(); !slices.Equal(first, names) {
			return fmt.Sprintf("branches bind %v and %v", first, names)
		}
	}
	return ""
}
