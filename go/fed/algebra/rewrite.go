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

package algebra

import (
	"fmt"
	"slices"
)

type (
	// ApplyResult collects the rewrites a visitor performed. A nil
	// *ApplyResult means the tree was left as it was.
	ApplyResult struct {
		Transformations []Rewrite
	}

	Rewrite struct {
		Message string
	}

	// VisitRule tells TopDown whether to descend into a node's inputs.
	VisitRule bool

	// VisitF is called on every node. It returns the node to keep in its
	// place and what it changed.
	VisitF func(n Node) (Node, *ApplyResult)
)

const (
	VisitChildren VisitRule = true
	SkipChildren  VisitRule = false
)

// NoRewrite is returned by visitors that change nothing.
var NoRewrite *ApplyResult = nil

// Rewrote returns an ApplyResult with a single rewrite described by message.
func Rewrote(message string) *ApplyResult {
	return &ApplyResult{Transformations: []Rewrite{{Message: message}}}
}

// Merge combines two results. Either may be nil.
func (ar *ApplyResult) Merge(other *ApplyResult) *ApplyResult {
	if ar == nil {
		return other
	}
	if other == nil {
		return ar
	}
	return &ApplyResult{Transformations: append(slices.Clone(ar.Transformations), other.Transformations...)}
}

// Changed is true when at least one rewrite happened.
func (ar *ApplyResult) Changed() bool {
	return ar != nil && len(ar.Transformations) > 0
}

// Messages lists the rewrite descriptions in the order they happened.
func (ar *ApplyResult) Messages() []string {
	if ar == nil {
		return nil
	}
	out := make([]string, 0, len(ar.Transformations))
	for _, t := range ar.Transformations {
		out = append(out, t.Message)
	}
	return out
}

func (ar *ApplyResult) String() string {
	if ar == nil {
		return "no rewrites"
	}
	return fmt.Sprintf("%d rewrites: %v", len(ar.Transformations), ar.Messages())
}

// BottomUp rewrites the tree rooted at root from the leaves up. A parent is
// rebuilt through Clone only when one of its inputs changed, so untouched
// sub-trees are shared with the original. shouldVisit, when not nil, can keep
// the walk out of a node's inputs; the node itself is still visited.
func BottomUp(root Node, visit VisitF, shouldVisit func(Node) VisitRule) (Node, *ApplyResult) {
	var result *ApplyResult
	inputs := root.Inputs()
	if len(inputs) > 0 && (shouldVisit == nil || shouldVisit(root) == VisitChildren) {
		var newInputs []Node
		for i, in := range inputs {
			out, res := BottomUp(in, visit, shouldVisit)
			result = result.Merge(res)
			if out == in {
				continue
			}
			if newInputs == nil {
				newInputs = slices.Clone(inputs)
			}
			newInputs[i] = out
		}
		if newInputs != nil {
			root = root.Clone(newInputs)
		}
	}
	out, res := visit(root)
	return out, result.Merge(res)
}

// TopDown rewrites the tree rooted at root from the root down. When visit
// replaces a node, the replacement is visited again before its inputs are.
// shouldVisit decides whether the inputs of a node are walked at all.
func TopDown(root Node, visit VisitF, shouldVisit func(Node) VisitRule) (Node, *ApplyResult) {
	var result *ApplyResult
	for {
		out, res := visit(root)
		result = result.Merge(res)
		if out == root {
			break
		}
		root = out
	}
	if shouldVisit != nil && shouldVisit(root) == SkipChildren {
		return root, result
	}

	inputs := root.Inputs()
	var newInputs []Node
	for i, in := range inputs {
		out, res := TopDown(in, visit, shouldVisit)
		result = result.Merge(res)
		if out == in {
			continue
		}
		if newInputs == nil {
			newInputs = slices.Clone(inputs)
		}
		newInputs[i] = out
	}
	if newInputs != nil {
		root = root.Clone(newInputs)
	}
	return root, result
}

// Visit walks the tree in pre-order. Returning false from f skips the inputs
// of the node.
func Visit(root Node, f func(Node) bool) {
	if !f(root) {
		return
	}
	for _, in := range root.Inputs() {
		Visit(in, f)
	}
}

// Clone returns a deep copy of the tree. Vars and value expressions are
// shared; they are never modified in place.
func Clone(root Node) Node {
	inputs := root.Inputs()
	if len(inputs) == 0 {
		return root.Clone(nil)
	}
	cloned := make([]Node, len(inputs))
	for i, in := range inputs {
		cloned[i] = Clone(in)
	}
	if o, ok := root.(*Owned); ok {
		// the copied argument is equal to the one the query was rendered from
		return &Owned{Source: o.Source, Arg: cloned[0], Prepared: o.Prepared.clone()}
	}
	return root.Clone(cloned)
}

// MapVars returns n with every Var it holds directly replaced by f(v). Inputs
// are not visited. n itself is returned when f changes nothing.
func MapVars(n Node, f func(*Var) *Var) Node {
	switch n := n.(type) {
	case *StatementPattern:
		s, p, o, c := mapVar(n.Subject, f), mapVar(n.Predicate, f), mapVar(n.Object, f), mapVar(n.Context, f)
		if s == n.Subject && p == n.Predicate && o == n.Object && c == n.Context {
			return n
		}
		out := n.Clone(nil).(*StatementPattern)
		out.Subject, out.Predicate, out.Object, out.Context = s, p, o, c
		return out
	case *Service:
		ep := mapVar(n.Endpoint, f)
		if ep == n.Endpoint {
			return n
		}
		return &Service{Endpoint: ep, Arg: n.Arg, Silent: n.Silent}
	case *Filter:
		cond := MapExprVars(n.Condition, f)
		if cond == n.Condition {
			return n
		}
		return &Filter{Arg: n.Arg, Condition: cond}
	case *LeftJoin:
		if n.Condition == nil {
			return n
		}
		cond := MapExprVars(n.Condition, f)
		if cond == n.Condition {
			return n
		}
		return &LeftJoin{Left: n.Left, Right: n.Right, Condition: cond}
	}
	return n
}

func mapVar(v *Var, f func(*Var) *Var) *Var {
	if v == nil {
		return nil
	}
	return f(v)
}

// PatternVars returns the variable occurrences a sub-tree matches on: every
// position of every statement pattern and every service endpoint, duplicates
// included, in pre-order.
func PatternVars(root Node) []*Var {
	var out []*Var
	Visit(root, func(n Node) bool {
		switch n := n.(type) {
		case *StatementPattern:
			out = append(out, n.Vars()...)
		case *Service:
			out = append(out, n.Endpoint)
		}
		return true
	})
	return out
}
