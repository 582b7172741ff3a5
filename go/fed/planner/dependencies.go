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
	"maps"
	"slices"

	"github.com/fedopt/fedopt/go/fed/algebra"
)

// BoundVarSet is the set of variable names known to be bound at a point of
// planning. Names are only ever added.
type BoundVarSet struct {
	names map[string]struct{}
}

func NewBoundVarSet(names ...string) *BoundVarSet {
	b := &BoundVarSet{names: make(map[string]struct{}, len(names))}
	b.Add(names...)
	return b
}

func (b *BoundVarSet) Add(names ...string) {
	for _, n := range names {
		b.names[n] = struct{}{}
	}
}

func (b *BoundVarSet) Contains(name string) bool {
	_, ok := b.names[name]
	return ok
}

// ContainsAll is true when every name is bound.
func (b *BoundVarSet) ContainsAll(names []string) bool {
	for _, n := range names {
		if !b.Contains(n) {
			return false
		}
	}
	return true
}

func (b *BoundVarSet) Len() int { return len(b.names) }

// Names returns the bound names, sorted.
func (b *BoundVarSet) Names() []string {
	return slices.Sorted(maps.Keys(b.names))
}

func (b *BoundVarSet) Clone() *BoundVarSet {
	return &BoundVarSet{names: maps.Clone(b.names)}
}

func (b *BoundVarSet) String() string {
	return fmt.Sprintf("%v", b.Names())
}

// Dependencies returns the variables n needs bound before it can run
// (inputs) and the variables it binds (outputs). Only remote calls with a
// variable endpoint have inputs; a composite node needs what its children
// need, minus what its other children produce.
func Dependencies(n algebra.Node) (inputs, outputs []string) {
	return sortedSet(inputVars(n)), n.BindingNames()
}

func inputVars(n algebra.Node) map[string]struct{} {
	switch n := n.(type) {
	case *algebra.StatementPattern, *algebra.EmptySet, *algebra.SingletonSet:
		return nil
	case *algebra.Service:
		in := inputVars(n.Arg)
		if n.Endpoint != nil && !n.Endpoint.HasValue() {
			if in == nil {
				in = map[string]struct{}{}
			}
			in[n.Endpoint.Name] = struct{}{}
		}
		return in
	case *algebra.Join, *algebra.NaryJoin, *algebra.RankedNaryJoin:
		return joinInputs(n.Inputs())
	case *algebra.LeftJoin:
		in := inputVars(n.Left)
		right := inputVars(n.Right)
		produced := n.Left.BindingNames()
		for name := range right {
			if !slices.Contains(produced, name) {
				if in == nil {
					in = map[string]struct{}{}
				}
				in[name] = struct{}{}
			}
		}
		return in
	case *algebra.Union, *algebra.NaryUnion:
		var in map[string]struct{}
		for _, branch := range n.Inputs() {
			for name := range inputVars(branch) {
				if in == nil {
					in = map[string]struct{}{}
				}
				in[name] = struct{}{}
			}
		}
		return in
	case *algebra.Projection, *algebra.Distinct, *algebra.Reduced, *algebra.Filter, *algebra.Slice, *algebra.Owned:
		return inputVars(n.Inputs()[0])
	}
	panic(fmt.Sprintf("unknown node %T", n))
}

// joinInputs is what the operands need that no other operand produces.
func joinInputs(args []algebra.Node) map[string]struct{} {
	var in map[string]struct{}
	for i, arg := range args {
		for name := range inputVars(arg) {
			producedBySibling := false
			for j, other := range args {
				if i != j && slices.Contains(other.BindingNames(), name) {
					producedBySibling = true
					break
				}
			}
			if producedBySibling {
				continue
			}
			if in == nil {
				in = map[string]struct{}{}
			}
			in[name] = struct{}{}
		}
	}
	return in
}

func sortedSet(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(m))
}
