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

// Package algebra contains the query algebra the federation optimizer
// rewrites: tuple expressions (Node), variables, value expressions and terms.
package algebra

import (
	"fmt"
	"slices"
)

// Kind tags each Node implementation.
type Kind uint8

const (
	KindStatementPattern Kind = iota
	KindJoin
	KindLeftJoin
	KindNaryJoin
	KindRankedNaryJoin
	KindUnion
	KindNaryUnion
	KindService
	KindProjection
	KindDistinct
	KindReduced
	KindFilter
	KindSlice
	KindEmptySet
	KindSingletonSet
	KindOwned
)

var kindNames = [...]string{
	KindStatementPattern: "StatementPattern",
	KindJoin:             "Join",
	KindLeftJoin:         "LeftJoin",
	KindNaryJoin:         "NaryJoin",
	KindRankedNaryJoin:   "RankedNaryJoin",
	KindUnion:            "Union",
	KindNaryUnion:        "NaryUnion",
	KindService:          "Service",
	KindProjection:       "Projection",
	KindDistinct:         "Distinct",
	KindReduced:          "Reduced",
	KindFilter:           "Filter",
	KindSlice:            "Slice",
	KindEmptySet:         "EmptySet",
	KindSingletonSet:     "SingletonSet",
	KindOwned:            "Owned",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Node is a tuple expression. Nodes are never modified after construction:
// rewrites build new parents through Clone, and untouched sub-trees are
// shared between the old and the new tree.
type Node interface {
	Kind() Kind

	// Inputs returns the children of this node, in order.
	Inputs() []Node

	// Clone returns a copy of this node with its children replaced by inputs.
	Clone(inputs []Node) Node

	// BindingNames returns the sorted names of the variables this node can
	// bind in a result row.
	BindingNames() []string

	iNode()
}

type (
	// StatementPattern matches triples (quads when Context is set).
	StatementPattern struct {
		Subject, Predicate, Object, Context *Var

		// Sources lists the federation members that may hold matches, once
		// source selection has run. Nil means no selection was made.
		Sources []string
	}

	Join struct {
		Left, Right Node
	}

	// LeftJoin is an OPTIONAL: rows of Left, extended by Right when Condition holds.
	LeftJoin struct {
		Left, Right Node
		Condition   ValueExpr
	}

	// NaryJoin joins Args in the order given. Fixed operands are never reordered.
	NaryJoin struct {
		Args  []Node
		Fixed bool
	}

	// RankedNaryJoin is an n-ary join evaluated in operand order with early
	// termination. LimitHint, when positive, is the number of rows the
	// consumer needs.
	RankedNaryJoin struct {
		Args      []Node
		LimitHint int64
	}

	Union struct {
		Left, Right Node
	}

	NaryUnion struct {
		Args []Node
	}

	// Service is a remote call to Endpoint. Endpoint may be an unbound
	// variable, in which case it must be bound before the call runs.
	Service struct {
		Endpoint *Var
		Arg      Node
		Silent   bool
	}

	ProjectionElem struct {
		Source, Target string
	}

	Projection struct {
		Arg   Node
		Elems []ProjectionElem
	}

	Distinct struct {
		Arg Node
	}

	Reduced struct {
		Arg Node
	}

	Filter struct {
		Arg       Node
		Condition ValueExpr
	}

	// Slice is LIMIT/OFFSET. A negative Limit means no limit.
	Slice struct {
		Arg    Node
		Offset int64
		Limit  int64
	}

	// EmptySet produces no rows. Names are the bindings of the expression it
	// replaced.
	EmptySet struct {
		Names []string
	}

	// SingletonSet produces exactly one empty row.
	SingletonSet struct{}

	// Owned marks a sub-tree that executes entirely at Source.
	Owned struct {
		Source   string
		Arg      Node
		Prepared *Prepared
	}

	// Prepared is the dispatch form of an Owned sub-tree.
	Prepared struct {
		Query    string
		Bindings []string
	}
)

var (
	_ Node = (*StatementPattern)(nil)
	_ Node = (*Join)(nil)
	_ Node = (*LeftJoin)(nil)
	_ Node = (*NaryJoin)(nil)
	_ Node = (*RankedNaryJoin)(nil)
	_ Node = (*Union)(nil)
	_ Node = (*NaryUnion)(nil)
	_ Node = (*Service)(nil)
	_ Node = (*Projection)(nil)
	_ Node = (*Distinct)(nil)
	_ Node = (*Reduced)(nil)
	_ Node = (*Filter)(nil)
	_ Node = (*Slice)(nil)
	_ Node = (*EmptySet)(nil)
	_ Node = (*SingletonSet)(nil)
	_ Node = (*Owned)(nil)
)

func NewStatementPattern(s, p, o *Var) *StatementPattern {
	return &StatementPattern{Subject: s, Predicate: p, Object: o}
}

func NewSlice(arg Node, offset, limit int64) *Slice {
	return &Slice{Arg: arg, Offset: offset, Limit: limit}
}

// Vars returns the non-nil positions of the pattern, context last.
func (sp *StatementPattern) Vars() []*Var {
	out := make([]*Var, 0, 4)
	for _, v := range []*Var{sp.Subject, sp.Predicate, sp.Object, sp.Context} {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

// HasLimit is false for OFFSET-only slices.
func (s *Slice) HasLimit() bool { return s.Limit >= 0 }

func (*StatementPattern) Kind() Kind { return KindStatementPattern }
func (*Join) Kind() Kind             { return KindJoin }
func (*LeftJoin) Kind() Kind         { return KindLeftJoin }
func (*NaryJoin) Kind() Kind         { return KindNaryJoin }
func (*RankedNaryJoin) Kind() Kind   { return KindRankedNaryJoin }
func (*Union) Kind() Kind            { return KindUnion }
func (*NaryUnion) Kind() Kind        { return KindNaryUnion }
func (*Service) Kind() Kind          { return KindService }
func (*Projection) Kind() Kind       { return KindProjection }
func (*Distinct) Kind() Kind         { return KindDistinct }
func (*Reduced) Kind() Kind          { return KindReduced }
func (*Filter) Kind() Kind           { return KindFilter }
func (*Slice) Kind() Kind            { return KindSlice }
func (*EmptySet) Kind() Kind         { return KindEmptySet }
func (*SingletonSet) Kind() Kind     { return KindSingletonSet }
func (*Owned) Kind() Kind            { return KindOwned }

func (*StatementPattern) iNode() {}
func (*Join) iNode()             {}
func (*LeftJoin) iNode()         {}
func (*NaryJoin) iNode()         {}
func (*RankedNaryJoin) iNode()   {}
func (*Union) iNode()            {}
func (*NaryUnion) iNode()        {}
func (*Service) iNode()          {}
func (*Projection) iNode()       {}
func (*Distinct) iNode()         {}
func (*Reduced) iNode()          {}
func (*Filter) iNode()           {}
func (*Slice) iNode()            {}
func (*EmptySet) iNode()         {}
func (*SingletonSet) iNode()     {}
func (*Owned) iNode()            {}

func (*StatementPattern) Inputs() []Node { return nil }
func (j *Join) Inputs() []Node           { return []Node{j.Left, j.Right} }
func (j *LeftJoin) Inputs() []Node       { return []Node{j.Left, j.Right} }
func (j *NaryJoin) Inputs() []Node       { return j.Args }
func (j *RankedNaryJoin) Inputs() []Node { return j.Args }
func (u *Union) Inputs() []Node          { return []Node{u.Left, u.Right} }
func (u *NaryUnion) Inputs() []Node      { return u.Args }
func (s *Service) Inputs() []Node        { return []Node{s.Arg} }
func (p *Projection) Inputs() []Node     { return []Node{p.Arg} }
func (d *Distinct) Inputs() []Node       { return []Node{d.Arg} }
func (r *Reduced) Inputs() []Node        { return []Node{r.Arg} }
func (f *Filter) Inputs() []Node         { return []Node{f.Arg} }
func (s *Slice) Inputs() []Node          { return []Node{s.Arg} }
func (*EmptySet) Inputs() []Node         { return nil }
func (*SingletonSet) Inputs() []Node     { return nil }
func (o *Owned) Inputs() []Node          { return []Node{o.Arg} }

func (sp *StatementPattern) Clone([]Node) Node {
	c := *sp
	c.Sources = slices.Clone(sp.Sources)
	return &c
}

func (j *Join) Clone(inputs []Node) Node {
	return &Join{Left: inputs[0], Right: inputs[1]}
}

func (j *LeftJoin) Clone(inputs []Node) Node {
	return &LeftJoin{Left: inputs[0], Right: inputs[1], Condition: j.Condition}
}

func (j *NaryJoin) Clone(inputs []Node) Node {
	return &NaryJoin{Args: slices.Clone(inputs), Fixed: j.Fixed}
}

func (j *RankedNaryJoin) Clone(inputs []Node) Node {
	return &RankedNaryJoin{Args: slices.Clone(inputs), LimitHint: j.LimitHint}
}

func (u *Union) Clone(inputs []Node) Node {
	return &Union{Left: inputs[0], Right: inputs[1]}
}

func (u *NaryUnion) Clone(inputs []Node) Node {
	return &NaryUnion{Args: slices.Clone(inputs)}
}

func (s *Service) Clone(inputs []Node) Node {
	return &Service{Endpoint: s.Endpoint, Arg: inputs[0], Silent: s.Silent}
}

func (p *Projection) Clone(inputs []Node) Node {
	return &Projection{Arg: inputs[0], Elems: slices.Clone(p.Elems)}
}

func (d *Distinct) Clone(inputs []Node) Node { return &Distinct{Arg: inputs[0]} }

func (r *Reduced) Clone(inputs []Node) Node { return &Reduced{Arg: inputs[0]} }

func (f *Filter) Clone(inputs []Node) Node {
	return &Filter{Arg: inputs[0], Condition: f.Condition}
}

func (s *Slice) Clone(inputs []Node) Node {
	return &Slice{Arg: inputs[0], Offset: s.Offset, Limit: s.Limit}
}

func (e *EmptySet) Clone([]Node) Node {
	return &EmptySet{Names: slices.Clone(e.Names)}
}

func (*SingletonSet) Clone([]Node) Node { return &SingletonSet{} }

func (p *Prepared) clone() *Prepared {
	if p == nil {
		return nil
	}
	return &Prepared{Query: p.Query, Bindings: slices.Clone(p.Bindings)}
}

// Clone keeps the prepared query only while the argument it was rendered from
// is unchanged.
func (o *Owned) Clone(inputs []Node) Node {
	c := &Owned{Source: o.Source, Arg: inputs[0]}
	if inputs[0] == o.Arg {
		c.Prepared = o.Prepared.clone()
	}
	return c
}

func (sp *StatementPattern) BindingNames() []string {
	return varNames(sp.Vars())
}

func (j *Join) BindingNames() []string { return mergeNames(j.Left, j.Right) }

func (j *LeftJoin) BindingNames() []string { return mergeNames(j.Left, j.Right) }

func (j *NaryJoin) BindingNames() []string { return mergeNames(j.Args...) }

func (j *RankedNaryJoin) BindingNames() []string { return mergeNames(j.Args...) }

func (u *Union) BindingNames() []string { return mergeNames(u.Left, u.Right) }

func (u *NaryUnion) BindingNames() []string { return mergeNames(u.Args...) }

func (s *Service) BindingNames() []string { return s.Arg.BindingNames() }

func (p *Projection) BindingNames() []string {
	names := make([]string, 0, len(p.Elems))
	for _, e := range p.Elems {
		names = append(names, e.Target)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

func (d *Distinct) BindingNames() []string { return d.Arg.BindingNames() }

func (r *Reduced) BindingNames() []string { return r.Arg.BindingNames() }

func (f *Filter) BindingNames() []string { return f.Arg.BindingNames() }

func (s *Slice) BindingNames() []string { return s.Arg.BindingNames() }

func (e *EmptySet) BindingNames() []string { return slices.Clone(e.Names) }

func (*SingletonSet) BindingNames() []string { return nil }

func (o *Owned) BindingNames() []string { return o.Arg.BindingNames() }

func varNames(vars []*Var) []string {
	var names []string
	for _, v := range vars {
		if v != nil && !v.Anonymous {
			names = append(names, v.Name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

func mergeNames(nodes ...Node) []string {
	var names []string
	for _, n := range nodes {
		names = append(names, n.BindingNames()...)
	}
	slices.Sort(names)
	return slices.Compact(names)
}
