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
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/fedopt/fedopt/go/fed/federrors"
)

// JSON tags of the node kinds. A tree document is a nested object with a
// "kind" member, for example
//
//	{"kind": "slice", "limit": 5, "arg": {"kind": "statement_pattern",
//	  "subject": {"var": "s"}, "predicate": {"iri": "http://ex.org/p"},
//	  "object": {"var": "o"}}}
var kindTags = [...]string{
	KindStatementPattern: "statement_pattern",
	KindJoin:             "join",
	KindLeftJoin:         "left_join",
	KindNaryJoin:         "nary_join",
	KindRankedNaryJoin:   "ranked_nary_join",
	KindUnion:            "union",
	KindNaryUnion:        "nary_union",
	KindService:          "service",
	KindProjection:       "projection",
	KindDistinct:         "distinct",
	KindReduced:          "reduced",
	KindFilter:           "filter",
	KindSlice:            "slice",
	KindEmptySet:         "empty_set",
	KindSingletonSet:     "singleton_set",
	KindOwned:            "owned",
}

const (
	opAnd      = "&&"
	opOr       = "||"
	opNot      = "!"
	opSameTerm = "sameTerm"
	opBound    = "bound"
)

// ToJSON is a debug only function. It can panic, so do not use this in production code
func ToJSON(n Node) string {
	out, err := Marshal(n)
	if err != nil {
		panic(err)
	}
	return string(out)
}

// Marshal encodes n in the document format Parse reads.
func Marshal(n Node) ([]byte, error) {
	return json.MarshalIndent(encodeNode(n), "", "  ")
}

type object = map[string]any

func encodeNode(n Node) object {
	o := object{"kind": kindTags[n.Kind()]}
	switch n := n.(type) {
	case *StatementPattern:
		o["subject"] = encodeVar(n.Subject)
		o["predicate"] = encodeVar(n.Predicate)
		o["object"] = encodeVar(n.Object)
		if n.Context != nil {
			o["context"] = encodeVar(n.Context)
		}
		if n.Sources != nil {
			o["sources"] = n.Sources
		}
	case *Join:
		o["left"], o["right"] = encodeNode(n.Left), encodeNode(n.Right)
	case *LeftJoin:
		o["left"], o["right"] = encodeNode(n.Left), encodeNode(n.Right)
		if n.Condition != nil {
			o["condition"] = encodeExpr(n.Condition)
		}
	case *NaryJoin:
		o["args"] = encodeNodes(n.Args)
		if n.Fixed {
			o["fixed"] = true
		}
	case *RankedNaryJoin:
		o["args"] = encodeNodes(n.Args)
		if n.LimitHint > 0 {
			o["limit_hint"] = n.LimitHint
		}
	case *Union:
		o["left"], o["right"] = encodeNode(n.Left), encodeNode(n.Right)
	case *NaryUnion:
		o["args"] = encodeNodes(n.Args)
	case *Service:
		o["endpoint"] = encodeVar(n.Endpoint)
		o["arg"] = encodeNode(n.Arg)
		if n.Silent {
			o["silent"] = true
		}
	case *Projection:
		elems := make([]object, 0, len(n.Elems))
		for _, e := range n.Elems {
			elems = append(elems, object{"source": e.Source, "target": e.Target})
		}
		o["elems"] = elems
		o["arg"] = encodeNode(n.Arg)
	case *Distinct:
		o["arg"] = encodeNode(n.Arg)
	case *Reduced:
		o["arg"] = encodeNode(n.Arg)
	case *Filter:
		o["condition"] = encodeExpr(n.Condition)
		o["arg"] = encodeNode(n.Arg)
	case *Slice:
		o["offset"] = n.Offset
		if n.HasLimit() {
			o["limit"] = n.Limit
		}
		o["arg"] = encodeNode(n.Arg)
	case *EmptySet:
		o["names"] = append([]string{}, n.Names...)
	case *SingletonSet:
	case *Owned:
		o["source"] = n.Source
		o["arg"] = encodeNode(n.Arg)
		if n.Prepared != nil {
			o["prepared"] = object{"query": n.Prepared.Query, "bindings": n.Prepared.Bindings}
		}
	default:
		panic(fmt.Sprintf("unknown node %T", n))
	}
	return o
}

func encodeNodes(nodes []Node) []object {
	out := make([]object, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, encodeNode(n))
	}
	return out
}

func encodeTerm(t Term) object {
	switch t.Kind {
	case IRI:
		return object{"iri": t.Value}
	case BNode:
		return object{"bnode": t.Value}
	}
	o := object{"literal": t.Value}
	if t.Lang != "" {
		o["lang"] = t.Lang
	} else if t.Datatype != "" && t.Datatype != XSDString {
		o["datatype"] = t.Datatype
	}
	return o
}

func encodeVar(v *Var) object {
	if v.Anonymous && v.HasValue() {
		return encodeTerm(*v.Value)
	}
	o := object{"var": v.Name}
	if v.HasValue() {
		o["value"] = encodeTerm(*v.Value)
	}
	if v.Anonymous {
		o["anonymous"] = true
	}
	return o
}

func encodeExpr(e ValueExpr) object {
	switch e := e.(type) {
	case *Var:
		return encodeVar(e)
	case *Constant:
		return encodeTerm(e.Value)
	case *Compare:
		return object{"op": e.Op.String(), "left": encodeExpr(e.Left), "right": encodeExpr(e.Right)}
	case *And:
		return object{"op": opAnd, "left": encodeExpr(e.Left), "right": encodeExpr(e.Right)}
	case *Or:
		return object{"op": opOr, "left": encodeExpr(e.Left), "right": encodeExpr(e.Right)}
	case *Not:
		return object{"op": opNot, "arg": encodeExpr(e.Arg)}
	case *SameTerm:
		return object{"op": opSameTerm, "left": encodeExpr(e.Left), "right": encodeExpr(e.Right)}
	case *Bound:
		return object{"op": opBound, "arg": encodeVar(e.Var)}
	}
	panic(fmt.Sprintf("unknown value expression %T", e))
}

// Parse decodes a tree document. Errors carry the JSON path of the offending
// member.
func Parse(data []byte) (Node, error) {
	if !gjson.ValidBytes(data) {
		return nil, federrors.FED09001("document is not valid JSON")
	}
	d := &decoder{}
	n := d.node(gjson.ParseBytes(data), "$")
	if d.err != nil {
		return nil, d.err
	}
	return n, nil
}

type decoder struct {
	err error
}

func (d *decoder) fail(path, format string, args ...any) {
	if d.err == nil {
		d.err = federrors.FED09001(path + ": " + fmt.Sprintf(format, args...))
	}
}

func (d *decoder) node(r gjson.Result, path string) Node {
	if d.err != nil {
		return nil
	}
	if !r.IsObject() {
		d.fail(path, "expected a node object")
		return nil
	}
	tag := r.Get("kind").String()
	switch tag {
	case kindTags[KindStatementPattern]:
		sp := &StatementPattern{
			Subject:   d.varSlot(r.Get("subject"), path+".subject"),
			Predicate: d.varSlot(r.Get("predicate"), path+".predicate"),
			Object:    d.varSlot(r.Get("object"), path+".object"),
		}
		if c := r.Get("context"); c.Exists() {
			sp.Context = d.varSlot(c, path+".context")
		}
		if s := r.Get("sources"); s.Exists() {
			sp.Sources = d.strings(s, path+".sources")
		}
		return sp
	case kindTags[KindJoin]:
		return &Join{Left: d.node(r.Get("left"), path+".left"), Right: d.node(r.Get("right"), path+".right")}
	case kindTags[KindLeftJoin]:
		lj := &LeftJoin{Left: d.node(r.Get("left"), path+".left"), Right: d.node(r.Get("right"), path+".right")}
		if c := r.Get("condition"); c.Exists() {
			lj.Condition = d.expr(c, path+".condition")
		}
		return lj
	case kindTags[KindNaryJoin]:
		return &NaryJoin{Args: d.nodes(r.Get("args"), path+".args"), Fixed: r.Get("fixed").Bool()}
	case kindTags[KindRankedNaryJoin]:
		return &RankedNaryJoin{Args: d.nodes(r.Get("args"), path+".args"), LimitHint: r.Get("limit_hint").Int()}
	case kindTags[KindUnion]:
		return &Union{Left: d.node(r.Get("left"), path+".left"), Right: d.node(r.Get("right"), path+".right")}
	case kindTags[KindNaryUnion]:
		return &NaryUnion{Args: d.nodes(r.Get("args"), path+".args")}
	case kindTags[KindService]:
		return &Service{
			Endpoint: d.varSlot(r.Get("endpoint"), path+".endpoint"),
			Arg:      d.node(r.Get("arg"), path+".arg"),
			Silent:   r.Get("silent").Bool(),
		}
	case kindTags[KindProjection]:
		return &Projection{Arg: d.node(r.Get("arg"), path+".arg"), Elems: d.elems(r.Get("elems"), path+".elems")}
	case kindTags[KindDistinct]:
		return &Distinct{Arg: d.node(r.Get("arg"), path+".arg")}
	case kindTags[KindReduced]:
		return &Reduced{Arg: d.node(r.Get("arg"), path+".arg")}
	case kindTags[KindFilter]:
		return &Filter{Arg: d.node(r.Get("arg"), path+".arg"), Condition: d.expr(r.Get("condition"), path+".condition")}
	case kindTags[KindSlice]:
		s := &Slice{Arg: d.node(r.Get("arg"), path+".arg"), Offset: r.Get("offset").Int(), Limit: -1}
		if l := r.Get("limit"); l.Exists() {
			s.Limit = l.Int()
		}
		if s.Offset < 0 {
			d.fail(path+".offset", "offset must not be negative")
		}
		return s
	case kindTags[KindEmptySet]:
		return &EmptySet{Names: d.strings(r.Get("names"), path+".names")}
	case kindTags[KindSingletonSet]:
		return &SingletonSet{}
	case kindTags[KindOwned]:
		o := &Owned{Source: r.Get("source").String(), Arg: d.node(r.Get("arg"), path+".arg")}
		if o.Source == "" {
			d.fail(path+".source", "owned expression needs a source")
		}
		if p := r.Get("prepared"); p.Exists() {
			o.Prepared = &Prepared{Query: p.Get("query").String(), Bindings: d.strings(p.Get("bindings"), path+".prepared.bindings")}
		}
		return o
	case "":
		d.fail(path, "missing kind")
	default:
		d.fail(path, "unknown kind %q", tag)
	}
	return nil
}

func (d *decoder) nodes(r gjson.Result, path string) []Node {
	if !r.IsArray() {
		d.fail(path, "expected an array of nodes")
		return nil
	}
	var out []Node
	for i, item := range r.Array() {
		out = append(out, d.node(item, fmt.Sprintf("%s[%d]", path, i)))
	}
	return out
}

func (d *decoder) strings(r gjson.Result, path string) []string {
	if !r.IsArray() {
		d.fail(path, "expected an array of strings")
		return nil
	}
	out := []string{}
	for _, item := range r.Array() {
		out = append(out, item.String())
	}
	return out
}

func (d *decoder) elems(r gjson.Result, path string) []ProjectionElem {
	if !r.IsArray() {
		d.fail(path, "expected an array of projection elements")
		return nil
	}
	var out []ProjectionElem
	for i, item := range r.Array() {
		// a bare name projects a variable onto itself
		if item.Type == gjson.String {
			out = append(out, ProjectionElem{Source: item.String(), Target: item.String()})
			continue
		}
		src, tgt := item.Get("source").String(), item.Get("target").String()
		if tgt == "" {
			tgt = src
		}
		if src == "" {
			d.fail(fmt.Sprintf("%s[%d]", path, i), "projection element needs a source")
		}
		out = append(out, ProjectionElem{Source: src, Target: tgt})
	}
	return out
}

func (d *decoder) term(r gjson.Result, path string) (Term, bool) {
	switch {
	case r.Get("iri").Exists():
		return NewIRI(r.Get("iri").String()), true
	case r.Get("bnode").Exists():
		return NewBNode(r.Get("bnode").String()), true
	case r.Get("literal").Exists():
		lex := r.Get("literal").String()
		if lang := r.Get("lang"); lang.Exists() {
			return NewLangLiteral(lex, lang.String()), true
		}
		return NewTypedLiteral(lex, r.Get("datatype").String()), true
	}
	d.fail(path, "expected a term")
	return Term{}, false
}

func (d *decoder) varSlot(r gjson.Result, path string) *Var {
	if d.err != nil {
		return nil
	}
	if !r.IsObject() {
		d.fail(path, "expected a variable or a term")
		return nil
	}
	if name := r.Get("var"); name.Exists() {
		if name.String() == "" {
			d.fail(path, "empty variable name")
			return nil
		}
		v := &Var{Name: name.String(), Anonymous: r.Get("anonymous").Bool()}
		if val := r.Get("value"); val.Exists() {
			if t, ok := d.term(val, path+".value"); ok {
				v.Value = &t
			}
		}
		return v
	}
	t, ok := d.term(r, path)
	if !ok {
		return nil
	}
	return NewConstVar(t)
}

func (d *decoder) expr(r gjson.Result, path string) ValueExpr {
	if d.err != nil {
		return nil
	}
	if !r.IsObject() {
		d.fail(path, "expected an expression")
		return nil
	}
	op := r.Get("op")
	if !op.Exists() {
		if r.Get("var").Exists() {
			return d.varSlot(r, path)
		}
		t, _ := d.term(r, path)
		return &Constant{Value: t}
	}
	left := func() ValueExpr { return d.expr(r.Get("left"), path+".left") }
	right := func() ValueExpr { return d.expr(r.Get("right"), path+".right") }
	switch op.String() {
	case opAnd:
		return &And{Left: left(), Right: right()}
	case opOr:
		return &Or{Left: left(), Right: right()}
	case opNot:
		return &Not{Arg: d.expr(r.Get("arg"), path+".arg")}
	case opSameTerm:
		return &SameTerm{Left: left(), Right: right()}
	case opBound:
		return &Bound{Var: d.varSlot(r.Get("arg"), path+".arg")}
	}
	cmp, ok := ParseCompareOp(op.String())
	if !ok {
		d.fail(path, "unknown operator %q", op.String())
		return nil
	}
	return &Compare{Left: left(), Right: right(), Op: cmp}
}
