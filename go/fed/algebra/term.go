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
	"math"
	"strconv"
	"strings"
)

// TermKind tells IRIs, literals and blank nodes apart.
type TermKind uint8

const (
	IRI TermKind = iota + 1
	Literal
	BNode
)

const (
	XSD        = "http://www.w3.org/2001/XMLSchema#"
	XSDString  = XSD + "string"
	XSDBoolean = XSD + "boolean"
	XSDInteger = XSD + "integer"
	XSDDecimal = XSD + "decimal"
	XSDDouble  = XSD + "double"
	XSDFloat   = XSD + "float"
)

// Term is an RDF value: an IRI, a literal or a blank node.
// Terms are comparable with ==.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string
	Lang     string
}

func NewIRI(iri string) Term { return Term{Kind: IRI, Value: iri} }

func NewBNode(id string) Term { return Term{Kind: BNode, Value: id} }

func NewLiteral(lexical string) Term {
	return Term{Kind: Literal, Value: lexical, Datatype: XSDString}
}

func NewTypedLiteral(lexical, datatype string) Term {
	if datatype == "" {
		datatype = XSDString
	}
	return Term{Kind: Literal, Value: lexical, Datatype: datatype}
}

func NewLangLiteral(lexical, lang string) Term {
	return Term{Kind: Literal, Value: lexical, Lang: strings.ToLower(lang)}
}

func NewInteger(i int64) Term {
	return Term{Kind: Literal, Value: strconv.FormatInt(i, 10), Datatype: XSDInteger}
}

func NewBoolean(b bool) Term {
	return Term{Kind: Literal, Value: strconv.FormatBool(b), Datatype: XSDBoolean}
}

// IsResource is true for IRIs and blank nodes.
func (t Term) IsResource() bool {
	return t.Kind == IRI || t.Kind == BNode
}

func (t Term) String() string {
	switch t.Kind {
	case IRI:
		return "<" + t.Value + ">"
	case BNode:
		return "_:" + t.Value
	case Literal:
		s := quoteLiteral(t.Value)
		switch {
		case t.Lang != "":
			return s + "@" + t.Lang
		case t.Datatype != "" && t.Datatype != XSDString:
			return s + "^^<" + t.Datatype + ">"
		}
		return s
	}
	return "<invalid term>"
}

// quoteLiteral writes lexical as a double quoted SPARQL string. Characters
// with a short escape use it; other control characters become \uXXXX.
func quoteLiteral(lexical string) string {
	var sb strings.Builder
	sb.Grow(len(lexical) + 2)
	sb.WriteByte('"')
	for _, r := range lexical {
		switch r {
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\f':
			sb.WriteString(`\f`)
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\u%04X`, r)
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func (t Term) isNumeric() bool {
	if t.Kind != Literal {
		return false
	}
	switch t.Datatype {
	case XSDInteger, XSDDecimal, XSDDouble, XSDFloat:
		return true
	}
	return false
}

func (t Term) numeric() (float64, bool) {
	if !t.isNumeric() {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func (t Term) isPlainString() bool {
	return t.Kind == Literal && t.Lang == "" && (t.Datatype == XSDString || t.Datatype == "")
}

// EffectiveBoolean computes the effective boolean value of t. The second
// result is false when t has no boolean value (a type error).
func (t Term) EffectiveBoolean() (bool, bool) {
	if t.Kind != Literal {
		return false, false
	}
	switch {
	case t.Datatype == XSDBoolean:
		b, err := strconv.ParseBool(t.Value)
		if err != nil {
			return false, true
		}
		return b, true
	case t.isNumeric():
		f, ok := t.numeric()
		return ok && f != 0, true
	case t.isPlainString() || t.Lang != "":
		return t.Value != "", true
	}
	return false, false
}

// CompareOp is a comparison operator.
type CompareOp uint8

const (
	EQ CompareOp = iota
	NE
	LT
	LE
	GT
	GE
)

var compareOpNames = [...]string{EQ: "=", NE: "!=", LT: "<", LE: "<=", GT: ">", GE: ">="}

func (op CompareOp) String() string {
	if int(op) < len(compareOpNames) {
		return compareOpNames[op]
	}
	return "?"
}

// ParseCompareOp maps an operator token to a CompareOp.
func ParseCompareOp(s string) (CompareOp, bool) {
	for i, name := range compareOpNames {
		if name == s {
			return CompareOp(i), true
		}
	}
	return 0, false
}

// CompareTerms evaluates `a op b`. The second result is false when the terms
// cannot be compared with op; callers must then leave the comparison to the
// evaluator.
func CompareTerms(a, b Term, op CompareOp) (bool, bool) {
	if an, ok := a.numeric(); ok {
		bn, ok := b.numeric()
		if !ok {
			return compareUnrelated(a, b, op)
		}
		return compareOrdered(cmpFloat(an, bn), op), true
	}
	if a.isPlainString() && b.isPlainString() {
		return compareOrdered(strings.Compare(a.Value, b.Value), op), true
	}
	return compareUnrelated(a, b, op)
}

func compareUnrelated(a, b Term, op CompareOp) (bool, bool) {
	switch op {
	case EQ:
		if a == b {
			return true, true
		}
		if a.IsResource() || b.IsResource() {
			return false, true
		}
	case NE:
		if a == b {
			return false, true
		}
		if a.IsResource() || b.IsResource() {
			return true, true
		}
	}
	// two literals of unknown or different datatypes
	return false, false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareOrdered(c int, op CompareOp) bool {
	switch op {
	case EQ:
		return c == 0
	case NE:
		return c != 0
	case LT:
		return c < 0
	case LE:
		return c <= 0
	case GT:
		return c > 0
	case GE:
		return c >= 0
	}
	return false
}
