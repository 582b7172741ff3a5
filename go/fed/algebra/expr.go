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
)

// ValueExpr is a filter or join condition. The set of implementations is
// closed: *Var, *Constant, *Compare, *And, *Or, *Not, *SameTerm and *Bound.
type ValueExpr interface {
	String() string
	iValueExpr()
}

type (
	Constant struct {
		Value Term
	}

	Compare struct {
		Left, Right ValueExpr
		Op          CompareOp
	}

	And struct {
		Left, Right ValueExpr
	}

	Or struct {
		Left, Right ValueExpr
	}

	Not struct {
		Arg ValueExpr
	}

	SameTerm struct {
		Left, Right ValueExpr
	}

	// Bound tests whether Var has a value in the current row.
	Bound struct {
		Var *Var
	}
)

var (
	_ ValueExpr = (*Var)(nil)
	_ ValueExpr = (*Constant)(nil)
	_ ValueExpr = (*Compare)(nil)
	_ ValueExpr = (*And)(nil)
	_ ValueExpr = (*Or)(nil)
	_ ValueExpr = (*Not)(nil)
	_ ValueExpr = (*SameTerm)(nil)
	_ ValueExpr = (*Bound)(nil)
)

func (*Constant) iValueExpr() {}
func (*Compare) iValueExpr()  {}
func (*And) iValueExpr()      {}
func (*Or) iValueExpr()       {}
func (*Not) iValueExpr()      {}
func (*SameTerm) iValueExpr() {}
func (*Bound) iValueExpr()    {}

func (c *Constant) String() string { return c.Value.String() }

func (c *Compare) String() string {
	return fmt.Sprintf("(%s %s %s)", c.Left, c.Op, c.Right)
}

func (a *And) String() string { return fmt.Sprintf("(%s && %s)", a.Left, a.Right) }

func (o *Or) String() string { return fmt.Sprintf("(%s || %s)", o.Left, o.Right) }

func (n *Not) String() string { return "!" + n.Arg.String() }

func (s *SameTerm) String() string { return fmt.Sprintf("sameTerm(%s, %s)", s.Left, s.Right) }

func (b *Bound) String() string { return fmt.Sprintf("bound(%s)", b.Var) }

// ExprVars returns every Var occurring in e, in evaluation order.
func ExprVars(e ValueExpr) []*Var {
	var out []*Var
	walkExpr(e, func(e ValueExpr) {
		switch e := e.(type) {
		case *Var:
			out = append(out, e)
		case *Bound:
			out = append(out, e.Var)
		}
	})
	return out
}

// ContainsSameTerm reports whether e has a sameTerm call anywhere.
func ContainsSameTerm(e ValueExpr) bool {
	found := false
	walkExpr(e, func(e ValueExpr) {
		if _, ok := e.(*SameTerm); ok {
			found = true
		}
	})
	return found
}

func walkExpr(e ValueExpr, f func(ValueExpr)) {
	if e == nil {
		return
	}
	f(e)
	switch e := e.(type) {
	case *Var, *Constant, *Bound:
	case *Compare:
		walkExpr(e.Left, f)
		walkExpr(e.Right, f)
	case *And:
		walkExpr(e.Left, f)
		walkExpr(e.Right, f)
	case *Or:
		walkExpr(e.Left, f)
		walkExpr(e.Right, f)
	case *Not:
		walkExpr(e.Arg, f)
	case *SameTerm:
		walkExpr(e.Left, f)
		walkExpr(e.Right, f)
	default:
		panic(fmt.Sprintf("unknown value expression %T", e))
	}
}

// RewriteExpr rebuilds e bottom-up, replacing every sub-expression with the
// result of f. Sub-expressions f leaves alone are shared with e.
func RewriteExpr(e ValueExpr, f func(ValueExpr) ValueExpr) ValueExpr {
	if e == nil {
		return nil
	}
	switch e := e.(type) {
	case *Var, *Constant, *Bound:
		return f(e)
	case *Compare:
		l, r := RewriteExpr(e.Left, f), RewriteExpr(e.Right, f)
		if l != e.Left || r != e.Right {
			return f(&Compare{Left: l, Right: r, Op: e.Op})
		}
	case *And:
		l, r := RewriteExpr(e.Left, f), RewriteExpr(e.Right, f)
		if l != e.Left || r != e.Right {
			return f(&And{Left: l, Right: r})
		}
	case *Or:
		l, r := RewriteExpr(e.Left, f), RewriteExpr(e.Right, f)
		if l != e.Left || r != e.Right {
			return f(&Or{Left: l, Right: r})
		}
	case *Not:
		a := RewriteExpr(e.Arg, f)
		if a != e.Arg {
			return f(&Not{Arg: a})
		}
	case *SameTerm:
		l, r := RewriteExpr(e.Left, f), RewriteExpr(e.Right, f)
		if l != e.Left || r != e.Right {
			return f(&SameTerm{Left: l, Right: r})
		}
	default:
		panic(fmt.Sprintf("unknown value expression %T", e))
	}
	return f(e)
}

// MapExprVars replaces every Var in e, including the one inside bound(),
// with f(v).
func MapExprVars(e ValueExpr, f func(*Var) *Var) ValueExpr {
	return RewriteExpr(e, func(e ValueExpr) ValueExpr {
		switch e := e.(type) {
		case *Var:
			if nv := f(e); nv != e {
				return nv
			}
		case *Bound:
			if nv := f(e.Var); nv != e.Var {
				return &Bound{Var: nv}
			}
		}
		return e
	})
}
