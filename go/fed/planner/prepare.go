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
	"strconv"
	"strings"

	"github.com/fedopt/fedopt/go/fed/algebra"
	"github.com/fedopt/fedopt/go/fed/planner/plancontext"
)

// prepareOwnedTupleExprs renders every owned sub-tree into the query its
// member is sent, so the evaluator makes one call per owned sub-tree.
func prepareOwnedTupleExprs(ctx *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *algebra.ApplyResult) {
	return algebra.BottomUp(root, func(n algebra.Node) (algebra.Node, *algebra.ApplyResult) {
		owned, ok := n.(*algebra.Owned)
		if !ok {
			return n, algebra.NoRewrite
		}
		prepared := &algebra.Prepared{
			Query:    RenderQuery(owned.Arg, ctx.Dataset),
			Bindings: owned.Arg.BindingNames(),
		}
		if owned.Prepared != nil && owned.Prepared.Query == prepared.Query && slices.Equal(owned.Prepared.Bindings, prepared.Bindings) {
			return n, algebra.NoRewrite
		}
		return &algebra.Owned{Source: owned.Source, Arg: owned.Arg, Prepared: prepared},
			algebra.Rewrote(fmt.Sprintf("prepared query for %s", owned.Source))
	}, stopAtRemote)
}

// RenderQuery writes n as a SPARQL SELECT query over dataset.
func RenderQuery(n algebra.Node, dataset *algebra.Dataset) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if names := n.BindingNames(); len(names) > 0 {
		writeVarList(&sb, names)
	} else {
		sb.WriteString("*")
	}
	if !dataset.IsEmpty() {
		for _, g := range dataset.DefaultGraphs {
			sb.WriteString(" FROM " + g.String())
		}
		for _, g := range dataset.NamedGraphs {
			sb.WriteString(" FROM NAMED " + g.String())
		}
	}
	sb.WriteString(" WHERE { ")
	writePattern(&sb, n)
	sb.WriteString("}")
	return sb.String()
}

func writeVarList(sb *strings.Builder, names []string) {
	for i, name := range names {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString("?" + name)
	}
}

// writePattern writes the group graph pattern content of n. Every piece it
// writes ends with a space.
func writePattern(sb *strings.Builder, n algebra.Node) {
	switch n := n.(type) {
	case *algebra.StatementPattern:
		triple := fmt.Sprintf("%s %s %s . ", varTerm(n.Subject), varTerm(n.Predicate), varTerm(n.Object))
		if n.Context != nil {
			fmt.Fprintf(sb, "GRAPH %s { %s} ", varTerm(n.Context), triple)
			return
		}
		sb.WriteString(triple)
	case *algebra.Join, *algebra.NaryJoin, *algebra.RankedNaryJoin:
		for _, in := range n.Inputs() {
			writePattern(sb, in)
		}
	case *algebra.LeftJoin:
		writePattern(sb, n.Left)
		sb.WriteString("OPTIONAL { ")
		writePattern(sb, n.Right)
		if n.Condition != nil {
			sb.WriteString("FILTER (" + renderExpr(n.Condition) + ") ")
		}
		sb.WriteString("} ")
	case *algebra.Union, *algebra.NaryUnion:
		for i, in := range n.Inputs() {
			if i > 0 {
				sb.WriteString("UNION ")
			}
			sb.WriteString("{ ")
			writePattern(sb, in)
			sb.WriteString("} ")
		}
	case *algebra.Filter:
		sb.WriteString("{ ")
		writePattern(sb, n.Arg)
		sb.WriteString("FILTER (" + renderExpr(n.Condition) + ") } ")
	case *algebra.Service:
		sb.WriteString("SERVICE ")
		if n.Silent {
			sb.WriteString("SILENT ")
		}
		sb.WriteString(varTerm(n.Endpoint) + " { ")
		writePattern(sb, n.Arg)
		sb.WriteString("} ")
	case *algebra.Projection:
		sb.WriteString("{ SELECT ")
		for i, e := range n.Elems {
			if i > 0 {
				sb.WriteByte(' ')
			}
			if e.Source == e.Target {
				sb.WriteString("?" + e.Target)
			} else {
				fmt.Fprintf(sb, "(?%s AS ?%s)", e.Source, e.Target)
			}
		}
		if len(n.Elems) == 0 {
			sb.WriteString("*")
		}
		writeSubSelect(sb, n.Arg, "")
	case *algebra.Distinct:
		sb.WriteString("{ SELECT DISTINCT *")
		writeSubSelect(sb, n.Arg, "")
	case *algebra.Reduced:
		sb.WriteString("{ SELECT REDUCED *")
		writeSubSelect(sb, n.Arg, "")
	case *algebra.Slice:
		modifiers := " OFFSET " + strconv.FormatInt(n.Offset, 10)
		if n.HasLimit() {
			modifiers += " LIMIT " + strconv.FormatInt(n.Limit, 10)
		}
		sb.WriteString("{ SELECT *")
		writeSubSelect(sb, n.Arg, modifiers)
	case *algebra.EmptySet:
		sb.WriteString("FILTER (false) ")
	case *algebra.SingletonSet:
		sb.WriteString("{} ")
	case *algebra.Owned:
		writePattern(sb, n.Arg)
	default:
		panic(fmt.Sprintf("unknown node %T", n))
	}
}

func writeSubSelect(sb *strings.Builder, arg algebra.Node, modifiers string) {
	sb.WriteString(" WHERE { ")
	writePattern(sb, arg)
	sb.WriteString("}" + modifiers + " } ")
}

// varTerm is the query text of a variable slot: the variable, or its value.
func varTerm(v *algebra.Var) string {
	if v.HasValue() {
		return v.Value.String()
	}
	return "?" + v.Name
}

func renderExpr(e algebra.ValueExpr) string {
	switch e := e.(type) {
	case *algebra.Var:
		return varTerm(e)
	case *algebra.Constant:
		return e.Value.String()
	case *algebra.Compare:
		return fmt.Sprintf("(%s %s %s)", renderExpr(e.Left), e.Op, renderExpr(e.Right))
	case *algebra.And:
		return fmt.Sprintf("(%s && %s)", renderExpr(e.Left), renderExpr(e.Right))
	case *algebra.Or:
		return fmt.Sprintf("(%s || %s)", renderExpr(e.Left), renderExpr(e.Right))
	case *algebra.Not:
		return "!" + renderExpr(e.Arg)
	case *algebra.SameTerm:
		return fmt.Sprintf("sameTerm(%s, %s)", renderExpr(e.Left), renderExpr(e.Right))
	case *algebra.Bound:
		if e.Var.HasValue() {
			return "true"
		}
		return "bound(?" + e.Var.Name + ")"
	}
	panic(fmt.Sprintf("unknown value expression %T", e))
}
