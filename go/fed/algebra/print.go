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
	"strings"

	"github.com/xlab/treeprint"
)

// ToTree renders the tree for humans, one node per line.
func ToTree(n Node) string {
	return asTree(n, nil).String()
}

func asTree(n Node, root treeprint.Tree) treeprint.Tree {
	txt := nodeDescr(n)
	var branch treeprint.Tree
	if root == nil {
		branch = treeprint.NewWithRoot(txt)
	} else {
		branch = root.AddBranch(txt)
	}
	for _, child := range n.Inputs() {
		asTree(child, branch)
	}
	return branch
}

func nodeDescr(n Node) string {
	short := ShortDescription(n)
	if short == "" {
		return n.Kind().String()
	}
	return fmt.Sprintf("%s (%s)", n.Kind(), short)
}

// ShortDescription describes the node itself, without its inputs.
func ShortDescription(n Node) string {
	switch n := n.(type) {
	case *StatementPattern:
		var sb strings.Builder
		sb.WriteString(joinVars(n.Vars(), " "))
		if len(n.Sources) > 0 {
			sb.WriteString(" @")
			sb.WriteString(strings.Join(n.Sources, ","))
		}
		return sb.String()
	case *NaryJoin:
		if n.Fixed {
			return "fixed"
		}
	case *RankedNaryJoin:
		if n.LimitHint > 0 {
			return fmt.Sprintf("limit hint %d", n.LimitHint)
		}
	case *LeftJoin:
		if n.Condition != nil {
			return n.Condition.String()
		}
	case *Service:
		if n.Silent {
			return n.Endpoint.String() + " SILENT"
		}
		return n.Endpoint.String()
	case *Projection:
		parts := make([]string, 0, len(n.Elems))
		for _, e := range n.Elems {
			if e.Source == e.Target {
				parts = append(parts, "?"+e.Target)
			} else {
				parts = append(parts, fmt.Sprintf("?%s AS ?%s", e.Source, e.Target))
			}
		}
		return strings.Join(parts, " ")
	case *Filter:
		return n.Condition.String()
	case *Slice:
		if !n.HasLimit() {
			return fmt.Sprintf("offset %d", n.Offset)
		}
		return fmt.Sprintf("offset %d limit %d", n.Offset, n.Limit)
	case *EmptySet:
		return strings.Join(n.Names, " ")
	case *Owned:
		if n.Prepared != nil {
			return "@" + n.Source + " prepared"
		}
		return "@" + n.Source
	}
	return ""
}

func joinVars(vars []*Var, sep string) string {
	parts := make([]string, 0, len(vars))
	for _, v := range vars {
		parts = append(parts, v.String())
	}
	return strings.Join(parts, sep)
}

// String renders the tree on one line. Equal trees give equal strings, so
// the result can serve as a cache key.
func String(n Node) string {
	var sb strings.Builder
	writeNode(&sb, n)
	return sb.String()
}

func writeNode(sb *strings.Builder, n Node) {
	sb.WriteString(n.Kind().String())
	if short := ShortDescription(n); short != "" {
		sb.WriteByte('[')
		sb.WriteString(short)
		sb.WriteByte(']')
	}
	inputs := n.Inputs()
	if len(inputs) == 0 {
		return
	}
	sb.WriteByte('(')
	for i, in := range inputs {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeNode(sb, in)
	}
	sb.WriteByte(')')
}
