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

// Package hints reads optimizer directives written into a query as statement
// patterns whose predicate lives in the hint namespace, e.g.
//
//	hint:query hint:joinOrder "fixed" .
package hints

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fedopt/fedopt/go/fed/algebra"
	"github.com/fedopt/fedopt/go/fed/federrors"
	"github.com/fedopt/fedopt/go/fed/log"
)

// DefaultNamespace is the predicate namespace hints are recognised in.
const DefaultNamespace = "http://fedopt.io/hint#"

// Hint keys.
const (
	JoinOrder     = "joinOrder"
	PreferSource  = "preferSource"
	InlineService = "inlineService"
	LocalReorder  = "localReorder"
)

type JoinOrderMode string

const (
	JoinOrderCost  JoinOrderMode = "cost"
	JoinOrderFixed JoinOrderMode = "fixed"
)

// Setup holds the hints found in one query. A nil *Setup means no hints were
// given; its accessors then report the defaults.
type Setup struct {
	JoinOrder     JoinOrderMode
	PreferSource  string
	InlineService bool
	LocalReorder  bool

	// Raw has every applied hint, keyed by hint name.
	Raw map[string]string
}

// Default returns the setup used when a query carries no hints.
func Default() *Setup {
	return &Setup{
		JoinOrder:     JoinOrderCost,
		InlineService: true,
		LocalReorder:  true,
		Raw:           map[string]string{},
	}
}

func (s *Setup) FixedJoinOrder() bool {
	return s != nil && s.JoinOrder == JoinOrderFixed
}

func (s *Setup) PreferredSource() string {
	if s == nil {
		return ""
	}
	return s.PreferSource
}

func (s *Setup) ShouldInlineService() bool {
	return s == nil || s.InlineService
}

func (s *Setup) ShouldReorderLocal() bool {
	return s == nil || s.LocalReorder
}

func (s *Setup) String() string {
	if s == nil || len(s.Raw) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(s.Raw))
	for k := range s.Raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+s.Raw[k])
	}
	return strings.Join(parts, " ")
}

// IsHint reports whether sp is a hint pattern: its predicate is a constant IRI
// in namespace.
func IsHint(sp *algebra.StatementPattern, namespace string) bool {
	p := sp.Predicate
	return p.HasValue() && p.Value.Kind == algebra.IRI && strings.HasPrefix(p.Value.Value, namespace)
}

// Apply records the hint carried by sp. Hints with a variable subject or
// object, unknown keys or bad values are rejected.
func (s *Setup) Apply(sp *algebra.StatementPattern, namespace string) error {
	key := strings.TrimPrefix(sp.Predicate.Value.Value, namespace)
	if !sp.Subject.HasValue() || !sp.Object.HasValue() {
		return federrors.Errorf(federrors.InvalidArgument, "hint %s needs a constant subject and object", key)
	}
	value := sp.Object.Value.Value
	if sp.Object.Value.Kind == algebra.IRI {
		value = strings.TrimPrefix(value, namespace)
	}

	switch key {
	case JoinOrder:
		switch mode := JoinOrderMode(value); mode {
		case JoinOrderCost, JoinOrderFixed:
			s.JoinOrder = mode
		default:
			return federrors.Errorf(federrors.InvalidArgument, "hint %s: unknown mode '%s'", key, value)
		}
	case PreferSource:
		if value == "" {
			return federrors.Errorf(federrors.InvalidArgument, "hint %s: empty source", key)
		}
		s.PreferSource = value
	case InlineService, LocalReorder:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return federrors.Wrapf(err, "hint %s", key)
		}
		if key == InlineService {
			s.InlineService = b
		} else {
			s.LocalReorder = b
		}
	default:
		return federrors.Errorf(federrors.InvalidArgument, "unknown hint '%s'", key)
	}
	s.Raw[key] = value
	return nil
}

// Extract removes every hint pattern from the tree and collects the valid
// ones into a Setup. Malformed hints are removed too, but not applied. The
// returned setup is nil when the tree holds no valid hint.
func Extract(root algebra.Node, namespace string) (algebra.Node, *Setup, *algebra.ApplyResult) {
	setup := Default()
	applied := 0
	out, res := strip(root, namespace, func(sp *algebra.StatementPattern) {
		if err := setup.Apply(sp, namespace); err != nil {
			log.DebugS("ignoring query hint", "pattern", algebra.ShortDescription(sp), "error", err)
			return
		}
		applied++
	})
	if applied == 0 {
		return out, nil, res
	}
	return out, setup, res
}

// Strip removes every hint pattern from the tree and leaves everything else
// as it was.
func Strip(root algebra.Node, namespace string) (algebra.Node, *algebra.ApplyResult) {
	return strip(root, namespace, func(*algebra.StatementPattern) {})
}

// strip replaces hint patterns with SingletonSets, the join identity, and
// then drops those placeholders from the joins that hold them.
func strip(root algebra.Node, namespace string, found func(*algebra.StatementPattern)) (algebra.Node, *algebra.ApplyResult) {
	placeholders := map[algebra.Node]bool{}
	placeholder := func() algebra.Node {
		n := &algebra.SingletonSet{}
		placeholders[n] = true
		return n
	}
	keep := func(args []algebra.Node) ([]algebra.Node, bool) {
		var kept []algebra.Node
		for _, a := range args {
			if !placeholders[a] {
				kept = append(kept, a)
			}
		}
		return kept, len(kept) != len(args)
	}

	return algebra.BottomUp(root, func(n algebra.Node) (algebra.Node, *algebra.ApplyResult) {
		switch n := n.(type) {
		case *algebra.StatementPattern:
			if !IsHint(n, namespace) {
				return n, algebra.NoRewrite
			}
			found(n)
			return placeholder(), algebra.Rewrote(fmt.Sprintf("removed hint %s", algebra.ShortDescription(n)))
		case *algebra.Join:
			switch {
			case placeholders[n.Left] && placeholders[n.Right]:
				return placeholder(), algebra.NoRewrite
			case placeholders[n.Left]:
				return n.Right, algebra.NoRewrite
			case placeholders[n.Right]:
				return n.Left, algebra.NoRewrite
			}
		case *algebra.NaryJoin:
			if kept, dropped := keep(n.Args); dropped {
				return collapse(kept, placeholder, func(args []algebra.Node) algebra.Node {
					return &algebra.NaryJoin{Args: args, Fixed: n.Fixed}
				}), algebra.NoRewrite
			}
		case *algebra.RankedNaryJoin:
			if kept, dropped := keep(n.Args); dropped {
				return collapse(kept, placeholder, func(args []algebra.Node) algebra.Node {
					return &algebra.RankedNaryJoin{Args: args, LimitHint: n.LimitHint}
				}), algebra.NoRewrite
			}
		}
		return n, algebra.NoRewrite
	}, nil)
}

func collapse(kept []algebra.Node, placeholder func() algebra.Node, build func([]algebra.Node) algebra.Node) algebra.Node {
	switch len(kept) {
	case 0:
		return placeholder()
	case 1:
		return kept[0]
	}
	return build(kept)
}
