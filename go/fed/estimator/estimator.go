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

// Package estimator provides cardinality estimates for query sub-trees. The
// numbers are only used to rank alternatives against each other.
package estimator

import (
	"math"

	"github.com/fedopt/fedopt/go/fed/algebra"
	"github.com/fedopt/fedopt/go/fed/log"
	"github.com/fedopt/fedopt/go/fed/stats"
)

// CardinalityEstimator estimates how many rows a sub-tree produces.
type CardinalityEstimator interface {
	Cardinality(n algebra.Node) (float64, error)
}

// Func adapts a function to CardinalityEstimator.
type Func func(n algebra.Node) (float64, error)

func (f Func) Cardinality(n algebra.Node) (float64, error) { return f(n) }

// Factors applied by Heuristic for every unbound position of a statement
// pattern.
const (
	SubjectFactor   = 1000
	PredicateFactor = 10
	ObjectFactor    = 100
	ContextFactor   = 10
	FilterFactor    = 0.5
)

// Heuristic estimates without statistics: a pattern costs more the more of
// its positions are unbound, joins multiply and unions add.
type Heuristic struct{}

var _ CardinalityEstimator = Heuristic{}

func (h Heuristic) Cardinality(n algebra.Node) (float64, error) {
	return h.estimate(n), nil
}

func (h Heuristic) estimate(n algebra.Node) float64 {
	switch n := n.(type) {
	case *algebra.StatementPattern:
		card := 1.0
		card *= unboundFactor(n.Subject, SubjectFactor)
		card *= unboundFactor(n.Predicate, PredicateFactor)
		card *= unboundFactor(n.Object, ObjectFactor)
		if n.Context != nil {
			card *= unboundFactor(n.Context, ContextFactor)
		}
		return card
	case *algebra.Join, *algebra.NaryJoin:
		return h.product(n.Inputs())
	case *algebra.RankedNaryJoin:
		card := h.product(n.Args)
		if n.LimitHint > 0 {
			card = math.Min(card, float64(n.LimitHint))
		}
		return card
	case *algebra.LeftJoin:
		return h.estimate(n.Left) * math.Max(1, h.estimate(n.Right))
	case *algebra.Union, *algebra.NaryUnion:
		sum := 0.0
		for _, in := range n.Inputs() {
			sum += h.estimate(in)
		}
		return sum
	case *algebra.Filter:
		return h.estimate(n.Arg) * FilterFactor
	case *algebra.Slice:
		card := h.estimate(n.Arg) - float64(n.Offset)
		if n.HasLimit() {
			card = math.Min(card, float64(n.Limit))
		}
		return math.Max(card, 0)
	case *algebra.Service, *algebra.Projection, *algebra.Distinct, *algebra.Reduced, *algebra.Owned:
		return h.estimate(n.Inputs()[0])
	case *algebra.EmptySet:
		return 0
	case *algebra.SingletonSet:
		return 1
	}
	log.Warningf("no cardinality heuristic for %s", n.Kind())
	return 1
}

func (h Heuristic) product(nodes []algebra.Node) float64 {
	card := 1.0
	for _, in := range nodes {
		card *= h.estimate(in)
	}
	return card
}

func unboundFactor(v *algebra.Var, factor float64) float64 {
	if v == nil || v.HasValue() {
		return 1
	}
	return factor
}

// Estimate asks e for the cardinality of n and returns def instead when the
// estimator fails or answers with a negative or NaN value.
func Estimate(e CardinalityEstimator, n algebra.Node, def float64) float64 {
	if e == nil {
		return def
	}
	card, err := e.Cardinality(n)
	switch {
	case err != nil:
		log.WarnS("cardinality estimate failed, using default", "kind", n.Kind().String(), "default", def, "error", err)
	case math.IsNaN(card) || card < 0:
		log.WarnS("cardinality estimate out of range, using default", "kind", n.Kind().String(), "estimate", card, "default", def)
	default:
		return card
	}
	stats.EstimatorFallbacks.Inc()
	return def
}
