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

package plancontext

import (
	"github.com/google/uuid"

	"github.com/fedopt/fedopt/go/fed/algebra"
	"github.com/fedopt/fedopt/go/fed/config"
	"github.com/fedopt/fedopt/go/fed/estimator"
	"github.com/fedopt/fedopt/go/fed/federation"
	"github.com/fedopt/fedopt/go/fed/hints"
	"github.com/fedopt/fedopt/go/fed/log"
	"github.com/fedopt/fedopt/go/fed/stats"
)

// PlanningContext carries everything the passes of one optimization share.
// It belongs to a single optimization and is not safe for concurrent use.
type PlanningContext struct {
	// QueryID tags the logs and spans of this optimization.
	QueryID string

	Federation *federation.Federation
	// Filters finds the membership filter of a member. It defaults to the
	// filters the federation members carry.
	Filters    federation.FilterLookup
	Estimator  estimator.CardinalityEstimator
	LocalSpace federation.LocalPropertySpace

	Dataset  *algebra.Dataset
	Bindings algebra.BindingSet

	// Hints is set by hint extraction; nil until then, or when the query has none.
	Hints *hints.Setup

	Config *config.Config
}

// CreatePlanningContext returns a context for one optimization. A nil
// estimator falls back to the heuristic one, a nil configuration to the
// defaults.
func CreatePlanningContext(
	fed *federation.Federation,
	est estimator.CardinalityEstimator,
	local federation.LocalPropertySpace,
	cfg *config.Config,
) *PlanningContext {
	if est == nil {
		est = estimator.Heuristic{}
	}
	if cfg == nil {
		cfg = config.Default()
	}
	ctx := &PlanningContext{
		QueryID:    uuid.NewString(),
		Federation: fed,
		Estimator:  est,
		LocalSpace: local,
		Config:     cfg,
	}
	if fed != nil {
		ctx.Filters = fed
	}
	return ctx
}

// Cardinality estimates n, degrading to the configured default.
func (ctx *PlanningContext) Cardinality(n algebra.Node) float64 {
	return estimator.Estimate(ctx.Estimator, n, ctx.Config.DefaultCardinality)
}

// HintNamespace is the predicate namespace hint patterns use.
func (ctx *PlanningContext) HintNamespace() string {
	return ctx.Config.HintNamespace
}

// DefaultSource is the id of the default member.
func (ctx *PlanningContext) DefaultSource() string {
	return ctx.Federation.Default().ID
}

// IsLocal reports whether sp can be answered by the default member without
// delegation.
func (ctx *PlanningContext) IsLocal(sp *algebra.StatementPattern) bool {
	if ctx.LocalSpace == nil || !sp.Predicate.HasValue() || sp.Predicate.Value.Kind != algebra.IRI {
		return false
	}
	return ctx.LocalSpace.IsLocal(sp.Predicate.Value.Value)
}

// MayContain asks the filter of member id about key. Lookup errors count as
// "maybe"; false negatives are never produced here.
func (ctx *PlanningContext) MayContain(id, key string) bool {
	var filter federation.BloomFilter = federation.AlwaysMaybe
	if ctx.Filters != nil {
		if f := ctx.Filters.FilterFor(id); f != nil {
			filter = f
		}
	}
	ok, err := filter.MayContain(key)
	if err != nil {
		log.WarnS("membership filter failed, assuming maybe", "query_id", ctx.QueryID, "source", id, "key", key, "error", err)
		stats.FilterFallbacks.Inc()
		return true
	}
	return ok
}

// InitialBindings returns the names bound before the query runs.
func (ctx *PlanningContext) InitialBindings() []string {
	return ctx.Bindings.Names()
}
