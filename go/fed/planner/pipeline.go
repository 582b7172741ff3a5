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

// Package planner rewrites a federated query tree into the plan the
// evaluator runs. A query whose every leaf belongs to the default member is
// passed through as it is; every other query goes through the passes of a
// Pipeline.
package planner

import (
	"context"
	"slices"
	"time"

	"github.com/fedopt/fedopt/go/fed/algebra"
	"github.com/fedopt/fedopt/go/fed/config"
	"github.com/fedopt/fedopt/go/fed/federrors"
	"github.com/fedopt/fedopt/go/fed/hints"
	"github.com/fedopt/fedopt/go/fed/log"
	"github.com/fedopt/fedopt/go/fed/planner/plancontext"
	"github.com/fedopt/fedopt/go/fed/stats"
	"github.com/fedopt/fedopt/go/fed/trace"
)

// Pass names, as used in reports and in the disabled-passes setting.
const (
	CheckValid                     = "check_valid"
	BindingAssigner                = "binding_assigner"
	ConstantOptimizer              = "constant_optimizer"
	CompareOptimizer               = "compare_optimizer"
	ConjunctiveConstraintSplitter  = "conjunctive_constraint_splitter"
	DisjunctiveConstraintOptimizer = "disjunctive_constraint_optimizer"
	SameTermFilterOptimizer        = "same_term_filter_optimizer"
	QueryModelPruner               = "query_model_pruner"
	NaryJoinExtractor              = "nary_join_extractor"
	QueryHintsExtractor            = "query_hints_extractor"
	LegacyMultiJoinOptimizer       = "legacy_multi_join_optimizer"
	BloomSourceSelector            = "bloom_source_selector"
	ServiceOptimizer               = "service_optimizer"
	FederationJoinOptimizer        = "federation_join_optimizer"
	OwnedTupleExprPruner           = "owned_tuple_expr_pruner"
	HintSynchronizer               = "hint_synchronizer"
	JoinOrderOptimizer             = "join_order_optimizer"
	PostJoinReorder                = "post_join_reorder"
	PrepareOwnedTupleExpr          = "prepare_owned_tuple_expr"
	SlicePushdown                  = "slice_pushdown"
)

// Pass is one rewrite of the whole tree.
type Pass struct {
	Name string
	// Enabled reports whether the pass belongs in a pipeline built for cfg.
	// Nil means always.
	Enabled func(cfg *config.Config) bool
	Run     func(ctx *plancontext.PlanningContext, root algebra.Node) (algebra.Node, *algebra.ApplyResult)
}

// PassReport describes one pass run.
type PassReport struct {
	Name     string
	Changed  bool
	Duration time.Duration
	Rewrites []string
}

func withHints(cfg *config.Config) bool    { return cfg.HintsEnabled }
func withoutHints(cfg *config.Config) bool { return !cfg.HintsEnabled }

// DefaultPasses lists every pass in the order they run. The hint-aware passes
// and the legacy join pass exclude each other through Enabled.
func DefaultPasses() []Pass {
	return []Pass{
		{Name: CheckValid, Run: checkValid},
		{Name: BindingAssigner, Run: assignBindings},
		{Name: ConstantOptimizer, Run: optimizeConstants},
		{Name: CompareOptimizer, Run: optimizeCompares},
		{Name: ConjunctiveConstraintSplitter, Run: splitConjunctions},
		{Name: DisjunctiveConstraintOptimizer, Run: optimizeDisjunctions},
		{Name: SameTermFilterOptimizer, Run: optimizeSameTerms},
		{Name: QueryModelPruner, Run: pruneQueryModel},
		{Name: NaryJoinExtractor, Enabled: withHints, Run: extractNaryJoins},
		{Name: QueryHintsExtractor, Enabled: withHints, Run: extractQueryHints},
		{Name: LegacyMultiJoinOptimizer, Enabled: withoutHints, Run: legacyMultiJoin},
		{Name: BloomSourceSelector, Run: SelectSources},
		{Name: ServiceOptimizer, Run: optimizeServices},
		{Name: FederationJoinOptimizer, Run: optimizeFederationJoins},
		{Name: OwnedTupleExprPruner, Run: pruneOwnedTupleExprs},
		{Name: QueryModelPruner, Run: pruneQueryModel},
		{Name: HintSynchronizer, Enabled: withHints, Run: synchronizeHints},
		{Name: JoinOrderOptimizer, Enabled: withHints, Run: optimizeJoinOrder},
		{Name: PostJoinReorder, Enabled: withHints, Run: reorderOwned},
		{Name: LegacyMultiJoinOptimizer, Enabled: withoutHints, Run: legacyMultiJoin},
		{Name: SlicePushdown, Run: pushDownSlices},
		{Name: PrepareOwnedTupleExpr, Run: prepareOwnedTupleExprs},
	}
}

// Pipeline is the ordered list of passes selected for one configuration.
type Pipeline struct {
	passes []Pass
}

// NewPipeline selects the default passes cfg enables. Disabling a pass name
// that does not exist is an error, so typos do not go unnoticed.
func NewPipeline(cfg *config.Config) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	all := DefaultPasses()
	for _, name := range cfg.DisabledPasses {
		if !slices.ContainsFunc(all, func(p Pass) bool { return p.Name == name }) {
			return nil, federrors.Errorf(federrors.InvalidArgument, "unknown optimizer pass '%s'", name)
		}
	}

	p := &Pipeline{}
	for _, pass := range all {
		if pass.Enabled != nil && !pass.Enabled(cfg) {
			continue
		}
		if cfg.PassDisabled(pass.Name) {
			continue
		}
		p.passes = append(p.passes, pass)
	}
	return p, nil
}

// Names lists the passes in the order they run.
func (p *Pipeline) Names() []string {
	names := make([]string, 0, len(p.passes))
	for _, pass := range p.passes {
		names = append(names, pass.Name)
	}
	return names
}

// Run applies every pass to root in order. root is not modified; passes build
// new nodes for what they change.
func (p *Pipeline) Run(ctx context.Context, pctx *plancontext.PlanningContext, root algebra.Node) (algebra.Node, []PassReport) {
	reports := make([]PassReport, 0, len(p.passes))
	for _, pass := range p.passes {
		span, _ := trace.NewSpan(ctx, "planner."+pass.Name)
		start := time.Now()

		out, res := pass.Run(pctx, root)

		elapsed := time.Since(start)
		span.Annotate("changed", res.Changed())
		span.Finish()
		stats.RecordPass(pass.Name, elapsed, res.Changed())
		if log.V(2) {
			log.Infof("query %s: %s: %s", pctx.QueryID, pass.Name, res)
		}

		reports = append(reports, PassReport{
			Name:     pass.Name,
			Changed:  res.Changed(),
			Duration: elapsed,
			Rewrites: res.Messages(),
		})
		root = out
	}
	return root, reports
}

// Result is an optimized query.
type Result struct {
	Tree  algebra.Node
	Hints *hints.Setup
	// SingleOwner is set when the query goes as it is to Owner, the default
	// member. Tree then only lacks the hint patterns of the input.
	SingleOwner bool
	Owner       string
	Reports     []PassReport
}

// Optimize plans root for the federation of pctx. The caller's tree is never
// modified. Malformed trees panic with a FED09001 error.
func Optimize(ctx context.Context, pctx *plancontext.PlanningContext, root algebra.Node) (*Result, error) {
	if pctx == nil || pctx.Federation == nil {
		return nil, federrors.Errorf(federrors.InvalidArgument, "planning context without a federation")
	}
	pipeline, err := NewPipeline(pctx.Config)
	if err != nil {
		return nil, err
	}

	span, ctx := trace.NewSpan(ctx, "planner.Optimize")
	defer span.Finish()
	span.Annotate("query_id", pctx.QueryID)

	start := time.Now()
	checkValid(pctx, root)

	if owner, ok := DetectSingleOwner(pctx, root); ok {
		tree, setup := SingleOwnerTree(pctx, root)
		pctx.Hints = setup
		stats.Optimizations.WithLabelValues(stats.PathSingleOwner).Inc()
		span.Annotate("path", stats.PathSingleOwner)
		log.DebugS("query has a single owner", "query_id", pctx.QueryID, "owner", owner, "hints", setup.String())
		return &Result{Tree: tree, Hints: setup, SingleOwner: true, Owner: owner}, nil
	}

	tree, reports := pipeline.Run(ctx, pctx, algebra.Clone(root))
	stats.Optimizations.WithLabelValues(stats.PathPipeline).Inc()
	span.Annotate("path", stats.PathPipeline)

	changed := 0
	for _, r := range reports {
		if r.Changed {
			changed++
		}
	}
	log.DebugS("query optimized", "query_id", pctx.QueryID, "passes", len(reports), "changed", changed, "hints", pctx.Hints.String(), "elapsed", time.Since(start))
	return &Result{Tree: tree, Hints: pctx.Hints, Reports: reports}, nil
}
