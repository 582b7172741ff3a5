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

// Package stats exports optimizer metrics to prometheus.
package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fedopt"

// Optimization paths.
const (
	PathSingleOwner = "single_owner"
	PathPipeline    = "pipeline"
)

var (
	// Registry holds every optimizer collector. Binaries expose it; tests read it.
	Registry = prometheus.NewRegistry()

	Optimizations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "optimizations_total",
		Help:      "Optimized queries, by the path they took.",
	}, []string{"path"})

	PassDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pass_duration_seconds",
		Help:      "Time spent in each optimizer pass.",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"pass"})

	PassChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pass_changes_total",
		Help:      "Pass runs that rewrote the tree.",
	}, []string{"pass"})

	PatternsPruned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "patterns_pruned_total",
		Help:      "Statement patterns that no federation member can answer.",
	})

	SlicesPushed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "slices_pushed_total",
		Help:      "Slices rewritten closer to the leaves.",
	})

	EstimatorFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "estimator_fallbacks_total",
		Help:      "Cardinality estimates replaced by the configured default.",
	})

	FilterFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "filter_fallbacks_total",
		Help:      "Membership filter lookups that failed and were treated as maybe.",
	})
)

func init() {
	Registry.MustRegister(
		Optimizations,
		PassDuration,
		PassChanges,
		PatternsPruned,
		SlicesPushed,
		EstimatorFallbacks,
		FilterFallbacks,
	)
}

// RecordPass records one pass run.
func RecordPass(name string, d time.Duration, changed bool) {
	PassDuration.WithLabelValues(name).Observe(d.Seconds())
	if changed {
		PassChanges.WithLabelValues(name).Inc()
	}
}
