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

// Package trace wraps the tracing backend used to time optimizer passes.
package trace

import (
	"context"
	"sync/atomic"

	"github.com/opentracing/opentracing-go"
)

// Span represents a unit of work within a trace.
type Span interface {
	// Annotate records a key/value pair on the span.
	Annotate(key string, value any)
	// Finish marks the span as complete.
	Finish()
}

var tracer atomic.Pointer[opentracing.Tracer]

// SetTracer installs t as the tracer used for new spans and returns a function
// restoring the previous one. A nil tracer falls back to
// opentracing.GlobalTracer().
func SetTracer(t opentracing.Tracer) func() {
	var prev *opentracing.Tracer
	if t == nil {
		prev = tracer.Swap(nil)
	} else {
		prev = tracer.Swap(&t)
	}
	return func() { tracer.Store(prev) }
}

func currentTracer() opentracing.Tracer {
	if t := tracer.Load(); t != nil {
		return *t
	}
	return opentracing.GlobalTracer()
}

// NewSpan starts a span labelled label as a child of the span in ctx, if any,
// and returns it together with a context carrying it.
func NewSpan(ctx context.Context, label string) (Span, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	span, ctx := opentracing.StartSpanFromContextWithTracer(ctx, currentTracer(), label)
	return openTracingSpan{otSpan: span}, ctx
}

// FromContext returns the span carried by ctx.
func FromContext(ctx context.Context) (Span, bool) {
	if ctx == nil {
		return nil, false
	}
	span := opentracing.SpanFromContext(ctx)
	if span == nil {
		return nil, false
	}
	return openTracingSpan{otSpan: span}, true
}

var _ Span = (*openTracingSpan)(nil)

type openTracingSpan struct {
	otSpan opentracing.Span
}

// Annotate sets a tag on the underlying span.
func (s openTracingSpan) Annotate(key string, value any) {
	s.otSpan.SetTag(key, value)
}

// Finish finishes the underlying span.
func (s openTracingSpan) Finish() {
	s.otSpan.Finish()
}
