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

package cli

import (
	"encoding/json"

	"github.com/fedopt/fedopt/go/fed/algebra"
	"github.com/fedopt/fedopt/go/fed/federrors"
	"github.com/fedopt/fedopt/go/fed/planner"
	"github.com/fedopt/fedopt/go/fed/stats"
)

const (
	jsonIndent = "  "
	jsonPrefix = ""
)

// MarshalJSON marshals obj to indented JSON. Query trees are written in the
// document format the optimize command reads, so its output can be fed back.
func MarshalJSON(obj any) ([]byte, error) {
	switch obj := obj.(type) {
	case algebra.Node:
		return algebra.Marshal(obj)
	default:
		data, err := json.MarshalIndent(obj, jsonPrefix, jsonIndent)
		if err != nil {
			return nil, federrors.Wrapf(err, "json.Marshal")
		}
		return data, nil
	}
}

// Plan is the printed form of an optimization result.
type Plan struct {
	// Path is the way the query went, single_owner or pipeline.
	Path  string            `json:"path"`
	Owner string            `json:"owner,omitempty"`
	Hints map[string]string `json:"hints,omitempty"`
	Tree  json.RawMessage   `json:"tree"`
}

// NewPlan converts res to a Plan.
func NewPlan(res *planner.Result) (*Plan, error) {
	tree, err := algebra.Marshal(res.Tree)
	if err != nil {
		return nil, err
	}
	plan := &Plan{Path: Path(res), Owner: res.Owner, Tree: tree}
	if res.Hints != nil && len(res.Hints.Raw) > 0 {
		plan.Hints = res.Hints.Raw
	}
	return plan, nil
}

// Path names the way res was planned.
func Path(res *planner.Result) string {
	if res.SingleOwner {
		return stats.PathSingleOwner
	}
	return stats.PathPipeline
}
