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
	"math"
	"slices"

	"github.com/fedopt/fedopt/go/fed/algebra"
	"github.com/fedopt/fedopt/go/fed/log"
	"github.com/fedopt/fedopt/go/fed/planner/plancontext"
)

// joinOperand caches what the planner needs to know about one operand.
type joinOperand struct {
	node   algebra.Node
	inputs []string
	vars   []*algebra.Var
	card   float64
}

// OrderJoinArgs returns args in the order they should be joined, given the
// variables in bound. The result is a permutation of args. bound is extended
// with the binding names of every operand as it is placed.
//
// An operand whose inputs just became available is placed as soon as it is
// the only one; otherwise the operand with the lowest adjusted cardinality
// among those whose inputs are bound is chosen. Only when no operand has its
// inputs bound, as with cyclic dependencies, are all remaining operands
// ranked, and evaluation may then fail with an unbound variable.
func OrderJoinArgs(ctx *plancontext.PlanningContext, args []algebra.Node, bound *BoundVarSet) []algebra.Node {
	return orderJoinArgs(ctx, args, bound, nil)
}

func orderJoinArgs(ctx *plancontext.PlanningContext, args []algebra.Node, bound *BoundVarSet, observe func(picked algebra.Node, bound *BoundVarSet)) []algebra.Node {
	remaining := make([]*joinOperand, 0, len(args))
	for _, arg := range args {
		inputs, _ := Dependencies(arg)
		remaining = append(remaining, &joinOperand{
			node:   arg,
			inputs: inputs,
			vars:   algebra.PatternVars(arg),
			card:   ctx.Cardinality(arg),
		})
	}

	ordered := make([]algebra.Node, 0, len(args))
	for len(remaining) > 0 {
		idx := nextDependency(remaining, bound)
		if idx < 0 {
			idx = cheapest(ctx, remaining, bound)
		}
		picked := remaining[idx]
		ordered = append(ordered, picked.node)
		remaining = slices.Delete(remaining, idx, idx+1)
		bound.Add(picked.node.BindingNames()...)
		if observe != nil {
			observe(picked.node, bound)
		}
	}
	return ordered
}

// nextDependency returns the operand with inputs that are all bound, when
// there is exactly one such operand.
func nextDependency(remaining []*joinOperand, bound *BoundVarSet) int {
	found := -1
	for i, op := range remaining {
		if len(op.inputs) == 0 || !bound.ContainsAll(op.inputs) {
			continue
		}
		if found >= 0 {
			return -1
		}
		found = i
	}
	return found
}

func cheapest(ctx *plancontext.PlanningContext, remaining []*joinOperand, bound *BoundVarSet) int {
	candidates := make([]int, 0, len(remaining))
	for i, op := range remaining {
		if bound.ContainsAll(op.inputs) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		log.WarnS("no join operand has its inputs bound, ordering by cost", "query_id", ctx.QueryID, "operands", len(remaining), "bound", bound.String())
		for i := range remaining {
			candidates = append(candidates, i)
		}
	}

	freq := varFrequencies(remaining)
	best, bestCost := -1, math.Inf(1)
	for _, i := range candidates {
		cost := adjustedCardinality(remaining[i], bound, freq)
		// strict comparison keeps the first of equally cheap operands
		if best < 0 || cost < bestCost {
			best, bestCost = i, cost
		}
	}
	return best
}

// varFrequencies counts the occurrences of every non-constant variable across
// the remaining operands.
func varFrequencies(remaining []*joinOperand) map[string]int {
	freq := map[string]int{}
	for _, op := range remaining {
		for _, v := range op.vars {
			if !v.HasValue() {
				freq[v.Name]++
			}
		}
	}
	return freq
}

func adjustedCardinality(op *joinOperand, bound *BoundVarSet, globalFreq map[string]int) float64 {
	card := op.card

	var unbound []*algebra.Var
	constant := 0
	ownFreq := map[string]int{}
	for _, v := range op.vars {
		if v.HasValue() {
			constant++
			continue
		}
		ownFreq[v.Name]++
		if !bound.Contains(v.Name) {
			unbound = append(unbound, v)
		}
	}
	nonConstant := len(op.vars) - constant

	if nonConstant > 0 {
		card = math.Pow(card, float64(len(unbound))/float64(nonConstant))
	}

	if len(unbound) == 0 {
		if nonConstant > 0 {
			card /= float64(nonConstant)
		}
		return card
	}

	foreignVarFreq := 0
	for _, v := range unbound {
		foreignVarFreq += globalFreq[v.Name] - ownFreq[v.Name]
	}
	if foreignVarFreq > 0 {
		card /= float64(foreignVarFreq)
	}
	return card
}
