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

package federation

import (
	"strings"
)

// LocalPropertySpace classifies predicates that can be answered without
// delegating to a remote member.
type LocalPropertySpace interface {
	IsLocal(predicate string) bool
}

// PropertySpace is a LocalPropertySpace made of exact predicates and
// namespace prefixes. The zero value and nil classify nothing as local.
type PropertySpace struct {
	predicates map[string]struct{}
	namespaces []string
}

var _ LocalPropertySpace = (*PropertySpace)(nil)

func NewPropertySpace(predicates, namespaces []string) *PropertySpace {
	ps := &PropertySpace{predicates: make(map[string]struct{}, len(predicates))}
	for _, p := range predicates {
		ps.predicates[p] = struct{}{}
	}
	for _, ns := range namespaces {
		if ns != "" {
			ps.namespaces = append(ps.namespaces, ns)
		}
	}
	return ps
}

func (ps *PropertySpace) IsLocal(predicate string) bool {
	if ps == nil {
		return false
	}
	if _, ok := ps.predicates[predicate]; ok {
		return true
	}
	for _, ns := range ps.namespaces {
		if strings.HasPrefix(predicate, ns) {
			return true
		}
	}
	return false
}
