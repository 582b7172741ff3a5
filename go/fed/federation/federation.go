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

// Package federation describes the members a federated query can be sent to.
package federation

import (
	"slices"

	"github.com/fedopt/fedopt/go/fed/federrors"
)

// Source is one federation member.
type Source struct {
	ID string
	// Endpoint is the address SERVICE clauses use to name this member.
	Endpoint string
	// Filter answers which predicates the member may hold. Nil means unknown.
	Filter BloomFilter
	// Default marks the member that answers queries not routed elsewhere.
	Default bool
}

// FilterLookup finds the membership filter registered for a member.
type FilterLookup interface {
	FilterFor(id string) BloomFilter
}

// FilterMap is a FilterLookup backed by a map. Missing members get AlwaysMaybe.
type FilterMap map[string]BloomFilter

func (m FilterMap) FilterFor(id string) BloomFilter {
	if f := m[id]; f != nil {
		return f
	}
	return AlwaysMaybe
}

// Federation is the ranked, immutable list of members of a federation.
type Federation struct {
	members    []*Source
	byID       map[string]*Source
	byEndpoint map[string]*Source
	def        *Source
}

var _ FilterLookup = (*Federation)(nil)

// New validates members and returns the federation they form. Exactly one
// member must be the default, and IDs must be unique and non-empty.
func New(members ...*Source) (*Federation, error) {
	f := &Federation{
		members:    slices.Clone(members),
		byID:       make(map[string]*Source, len(members)),
		byEndpoint: make(map[string]*Source, len(members)),
	}
	defaults := 0
	for _, m := range members {
		if m == nil || m.ID == "" {
			return nil, federrors.Errorf(federrors.InvalidArgument, "federation member without an id")
		}
		if _, dup := f.byID[m.ID]; dup {
			return nil, federrors.Errorf(federrors.InvalidArgument, "duplicate federation member '%s'", m.ID)
		}
		f.byID[m.ID] = m
		if m.Endpoint != "" {
			f.byEndpoint[m.Endpoint] = m
		}
		if m.Default {
			defaults++
			f.def = m
		}
	}
	if defaults != 1 {
		return nil, federrors.FED09002(defaults)
	}
	return f, nil
}

// Members returns the members in rank order.
func (f *Federation) Members() []*Source { return f.members }

// Default returns the default member.
func (f *Federation) Default() *Source { return f.def }

// Lookup returns the member with the given id.
func (f *Federation) Lookup(id string) (*Source, error) {
	if s, ok := f.byID[id]; ok {
		return s, nil
	}
	return nil, federrors.FED05001(id)
}

// ResolveEndpoint maps a SERVICE endpoint to a member. Both the member's
// endpoint address and its id are accepted.
func (f *Federation) ResolveEndpoint(endpoint string) (*Source, bool) {
	if s, ok := f.byEndpoint[endpoint]; ok {
		return s, true
	}
	s, ok := f.byID[endpoint]
	return s, ok
}

// FilterFor implements FilterLookup with the filters the members carry.
func (f *Federation) FilterFor(id string) BloomFilter {
	if s, ok := f.byID[id]; ok && s.Filter != nil {
		return s.Filter
	}
	return AlwaysMaybe
}
