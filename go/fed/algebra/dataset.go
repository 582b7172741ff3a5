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

package algebra

import (
	"maps"
	"slices"
)

// Dataset is the FROM / FROM NAMED scope of a query. An empty dataset means
// the default scope of whoever evaluates the query.
type Dataset struct {
	DefaultGraphs []Term
	NamedGraphs   []Term
}

func (d *Dataset) IsEmpty() bool {
	return d == nil || (len(d.DefaultGraphs) == 0 && len(d.NamedGraphs) == 0)
}

// BindingSet maps variable names to the values they are bound to before the
// query runs.
type BindingSet map[string]Term

// Names returns the bound names, sorted.
func (b BindingSet) Names() []string {
	return slices.Sorted(maps.Keys(b))
}
