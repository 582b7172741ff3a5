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
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ConstVarPrefix prefixes the names of anonymous variables that stand in for
// constants in pattern positions.
const ConstVarPrefix = "_const_"

// Var is a query variable or a constant in a variable slot. Vars are shared
// between clones and must not be modified once built; use WithValue to derive
// a bound copy.
type Var struct {
	Name      string
	Value     *Term
	Anonymous bool
}

// NewVar returns an unbound named variable.
func NewVar(name string) *Var {
	return &Var{Name: name}
}

// NewConstVar returns an anonymous variable holding t. Its name is derived
// from the term so equal constants get equal names.
func NewConstVar(t Term) *Var {
	h := xxhash.Sum64String(t.String())
	return &Var{
		Name:      ConstVarPrefix + strconv.FormatUint(h, 16),
		Value:     &t,
		Anonymous: true,
	}
}

// HasValue is true when v is bound to a fixed term.
func (v *Var) HasValue() bool {
	return v != nil && v.Value != nil
}

// WithValue returns a copy of v bound to t.
func (v *Var) WithValue(t Term) *Var {
	return &Var{Name: v.Name, Value: &t, Anonymous: v.Anonymous}
}

// Equal compares name, value and anonymity.
func (v *Var) Equal(o *Var) bool {
	if v == nil || o == nil {
		return v == o
	}
	if v.Name != o.Name || v.Anonymous != o.Anonymous || v.HasValue() != o.HasValue() {
		return false
	}
	return !v.HasValue() || *v.Value == *o.Value
}

func (v *Var) String() string {
	switch {
	case v == nil:
		return "<nil>"
	case v.Anonymous && v.HasValue():
		return v.Value.String()
	case v.HasValue():
		return "?" + v.Name + "=" + v.Value.String()
	}
	return "?" + v.Name
}

func (*Var) iValueExpr() {}

// IsConstVarName reports whether name belongs to an anonymous constant var.
func IsConstVarName(name string) bool {
	return strings.HasPrefix(name, ConstVarPrefix)
}
