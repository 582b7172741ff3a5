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
	"strconv"
	"strings"

	"github.com/fedopt/fedopt/go/fed/algebra"
	"github.com/fedopt/fedopt/go/fed/federrors"
)

// ParseTerm reads a term written the way it is printed in query text:
// <iri>, _:label, "lexical" with an optional @lang or ^^<datatype>, an
// integer or a boolean.
func ParseTerm(s string) (algebra.Term, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") && len(s) > 2:
		return algebra.NewIRI(s[1 : len(s)-1]), nil
	case strings.HasPrefix(s, "_:") && len(s) > 2:
		return algebra.NewBNode(s[2:]), nil
	case strings.HasPrefix(s, `"`):
		return parseLiteral(s)
	case s == "true" || s == "false":
		return algebra.NewBoolean(s == "true"), nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return algebra.NewInteger(i), nil
	}
	return algebra.Term{}, federrors.Errorf(federrors.InvalidArgument, "cannot parse term %q", s)
}

func parseLiteral(s string) (algebra.Term, error) {
	end := strings.LastIndex(s, `"`)
	if end == 0 {
		return algebra.Term{}, federrors.Errorf(federrors.InvalidArgument, "unterminated literal %s", s)
	}
	lexical, err := strconv.Unquote(s[:end+1])
	if err != nil {
		return algebra.Term{}, federrors.Errorf(federrors.InvalidArgument, "bad literal %s: %v", s, err)
	}
	switch rest := s[end+1:]; {
	case rest == "":
		return algebra.NewLiteral(lexical), nil
	case strings.HasPrefix(rest, "@") && len(rest) > 1:
		return algebra.NewLangLiteral(lexical, rest[1:]), nil
	case strings.HasPrefix(rest, "^^<") && strings.HasSuffix(rest, ">") && len(rest) > 4:
		return algebra.NewTypedLiteral(lexical, rest[3:len(rest)-1]), nil
	default:
		return algebra.Term{}, federrors.Errorf(federrors.InvalidArgument, "unexpected %q after literal", rest)
	}
}

// ParseBindings turns name=term flag values into the bindings the query is
// optimized with. A leading ? on a name is dropped.
func ParseBindings(values map[string]string) (algebra.BindingSet, error) {
	if len(values) == 0 {
		return nil, nil
	}
	bindings := make(algebra.BindingSet, len(values))
	for name, value := range values {
		name = strings.TrimPrefix(strings.TrimSpace(name), "?")
		if name == "" {
			return nil, federrors.Errorf(federrors.InvalidArgument, "binding without a variable name: %q", value)
		}
		t, err := ParseTerm(value)
		if err != nil {
			return nil, federrors.Wrapf(err, "binding %s", name)
		}
		bindings[name] = t
	}
	return bindings, nil
}

// ParseDataset builds the dataset of the query from graph IRIs. It returns
// nil when no graph is given.
func ParseDataset(defaultGraphs, namedGraphs []string) (*algebra.Dataset, error) {
	if len(defaultGraphs) == 0 && len(namedGraphs) == 0 {
		return nil, nil
	}
	ds := &algebra.Dataset{}
	for _, g := range defaultGraphs {
		t, err := parseGraph(g)
		if err != nil {
			return nil, err
		}
		ds.DefaultGraphs = append(ds.DefaultGraphs, t)
	}
	for _, g := range namedGraphs {
		t, err := parseGraph(g)
		if err != nil {
			return nil, err
		}
		ds.NamedGraphs = append(ds.NamedGraphs, t)
	}
	return ds, nil
}

// parseGraph accepts a graph name with or without angle brackets.
func parseGraph(s string) (algebra.Term, error) {
	if !strings.HasPrefix(s, "<") {
		s = "<" + s + ">"
	}
	t, err := ParseTerm(s)
	if err != nil {
		return algebra.Term{}, err
	}
	if t.Kind != algebra.IRI {
		return algebra.Term{}, federrors.Errorf(federrors.InvalidArgument, "graph name %s is not an IRI", s)
	}
	return t, nil
}
