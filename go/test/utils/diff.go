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

package utils

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/fedopt/fedopt/go/fed/algebra"
)

// MustMatchFn is used to create a common diff function for a test file
// Usage in *_test.go file:
//
// Top declaration:
//
//	var mustMatch = utils.MustMatchFn(
//		".Duration", // timings are never stable
//	)
//
// In Test*() function:
//
//	mustMatch(t, want, got, "something doesn't match")
func MustMatchFn(ignoredFields ...string) func(t *testing.T, want, got any, errMsg ...string) {
	diffOpts := []cmp.Option{
		cmp.Exporter(func(reflect.Type) bool {
			return true
		}),
		cmpIgnoreFields(ignoredFields...),
	}
	// Diffs want/got and fails with errMsg on any failure.
	return func(t *testing.T, want, got any, errMsg ...string) {
		t.Helper()
		diff := cmp.Diff(want, got, diffOpts...)
		if diff != "" {
			t.Fatalf("%v: (-want +got)\n%v", errMsg, diff)
		}
	}
}

// MustMatch is a convenience version of MustMatchFn with no overrides.
var MustMatch = MustMatchFn()

// MustMatchTree compares two query trees node by node. On a mismatch both
// trees are printed, which is easier to read than a field diff.
func MustMatchTree(t *testing.T, want, got algebra.Node, errMsg ...string) {
	t.Helper()
	if cmp.Equal(want, got) {
		return
	}
	t.Fatalf("%v\nwant:\n%s\ngot:\n%s\ndiff (-want +got):\n%s", errMsg, algebra.ToTree(want), algebra.ToTree(got), cmp.Diff(want, got))
}

// Skips fields of pathNames for cmp.Diff.
// Similar to standard cmpopts.IgnoreFields, but allows unexported fields.
func cmpIgnoreFields(pathNames ...string) cmp.Option {
	skipFields := make(map[string]bool, len(pathNames))
	for _, name := range pathNames {
		skipFields[name] = true
	}

	return cmp.FilterPath(func(path cmp.Path) bool {
		for _, ps := range path {
			if skipFields[ps.String()] {
				return true
			}
		}
		return false
	}, cmp.Ignore())
}
