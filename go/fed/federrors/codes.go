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

package federrors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

var (
	FED03001 = errorWithID("FED03001", FailedPrecondition, "variable '%s' must be bound before '%s' can be evaluated")
	FED05001 = errorWithID("FED05001", NotFound, "unknown federation member '%s'")
	FED09001 = errorWithID("FED09001", InvalidArgument, "malformed query tree: %s")
	FED09002 = errorWithID("FED09002", InvalidArgument, "federation needs exactly one default member, got %d")
	FED13001 = errorWithID("FED13001", Internal, "[BUG] %s")
)

func errorWithID(id string, code ErrorCode, format string) func(args ...any) error {
	return func(args ...any) error {
		msg := fmt.Sprintf(format, args...)
		return &fedError{
			code: code,
			id:   id,
			err:  pkgerrors.New(id + ": " + msg),
		}
	}
}
