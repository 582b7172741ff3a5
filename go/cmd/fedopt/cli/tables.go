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
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/fedopt/fedopt/go/fed/planner"
)

// WritePassReports writes a table with one row per pass run. With verbose
// set the rewrites of each pass are listed, otherwise only counted.
func WritePassReports(w io.Writer, reports []planner.PassReport, verbose bool) error {
	table := tablewriter.NewWriter(w)
	table.Header("#", "Pass", "Changed", "Duration", "Rewrites")
	for i, r := range reports {
		rewrites := strconv.Itoa(len(r.Rewrites))
		if verbose && len(r.Rewrites) > 0 {
			rewrites = strings.Join(r.Rewrites, "\n")
		}
		row := []string{strconv.Itoa(i + 1), r.Name, strconv.FormatBool(r.Changed), r.Duration.String(), rewrites}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// WritePasses writes the names of the passes in the order they run.
func WritePasses(w io.Writer, names []string) error {
	table := tablewriter.NewWriter(w)
	table.Header("#", "Pass")
	for i, name := range names {
		if err := table.Append([]string{strconv.Itoa(i + 1), name}); err != nil {
			return err
		}
	}
	return table.Render()
}
