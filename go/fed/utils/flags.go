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

// Package utils holds small helpers shared by the optimizer binaries.
package utils

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Flags are always registered with dashes. NormalizeUnderscores lets users
// keep typing --hints_enabled.
func setFlagVar[T any](fs *pflag.FlagSet, p *T, name string, def T, usage string,
	setFunc func(fs *pflag.FlagSet, p *T, name string, def T, usage string)) {
	if strings.Contains(name, "_") {
		fmt.Fprintf(os.Stderr, "[WARNING] flag %q should use dashes instead of underscores\n", name)
		name = strings.ReplaceAll(name, "_", "-")
	}
	if fs.Lookup(name) != nil {
		return
	}
	setFunc(fs, p, name, def, usage)
}

func SetFlagBoolVar(fs *pflag.FlagSet, p *bool, name string, def bool, usage string) {
	setFlagVar(fs, p, name, def, usage, (*pflag.FlagSet).BoolVar)
}

func SetFlagStringVar(fs *pflag.FlagSet, p *string, name string, def string, usage string) {
	setFlagVar(fs, p, name, def, usage, (*pflag.FlagSet).StringVar)
}

func SetFlagFloat64Var(fs *pflag.FlagSet, p *float64, name string, def float64, usage string) {
	setFlagVar(fs, p, name, def, usage, (*pflag.FlagSet).Float64Var)
}

func SetFlagDurationVar(fs *pflag.FlagSet, p *time.Duration, name string, def time.Duration, usage string) {
	setFlagVar(fs, p, name, def, usage, (*pflag.FlagSet).DurationVar)
}

func SetFlagStringSliceVar(fs *pflag.FlagSet, p *[]string, name string, def []string, usage string) {
	setFlagVar(fs, p, name, def, usage, (*pflag.FlagSet).StringSliceVar)
}

// NormalizeUnderscores makes fs accept underscored spellings of dashed flags.
func NormalizeUnderscores(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
}
