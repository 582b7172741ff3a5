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

// Package log is the logging facade used by the optimizer.
//
// Printf-style calls go straight to glog. The S-suffixed calls take a message
// and key/value pairs; they are rendered by slog once --log-fmt has been set
// on the command line, and folded into a glog line otherwise.
package log

import (
	"github.com/golang/glog"
	"github.com/spf13/pflag"

	"github.com/fedopt/fedopt/go/fed/utils"
)

var (
	// V gates verbose logging, e.g. `if log.V(2) { ... }`.
	V = glog.V

	Flush = glog.Flush

	Infof    = glog.Infof
	Warningf = glog.Warningf
	Error    = glog.Error
)

var (
	logFormat string
	logLevel  string
)

// RegisterFlags installs the structured logging flags on fs. The glog flags
// themselves live on the standard library flag set and are added by the
// binaries that need them.
func RegisterFlags(fs *pflag.FlagSet) {
	utils.SetFlagStringVar(fs, &logFormat, "log-fmt", "json", "structured log output format: json or logfmt")
	utils.SetFlagStringVar(fs, &logLevel, "log-level", "info", "minimum structured log level: debug, info, warn or error")
}
