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

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/spf13/pflag"
)

// structured is nil until Init or SetLogger installs a logger.
var structured atomic.Pointer[slog.Logger]

// Init switches the S-suffixed calls to slog when --log-fmt was given
// explicitly. Without it the process keeps logging through glog only.
func Init(fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	if f := fs.Lookup("log-fmt"); f == nil || !f.Changed {
		return nil
	}
	logger, err := NewLogger(os.Stderr, logFormat, logLevel)
	if err != nil {
		return err
	}
	structured.Store(logger)
	return nil
}

// NewLogger builds a slog logger writing to w in the given format and level.
func NewLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "logfmt":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log-fmt %q: expected json or logfmt", format)
	}
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log-level %q: expected debug, info, warn or error", level)
}

// SetLogger installs logger for the S-suffixed calls and returns a function
// restoring the previous one. Tests use it to capture output.
func SetLogger(logger *slog.Logger) func() {
	prev := structured.Swap(logger)
	return func() { structured.Store(prev) }
}

func emit(level slog.Level, msg string, args ...any) {
	if logger := structured.Load(); logger != nil {
		logger.Log(context.Background(), level, msg, args...)
		return
	}

	line := foldArgs(msg, args)
	switch {
	case level >= slog.LevelError:
		glog.ErrorDepth(2, line)
	case level >= slog.LevelWarn:
		glog.WarningDepth(2, line)
	case level >= slog.LevelInfo:
		glog.InfoDepth(2, line)
	default:
		if glog.V(2) {
			glog.InfoDepth(2, line)
		}
	}
}

// foldArgs renders key/value pairs after msg the way logfmt would.
func foldArgs(msg string, args []any) string {
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		sb.WriteByte(' ')
		if i+1 == len(args) {
			fmt.Fprintf(&sb, "!BADKEY=%v", args[i])
			break
		}
		fmt.Fprintf(&sb, "%v=%v", args[i], args[i+1])
	}
	return sb.String()
}

// DebugS logs at debug level.
func DebugS(msg string, args ...any) { emit(slog.LevelDebug, msg, args...) }

// InfoS logs at info level.
func InfoS(msg string, args ...any) { emit(slog.LevelInfo, msg, args...) }

// WarnS logs at warn level.
func WarnS(msg string, args ...any) { emit(slog.LevelWarn, msg, args...) }

// ErrorS logs at error level.
func ErrorS(msg string, args ...any) { emit(slog.LevelError, msg, args...) }
