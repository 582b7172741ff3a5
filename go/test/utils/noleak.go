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
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// LeakCheckContext returns a Context that is cancelled at the end of the
// test. A test that passed is then checked for leaked goroutines.
func LeakCheckContext(t testing.TB) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		EnsureNoLeaks(t)
	})
	return ctx
}

// EnsureNoLeaks fails a passing test that left goroutines behind.
func EnsureNoLeaks(t testing.TB) {
	if t.Failed() {
		return
	}
	if err := GetLeaks(); err != nil {
		t.Fatal(err)
	}
}

// GetLeaks returns an error describing the goroutines still running, other
// than the long-lived ones of glog, go-cache and the test runner. TestMain
// functions call it once every test has run.
func GetLeaks() error {
	ignored := []goleak.Option{
		goleak.IgnoreTopFunction("github.com/golang/glog.(*fileSink).flushDaemon"),
		goleak.IgnoreTopFunction("github.com/golang/glog.(*loggingT).flushDaemon"),
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
		goleak.IgnoreTopFunction("testing.tRunner.func1"),
	}

	var err error
	for range 5 {
		if err = goleak.Find(ignored...); err == nil {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return err
}
