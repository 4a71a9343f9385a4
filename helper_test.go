// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corun_test

import (
	"context"
	"testing"
	"time"

	"code.hybscloud.com/corun"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testTimeout = 5 * time.Second

// newRuntime creates a runtime closed at the end of the test.
func newRuntime(tb testing.TB, opts ...corun.Option) *corun.Runtime {
	tb.Helper()
	rt, err := corun.New(opts...)
	if err != nil {
		tb.Fatalf("New: %v", err)
	}
	tb.Cleanup(func() {
		if err := rt.Close(); err != nil {
			tb.Errorf("Close: %v", err)
		}
	})
	return rt
}

// run drives rt to completion under testTimeout.
func run(tb testing.TB, rt *corun.Runtime) {
	tb.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	if err := rt.Run(ctx); err != nil {
		tb.Fatalf("Run: %v", err)
	}
}

// observed returns a logger recording every entry at Debug and above.
func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

// stubDriver is a Driver whose reap never blocks and never completes
// anything on its own. Completions are injected with complete.
type stubDriver struct {
	queued    []int
	ready     []corun.Completion
	submitErr error
	reapErr   error
	reaps     int
	closed    int
}

func (d *stubDriver) Queue(index int, _ corun.IOFunc) {
	d.queued = append(d.queued, index)
}

func (d *stubDriver) Submit() error {
	return d.submitErr
}

func (d *stubDriver) Reap(_ context.Context, _ bool, fn func(corun.Completion)) error {
	d.reaps++
	if d.reapErr != nil {
		return d.reapErr
	}
	ready := d.ready
	d.ready = nil
	for _, c := range ready {
		fn(c)
	}
	return nil
}

func (d *stubDriver) Wake() error {
	return nil
}

func (d *stubDriver) Close() error {
	d.closed++
	return nil
}

func (d *stubDriver) complete(index, n int, err error) {
	d.ready = append(d.ready, corun.Completion{Index: index, Result: corun.Result{N: n, Err: err}})
}
