// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds small helpers shared by tests across the
// repository.
package testutil

import (
	"fmt"
	"sync/atomic"
	"time"
)

// RequireReceive reads one value from ch within timeout, or fails the
// test. This encapsulates the timeout safety valve so individual tests
// do not need their own time.After plumbing.
//
//	envelope := testutil.RequireReceive(t, transport.Signal(), 5*time.Second, "waiting for send")
func RequireReceive[T any](t interface {
	Helper()
	Fatalf(format string, args ...any)
}, ch <-chan T, timeout time.Duration, message string) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed without sending a value: %s", message)
		}
		return v
	case <-time.After(timeout):
		t.Fatalf("timed out after %v: %s", timeout, message)
	}
	panic("unreachable")
}

var uniqueCounter atomic.Uint64

// UniqueID returns "prefix-N" with a process-wide monotonically
// increasing N. Use it for correlation identifiers that must be
// distinguishable across test cases.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}
