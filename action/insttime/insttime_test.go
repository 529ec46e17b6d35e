// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package insttime

import (
	"testing"
	"time"

	"github.com/s-westphal/rrg/session"
)

func TestHandleReportsPlausibleTime(t *testing.T) {
	fake := session.NewFake()
	if err := Handle(fake, &session.Empty{}); err != nil {
		t.Fatalf("handle: %v", err)
	}

	replies := session.RepliesOf[Response](fake)
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(replies))
	}

	estimated := replies[0].Time
	if estimated.IsZero() {
		t.Fatal("install time is the zero time")
	}
	if estimated.After(time.Now().Add(time.Minute)) {
		t.Errorf("install time %v lies in the future", estimated)
	}
	// Unix-epoch times indicate the ctime was not read at all.
	if estimated.Before(time.Unix(1, 0)) {
		t.Errorf("install time %v predates the epoch", estimated)
	}
}
