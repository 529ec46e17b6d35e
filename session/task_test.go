// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/s-westphal/rrg/wire"
)

func newFakeTask(action string, args []byte) (*Task, *Fake) {
	fake := NewFake()
	command := wire.Command{Action: action, SessionID: "flows/F:1", RequestID: 1, Args: args}
	return NewTask(command, fake), fake
}

func TestExecuteNoRepliesSuccess(t *testing.T) {
	task, fake := newFakeTask("Noop", nil)

	err := task.Execute(func(s Session, args []byte) error {
		return nil
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if len(fake.Replies()) != 0 {
		t.Errorf("recorded %d replies, want 0", len(fake.Replies()))
	}
	status := fake.Status()
	if status == nil || !status.OK {
		t.Fatalf("status = %+v, want OK", status)
	}
	if fake.StatusSequence() != 0 {
		t.Errorf("status sequence = %d, want 0", fake.StatusSequence())
	}
}

func TestExecutePartialRepliesThenFailure(t *testing.T) {
	task, fake := newFakeTask("Flaky", nil)

	const emitted = 3
	err := task.Execute(func(s Session, args []byte) error {
		for i := 0; i < emitted; i++ {
			if err := s.Reply(echo{Text: fmt.Sprintf("reply %d", i)}); err != nil {
				return err
			}
		}
		return ActionErrorf("device disappeared")
	})

	var taskErr *Error
	if !errors.As(err, &taskErr) || taskErr.Kind != KindAction {
		t.Fatalf("err = %v, want action error", err)
	}

	// Partial results stay delivered; the failing status follows them
	// with the next sequence number.
	if len(fake.Replies()) != emitted {
		t.Fatalf("recorded %d replies, want %d", len(fake.Replies()), emitted)
	}
	status := fake.Status()
	if status == nil || status.OK {
		t.Fatalf("status = %+v, want failure", status)
	}
	if !strings.Contains(status.Error, "device disappeared") {
		t.Errorf("status error %q does not carry the cause", status.Error)
	}
	if fake.StatusSequence() != emitted {
		t.Errorf("status sequence = %d, want %d", fake.StatusSequence(), emitted)
	}
}

func TestExecuteNormalizesBareErrors(t *testing.T) {
	task, fake := newFakeTask("Sloppy", nil)

	err := task.Execute(func(s Session, args []byte) error {
		return fmt.Errorf("open /nonexistent: no such file")
	})

	var taskErr *Error
	if !errors.As(err, &taskErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if taskErr.Kind != KindAction {
		t.Errorf("Kind = %v, want KindAction", taskErr.Kind)
	}
	if fake.Status().OK {
		t.Error("status OK for failing handler")
	}
}

func TestExecuteNormalizesParseErrors(t *testing.T) {
	task, fake := newFakeTask("Strict", nil)

	err := task.Execute(func(s Session, args []byte) error {
		return MissingField("path")
	})

	var taskErr *Error
	if !errors.As(err, &taskErr) || taskErr.Kind != KindParse {
		t.Fatalf("err = %v, want parse error", err)
	}
	if !strings.Contains(fake.Status().Error, `missing required field "path"`) {
		t.Errorf("status error %q does not name the field", fake.Status().Error)
	}
}

func TestRejectEmitsFailingStatusWithoutHandler(t *testing.T) {
	task, fake := newFakeTask("NoSuchAction", nil)

	err := task.Reject(DispatchError("NoSuchAction"))
	var taskErr *Error
	if !errors.As(err, &taskErr) || taskErr.Kind != KindDispatch {
		t.Fatalf("err = %v, want dispatch error", err)
	}

	if len(fake.Replies()) != 0 {
		t.Errorf("recorded %d replies before the terminal status, want 0", len(fake.Replies()))
	}
	status := fake.Status()
	if status == nil || status.OK {
		t.Fatalf("status = %+v, want failure", status)
	}
	if !strings.Contains(status.Error, "NoSuchAction") {
		t.Errorf("status error %q does not name the action", status.Error)
	}
	if fake.StatusSequence() != 0 {
		t.Errorf("status sequence = %d, want 0", fake.StatusSequence())
	}
}

func TestExecuteStatusSendFailureSurfaces(t *testing.T) {
	sender := &recordingSender{failFrom: 1}
	command := wire.Command{Action: "Noop", SessionID: "flows/F:1", RequestID: 1}
	task := NewTask(command, testSink(sender))

	err := task.Execute(func(s Session, args []byte) error {
		return nil
	})
	var sendErr *SendError
	if !errors.As(err, &sendErr) {
		t.Fatalf("err = %v, want *SendError", err)
	}
}
