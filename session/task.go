// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"

	"github.com/s-westphal/rrg/wire"
)

// Handler executes one action invocation: parse args, collect, stream
// replies through the session. The returned error is the task outcome.
type Handler func(s Session, args []byte) error

// Task is one in-flight action execution: an inbound command bound to
// the session that will carry its replies. A task runs exactly one
// handler invocation and is done once the terminal status is emitted;
// it is never reused.
type Task struct {
	// Action is the requested action name, used for dispatch lookup.
	Action string

	args    []byte
	session Session
}

// NewTask binds an inbound command to its reply session. The session
// must be exclusively owned by this task.
func NewTask(command wire.Command, s Session) *Task {
	return &Task{
		Action:  command.Action,
		args:    command.Args,
		session: s,
	}
}

// Execute drives one handler invocation end-to-end: the handler runs
// with the task's session and raw arguments, and regardless of how it
// returns, the session emits exactly one terminal status reflecting the
// outcome. Replies emitted before a failure stay delivered — partial
// results are not rolled back.
//
// The returned error is the handler outcome (normalized to a
// task-level *Error) or, if emitting the status itself failed, that
// *SendError. Either way the task is finished.
func (t *Task) Execute(handler Handler) error {
	outcome := normalize(handler(t.session, t.args))
	if closeErr := t.session.close(outcome); closeErr != nil {
		return closeErr
	}
	return outcome
}

// Reject finishes the task without running any handler, emitting a
// failing terminal status for err. Used when dispatch fails before a
// handler is even known.
func (t *Task) Reject(err error) error {
	if closeErr := t.session.close(err); closeErr != nil {
		return closeErr
	}
	return err
}

// normalize maps whatever a handler returned onto the task failure
// taxonomy. Typed errors pass through; a bare error from a collector
// the handler forgot to wrap counts as an action failure.
func normalize(err error) error {
	if err == nil {
		return nil
	}
	var taskErr *Error
	if errors.As(err, &taskErr) {
		return err
	}
	var sendErr *SendError
	if errors.As(err, &sendErr) {
		return err
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return ParseFailure(parseErr)
	}
	return ActionError(err)
}
