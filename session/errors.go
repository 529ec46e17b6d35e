// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"
)

// Kind classifies task failures. The controller receives the same shape
// for all of them (a failing terminal status with a message); the kind
// exists so the agent's own layers can tell an unknown action from a
// bad payload from a collector failure.
type Kind int

const (
	// KindDispatch means the requested action name has no handler in
	// the dispatch table. No handler ran.
	KindDispatch Kind = iota + 1
	// KindParse means the raw request payload could not be converted
	// into the action's request type. The handler never started.
	KindParse
	// KindAction means the handler itself failed, typically because an
	// underlying OS or environment operation did. Replies emitted
	// before the failure were already delivered and stay valid.
	KindAction
)

// Error is a task-level failure. It is a value passed up by return,
// never a side effect; whichever layer detects the failure constructs
// it and the task converts it into the terminal status.
//
// Callers can classify with errors.As:
//
//	var taskErr *session.Error
//	if errors.As(err, &taskErr) && taskErr.Kind == session.KindDispatch { ... }
type Error struct {
	// Kind tags the failing layer.
	Kind Kind
	// Action is the requested action name. Set for dispatch failures.
	Action string
	// Err is the underlying cause. Nil for dispatch failures.
	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindDispatch:
		return fmt.Sprintf("no handler registered for action %q", e.Action)
	case KindParse:
		return fmt.Sprintf("parsing request: %v", e.Err)
	case KindAction:
		return fmt.Sprintf("executing action: %v", e.Err)
	}
	return fmt.Sprintf("task failed: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// DispatchError reports a request for an action that is not in the
// dispatch table — whether never implemented or simply not built for
// this platform is indistinguishable on purpose.
func DispatchError(action string) *Error {
	return &Error{Kind: KindDispatch, Action: action}
}

// ParseFailure wraps a request conversion failure into a task-level
// error.
func ParseFailure(err *ParseError) *Error {
	return &Error{Kind: KindParse, Err: err}
}

// ActionError wraps a handler failure into a task-level error. Handlers
// use it when a collector or OS call fails and the task cannot proceed.
func ActionError(err error) *Error {
	return &Error{Kind: KindAction, Err: err}
}

// ActionErrorf is ActionError with formatting.
func ActionErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindAction, Err: fmt.Errorf(format, args...)}
}

// ParseError reports a raw request payload that could not be converted
// into the action's request type: either a mandatory field was absent
// (Field names it) or a present field failed conversion to its native
// type (Err describes how).
type ParseError struct {
	// Field is the missing mandatory field's name, empty for
	// malformed payloads.
	Field string
	// Err is the conversion failure for malformed payloads, nil for
	// missing fields.
	Err error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("missing required field %q", e.Field)
	}
	return fmt.Sprintf("malformed request: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingField reports an absent mandatory request field.
func MissingField(field string) *ParseError {
	return &ParseError{Field: field}
}

// Malformed reports a request field that failed conversion to its
// native type.
func Malformed(err error) *ParseError {
	return &ParseError{Err: err}
}

// Malformedf is Malformed with formatting.
func Malformedf(format string, args ...any) *ParseError {
	return &ParseError{Err: fmt.Errorf(format, args...)}
}

// SendError reports a transport failure while emitting a reply or the
// terminal status. The handler should treat the task as aborted and
// stop producing responses; the core never retries a send.
type SendError struct {
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("sending response: %v", e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}
