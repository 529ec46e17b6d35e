// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"log/slog"

	"github.com/s-westphal/rrg/lib/codec"
	"github.com/s-westphal/rrg/wire"
)

// Session is the reply sink a running action handler streams its
// responses through. A session belongs to exactly one task, is never
// shared, and does not outlive the handler invocation it serves.
//
// Reply converts the response to its wire form, assigns it the next
// task-scoped sequence number, and forwards it before returning. A
// returned *SendError means the transport rejected the envelope; the
// handler should stop producing responses and return the error.
// Calling Reply after the handler has returned is a contract violation
// with undefined behavior — it is not runtime-checked.
type Session interface {
	Reply(response Response) error

	// Logger returns a logger scoped to the running task. Handlers use
	// it for non-fatal collection issues they absorb themselves
	// (log-and-skip) rather than escalate.
	Logger() *slog.Logger

	// close emits the terminal status for the outcome. Unexported:
	// only the task may finish a session, and only session-package
	// types can be sessions.
	close(outcome error) error
}

// Sender forwards one outgoing envelope synchronously. Satisfied by
// transport implementations.
type Sender interface {
	Send(envelope wire.Envelope) error
}

// Sink is the transport-backed Session. It stamps every envelope with
// the task's correlation identifiers and a monotonically increasing
// sequence number starting at zero. A send failure does not consume a
// sequence number: the envelope never reached the controller, so the
// next successful emission reuses its slot.
type Sink struct {
	sender    Sender
	sessionID string
	requestID uint64
	next      uint64
	logger    *slog.Logger
}

var _ Session = (*Sink)(nil)

// NewSink creates the reply sink for one task. The correlation
// identifiers come from the inbound command and are echoed verbatim.
func NewSink(sender Sender, sessionID string, requestID uint64, logger *slog.Logger) *Sink {
	return &Sink{
		sender:    sender,
		sessionID: sessionID,
		requestID: requestID,
		logger:    logger,
	}
}

// Reply implements Session.
func (s *Sink) Reply(response Response) error {
	envelope := wire.Envelope{
		Kind:       wire.KindReply,
		SessionID:  s.sessionID,
		RequestID:  s.requestID,
		ResponseID: s.next,
		TypeTag:    response.TypeTag(),
	}
	if value := response.Wire(); value != nil {
		payload, err := codec.Marshal(value)
		if err != nil {
			return &SendError{Err: err}
		}
		envelope.Payload = payload
	}
	if err := s.sender.Send(envelope); err != nil {
		return &SendError{Err: err}
	}
	s.next++
	return nil
}

// Logger implements Session.
func (s *Sink) Logger() *slog.Logger {
	return s.logger
}

func (s *Sink) close(outcome error) error {
	status := wire.Status{OK: outcome == nil}
	if outcome != nil {
		status.Error = outcome.Error()
	}
	envelope := wire.Envelope{
		Kind:       wire.KindStatus,
		SessionID:  s.sessionID,
		RequestID:  s.requestID,
		ResponseID: s.next,
		Status:     &status,
	}
	if err := s.sender.Send(envelope); err != nil {
		return &SendError{Err: err}
	}
	s.next++
	return nil
}
