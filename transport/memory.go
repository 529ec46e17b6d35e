// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/s-westphal/rrg/wire"
)

// Memory is the in-process Transport for tests: commands are delivered
// through a channel, sent envelopes accumulate in an ordered log, and
// send failures can be scripted. Safe for concurrent use.
type Memory struct {
	commands chan wire.Command

	mu         sync.Mutex
	sent       []wire.Envelope
	heartbeats int
	failFrom   int
	failErr    error

	// signal wakes tests waiting for traffic; buffered so senders
	// never block on an inattentive test.
	signal chan struct{}
}

var _ Transport = (*Memory)(nil)

// NewMemory creates an idle in-memory transport.
func NewMemory() *Memory {
	return &Memory{
		commands: make(chan wire.Command, 16),
		signal:   make(chan struct{}, 64),
	}
}

// Deliver queues one command for the agent to collect.
func (m *Memory) Deliver(command wire.Command) {
	m.commands <- command
}

// Close ends the inbound stream: pending commands are still collected,
// then Collect returns [ErrClosed].
func (m *Memory) Close() {
	close(m.commands)
}

// FailSendsFrom scripts Send to fail with err from the nth call
// (1-based, counted over successful sends) onward. Passing 0 clears
// the script.
func (m *Memory) FailSendsFrom(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failFrom = n
	m.failErr = err
}

// Collect implements Transport.
func (m *Memory) Collect(ctx context.Context) (wire.Command, error) {
	select {
	case <-ctx.Done():
		return wire.Command{}, ctx.Err()
	case command, ok := <-m.commands:
		if !ok {
			return wire.Command{}, ErrClosed
		}
		return command, nil
	}
}

// Send implements Transport.
func (m *Memory) Send(envelope wire.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFrom > 0 && len(m.sent)+1 >= m.failFrom {
		if m.failErr != nil {
			return m.failErr
		}
		return fmt.Errorf("scripted send failure")
	}
	m.sent = append(m.sent, envelope)
	m.notify()
	return nil
}

// Heartbeat implements Transport.
func (m *Memory) Heartbeat() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heartbeats++
	m.notify()
	return nil
}

// Sent returns a copy of the envelopes sent so far, in order.
func (m *Memory) Sent() []wire.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	sent := make([]wire.Envelope, len(m.sent))
	copy(sent, m.sent)
	return sent
}

// Heartbeats returns how many liveness signals have been emitted.
func (m *Memory) Heartbeats() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.heartbeats
}

// Signal receives one notification per Send or Heartbeat. Tests block
// on it (see testutil.RequireReceive) instead of polling.
func (m *Memory) Signal() <-chan struct{} {
	return m.signal
}

func (m *Memory) notify() {
	select {
	case m.signal <- struct{}{}:
	default:
	}
}
