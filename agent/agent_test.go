// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/s-westphal/rrg/action"
	"github.com/s-westphal/rrg/lib/clock"
	"github.com/s-westphal/rrg/lib/testutil"
	"github.com/s-westphal/rrg/session"
	"github.com/s-westphal/rrg/transport"
	"github.com/s-westphal/rrg/wire"
)

const waitTimeout = 5 * time.Second

// pingResponse is a minimal labeled response for exercising the loop.
type pingResponse struct {
	Note string `cbor:"note"`
}

func (pingResponse) TypeTag() string { return "Ping" }
func (r pingResponse) Wire() any     { return r }

func newTestRegistry() *action.Registry {
	registry := action.NewRegistry()
	registry.Handle("Ping", func(s session.Session, args []byte) error {
		return s.Reply(pingResponse{Note: "pong"})
	})
	registry.Handle("Fail", func(s session.Session, args []byte) error {
		return fmt.Errorf("scripted handler failure")
	})
	return registry
}

type fixture struct {
	transport *transport.Memory
	clock     *clock.FakeClock
	done      chan error
	cancel    context.CancelFunc
}

// startAgent runs an agent over an in-memory transport and hands the
// test its control surfaces. The agent is shut down and its exit error
// checked during cleanup unless the test already drove it to exit.
func startAgent(t *testing.T, registry *action.Registry) *fixture {
	t.Helper()

	memory := transport.NewMemory()
	fakeClock := clock.NewFake(time.Unix(1700000000, 0))

	agent := New(Options{
		Transport:      memory,
		Registry:       registry,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:          fakeClock,
		HeartbeatEvery: time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- agent.Run(ctx)
		close(done)
	}()

	f := &fixture{transport: memory, clock: fakeClock, done: done, cancel: cancel}
	t.Cleanup(func() {
		cancel()
		select {
		case <-f.done:
		case <-time.After(waitTimeout):
			t.Errorf("agent did not exit after cancellation")
		}
	})
	return f
}

// waitForSent blocks until the transport has accumulated at least n
// envelopes, then returns them.
func (f *fixture) waitForSent(t *testing.T, n int) []wire.Envelope {
	t.Helper()
	for {
		if sent := f.transport.Sent(); len(sent) >= n {
			return sent
		}
		testutil.RequireReceive(t, f.transport.Signal(), waitTimeout,
			fmt.Sprintf("waiting for %d sent envelopes", n))
	}
}

func TestStartupAnnouncement(t *testing.T) {
	f := startAgent(t, newTestRegistry())

	sent := f.waitForSent(t, 1)
	announcement := sent[0]
	if announcement.Kind != wire.KindReply {
		t.Errorf("announcement kind = %q, want %q", announcement.Kind, wire.KindReply)
	}
	if announcement.SessionID != wire.StartupSessionID {
		t.Errorf("announcement session = %q, want %q", announcement.SessionID, wire.StartupSessionID)
	}
	if announcement.TypeTag != "StartupInfo" {
		t.Errorf("announcement type tag = %q, want %q", announcement.TypeTag, "StartupInfo")
	}
	if len(announcement.Payload) == 0 {
		t.Errorf("announcement has no payload")
	}
	if announcement.Status != nil {
		t.Errorf("announcement carries a status: %+v", announcement.Status)
	}
}

func TestTaskRunsToTerminalStatus(t *testing.T) {
	f := startAgent(t, newTestRegistry())

	sessionID := testutil.UniqueID("session")
	f.transport.Deliver(wire.Command{Action: "Ping", SessionID: sessionID, RequestID: 7})

	// Startup announcement, one reply, one status.
	sent := f.waitForSent(t, 3)

	reply := sent[1]
	if reply.Kind != wire.KindReply || reply.SessionID != sessionID || reply.RequestID != 7 {
		t.Errorf("unexpected reply envelope: %+v", reply)
	}
	if reply.ResponseID != 0 {
		t.Errorf("reply sequence number = %d, want 0", reply.ResponseID)
	}
	if reply.TypeTag != "Ping" {
		t.Errorf("reply type tag = %q, want %q", reply.TypeTag, "Ping")
	}

	status := sent[2]
	if status.Kind != wire.KindStatus || status.SessionID != sessionID || status.RequestID != 7 {
		t.Errorf("unexpected status envelope: %+v", status)
	}
	if status.ResponseID != 1 {
		t.Errorf("status sequence number = %d, want 1", status.ResponseID)
	}
	if status.Status == nil || !status.Status.OK {
		t.Errorf("status not OK: %+v", status.Status)
	}
}

func TestLoopSurvivesFailures(t *testing.T) {
	f := startAgent(t, newTestRegistry())

	f.transport.Deliver(wire.Command{Action: "NoSuchAction", SessionID: "s1", RequestID: 1})
	f.transport.Deliver(wire.Command{Action: "Fail", SessionID: "s2", RequestID: 2})
	f.transport.Deliver(wire.Command{Action: "Ping", SessionID: "s3", RequestID: 3})

	// Startup, then a failing status each for the unknown action and
	// the failing handler, then the final task's reply and status.
	sent := f.waitForSent(t, 5)

	unknown := sent[1]
	if unknown.Kind != wire.KindStatus || unknown.SessionID != "s1" {
		t.Errorf("unexpected envelope for unknown action: %+v", unknown)
	}
	if unknown.Status == nil || unknown.Status.OK {
		t.Errorf("unknown action status not failing: %+v", unknown.Status)
	}
	if unknown.ResponseID != 0 {
		t.Errorf("unknown action status sequence = %d, want 0", unknown.ResponseID)
	}

	failed := sent[2]
	if failed.Kind != wire.KindStatus || failed.SessionID != "s2" {
		t.Errorf("unexpected envelope for failing handler: %+v", failed)
	}
	if failed.Status == nil || failed.Status.OK {
		t.Errorf("failing handler status not failing: %+v", failed.Status)
	}

	if sent[3].Kind != wire.KindReply || sent[3].SessionID != "s3" {
		t.Errorf("loop did not reach the task after failures: %+v", sent[3])
	}
	if sent[4].Kind != wire.KindStatus || sent[4].Status == nil || !sent[4].Status.OK {
		t.Errorf("final task status not OK: %+v", sent[4])
	}
}

func TestHeartbeats(t *testing.T) {
	f := startAgent(t, newTestRegistry())

	deadline := time.Now().Add(waitTimeout)
	for f.clock.TickerCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("heartbeat ticker was never installed")
		}
		time.Sleep(time.Millisecond)
	}

	for i := 0; i < 3; i++ {
		f.clock.Advance(time.Second)
		for f.transport.Heartbeats() <= i {
			testutil.RequireReceive(t, f.transport.Signal(), waitTimeout,
				"waiting for heartbeat")
		}
	}
	if got := f.transport.Heartbeats(); got < 3 {
		t.Errorf("heartbeats = %d, want at least 3", got)
	}
}

// failFirstSend rejects the first Send, then delegates.
type failFirstSend struct {
	*transport.Memory
	tripped bool
}

func (f *failFirstSend) Send(envelope wire.Envelope) error {
	if !f.tripped {
		f.tripped = true
		return errors.New("controller not ready")
	}
	return f.Memory.Send(envelope)
}

func TestStartupSendFailureIsNotFatal(t *testing.T) {
	memory := transport.NewMemory()
	agent := New(Options{
		Transport:      &failFirstSend{Memory: memory},
		Registry:       newTestRegistry(),
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:          clock.NewFake(time.Unix(1700000000, 0)),
		HeartbeatEvery: time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- agent.Run(ctx)
	}()

	memory.Deliver(wire.Command{Action: "Ping", SessionID: "s1", RequestID: 1})
	memory.Close()

	err := testutil.RequireReceive(t, done, waitTimeout, "waiting for agent exit")
	if err != nil {
		t.Fatalf("Run returned %v, want nil", err)
	}

	// The announcement was dropped, so the recorded envelopes belong
	// to the task.
	sent := memory.Sent()
	if len(sent) != 2 {
		t.Fatalf("sent %d envelopes, want 2 (reply, status)", len(sent))
	}
	if sent[0].Kind != wire.KindReply || sent[0].SessionID != "s1" {
		t.Errorf("unexpected first envelope: %+v", sent[0])
	}
	if sent[1].Kind != wire.KindStatus || sent[1].Status == nil || !sent[1].Status.OK {
		t.Errorf("unexpected second envelope: %+v", sent[1])
	}
}

func TestClosedTransportExitsCleanly(t *testing.T) {
	f := startAgent(t, newTestRegistry())

	f.transport.Deliver(wire.Command{Action: "Ping", SessionID: "s1", RequestID: 1})
	f.transport.Close()

	err := testutil.RequireReceive(t, f.done, waitTimeout, "waiting for agent exit")
	if err != nil {
		t.Fatalf("Run returned %v after transport close, want nil", err)
	}

	// The queued command was still executed before shutdown.
	sent := f.transport.Sent()
	if len(sent) != 3 {
		t.Fatalf("sent %d envelopes, want 3 (startup, reply, status)", len(sent))
	}
}

func TestCancellationStopsRun(t *testing.T) {
	f := startAgent(t, newTestRegistry())

	f.waitForSent(t, 1)
	f.cancel()

	err := testutil.RequireReceive(t, f.done, waitTimeout, "waiting for agent exit")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
}

// malformedOnce yields one undecodable-command error before delegating
// to the in-memory transport.
type malformedOnce struct {
	*transport.Memory
	tripped bool
}

func (m *malformedOnce) Collect(ctx context.Context) (wire.Command, error) {
	if !m.tripped {
		m.tripped = true
		return wire.Command{}, fmt.Errorf("%w: truncated packet", wire.ErrMalformedCommand)
	}
	return m.Memory.Collect(ctx)
}

func TestMalformedCommandIsDropped(t *testing.T) {
	memory := transport.NewMemory()
	agent := New(Options{
		Transport:      &malformedOnce{Memory: memory},
		Registry:       newTestRegistry(),
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:          clock.NewFake(time.Unix(1700000000, 0)),
		HeartbeatEvery: time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- agent.Run(ctx)
	}()

	memory.Deliver(wire.Command{Action: "Ping", SessionID: "s1", RequestID: 1})
	memory.Close()

	err := testutil.RequireReceive(t, done, waitTimeout, "waiting for agent exit")
	if err != nil {
		t.Fatalf("Run returned %v, want nil", err)
	}

	sent := memory.Sent()
	if len(sent) != 3 {
		t.Fatalf("sent %d envelopes, want 3 (startup, reply, status)", len(sent))
	}
	if sent[1].SessionID != "s1" || sent[2].Status == nil || !sent[2].Status.OK {
		t.Errorf("command after the malformed packet was not executed: %+v", sent[1:])
	}
}
