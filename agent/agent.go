// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent runs the process loop: announce startup, keep the
// transport heartbeat alive, and execute inbound commands one at a
// time to their terminal status.
//
// Execution is strictly serial. One command is collected, dispatched,
// and run to completion before the next is collected; a handler may
// block the loop for the duration of its OS calls. The heartbeat runs
// on its own goroutine so a long-running handler never makes the host
// service judge the agent unresponsive. No task failure — unknown
// action, unusable payload, collector error, or a dead transport
// mid-emission — stops the loop; each one converges on a terminal
// status (or a logged send failure) and the loop collects again.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/s-westphal/rrg/action"
	"github.com/s-westphal/rrg/action/startup"
	"github.com/s-westphal/rrg/lib/clock"
	"github.com/s-westphal/rrg/lib/codec"
	"github.com/s-westphal/rrg/lib/config"
	"github.com/s-westphal/rrg/session"
	"github.com/s-westphal/rrg/transport"
	"github.com/s-westphal/rrg/wire"
)

// Options configures an Agent. Transport, Registry, and Logger are
// mandatory; zero values elsewhere select production defaults.
type Options struct {
	Transport transport.Transport
	Registry  *action.Registry
	Logger    *slog.Logger

	// Clock defaults to the wall clock.
	Clock clock.Clock
	// HeartbeatEvery defaults to config.DefaultHeartbeatEvery.
	HeartbeatEvery time.Duration
}

// Agent is the execution core bound to one transport.
type Agent struct {
	transport      transport.Transport
	registry       *action.Registry
	logger         *slog.Logger
	clock          clock.Clock
	heartbeatEvery time.Duration
}

// New creates an agent. Panics on missing mandatory options: wiring
// happens once in main and a half-configured agent is a programmer
// error.
func New(options Options) *Agent {
	if options.Transport == nil || options.Registry == nil || options.Logger == nil {
		panic("agent: Transport, Registry, and Logger are required")
	}
	agent := &Agent{
		transport:      options.Transport,
		registry:       options.Registry,
		logger:         options.Logger,
		clock:          options.Clock,
		heartbeatEvery: options.HeartbeatEvery,
	}
	if agent.clock == nil {
		agent.clock = clock.Real()
	}
	if agent.heartbeatEvery <= 0 {
		agent.heartbeatEvery = config.DefaultHeartbeatEvery
	}
	return agent
}

// Run announces startup, then receives and executes commands until the
// transport closes or ctx is cancelled. A closed transport returns
// nil; any other transport failure is returned.
func (a *Agent) Run(ctx context.Context) error {
	a.announceStartup()

	heartbeatCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go a.heartbeatLoop(heartbeatCtx)

	a.logger.Info("agent running", "actions", a.registry.Names())

	for {
		command, err := a.transport.Collect(ctx)
		switch {
		case err == nil:
			a.handle(command)
		case errors.Is(err, wire.ErrMalformedCommand):
			// The packet is lost but the stream is fine. Without an
			// action name there is no task to report a status for.
			a.logger.Error("dropping malformed command", "error", err)
		case errors.Is(err, transport.ErrClosed):
			a.logger.Info("transport closed, shutting down")
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			return fmt.Errorf("collecting command: %w", err)
		}
	}
}

// handle runs one command to its terminal status. Failures are logged;
// nothing here can take the loop down.
func (a *Agent) handle(command wire.Command) {
	logger := a.logger.With(
		"action", command.Action,
		"session_id", command.SessionID,
		"request_id", command.RequestID,
	)
	logger.Debug("executing task")

	sink := session.NewSink(a.transport, command.SessionID, command.RequestID, logger)
	task := session.NewTask(command, sink)
	if err := a.registry.Dispatch(task); err != nil {
		logger.Error("task failed", "error", err)
		return
	}
	logger.Debug("task finished")
}

// announceStartup emits the liveness/version announcement through the
// direct one-shot path: a single reply envelope under the reserved
// startup correlation identifier, no task and no terminal status. A
// failure is logged and startup proceeds — the controller can still
// request the same record via the startup action.
func (a *Agent) announceStartup() {
	response := startup.Info()
	payload, err := codec.Marshal(response.Wire())
	if err != nil {
		a.logger.Error("failed to encode startup announcement", "error", err)
		return
	}
	envelope := wire.Envelope{
		Kind:      wire.KindReply,
		SessionID: wire.StartupSessionID,
		TypeTag:   response.TypeTag(),
		Payload:   payload,
	}
	if err := a.transport.Send(envelope); err != nil {
		a.logger.Error("failed to send startup announcement", "error", err)
	}
}

// heartbeatLoop signals liveness at a fixed cadence until ctx is
// cancelled. It deliberately does not watch task execution: a handler
// blocked in a slow OS call is exactly the case the heartbeat exists
// for.
func (a *Agent) heartbeatLoop(ctx context.Context) {
	ticker := a.clock.NewTicker(a.heartbeatEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.transport.Heartbeat(); err != nil {
				a.logger.Warn("heartbeat failed", "error", err)
			}
		}
	}
}
