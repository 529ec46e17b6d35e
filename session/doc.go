// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

// Package session implements the per-task execution protocol.
//
// A [Task] binds one inbound command to a [Session], the reply sink the
// running action handler streams its responses through. The session
// assigns each response the next task-scoped sequence number, converts
// it to its wire form, and forwards it to the transport before the
// Reply call returns — responses are never buffered or reordered. After
// the handler finishes (successfully or not), the session emits exactly
// one terminal status carrying the outcome, numbered with the next
// value of the same sequence. That status is the single signal the
// controller can rely on to consider the task finished.
//
// Two Session implementations exist: [Sink], backed by a live
// transport, and [Fake], an in-memory log for testing action handlers
// without a transport.
//
// The package also defines the failure taxonomy shared by the dispatch
// and execution layers: [DispatchError] for unknown action names,
// [ParseError] for unusable request payloads, action errors for
// collector failures, and [SendError] for transport failures during
// emission. All of them surface to the controller through the terminal
// status; none of them terminates the receive loop.
package session
