// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"

	"github.com/s-westphal/rrg/wire"
)

// Transport is the agent's connection to its controller, mediated by
// the host message service. Implementations must allow Send and
// Heartbeat to be called concurrently with a blocked Collect — the
// heartbeat keeps running while a handler has the receive loop busy.
type Transport interface {
	// Collect blocks until the next command arrives. A packet that
	// cannot be decoded into a command yields an error wrapping
	// [wire.ErrMalformedCommand]; the stream stays usable and the
	// caller should collect again. Any other error means the
	// transport is finished: closed by the peer ([ErrClosed]) or
	// failed.
	Collect(ctx context.Context) (wire.Command, error)

	// Send forwards one outgoing envelope synchronously. A returned
	// error means the envelope was not delivered.
	Send(envelope wire.Envelope) error

	// Heartbeat signals liveness to the host service.
	Heartbeat() error
}

// ErrClosed reports a transport shut down by the peer or by Close.
var ErrClosed = errors.New("transport: closed")
