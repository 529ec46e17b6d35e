// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"io"
	"log/slog"

	"github.com/s-westphal/rrg/wire"
)

// Fake is the in-memory Session for testing action handlers without a
// live transport. Replies accumulate in an ordered log instead of
// being forwarded; the terminal status is recorded with the sequence
// number it would have carried on the wire.
//
// An optional scripted failure lets tests exercise abort-on-send
// behavior: after FailReplies(n), the nth Reply call (1-based) and
// every later one return a *SendError without recording the response.
type Fake struct {
	replies   []Response
	status    *wire.Status
	statusSeq uint64
	failFrom  int
	failErr   error
	logger    *slog.Logger
}

var _ Session = (*Fake)(nil)

// NewFake creates an empty fake session.
func NewFake() *Fake {
	return &Fake{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// FailReplies scripts Reply to fail with err from the nth call
// (1-based) onward.
func (f *Fake) FailReplies(n int, err error) {
	f.failFrom = n
	f.failErr = err
}

// Reply implements Session.
func (f *Fake) Reply(response Response) error {
	if f.failFrom > 0 && len(f.replies)+1 >= f.failFrom {
		return &SendError{Err: f.failErr}
	}
	f.replies = append(f.replies, response)
	return nil
}

// Logger implements Session.
func (f *Fake) Logger() *slog.Logger {
	return f.logger
}

func (f *Fake) close(outcome error) error {
	status := wire.Status{OK: outcome == nil}
	if outcome != nil {
		status.Error = outcome.Error()
	}
	f.status = &status
	f.statusSeq = uint64(len(f.replies))
	return nil
}

// Replies returns the accumulated responses in emission order.
func (f *Fake) Replies() []Response {
	return f.replies
}

// Status returns the recorded terminal status, or nil if the session
// has not been closed.
func (f *Fake) Status() *wire.Status {
	return f.status
}

// StatusSequence returns the sequence number the terminal status
// carried. Meaningless before the session is closed.
func (f *Fake) StatusSequence() uint64 {
	return f.statusSeq
}

// RepliesOf returns the fake session's accumulated responses of type T,
// in emission order. Handlers that emit heterogeneous responses (e.g.,
// data chunks plus a summary) are verified with one call per type.
func RepliesOf[T Response](f *Fake) []T {
	var matched []T
	for _, response := range f.replies {
		if typed, ok := response.(T); ok {
			matched = append(matched, typed)
		}
	}
	return matched
}
