// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/s-westphal/rrg/lib/codec"
	"github.com/s-westphal/rrg/wire"
)

// MaxFrameSize bounds a single frame body. Inbound frames beyond it
// indicate a desynchronized or hostile stream and terminate the
// transport; outbound envelopes never get near it (the largest
// payloads, timeline chunks, are cut at a fraction of this).
const MaxFrameSize = 4 << 20

// Frame speaks the host service's pipe protocol: each frame is a
// 4-byte little-endian body length followed by one CBOR-encoded value.
// Inbound frames carry commands; outbound frames carry envelopes. A
// zero-length frame is a keepalive from the peer and is skipped.
//
// Writes are serialized internally so the heartbeat goroutine and the
// session sink can share the transport. Reads have a single consumer
// (the receive loop).
type Frame struct {
	reader *bufio.Reader

	writeMu sync.Mutex
	writer  io.Writer
}

var _ Transport = (*Frame)(nil)

// NewFrame creates a frame transport over the byte stream pair the
// host service handed the agent.
func NewFrame(r io.Reader, w io.Writer) *Frame {
	return &Frame{
		reader: bufio.NewReader(r),
		writer: w,
	}
}

// Collect implements Transport. Cancellation is only observed between
// frames: once a length prefix arrives the body read runs to
// completion. The agent relies on the peer closing the pipe for
// prompt shutdown.
func (f *Frame) Collect(ctx context.Context) (wire.Command, error) {
	for {
		if err := ctx.Err(); err != nil {
			return wire.Command{}, err
		}

		body, err := f.readFrame()
		if err == io.EOF {
			return wire.Command{}, ErrClosed
		}
		if err != nil {
			return wire.Command{}, err
		}
		if len(body) == 0 {
			// Peer keepalive.
			continue
		}
		return wire.DecodeCommand(body)
	}
}

func (f *Frame) readFrame() ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(f.reader, prefix[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("truncated frame prefix: %w", io.EOF)
		}
		return nil, err
	}
	length := binary.LittleEndian.Uint32(prefix[:])
	if length > MaxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds the %d byte limit", length, MaxFrameSize)
	}
	if length == 0 {
		return nil, nil
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(f.reader, body); err != nil {
		return nil, fmt.Errorf("reading %d byte frame body: %w", length, err)
	}
	return body, nil
}

// Send implements Transport.
func (f *Frame) Send(envelope wire.Envelope) error {
	body, err := codec.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}
	if len(body) > MaxFrameSize {
		return fmt.Errorf("envelope of %d bytes exceeds the %d byte frame limit", len(body), MaxFrameSize)
	}

	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(body)))

	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	if _, err := f.writer.Write(prefix[:]); err != nil {
		return fmt.Errorf("writing frame prefix: %w", err)
	}
	if _, err := f.writer.Write(body); err != nil {
		return fmt.Errorf("writing frame body: %w", err)
	}
	return nil
}

// Heartbeat implements Transport.
func (f *Frame) Heartbeat() error {
	return f.Send(wire.Heartbeat())
}
