// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"errors"
	"fmt"

	"github.com/s-westphal/rrg/lib/codec"
)

// StartupSessionID is the reserved correlation identifier for the
// startup announcement emitted once at process start. The controller
// routes it to its startup flow rather than to a task it issued.
const StartupSessionID = "flows/F:Startup"

// Command is one inbound request from the controller: execute the named
// action with the given arguments. SessionID and RequestID are assigned
// by the controller and opaque to the agent; every outgoing envelope
// produced for this command echoes them unchanged.
type Command struct {
	Action    string           `cbor:"action"`
	SessionID string           `cbor:"session_id"`
	RequestID uint64           `cbor:"request_id"`
	Args      codec.RawMessage `cbor:"args,omitempty"`
}

// ErrMalformedCommand reports an inbound packet that could not be
// decoded into a usable Command. The receive loop logs these and keeps
// going; they never terminate the agent.
var ErrMalformedCommand = errors.New("malformed command envelope")

// DecodeCommand decodes one inbound packet into a Command. An
// undecodable packet or a missing action name yields an error wrapping
// [ErrMalformedCommand].
func DecodeCommand(data []byte) (Command, error) {
	var command Command
	if err := codec.Unmarshal(data, &command); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}
	if command.Action == "" {
		return Command{}, fmt.Errorf("%w: missing action name", ErrMalformedCommand)
	}
	return command, nil
}

// Kind discriminates outgoing envelopes.
type Kind string

const (
	// KindReply carries one action response payload.
	KindReply Kind = "reply"
	// KindStatus carries the terminal status of a task. Exactly one
	// per command.
	KindStatus Kind = "status"
	// KindHeartbeat is a liveness signal with no task affiliation.
	KindHeartbeat Kind = "heartbeat"
)

// Envelope is one outgoing unit. ResponseID is the task-scoped sequence
// number: replies are numbered from zero in emission order and the
// terminal status takes the next value in the same sequence, so the
// controller can detect how many replies preceded it.
//
// TypeTag is the legacy payload label carried for backward-compatible
// envelope routing on the controller; it has no behavior on the agent
// side and is absent for untagged payloads.
type Envelope struct {
	Kind       Kind             `cbor:"kind"`
	SessionID  string           `cbor:"session_id,omitempty"`
	RequestID  uint64           `cbor:"request_id,omitempty"`
	ResponseID uint64           `cbor:"response_id"`
	TypeTag    string           `cbor:"type_tag,omitempty"`
	Payload    codec.RawMessage `cbor:"payload,omitempty"`
	Status     *Status          `cbor:"status,omitempty"`
}

// Status is the terminal outcome of one task. On failure, Error holds
// the stringified cause.
type Status struct {
	OK    bool   `cbor:"ok"`
	Error string `cbor:"error,omitempty"`
}

// Heartbeat returns the liveness envelope sent at a fixed cadence while
// the agent is running, including while a long-running handler has the
// receive loop blocked.
func Heartbeat() Envelope {
	return Envelope{Kind: KindHeartbeat}
}
