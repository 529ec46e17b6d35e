// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

package session

// Request is the input conversion contract every action implements for
// its own request type. UnmarshalWire parses a raw wire payload into
// the receiver: it validates that mandatory fields are present
// (reporting [MissingField] when not), converts wire fields to native
// types (reporting [Malformed] on conversion failure), and applies the
// action's declared defaults for absent optional fields.
//
// Implementations must be total over arbitrary input: any malformed
// payload yields a *ParseError, never a panic.
type Request interface {
	UnmarshalWire(raw []byte) error
}

// Response is the output conversion contract every action implements
// for its response type. Both methods are pure and total — domain
// validation happens before a response value is ever constructed, not
// during conversion.
type Response interface {
	// TypeTag returns the legacy payload label attached to the
	// envelope for backward-compatible routing on the controller, or
	// "" for untagged payloads.
	TypeTag() string

	// Wire returns the value serialized into the envelope payload.
	// A nil result means the envelope carries no payload.
	Wire() any
}

// Empty is the identity request and response: no input and no domain
// payload, mapping to an absent wire payload. Actions triggered purely
// for their side effects use it on either side of the contract.
type Empty struct{}

// UnmarshalWire accepts any payload, including none.
func (*Empty) UnmarshalWire([]byte) error { return nil }

// TypeTag returns "" — the empty response is never labeled.
func (Empty) TypeTag() string { return "" }

// Wire returns nil — the empty response has no payload.
func (Empty) Wire() any { return nil }
