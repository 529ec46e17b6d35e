// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the agent's standard CBOR encoding configuration.
//
// Everything the agent puts on the wire — inbound command envelopes,
// outbound reply and status envelopes, and the action-specific payloads
// nested inside them — is CBOR encoded through this package. Centralizing
// the encoder and decoder modes here means every package serializes
// identically without duplicating configuration, and no package outside
// this one imports fxamacker/cbor directly.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map
// keys, smallest integer encoding, no indefinite-length items. Same logical
// data always produces identical bytes, which keeps envelope framing and
// payload digests stable.
//
// For buffer-oriented operations (payloads, envelopes):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (transport pipes):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
package codec
