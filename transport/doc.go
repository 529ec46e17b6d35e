// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport carries envelopes between the agent and the host
// message service.
//
// The [Transport] interface is the whole contract the execution core
// places on its environment: blocking ingress of commands, synchronous
// egress of envelopes, and a liveness signal. Two implementations
// exist: [Frame], speaking length-prefixed CBOR frames over a byte
// stream pair (the pipe a host service hands the agent), and [Memory],
// a channel-backed double for tests.
//
// The transport assigns no application semantics to what it carries;
// correlation identifiers and payloads pass through opaquely.
package transport
