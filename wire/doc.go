// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire defines the envelope types exchanged with the controller.
//
// Inbound traffic is a stream of [Command] values: one per requested
// action execution, carrying the action name, an opaque argument payload,
// and correlation identifiers the agent echoes back verbatim. Outbound
// traffic is a stream of [Envelope] values: zero or more replies per
// command, followed by exactly one terminal status, plus periodic
// heartbeats and the one-shot startup announcement.
//
// The envelope layer assigns no meaning to correlation identifiers and
// never decodes action payloads; both are pass-through for the transport
// and the controller.
package wire
