// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

// Package startup implements the reserved startup action.
//
// Its single response announces the agent's liveness and version. The
// process loop emits it once at boot through the direct one-shot send
// path (no task, no terminal status); the action is also registered in
// the dispatch table so the controller can request the same record
// later through the normal streamed path.
package startup

import (
	"time"

	"github.com/s-westphal/rrg/action/metadata"
	"github.com/s-westphal/rrg/session"
)

// Name is the action name the controller dispatches on.
const Name = "SendStartupInfo"

// Response announces the agent to the controller.
type Response struct {
	Metadata metadata.Metadata
	// StartedAt is when this process came up.
	StartedAt time.Time
}

// wireResponse is the payload form of Response.
type wireResponse struct {
	Metadata  metadata.Metadata `cbor:"metadata"`
	StartedAt int64             `cbor:"started_at"`
}

// TypeTag implements session.Response.
func (Response) TypeTag() string { return "StartupInfo" }

// Wire implements session.Response.
func (r Response) Wire() any {
	return wireResponse{
		Metadata:  r.Metadata,
		StartedAt: r.StartedAt.Unix(),
	}
}

// Info builds the startup announcement for this process.
func Info() Response {
	return Response{
		Metadata:  metadata.Collect(),
		StartedAt: time.Now(),
	}
}

// Handle replies with the startup announcement. It takes no input and
// cannot fail.
func Handle(s session.Session, _ *session.Empty) error {
	return s.Reply(Info())
}
