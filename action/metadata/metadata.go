// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

// Package metadata implements the client information action: it
// reports the agent's identity, version, and platform to the
// controller. The same record rides inside the startup announcement.
package metadata

import (
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/s-westphal/rrg/session"
	"github.com/s-westphal/rrg/version"
)

// Name is the action name the controller dispatches on.
const Name = "GetClientInfo"

// AgentName identifies this implementation to the controller.
const AgentName = "rrg"

// Version is the structured agent version reported on the wire.
type Version struct {
	Major int `cbor:"major"`
	Minor int `cbor:"minor"`
	Patch int `cbor:"patch"`
}

// Metadata describes the running agent instance.
type Metadata struct {
	// Name identifies the agent implementation.
	Name string `cbor:"name"`
	// Version is the agent's semantic version.
	Version Version `cbor:"version"`
	// OS and Arch identify the build target.
	OS   string `cbor:"os"`
	Arch string `cbor:"arch"`
	// InstanceID is a random identifier minted once per process, so
	// the controller can tell agent restarts apart.
	InstanceID string `cbor:"instance_id"`
}

// instanceID is minted lazily and stable for the process lifetime.
var instanceID = sync.OnceValue(uuid.NewString)

// Collect builds the metadata record for this process.
func Collect() Metadata {
	return Metadata{
		Name: AgentName,
		Version: Version{
			Major: version.Major,
			Minor: version.Minor,
			Patch: version.Patch,
		},
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		InstanceID: instanceID(),
	}
}

// Response is the client information action's single reply.
type Response struct {
	Metadata Metadata
}

// TypeTag implements session.Response.
func (Response) TypeTag() string { return "ClientInformation" }

// Wire implements session.Response.
func (r Response) Wire() any { return r.Metadata }

// Handle replies with the agent's metadata. It takes no input and
// cannot fail.
func Handle(s session.Session, _ *session.Empty) error {
	return s.Reply(Response{Metadata: Collect()})
}
