// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

// Package memsize implements the memory size action: it reports the
// host's total physical memory. It takes no input.
package memsize

import (
	"golang.org/x/sys/unix"

	"github.com/s-westphal/rrg/session"
)

// Name is the action name the controller dispatches on.
const Name = "GetMemorySize"

// Response carries the total physical memory in bytes.
type Response struct {
	Total uint64
}

type wireResponse struct {
	Total uint64 `cbor:"total"`
}

// TypeTag implements session.Response.
func (Response) TypeTag() string { return "ByteSize" }

// Wire implements session.Response.
func (r Response) Wire() any { return wireResponse{Total: r.Total} }

// Handle reports the total physical memory, replying once.
func Handle(s session.Session, _ *session.Empty) error {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return session.ActionError(err)
	}
	return s.Reply(Response{Total: uint64(info.Totalram) * uint64(info.Unit)})
}
