// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

// Package insttime implements the install date action: it estimates
// when the operating system was installed. It takes no input.
//
// The estimate is the change time of the root directory's inode, which
// survives everything short of reinstalling or re-creating the root
// filesystem. Distribution-specific markers (installer logs, package
// database birth) would be closer to the truth but none of them exists
// on every system; the root inode does.
package insttime

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/s-westphal/rrg/session"
)

// Name is the action name the controller dispatches on.
const Name = "GetInstallDate"

// Response carries the estimated install time.
type Response struct {
	Time time.Time
}

type wireResponse struct {
	// Micros is the install time in microseconds since the Unix
	// epoch.
	Micros int64 `cbor:"micros"`
}

// TypeTag implements session.Response.
func (Response) TypeTag() string { return "RDFDatetime" }

// Wire implements session.Response.
func (r Response) Wire() any { return wireResponse{Micros: r.Time.UnixMicro()} }

// Handle estimates the install date from the root inode, replying
// once.
func Handle(s session.Session, _ *session.Empty) error {
	var info unix.Stat_t
	if err := unix.Stat("/", &info); err != nil {
		return session.ActionError(err)
	}
	changed := time.Unix(info.Ctim.Unix())
	return s.Reply(Response{Time: changed})
}
