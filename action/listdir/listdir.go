// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

// Package listdir implements the directory listing action: one reply
// per entry of the requested directory, streamed in directory order.
// Directories of any size are handled in constant memory because each
// entry is forwarded as soon as it is stat'ed.
package listdir

import (
	"os"
	"path/filepath"

	"github.com/s-westphal/rrg/action/stat"
	"github.com/s-westphal/rrg/lib/codec"
	"github.com/s-westphal/rrg/session"
)

// Name is the action name the controller dispatches on.
const Name = "ListDirectory"

// Request asks for the entries of one directory.
type Request struct {
	// Path is the directory to list. Mandatory, absolute.
	Path string
}

type wireRequest struct {
	Path *string `cbor:"path"`
}

// UnmarshalWire implements session.Request.
func (r *Request) UnmarshalWire(raw []byte) error {
	var decoded wireRequest
	if len(raw) > 0 {
		if err := codec.Unmarshal(raw, &decoded); err != nil {
			return session.Malformed(err)
		}
	}
	if decoded.Path == nil || *decoded.Path == "" {
		return session.MissingField("path")
	}
	if !filepath.IsAbs(*decoded.Path) {
		return session.Malformedf("path %q is not absolute", *decoded.Path)
	}
	r.Path = filepath.Clean(*decoded.Path)
	return nil
}

// Response is one directory entry.
type Response struct {
	Entry stat.Entry
}

// TypeTag implements session.Response.
func (Response) TypeTag() string { return "StatEntry" }

// Wire implements session.Response.
func (r Response) Wire() any { return r.Entry }

// Handle lists the requested directory, replying once per entry. An
// entry whose metadata cannot be read (e.g., it vanished between the
// listing and the stat) is logged and skipped; only failing to read
// the directory itself aborts the action.
func Handle(s session.Session, request *Request) error {
	entries, err := os.ReadDir(request.Path)
	if err != nil {
		return session.ActionError(err)
	}

	for _, entry := range entries {
		path := filepath.Join(request.Path, entry.Name())
		info, err := entry.Info()
		if err != nil {
			s.Logger().Warn("failed to stat directory entry", "path", path, "error", err)
			continue
		}
		if err := s.Reply(Response{Entry: stat.NewEntry(path, info)}); err != nil {
			return err
		}
	}
	return nil
}
