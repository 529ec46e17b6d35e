// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

// Package stat implements the file stat action: it collects metadata
// for a single filesystem path, optionally following a symlink and
// optionally gathering extended attributes.
//
// Failures to gather optional attributes (the symlink target, Linux
// inode flags, individual extended attributes) are logged and skipped;
// only the primary stat call failing aborts the action.
package stat

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/s-westphal/rrg/lib/codec"
	"github.com/s-westphal/rrg/session"
)

// Name is the action name the controller dispatches on.
const Name = "GetFileStat"

// Request asks for metadata of one path.
type Request struct {
	// Path is the file to stat. Mandatory, absolute.
	Path string
	// FollowSymlink selects stat over lstat. Defaults to false.
	FollowSymlink bool
	// CollectExtAttrs additionally gathers extended attributes.
	// Defaults to false.
	CollectExtAttrs bool
}

type wireRequest struct {
	Path            *string `cbor:"path"`
	FollowSymlink   *bool   `cbor:"follow_symlink"`
	CollectExtAttrs *bool   `cbor:"collect_ext_attrs"`
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
	if decoded.FollowSymlink != nil {
		r.FollowSymlink = *decoded.FollowSymlink
	}
	if decoded.CollectExtAttrs != nil {
		r.CollectExtAttrs = *decoded.CollectExtAttrs
	}
	return nil
}

// ExtAttr is one extended attribute of a file.
type ExtAttr struct {
	Name  string `cbor:"name"`
	Value []byte `cbor:"value,omitempty"`
}

// Entry is the wire form of collected file metadata. The base fields
// are portable; identity fields (owner, inode, device) are filled on
// platforms that have them, and the flag and attribute fields only by
// the stat action itself when requested.
type Entry struct {
	Path          string `cbor:"path"`
	Size          int64  `cbor:"size"`
	Mode          uint32 `cbor:"mode"`
	ModifiedNanos int64  `cbor:"modified_ns"`

	AccessedNanos int64  `cbor:"accessed_ns,omitempty"`
	ChangedNanos  int64  `cbor:"changed_ns,omitempty"`
	Inode         uint64 `cbor:"ino,omitempty"`
	Device        uint64 `cbor:"dev,omitempty"`
	Links         uint64 `cbor:"nlink,omitempty"`
	UID           uint32 `cbor:"uid,omitempty"`
	GID           uint32 `cbor:"gid,omitempty"`

	// Symlink is the link target when the entry is a symlink that was
	// not followed.
	Symlink string `cbor:"symlink,omitempty"`
	// FlagsLinux holds the inode flags (FS_IOC_GETFLAGS).
	FlagsLinux uint32 `cbor:"flags_linux,omitempty"`
	// ExtAttrs holds extended attributes when their collection was
	// requested.
	ExtAttrs []ExtAttr `cbor:"ext_attrs,omitempty"`
}

// NewEntry builds an Entry from already-collected file info. Extended
// attributes and inode flags are not gathered here; directory listing
// and timeline actions share this base form.
func NewEntry(path string, info fs.FileInfo) Entry {
	entry := Entry{
		Path:          path,
		Size:          info.Size(),
		Mode:          uint32(info.Mode()),
		ModifiedNanos: info.ModTime().UnixNano(),
	}
	fillSys(info, &entry)
	return entry
}

// Response is the stat action's single reply.
type Response struct {
	Entry Entry
}

// TypeTag implements session.Response.
func (Response) TypeTag() string { return "StatEntry" }

// Wire implements session.Response.
func (r Response) Wire() any { return r.Entry }

// Handle collects metadata for the requested path and replies once.
func Handle(s session.Session, request *Request) error {
	logger := s.Logger()

	var info os.FileInfo
	var err error
	if request.FollowSymlink {
		info, err = os.Stat(request.Path)
	} else {
		info, err = os.Lstat(request.Path)
	}
	if err != nil {
		return session.ActionError(err)
	}

	entry := NewEntry(request.Path, info)

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(request.Path)
		if err != nil {
			logger.Warn("failed to read symlink target", "path", request.Path, "error", err)
		} else {
			entry.Symlink = target
		}
	}

	fillPlatform(logger, request, &entry)

	return s.Reply(Response{Entry: entry})
}
