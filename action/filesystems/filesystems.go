// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

// Package filesystems implements the mounted filesystem enumeration
// action: one reply per mount point, read from /proc/self/mounts. It
// takes no input.
package filesystems

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/s-westphal/rrg/session"
)

// Name is the action name the controller dispatches on.
const Name = "EnumerateFilesystems"

// mountsPath is where the kernel exposes this process's mount table.
const mountsPath = "/proc/self/mounts"

// Mount is one mounted filesystem.
type Mount struct {
	// Device is the mounted source (block device, fs label, or
	// pseudo-device name).
	Device string `cbor:"device"`
	// MountPoint is where the filesystem is attached.
	MountPoint string `cbor:"mount_point"`
	// Type is the filesystem type (ext4, tmpfs, proc, ...).
	Type string `cbor:"type"`
	// Options are the mount options, split on commas.
	Options []string `cbor:"options,omitempty"`
}

// Response is one enumerated filesystem.
type Response struct {
	Mount Mount
}

// TypeTag implements session.Response.
func (Response) TypeTag() string { return "Filesystem" }

// Wire implements session.Response.
func (r Response) Wire() any { return r.Mount }

// Handle enumerates this process's mount table, replying once per
// mounted filesystem.
func Handle(s session.Session, _ *session.Empty) error {
	file, err := os.Open(mountsPath)
	if err != nil {
		return session.ActionError(err)
	}
	defer file.Close()

	mounts, err := parseMounts(file)
	if err != nil {
		return session.ActionErrorf("reading %s: %w", mountsPath, err)
	}

	for _, mount := range mounts {
		if err := s.Reply(Response{Mount: mount}); err != nil {
			return err
		}
	}
	return nil
}

// parseMounts reads a mount table in fstab format: one mount per line,
// six whitespace-separated fields, with whitespace inside fields
// octal-escaped by the kernel.
func parseMounts(r io.Reader) ([]Mount, error) {
	var mounts []Mount
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 6 {
			return nil, fmt.Errorf("mount entry with %d fields: %q", len(fields), line)
		}
		mounts = append(mounts, Mount{
			Device:     unescapeMountField(fields[0]),
			MountPoint: unescapeMountField(fields[1]),
			Type:       fields[2],
			Options:    strings.Split(fields[3], ","),
		})
	}
	return mounts, scanner.Err()
}

// unescapeMountField reverses the kernel's octal escaping of
// whitespace and backslashes in mount table fields (e.g. "\040" for a
// space). Malformed escapes are kept verbatim rather than dropped.
func unescapeMountField(field string) string {
	if !strings.Contains(field, `\`) {
		return field
	}
	var out strings.Builder
	for i := 0; i < len(field); i++ {
		if field[i] == '\\' && i+3 < len(field) {
			if value, err := strconv.ParseUint(field[i+1:i+4], 8, 8); err == nil {
				out.WriteByte(byte(value))
				i += 3
				continue
			}
		}
		out.WriteByte(field[i])
	}
	return out.String()
}
