// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package stat

import (
	"io/fs"
	"log/slog"
	"syscall"

	"golang.org/x/sys/unix"
)

// fillSys copies the identity fields out of the kernel stat record.
func fillSys(info fs.FileInfo, entry *Entry) {
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	entry.AccessedNanos = sys.Atim.Nano()
	entry.ChangedNanos = sys.Ctim.Nano()
	entry.Inode = sys.Ino
	entry.Device = uint64(sys.Dev)
	entry.Links = uint64(sys.Nlink)
	entry.UID = sys.Uid
	entry.GID = sys.Gid
}

// fillPlatform gathers the Linux-only optional attributes: inode flags
// always, extended attributes when the request asked for them. Every
// failure here is log-and-skip; the entry stays valid without them.
func fillPlatform(logger *slog.Logger, request *Request, entry *Entry) {
	flags, err := inodeFlags(request.Path)
	if err != nil {
		logger.Warn("failed to collect inode flags", "path", request.Path, "error", err)
	} else {
		entry.FlagsLinux = flags
	}

	if request.CollectExtAttrs {
		entry.ExtAttrs = extAttrs(logger, request.Path)
	}
}

// inodeFlags reads the inode flag word via FS_IOC_GETFLAGS. Character
// devices, sockets, and filesystems without flag support fail here,
// which the caller absorbs.
func inodeFlags(path string) (uint32, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return 0, err
	}
	defer unix.Close(fd)

	flags, err := unix.IoctlGetInt(fd, unix.FS_IOC_GETFLAGS)
	if err != nil {
		return 0, err
	}
	return uint32(flags), nil
}

// extAttrs lists and reads the extended attributes of path without
// following symlinks. An attribute that vanishes or becomes unreadable
// between listing and reading is skipped with a warning.
func extAttrs(logger *slog.Logger, path string) []ExtAttr {
	size, err := unix.Llistxattr(path, nil)
	if err != nil {
		logger.Warn("failed to list extended attributes", "path", path, "error", err)
		return nil
	}
	if size == 0 {
		return nil
	}

	buffer := make([]byte, size)
	size, err = unix.Llistxattr(path, buffer)
	if err != nil {
		logger.Warn("failed to list extended attributes", "path", path, "error", err)
		return nil
	}

	var attrs []ExtAttr
	for _, name := range splitAttrNames(buffer[:size]) {
		value, err := readAttr(path, name)
		if err != nil {
			logger.Warn("failed to read extended attribute", "path", path, "attr", name, "error", err)
			continue
		}
		attrs = append(attrs, ExtAttr{Name: name, Value: value})
	}
	return attrs
}

// readAttr reads one attribute value, retrying once if it grows
// between the size probe and the read.
func readAttr(path, name string) ([]byte, error) {
	for {
		size, err := unix.Lgetxattr(path, name, nil)
		if err != nil {
			return nil, err
		}
		if size == 0 {
			return nil, nil
		}
		buffer := make([]byte, size)
		read, err := unix.Lgetxattr(path, name, buffer)
		if err == unix.ERANGE {
			continue
		}
		if err != nil {
			return nil, err
		}
		return buffer[:read], nil
	}
}

// splitAttrNames splits the NUL-delimited name list returned by
// listxattr.
func splitAttrNames(buffer []byte) []string {
	var names []string
	start := 0
	for i, b := range buffer {
		if b == 0 {
			if i > start {
				names = append(names, string(buffer[start:i]))
			}
			start = i + 1
		}
	}
	return names
}
