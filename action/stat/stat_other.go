// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package stat

import (
	"io/fs"
	"log/slog"
)

// fillSys is a no-op outside Linux; the portable Entry fields are all
// this platform reports.
func fillSys(fs.FileInfo, *Entry) {}

// fillPlatform is a no-op outside Linux: no inode flags, no extended
// attribute collection. A request with CollectExtAttrs set still
// succeeds, it just yields none.
func fillPlatform(*slog.Logger, *Request, *Entry) {}
