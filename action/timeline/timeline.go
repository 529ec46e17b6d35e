// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

// Package timeline implements the timeline action: a recursive walk of
// a directory tree that streams every entry's metadata back as a
// sequence of compressed chunks.
//
// Entries are CBOR-encoded back to back into a chunk buffer; when the
// buffer reaches the flush threshold it is zstd-compressed, digested
// with BLAKE3, and replied immediately. Memory use is bounded by the
// chunk size no matter how large the tree is. A final summary reply
// carries the digest list so the controller can verify it received
// every chunk.
package timeline

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/s-westphal/rrg/action/stat"
	"github.com/s-westphal/rrg/lib/codec"
	"github.com/s-westphal/rrg/session"
)

// Name is the action name the controller dispatches on.
const Name = "Timeline"

// flushThreshold is how many encoded entry bytes accumulate before a
// chunk is compressed and emitted.
const flushThreshold = 1 << 20

// Request asks for a timeline of one directory tree.
type Request struct {
	// Root is the directory to walk. Mandatory, absolute.
	Root string
}

type wireRequest struct {
	Root *string `cbor:"root"`
}

// UnmarshalWire implements session.Request.
func (r *Request) UnmarshalWire(raw []byte) error {
	var decoded wireRequest
	if len(raw) > 0 {
		if err := codec.Unmarshal(raw, &decoded); err != nil {
			return session.Malformed(err)
		}
	}
	if decoded.Root == nil || *decoded.Root == "" {
		return session.MissingField("root")
	}
	if !filepath.IsAbs(*decoded.Root) {
		return session.Malformedf("root %q is not absolute", *decoded.Root)
	}
	r.Root = filepath.Clean(*decoded.Root)
	return nil
}

// ChunkResponse is one compressed run of timeline entries.
type ChunkResponse struct {
	// Digest is the BLAKE3 digest of the compressed data.
	Digest []byte
	// Data is the zstd-compressed concatenation of CBOR-encoded
	// entries.
	Data []byte
	// Count is how many entries the chunk holds.
	Count uint64
}

type wireChunk struct {
	Digest []byte `cbor:"digest"`
	Data   []byte `cbor:"data"`
	Count  uint64 `cbor:"count"`
}

// TypeTag implements session.Response.
func (ChunkResponse) TypeTag() string { return "" }

// Wire implements session.Response.
func (r ChunkResponse) Wire() any {
	return wireChunk{Digest: r.Digest, Data: r.Data, Count: r.Count}
}

// SummaryResponse closes the timeline stream: the digests of every
// emitted chunk, in order, and the total entry count.
type SummaryResponse struct {
	ChunkDigests [][]byte
	EntryCount   uint64
}

type wireSummary struct {
	ChunkDigests [][]byte `cbor:"chunk_digests,omitempty"`
	EntryCount   uint64   `cbor:"entry_count"`
}

// TypeTag implements session.Response.
func (SummaryResponse) TypeTag() string { return "TimelineResult" }

// Wire implements session.Response.
func (r SummaryResponse) Wire() any {
	return wireSummary{ChunkDigests: r.ChunkDigests, EntryCount: r.EntryCount}
}

// Handle walks the requested tree and streams its metadata as
// compressed chunks followed by one summary. Unreadable subtrees and
// entries are logged and skipped; only a walk that cannot start at all
// (e.g. the root does not exist) aborts the action.
func Handle(s session.Session, request *Request) error {
	builder, err := newChunker(flushThreshold)
	if err != nil {
		return session.ActionError(err)
	}
	defer builder.close()

	summary := SummaryResponse{}
	emit := func(chunk *ChunkResponse) error {
		if chunk == nil {
			return nil
		}
		if err := s.Reply(*chunk); err != nil {
			return err
		}
		summary.ChunkDigests = append(summary.ChunkDigests, chunk.Digest)
		summary.EntryCount += chunk.Count
		return nil
	}

	rootSeen := false
	walkErr := filepath.WalkDir(request.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if !rootSeen {
				return err
			}
			s.Logger().Warn("skipping unreadable subtree", "path", path, "error", err)
			return nil
		}
		rootSeen = true

		info, err := d.Info()
		if err != nil {
			s.Logger().Warn("failed to stat timeline entry", "path", path, "error", err)
			return nil
		}
		chunk, err := builder.append(stat.NewEntry(path, info))
		if err != nil {
			return err
		}
		return emit(chunk)
	})
	if walkErr != nil {
		// A rejected Reply aborts the walk; it must surface as the
		// transport failure it is, not as an action failure.
		var sendErr *session.SendError
		if errors.As(walkErr, &sendErr) {
			return walkErr
		}
		return session.ActionError(walkErr)
	}

	chunk, err := builder.finish()
	if err != nil {
		return session.ActionError(err)
	}
	if err := emit(chunk); err != nil {
		return err
	}

	return s.Reply(summary)
}

// chunker accumulates CBOR-encoded entries and cuts compressed chunks
// at the flush threshold.
type chunker struct {
	buffer   bytes.Buffer
	count    uint64
	flushAt  int
	encoder  *zstd.Encoder
	compress []byte
}

func newChunker(flushAt int) (*chunker, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	return &chunker{flushAt: flushAt, encoder: encoder}, nil
}

// append encodes one entry into the current chunk. It returns a
// finished chunk when the threshold was crossed, nil otherwise.
func (c *chunker) append(entry stat.Entry) (*ChunkResponse, error) {
	encoded, err := codec.Marshal(entry)
	if err != nil {
		return nil, err
	}
	c.buffer.Write(encoded)
	c.count++
	if c.buffer.Len() < c.flushAt {
		return nil, nil
	}
	return c.cut(), nil
}

// finish cuts the trailing partial chunk, or returns nil if every
// entry already went out.
func (c *chunker) finish() (*ChunkResponse, error) {
	if c.count == 0 {
		return nil, nil
	}
	return c.cut(), nil
}

// close releases the encoder. The chunker must not be used after.
func (c *chunker) close() {
	c.encoder.Close()
}

func (c *chunker) cut() *ChunkResponse {
	c.compress = c.encoder.EncodeAll(c.buffer.Bytes(), c.compress[:0])
	data := make([]byte, len(c.compress))
	copy(data, c.compress)
	digest := blake3.Sum256(data)

	chunk := &ChunkResponse{
		Digest: digest[:],
		Data:   data,
		Count:  c.count,
	}
	c.buffer.Reset()
	c.count = 0
	return chunk
}
