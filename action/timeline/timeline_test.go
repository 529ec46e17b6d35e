// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

package timeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/s-westphal/rrg/action/stat"
	"github.com/s-westphal/rrg/lib/codec"
	"github.com/s-westphal/rrg/session"
)

// decodeChunks decompresses the chunk replies and decodes the entry
// stream they carry.
func decodeChunks(t *testing.T, chunks []ChunkResponse) []stat.Entry {
	t.Helper()

	reader, err := zstd.NewReader(nil)
	if err != nil {
		t.Fatalf("creating zstd reader: %v", err)
	}
	defer reader.Close()

	var entries []stat.Entry
	for i, chunk := range chunks {
		digest := blake3.Sum256(chunk.Data)
		if !bytes.Equal(digest[:], chunk.Digest) {
			t.Errorf("chunk %d: digest does not match data", i)
		}

		raw, err := reader.DecodeAll(chunk.Data, nil)
		if err != nil {
			t.Fatalf("chunk %d: decompress: %v", i, err)
		}
		decoder := codec.NewDecoder(bytes.NewReader(raw))
		for {
			var entry stat.Entry
			if err := decoder.Decode(&entry); err == io.EOF {
				break
			} else if err != nil {
				t.Fatalf("chunk %d: decoding entry: %v", i, err)
			}
			entries = append(entries, entry)
		}
	}
	return entries
}

func TestHandleWalksTree(t *testing.T) {
	root := t.TempDir()
	paths := []string{
		"top.txt",
		"sub/one.txt",
		"sub/two.txt",
		"sub/deep/three.txt",
	}
	for _, rel := range paths {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("creating fixture dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(rel), 0o644); err != nil {
			t.Fatalf("writing fixture %q: %v", rel, err)
		}
	}

	fake := session.NewFake()
	if err := Handle(fake, &Request{Root: root}); err != nil {
		t.Fatalf("handle: %v", err)
	}

	chunks := session.RepliesOf[ChunkResponse](fake)
	if len(chunks) == 0 {
		t.Fatal("no chunk replies")
	}
	entries := decodeChunks(t, chunks)

	// Files plus the directories themselves (root, sub, sub/deep).
	wantEntries := len(paths) + 3
	if len(entries) != wantEntries {
		t.Fatalf("decoded %d entries, want %d", len(entries), wantEntries)
	}
	seen := make(map[string]stat.Entry, len(entries))
	for _, entry := range entries {
		seen[entry.Path] = entry
	}
	for _, rel := range paths {
		path := filepath.Join(root, rel)
		entry, ok := seen[path]
		if !ok {
			t.Errorf("entry for %q missing", path)
			continue
		}
		if entry.Size != int64(len(rel)) {
			t.Errorf("%q: Size = %d, want %d", path, entry.Size, len(rel))
		}
	}

	summaries := session.RepliesOf[SummaryResponse](fake)
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	summary := summaries[0]
	if summary.EntryCount != uint64(wantEntries) {
		t.Errorf("summary EntryCount = %d, want %d", summary.EntryCount, wantEntries)
	}
	if len(summary.ChunkDigests) != len(chunks) {
		t.Fatalf("summary lists %d digests, want %d", len(summary.ChunkDigests), len(chunks))
	}
	for i, chunk := range chunks {
		if !bytes.Equal(summary.ChunkDigests[i], chunk.Digest) {
			t.Errorf("summary digest %d does not match its chunk", i)
		}
	}

	// The summary closes the stream.
	replies := fake.Replies()
	if _, ok := replies[len(replies)-1].(SummaryResponse); !ok {
		t.Errorf("last reply is %T, want SummaryResponse", replies[len(replies)-1])
	}
}

func TestHandleMissingRootFails(t *testing.T) {
	fake := session.NewFake()
	err := Handle(fake, &Request{Root: filepath.Join(t.TempDir(), "nonexistent")})

	var taskErr *session.Error
	if !errors.As(err, &taskErr) || taskErr.Kind != session.KindAction {
		t.Fatalf("err = %v, want action error", err)
	}
	if len(fake.Replies()) != 0 {
		t.Errorf("failing walk emitted %d replies", len(fake.Replies()))
	}
}

func TestChunkerCutsAtThreshold(t *testing.T) {
	builder, err := newChunker(256)
	if err != nil {
		t.Fatalf("newChunker: %v", err)
	}

	var cuts []ChunkResponse
	var total uint64
	for i := 0; i < 100; i++ {
		entry := stat.Entry{
			Path: fmt.Sprintf("/walk/file-%03d", i),
			Size: int64(i),
			Mode: 0o644,
		}
		chunk, err := builder.append(entry)
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if chunk != nil {
			cuts = append(cuts, *chunk)
			total += chunk.Count
		}
	}
	if len(cuts) == 0 {
		t.Fatal("threshold of 256 bytes never triggered a cut across 100 entries")
	}

	tail, err := builder.finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if tail != nil {
		cuts = append(cuts, *tail)
		total += tail.Count
	}
	if total != 100 {
		t.Errorf("chunks account for %d entries, want 100", total)
	}

	// A drained chunker has nothing left to cut.
	if extra, err := builder.finish(); err != nil || extra != nil {
		t.Errorf("finish on drained chunker = (%v, %v), want (nil, nil)", extra, err)
	}

	// Releasing the encoder must not invalidate chunks already cut:
	// their data is copied out of the compression buffer.
	builder.close()
	if got := len(decodeChunks(t, cuts)); got != 100 {
		t.Errorf("decoded %d entries after close, want 100", got)
	}
}

func TestRequestValidation(t *testing.T) {
	var request Request
	err := request.UnmarshalWire(nil)
	var parseErr *session.ParseError
	if !errors.As(err, &parseErr) || parseErr.Field != "root" {
		t.Fatalf("err = %v, want missing field %q", err, "root")
	}

	raw, marshalErr := codec.Marshal(map[string]any{"root": "relative"})
	if marshalErr != nil {
		t.Fatalf("marshal: %v", marshalErr)
	}
	err = request.UnmarshalWire(raw)
	if !errors.As(err, &parseErr) || parseErr.Field != "" {
		t.Fatalf("err = %v, want malformed", err)
	}
}
