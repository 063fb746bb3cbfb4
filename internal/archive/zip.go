// Package archive packs part maps into zip containers and back.
package archive

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"
)

// Error types
var (
	ErrInvalidArchive = errors.New("invalid archive")
	ErrEntryTooLarge  = errors.New("archive entry too large")
	ErrInvalidLevel   = errors.New("invalid compression level")
)

// DefaultMaxEntrySize bounds a single decompressed entry.
const DefaultMaxEntrySize = 512 << 20

// Packer turns a path to bytes map into a container and back.
type Packer interface {
	Pack(entries map[string][]byte) ([]byte, error)
	Unpack(data []byte) (map[string][]byte, error)
}

// Zip is a deflate zip Packer. Entries are written in a fixed order: the
// names in First, then the rest sorted, so equal input gives equal output.
type Zip struct {
	// Level is a compress/flate level; 0 means flate.DefaultCompression.
	Level int
	// First lists entries written ahead of the sorted rest.
	First []string
	// MaxEntrySize bounds decompressed entries on Unpack; 0 means
	// DefaultMaxEntrySize.
	MaxEntrySize int64
}

// epoch is the modification time stamped on every entry.
var epoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Pack writes entries into a zip archive.
func (z Zip) Pack(entries map[string][]byte) ([]byte, error) {
	level := z.Level
	if level == 0 {
		level = flate.DefaultCompression
	}
	if level < flate.HuffmanOnly || level > flate.BestCompression {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	w.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	for _, name := range z.order(entries) {
		fw, err := w.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: epoch,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create entry %s: %w", name, err)
		}
		if _, err := fw.Write(entries[name]); err != nil {
			return nil, fmt.Errorf("failed to write entry %s: %w", name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	return buf.Bytes(), nil
}

func (z Zip) order(entries map[string][]byte) []string {
	names := make([]string, 0, len(entries))
	placed := make(map[string]bool, len(z.First))
	for _, name := range z.First {
		if _, ok := entries[name]; ok && !placed[name] {
			names = append(names, name)
			placed[name] = true
		}
	}
	rest := make([]string, 0, len(entries))
	for name := range entries {
		if !placed[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// Unpack reads every file entry of a zip archive. Directory entries are
// skipped; a later duplicate name replaces an earlier one.
func (z Zip) Unpack(data []byte) (map[string][]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}
	limit := z.MaxEntrySize
	if limit <= 0 {
		limit = DefaultMaxEntrySize
	}

	out := make(map[string][]byte, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if f.UncompressedSize64 > uint64(limit) {
			return nil, fmt.Errorf("%w: %s", ErrEntryTooLarge, f.Name)
		}
		b, err := readEntry(f, limit)
		if err != nil {
			return nil, err
		}
		out[f.Name] = b
	}
	return out, nil
}

func readEntry(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidArchive, f.Name, err)
	}
	defer rc.Close()

	b, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidArchive, f.Name, err)
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("%w: %s", ErrEntryTooLarge, f.Name)
	}
	return b, nil
}
