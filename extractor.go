/*
   Copyright Mycophonic.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package demux

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/mycophonic/saprobe-demux/internal/bitio"
	"github.com/mycophonic/saprobe-demux/internal/seekindex"
)

// frameSource yields the frames of one track in stream order.
type frameSource interface {
	// rewind positions the source at the first frame.
	rewind()
	// seek positions the source at the frame at or before timeUs.
	seek(timeUs int64) error
	// read returns the next frame, reusing dst when it is large enough.
	// It returns io.EOF past the last frame.
	read(dst []byte) ([]byte, int64, error)
}

// IndexEntry is one seek table entry.
type IndexEntry struct {
	Offset int64
	TimeUs int64
}

// Extractor exposes the single audio track of a parsed source. It is
// immutable once built; a failed extractor reports its cause through Err and
// has no tracks.
type Extractor struct {
	mime   string
	err    error
	logger *slog.Logger

	meta  Metadata
	tags  map[string]string
	index *seekindex.Index

	newFrames func() frameSource
}

func failedExtractor(mime string, cfg *config, err error) *Extractor {
	err = fmt.Errorf("%w: %s: %w", ErrInit, mime, err)
	cfg.logger.Debug("extractor init failed", "mime", mime, "error", err)

	return &Extractor{mime: mime, err: err, logger: cfg.logger}
}

func readyExtractor(mime string, cfg *config, meta Metadata, index *seekindex.Index, newFrames func() frameSource) *Extractor {
	ext := &Extractor{
		mime:      mime,
		logger:    cfg.logger,
		meta:      meta,
		tags:      meta.Tags,
		index:     index,
		newFrames: newFrames,
	}

	cfg.logger.Debug("extractor ready",
		"mime", mime,
		"track", meta.MIME,
		"rate", meta.SampleRate,
		"channels", meta.Channels,
		"duration_us", meta.DurationUs,
		"entries", index.Len(),
	)

	return ext
}

// Err returns the initialization failure, or nil when the extractor is ready.
func (e *Extractor) Err() error {
	return e.err
}

// MIME returns the container MIME type.
func (e *Extractor) MIME() string {
	return e.mime
}

// CountTracks returns 1 for a ready extractor and 0 for a failed one.
func (e *Extractor) CountTracks() int {
	if e.err != nil {
		return 0
	}

	return 1
}

// Metadata returns the container-level metadata: the container MIME type
// and any tags the container carries.
func (e *Extractor) Metadata() Metadata {
	meta := Metadata{MIME: e.mime, Tags: e.tags}

	return meta.clone()
}

// TrackMetadata returns the metadata of track index. It reports false for a
// missing track or a failed extractor.
func (e *Extractor) TrackMetadata(index int) (Metadata, bool) {
	if e.err != nil || index != 0 {
		return Metadata{}, false
	}

	return e.meta.clone(), true
}

// Track returns a new reader for track index.
func (e *Extractor) Track(index int) (*Track, error) {
	if e.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTrack, e.err)
	}

	if index != 0 {
		return nil, fmt.Errorf("%w: index %d", ErrNoTrack, index)
	}

	return newTrack(e.meta.clone(), e.newFrames(), e.logger), nil
}

// SeekIndex returns a copy of the seek table built at open time. Formats that
// seek arithmetically or lazily return nil.
func (e *Extractor) SeekIndex() []IndexEntry {
	if e.index.Len() == 0 {
		return nil
	}

	out := make([]IndexEntry, e.index.Len())
	for i := range out {
		entry := e.index.At(i)
		out[i] = IndexEntry{Offset: entry.Offset, TimeUs: entry.TimeUs}
	}

	return out
}

// grow returns dst resized to n bytes, reallocating when it is too small.
func grow(dst []byte, n int) []byte {
	if cap(dst) < n {
		return make([]byte, n)
	}

	return dst[:n]
}

// indexedFrames reads the frames recorded in a seek index.
type indexedFrames struct {
	src   io.ReaderAt
	index *seekindex.Index
	pos   int
}

func (f *indexedFrames) rewind() {
	f.pos = 0
}

func (f *indexedFrames) seek(timeUs int64) error {
	pos, ok := f.index.Floor(timeUs)
	if !ok {
		pos = f.index.Len()
	}

	f.pos = pos

	return nil
}

func (f *indexedFrames) read(dst []byte) ([]byte, int64, error) {
	if f.pos >= f.index.Len() {
		return dst, 0, io.EOF
	}

	entry := f.index.At(f.pos)
	dst = grow(dst, entry.Size)

	if _, err := bitio.ReadFullAt(f.src, dst, entry.Offset); err != nil {
		return dst[:0], 0, err
	}

	f.pos++

	return dst, entry.TimeUs, nil
}

// maxEntrySize returns the largest entry size of index.
func maxEntrySize(index *seekindex.Index) int {
	largest := 0
	for i := range index.Len() {
		largest = max(largest, index.At(i).Size)
	}

	return largest
}
