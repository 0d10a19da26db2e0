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

package dts

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mycophonic/saprobe-demux/internal/bitio"
	"github.com/mycophonic/saprobe-demux/internal/seekindex"
)

const (
	// WindowSize is the scan buffer size. It bounds both the probe prefix
	// and the largest frame an index entry may describe.
	WindowSize = 40960

	invalidHeaderSkip = 4
	ctxCheckInterval  = 256
)

// Stream is the result of indexing a DTS elementary stream.
type Stream struct {
	Range      StreamRange
	Sync       SyncType
	First      Header
	Index      *seekindex.Index
	DurationUs int64
	// Largest index entry size in bytes.
	MaxFrameSize int
}

// Scan walks the elementary stream and indexes every core frame. The sync
// variant locks on the first valid frame. Entry sizes run up to the next
// entry so that extension substreams travel with their core frame.
func Scan(ctx context.Context, src io.ReaderAt, size int64) (*Stream, error) {
	rng, err := LocateStream(src, size)
	if err != nil {
		return nil, err
	}

	stream := &Stream{Range: rng, Index: seekindex.New(0)}
	win := bitio.NewWindow(src, rng.Start, rng.End, WindowSize)

	var (
		elapsed     int64
		unsupported bool
		iterations  int
	)

	for {
		iterations++
		if iterations%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		ok, err := win.Ensure(HeaderProbeSize)
		if err != nil {
			return nil, err
		}

		if !ok {
			break
		}

		buf := win.Bytes()

		typ := MatchSync(buf)
		if typ == SyncNone || typ == SyncHDContainer || (stream.Sync != SyncNone && typ != stream.Sync) {
			win.Consume(1)

			continue
		}

		hdr, err := ParseHeader(buf, typ)
		if err == nil {
			err = hdr.Validate()
		}

		if err != nil {
			if errors.Is(err, ErrUnsupportedSync) {
				unsupported = true
			}

			win.Consume(invalidHeaderSkip)

			continue
		}

		offset := win.Offset()
		frameSize := hdr.StreamSize()

		if offset+int64(frameSize) > rng.End {
			// Truncated final frame.
			break
		}

		if stream.Sync == SyncNone {
			stream.Sync = typ
			stream.First = hdr
		}

		if last := stream.Index.Len() - 1; last >= 0 {
			prev := stream.Index.At(last)
			stream.Index.SetSize(last, int(min(offset-prev.Offset, WindowSize)))
		}

		if err := stream.Index.Append(seekindex.Entry{
			Offset: offset,
			TimeUs: elapsed,
			Frame:  int64(stream.Index.Len()),
			Size:   frameSize,
		}); err != nil {
			return nil, err
		}

		elapsed += hdr.DurationUs()

		if err := skip(win, frameSize); err != nil {
			return nil, err
		}
	}

	if stream.Index.Len() == 0 {
		if unsupported {
			return nil, ErrUnsupportedSync
		}

		return nil, ErrNoSync
	}

	// The last frame keeps whatever follows it, up to the window size.
	last := stream.Index.Len() - 1
	tail := stream.Index.At(last)
	stream.Index.SetSize(last, int(min(rng.End-tail.Offset, WindowSize)))

	for _, entry := range stream.Index.Entries() {
		stream.MaxFrameSize = max(stream.MaxFrameSize, entry.Size)
	}

	stream.DurationUs = elapsed

	return stream, nil
}

// skip consumes n bytes, refilling the window as needed.
func skip(win *bitio.Window, n int) error {
	for n > 0 {
		ok, err := win.Ensure(1)
		if err != nil {
			return err
		}

		if !ok {
			return nil
		}

		step := min(n, len(win.Bytes()))
		win.Consume(step)
		n -= step
	}

	return nil
}

// Probe reports whether the first WindowSize bytes hold a DTS-HD container
// header or a core sync word followed by a valid frame header.
func Probe(src io.ReaderAt, size int64) (SyncType, int64, bool) {
	buf := make([]byte, min(size, WindowSize))

	n, err := bitio.ReadFullAt(src, buf, 0)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return SyncNone, 0, false
	}

	buf = buf[:n]

	for i := 0; i+SyncSize <= len(buf); i++ {
		typ := MatchSync(buf[i:])

		switch typ {
		case SyncNone:
			continue
		case SyncHDContainer, SyncCore24, SyncCore24M:
			return typ, int64(i), true
		}

		hdr, err := ParseHeader(buf[i:], typ)
		if err != nil || hdr.Validate() != nil {
			continue
		}

		return typ, int64(i), true
	}

	return SyncNone, 0, false
}

// String describes the stream for diagnostics.
func (s *Stream) String() string {
	return fmt.Sprintf("%v %d Hz %d ch, %d frames, %d us",
		s.Sync, s.First.SampleRate, s.First.Channels(), s.Index.Len(), s.DurationUs)
}
