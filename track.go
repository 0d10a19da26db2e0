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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mycophonic/saprobe-demux/internal/asf"
)

// ReadOptions modifies a single Track.Read call.
type ReadOptions struct {
	// Seek requests a reposition to SeekTimeUs before reading.
	Seek       bool
	SeekTimeUs int64
}

// SeekTo returns options that seek to timeUs before reading.
func SeekTo(timeUs int64) *ReadOptions {
	return &ReadOptions{Seek: true, SeekTimeUs: timeUs}
}

// Buffer is one compressed frame handed out by Track.Read. Data stays valid
// until Release.
type Buffer struct {
	Data     []byte
	TimeUs   int64
	KeyFrame bool

	track *Track
	gen   uint64
}

// Release returns the buffer to its track. Releasing twice, or after the
// track was stopped, does nothing.
func (b *Buffer) Release() {
	if b == nil || b.track == nil {
		return
	}

	b.track.release(b.gen)
	b.track = nil
	b.Data = nil
}

// Track reads the frames of one extractor track. A Track is driven from a
// single goroutine.
type Track struct {
	meta   Metadata
	frames frameSource
	logger *slog.Logger

	started bool
	// The pool holds a single buffer, lent out between Read and Release.
	buf  []byte
	held bool
	gen  uint64
}

func newTrack(meta Metadata, frames frameSource, logger *slog.Logger) *Track {
	return &Track{meta: meta, frames: frames, logger: logger}
}

// Format returns the track metadata.
func (t *Track) Format() Metadata {
	return t.meta.clone()
}

// Start allocates the buffer pool and positions the track at its first frame.
func (t *Track) Start() error {
	if t.started {
		return ErrAlreadyStarted
	}

	t.frames.rewind()
	t.buf = make([]byte, 0, t.meta.MaxInputSize)
	t.held = false
	t.started = true

	return nil
}

// Stop releases the buffer pool. Buffers still held become invalid.
func (t *Track) Stop() error {
	if !t.started {
		return ErrNotStarted
	}

	t.started = false
	t.buf = nil
	t.held = false
	t.gen++

	return nil
}

// Read returns the next frame, seeking first when opts asks for it. It
// returns io.EOF once no frame remains; read failures of the source are
// reported the same way.
func (t *Track) Read(opts *ReadOptions) (*Buffer, error) {
	if !t.started {
		return nil, ErrNotStarted
	}

	if t.held {
		return nil, ErrBufferInUse
	}

	if opts != nil && opts.Seek {
		if err := t.frames.seek(max(opts.SeekTimeUs, 0)); err != nil {
			return nil, t.readErr(err)
		}
	}

	data, timeUs, err := t.frames.read(t.buf[:0])
	if err != nil {
		return nil, t.readErr(err)
	}

	if cap(data) > cap(t.buf) {
		t.buf = data[:0]
	}

	t.held = true

	return &Buffer{
		Data:     data,
		TimeUs:   timeUs,
		KeyFrame: true,
		track:    t,
		gen:      t.gen,
	}, nil
}

func (t *Track) release(gen uint64) {
	if gen == t.gen {
		t.held = false
	}
}

func (t *Track) readErr(err error) error {
	switch {
	case errors.Is(err, io.EOF):
		return io.EOF
	case errors.Is(err, asf.ErrInterrupted),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrInterrupted, err)
	default:
		t.logger.Debug("read failed, ending stream", "mime", t.meta.MIME, "error", err)

		return io.EOF
	}
}
