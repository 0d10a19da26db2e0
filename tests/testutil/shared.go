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

// Package testutil holds fixtures and benchmark plumbing for the
// integration tests.
package testutil

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/mycophonic/agar/pkg/agar"

	"github.com/mycophonic/saprobe-demux"
)

// BenchFormat describes an audio format configuration for benchmarking.
type BenchFormat = agar.BenchFormat

// BenchOptions controls benchmark execution parameters.
type BenchOptions = agar.BenchOptions

// BenchResult holds timing statistics for a single benchmark run.
type BenchResult = agar.BenchResult

// MaxReads bounds Drain so a misbehaving frame source cannot spin forever.
const MaxReads = 1 << 20

// Frame is one buffer returned by a track, without its payload.
type Frame struct {
	Size   int
	TimeUs int64
}

// Drain reads track 0 of ext until it ends. It fails the test on any error
// other than io.EOF, or when the track never ends.
func Drain(t *testing.T, ext *demux.Extractor) []Frame {
	t.Helper()

	track, err := ext.Track(0)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}

	if err := track.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	defer func() { _ = track.Stop() }()

	var frames []Frame

	for range MaxReads {
		buf, err := track.Read(nil)
		if errors.Is(err, io.EOF) {
			return frames
		}

		if err != nil {
			t.Fatalf("Read after %d frames: %v", len(frames), err)
		}

		frames = append(frames, Frame{Size: len(buf.Data), TimeUs: buf.TimeUs})
		buf.Release()
	}

	t.Fatalf("track did not end after %d reads", MaxReads)

	return nil
}

// BenchDemux times opening data as mime and draining its track.
func BenchDemux(t *testing.T, format BenchFormat, opts BenchOptions, mime string, data []byte) BenchResult {
	t.Helper()

	opts = opts.WithDefaults()
	durations := make([]time.Duration, opts.Iterations)

	for iter := range opts.Iterations {
		start := time.Now()

		ext, err := demux.CreateExtractor(demux.NewBytesSource(data), mime)
		if err != nil || ext.Err() != nil {
			t.Fatalf("open %s: %v, %v", mime, err, ext.Err())
		}

		Drain(t, ext)

		durations[iter] = time.Since(start)
	}

	return agar.ComputeResult(format, "saprobe", "demux", durations, len(data))
}
