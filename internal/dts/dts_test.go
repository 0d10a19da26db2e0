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

package dts_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/mycophonic/saprobe-demux/internal/dts"
)

// --- Header tests ---

func TestParseHeader_Core16BE(t *testing.T) {
	t.Parallel()

	spec := stereoFrame()
	spec.lfe = 1

	frame := core16(spec)
	if got := dts.MatchSync(frame); got != dts.SyncCore16BE {
		t.Fatalf("MatchSync: got %v, want %v", got, dts.SyncCore16BE)
	}

	hdr, err := dts.ParseHeader(frame, dts.SyncCore16BE)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}

	if err := hdr.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if hdr.Blocks != 16 || hdr.FrameSize != 1024 || hdr.SampleRate != 48000 {
		t.Errorf("got blocks=%d size=%d rate=%d", hdr.Blocks, hdr.FrameSize, hdr.SampleRate)
	}

	if hdr.Channels() != 3 {
		t.Errorf("channels: got %d, want 3", hdr.Channels())
	}

	if hdr.BitRate != 768000 {
		t.Errorf("bit rate: got %d", hdr.BitRate)
	}

	if hdr.Samples() != 512 || hdr.DurationUs() != 10666 {
		t.Errorf("samples=%d duration=%d", hdr.Samples(), hdr.DurationUs())
	}

	if hdr.StreamSize() != 1024 {
		t.Errorf("stream size: got %d", hdr.StreamSize())
	}
}

func TestParseHeader_Variants(t *testing.T) {
	t.Parallel()

	spec := stereoFrame()
	spec.size = 1008

	base := core16(spec)

	tests := []struct {
		name string
		data []byte
		sync dts.SyncType
		size int
	}{
		{"16le", swap16(base), dts.SyncCore16LE, 1008},
		{"14be", to14(base), dts.SyncCore14BE, 1152},
		{"14le", swap16(to14(base)), dts.SyncCore14LE, 1152},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := dts.MatchSync(tt.data); got != tt.sync {
				t.Fatalf("MatchSync: got %v, want %v", got, tt.sync)
			}

			hdr, err := dts.ParseHeader(tt.data, tt.sync)
			if err != nil {
				t.Fatalf("ParseHeader: %v", err)
			}

			if hdr.FrameSize != 1008 || hdr.Blocks != 16 || hdr.Channels() != 2 {
				t.Errorf("got size=%d blocks=%d channels=%d", hdr.FrameSize, hdr.Blocks, hdr.Channels())
			}

			if hdr.StreamSize() != tt.size || len(tt.data) != tt.size {
				t.Errorf("stream size: got %d (data %d), want %d", hdr.StreamSize(), len(tt.data), tt.size)
			}
		})
	}
}

func TestHeader_ValidateRanges(t *testing.T) {
	t.Parallel()

	valid := func() dts.Header {
		return dts.Header{Blocks: 16, FrameSize: 1024, AMode: 2, SampleRate: 48000}
	}

	tests := []struct {
		name   string
		mutate func(*dts.Header)
	}{
		{"blocks over 128", func(h *dts.Header) { h.Blocks = 200 }},
		{"blocks under 6", func(h *dts.Header) { h.Blocks = 5 }},
		{"frame too small", func(h *dts.Header) { h.FrameSize = 95 }},
		{"frame too large", func(h *dts.Header) { h.FrameSize = 16385 }},
		{"user channel arrangement", func(h *dts.Header) { h.AMode = 10 }},
		{"reserved sample rate", func(h *dts.Header) { h.SampleRate = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hdr := valid()
			tt.mutate(&hdr)

			if err := hdr.Validate(); !errors.Is(err, dts.ErrInvalidHeader) {
				t.Errorf("got %v, want ErrInvalidHeader", err)
			}
		})
	}

	hdr := valid()
	if err := hdr.Validate(); err != nil {
		t.Errorf("valid header: %v", err)
	}
}

func TestParseHeader_Core24Unsupported(t *testing.T) {
	t.Parallel()

	data := make([]byte, 32)
	copy(data, []byte{0xFE, 0x80, 0x00, 0x7F, 0x01, 0x00})

	if got := dts.MatchSync(data); got != dts.SyncCore24 {
		t.Fatalf("MatchSync: got %v", got)
	}

	if _, err := dts.ParseHeader(data, dts.SyncCore24); !errors.Is(err, dts.ErrUnsupportedSync) {
		t.Errorf("got %v, want ErrUnsupportedSync", err)
	}
}

// --- Scan tests ---

func TestScan_SkipsJunkAndIndexesFrames(t *testing.T) {
	t.Parallel()

	frame := core16(stereoFrame())
	data := concat([]byte{1, 2, 3, 4, 5}, frame, frame, frame)

	stream, err := dts.Scan(context.Background(), bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if stream.Sync != dts.SyncCore16BE || stream.Range.Container {
		t.Errorf("sync=%v container=%v", stream.Sync, stream.Range.Container)
	}

	wantOffsets := []int64{5, 1029, 2053}
	wantTimes := []int64{0, 10666, 21332}

	if stream.Index.Len() != len(wantOffsets) {
		t.Fatalf("entries: got %d, want %d", stream.Index.Len(), len(wantOffsets))
	}

	for i := range wantOffsets {
		entry := stream.Index.At(i)
		if entry.Offset != wantOffsets[i] || entry.TimeUs != wantTimes[i] || entry.Size != 1024 {
			t.Errorf("entry %d: %+v", i, entry)
		}
	}

	if stream.DurationUs != 31998 {
		t.Errorf("duration: got %d", stream.DurationUs)
	}
}

func TestScan_InvalidHeaderSkipped(t *testing.T) {
	t.Parallel()

	bad := stereoFrame()
	bad.blocks = 3

	good := core16(stereoFrame())
	data := concat(good, core16(bad), good)

	stream, err := dts.Scan(context.Background(), bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if stream.Index.Len() != 2 {
		t.Fatalf("entries: got %d, want 2", stream.Index.Len())
	}

	// The first entry absorbs the bytes up to the next valid frame.
	if first := stream.Index.At(0); first.Size != 2048 {
		t.Errorf("first size: got %d, want 2048", first.Size)
	}

	if second := stream.Index.At(1); second.Offset != 2048 || second.TimeUs != 10666 {
		t.Errorf("second entry: %+v", second)
	}

	if stream.MaxFrameSize != 2048 {
		t.Errorf("max frame size: got %d", stream.MaxFrameSize)
	}
}

func TestScan_LocksSyncVariant(t *testing.T) {
	t.Parallel()

	frame := core16(stereoFrame())
	data := concat(frame, swap16(frame), frame)

	stream, err := dts.Scan(context.Background(), bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if stream.Index.Len() != 2 {
		t.Fatalf("entries: got %d, want 2", stream.Index.Len())
	}

	if got := stream.Index.At(1).Offset; got != 2048 {
		t.Errorf("second offset: got %d, want 2048", got)
	}
}

func TestScan_DropsTruncatedFinalFrame(t *testing.T) {
	t.Parallel()

	frame := core16(stereoFrame())
	data := concat(frame, frame[:600])

	stream, err := dts.Scan(context.Background(), bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if stream.Index.Len() != 1 {
		t.Fatalf("entries: got %d, want 1", stream.Index.Len())
	}

	// Trailing bytes stay with the last complete frame.
	if got := stream.Index.At(0).Size; got != 1624 {
		t.Errorf("size: got %d, want 1624", got)
	}
}

func TestScan_Container(t *testing.T) {
	t.Parallel()

	frame := core16(stereoFrame())
	data := concat(
		chunk("DTSHDHDR", make([]byte, 8)),
		chunk("FILEINFO", []byte("info")),
		chunk("STRMDATA", concat(frame, frame)),
		chunk("TIMECODE", make([]byte, 4)),
	)

	rng, err := dts.LocateStream(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("LocateStream: %v", err)
	}

	if !rng.Container || rng.Start != 60 || rng.End != 60+2048 {
		t.Fatalf("range: %+v", rng)
	}

	stream, err := dts.Scan(context.Background(), bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if stream.Index.Len() != 2 || stream.Index.At(0).Offset != 60 {
		t.Errorf("entries: %+v", stream.Index.Entries())
	}

	if got := stream.Index.At(1).Size; got != 1024 {
		t.Errorf("last size: got %d, want 1024", got)
	}
}

func TestLocateStream_Errors(t *testing.T) {
	t.Parallel()

	noData := chunk("DTSHDHDR", make([]byte, 8))
	if _, err := dts.LocateStream(bytes.NewReader(noData), int64(len(noData))); !errors.Is(err, dts.ErrNoStreamData) {
		t.Errorf("missing STRMDATA: got %v", err)
	}

	overrun := concat(chunk("DTSHDHDR", make([]byte, 8)), []byte("FILEINFO"), []byte{0, 0, 0, 0, 0, 0, 1, 0})
	if _, err := dts.LocateStream(bytes.NewReader(overrun), int64(len(overrun))); !errors.Is(err, dts.ErrInvalidChunk) {
		t.Errorf("overrun: got %v", err)
	}
}

func TestScan_Errors(t *testing.T) {
	t.Parallel()

	zeros := make([]byte, 4096)
	if _, err := dts.Scan(context.Background(), bytes.NewReader(zeros), int64(len(zeros))); !errors.Is(err, dts.ErrNoSync) {
		t.Errorf("no sync: got %v", err)
	}

	core24 := make([]byte, 4096)
	copy(core24, []byte{0xFE, 0x80, 0x00, 0x7F, 0x01, 0x00})

	if _, err := dts.Scan(context.Background(), bytes.NewReader(core24), int64(len(core24))); !errors.Is(err, dts.ErrUnsupportedSync) {
		t.Errorf("24-bit: got %v", err)
	}
}

func TestScan_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	junk := make([]byte, 8192)

	if _, err := dts.Scan(ctx, bytes.NewReader(junk), int64(len(junk))); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

// --- Probe tests ---

func TestProbe(t *testing.T) {
	t.Parallel()

	frame := core16(stereoFrame())
	data := concat(make([]byte, 100), frame)

	typ, offset, ok := dts.Probe(bytes.NewReader(data), int64(len(data)))
	if !ok || typ != dts.SyncCore16BE || offset != 100 {
		t.Errorf("got %v at %d (%v)", typ, offset, ok)
	}

	hd := chunk("DTSHDHDR", make([]byte, 8))
	if typ, _, ok := dts.Probe(bytes.NewReader(hd), int64(len(hd))); !ok || typ != dts.SyncHDContainer {
		t.Errorf("container: got %v (%v)", typ, ok)
	}

	bad := stereoFrame()
	bad.rateIndex = 4

	invalid := core16(bad)
	if _, _, ok := dts.Probe(bytes.NewReader(invalid), int64(len(invalid))); ok {
		t.Error("reserved sample rate probed as DTS")
	}
}
