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

package asf

import (
	"bytes"
	"context"
	"errors"
	"io"
	"runtime"
	"testing"
)

const testPacketSize = 512

func parseFile(t *testing.T, data []byte) *Header {
	t.Helper()

	hdr, err := ParseHeader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}

	return hdr
}

// timedFile builds count packets, each carrying one 100-byte object that
// starts 100 ms after the previous one.
func timedFile(count int, prerollMs uint64, index []uint32) []byte {
	packets := make([][]byte, count)

	for i := range packets {
		packets[i] = buildPacket(testPacketSize, uint32(i*100), frag{
			stream:  1,
			key:     true,
			objID:   uint8(i),
			objSize: 100,
			timeMs:  uint32(prerollMs) + uint32(i*100),
			data:    bytes.Repeat([]byte{byte(i)}, 100),
		})
	}

	spec := fileSpec{
		packetSize: testPacketSize,
		prerollMs:  prerollMs,
		durationMs: uint64(count) * 100,
		formatTag:  0x0161,
		streamNum:  1,
		title:      "Hyphae",
		packets:    packets,
	}

	if index != nil {
		spec.indexPeriod = 1000
		spec.index = index
	}

	return buildFile(spec)
}

// --- GUID tests ---

func TestGUID_OnDiskOrder(t *testing.T) {
	t.Parallel()

	want := []byte{0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11, 0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C}
	if !bytes.Equal(guidHeader[:], want) {
		t.Fatalf("header GUID: got % x", guidHeader[:])
	}

	if got := guidHeader.String(); got != "75b22630-668e-11cf-a6d9-00aa0062ce6c" {
		t.Fatalf("String: got %s", got)
	}

	if !Probe(want) || Probe(want[:8]) {
		t.Fatal("Probe mismatch")
	}
}

// --- Header tests ---

func TestParseHeader(t *testing.T) {
	t.Parallel()

	hdr := parseFile(t, timedFile(10, 3000, nil))

	if hdr.PacketSize() != testPacketSize || hdr.Packets != 10 {
		t.Fatalf("packet size %d, packets %d", hdr.PacketSize(), hdr.Packets)
	}

	if hdr.DurationUs() != 1_000_000 {
		t.Fatalf("duration: got %d, want 1000000", hdr.DurationUs())
	}

	stream, ok := hdr.AudioStream()
	if !ok {
		t.Fatal("no audio stream")
	}

	if stream.Number != 1 || stream.Codec != CodecWMAv2 || stream.Format.SampleRate != 44100 || stream.Format.Channels != 2 {
		t.Fatalf("stream: %+v", stream)
	}

	if hdr.Tags["title"] != "Hyphae" {
		t.Fatalf("title: got %q", hdr.Tags["title"])
	}
}

func TestParseHeader_Errors(t *testing.T) {
	t.Parallel()

	if _, err := ParseHeader(bytes.NewReader(make([]byte, 64)), 64); !errors.Is(err, ErrNotASF) {
		t.Errorf("zero bytes: expected ErrNotASF, got: %v", err)
	}

	// Header object without a data object.
	data := timedFile(2, 0, nil)
	root, err := readObjectInfo(bytes.NewReader(data), 0, int64(len(data)))
	if err != nil {
		t.Fatalf("readObjectInfo: %v", err)
	}

	headerOnly := data[:root.size]
	if _, err := ParseHeader(bytes.NewReader(headerOnly), int64(len(headerOnly))); !errors.Is(err, ErrNoDataObject) {
		t.Errorf("header only: expected ErrNoDataObject, got: %v", err)
	}
}

func TestLookupCodec(t *testing.T) {
	t.Parallel()

	tests := map[uint16]Codec{
		0x0160: CodecWMAv1,
		0x0161: CodecWMAv2,
		0x0162: CodecWMAPro,
		0x0163: CodecWMALossless,
		0x000A: CodecWMAVoice,
		0x0055: CodecMP3,
		0x0001: CodecPCM,
		0x1234: CodecUnknown,
	}

	for tag, want := range tests {
		if got := LookupCodec(tag); got != want {
			t.Errorf("LookupCodec(%#04x) = %v, want %v", tag, got, want)
		}
	}
}

// --- Packet tests ---

func TestParsePacket_Compressed(t *testing.T) {
	t.Parallel()

	buf := buildPacket(testPacketSize, 0, frag{
		stream:     2,
		timeMs:     500,
		delta:      20,
		compressed: [][]byte{{1, 2, 3}, {4, 5}, {6}},
	})

	var pkt Packet
	if err := ParsePacket(buf, &pkt); err != nil {
		t.Fatalf("ParsePacket: %v", err)
	}

	if len(pkt.Payloads) != 3 {
		t.Fatalf("payloads: got %d, want 3", len(pkt.Payloads))
	}

	for i, wantTime := range []uint32{500, 520, 540} {
		payload := pkt.Payloads[i]
		if payload.TimeMs != wantTime || !payload.Complete() || payload.Stream != 2 {
			t.Errorf("payload %d: %+v", i, payload)
		}
	}

	if !bytes.Equal(pkt.Payloads[1].Data, []byte{4, 5}) {
		t.Errorf("payload 1 data: % x", pkt.Payloads[1].Data)
	}
}

func TestParsePacket_SinglePayload(t *testing.T) {
	t.Parallel()

	// No error correction, single payload, one-byte padding length.
	buf := []byte{
		0x08,          // length type flags: padding as byte
		0x5D,          // property flags
		0x04,          // padding
		0, 0, 0, 0,    // send time
		0, 0,          // duration
		0x81,          // stream 1, key frame
		7,             // object id
		0, 0, 0, 0,    // offset
		8,             // replicated data length
		3, 0, 0, 0,    // object size
		0x10, 0, 0, 0, // presentation time
		0xAA, 0xBB, 0xCC,
		0, 0, 0, 0,
	}

	var pkt Packet
	if err := ParsePacket(buf, &pkt); err != nil {
		t.Fatalf("ParsePacket: %v", err)
	}

	if len(pkt.Payloads) != 1 {
		t.Fatalf("payloads: got %d", len(pkt.Payloads))
	}

	payload := pkt.Payloads[0]
	if !payload.Key || payload.ObjectID != 7 || payload.TimeMs != 16 || !bytes.Equal(payload.Data, []byte{0xAA, 0xBB, 0xCC}) {
		t.Fatalf("payload: %+v", payload)
	}
}

func TestParsePacket_Truncated(t *testing.T) {
	t.Parallel()

	buf := buildPacket(64, 0, frag{stream: 1, objSize: 10, data: make([]byte, 10)})

	var pkt Packet
	if err := ParsePacket(buf[:20], &pkt); !errors.Is(err, ErrInvalidPacket) {
		t.Fatalf("expected ErrInvalidPacket, got: %v", err)
	}
}

// --- Demuxer tests ---

func TestDemuxer_ReadAll(t *testing.T) {
	t.Parallel()

	data := timedFile(5, 2000, nil)
	hdr := parseFile(t, data)
	stream, _ := hdr.AudioStream()
	demux := NewDemuxer(context.Background(), bytes.NewReader(data), hdr, stream)

	for i := range 5 {
		obj, err := demux.Read()
		if err != nil {
			t.Fatalf("object %d: %v", i, err)
		}

		if obj.TimeUs != int64(i)*100_000 || len(obj.Data) != 100 || obj.Data[0] != byte(i) {
			t.Fatalf("object %d: time %d len %d", i, obj.TimeUs, len(obj.Data))
		}
	}

	if _, err := demux.Read(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got: %v", err)
	}

	if demux.Learned().Len() != 5 {
		t.Fatalf("learned entries: got %d, want 5", demux.Learned().Len())
	}
}

func TestDemuxer_Reassembly(t *testing.T) {
	t.Parallel()

	whole := make([]byte, 900)
	for i := range whole {
		whole[i] = byte(i)
	}

	packets := [][]byte{
		// Tail of an object whose start is missing.
		buildPacket(testPacketSize, 0, frag{stream: 1, objID: 1, offset: 50, objSize: 100, timeMs: 0, data: make([]byte, 50)}),
		buildPacket(testPacketSize, 0, frag{stream: 1, objID: 2, offset: 0, objSize: 900, timeMs: 40, data: whole[:450]}),
		buildPacket(testPacketSize, 0,
			frag{stream: 3, objID: 9, objSize: 10, timeMs: 40, data: make([]byte, 10)},
			frag{stream: 1, objID: 2, offset: 450, objSize: 900, timeMs: 40, data: whole[450:]},
		),
	}

	data := buildFile(fileSpec{packetSize: testPacketSize, durationMs: 100, formatTag: 0x0161, streamNum: 1, packets: packets})
	hdr := parseFile(t, data)
	stream, _ := hdr.AudioStream()
	demux := NewDemuxer(context.Background(), bytes.NewReader(data), hdr, stream)

	obj, err := demux.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if !bytes.Equal(obj.Data, whole) || obj.TimeUs != 40_000 || obj.Packet != 1 {
		t.Fatalf("object: len %d time %d packet %d", len(obj.Data), obj.TimeUs, obj.Packet)
	}

	if _, err := demux.Read(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got: %v", err)
	}
}

//nolint:paralleltest // Measures process-wide allocations.
func TestDemuxer_OversizedObjectDropped(t *testing.T) {
	packets := make([][]byte, 3)
	for i := range packets {
		packets[i] = buildPacket(testPacketSize, 0, frag{
			stream:  1,
			objID:   uint8(i),
			objSize: 0x7FFFFFF0,
			timeMs:  uint32(i * 100),
			data:    make([]byte, 100),
		})
	}

	data := buildFile(fileSpec{packetSize: testPacketSize, durationMs: 300, formatTag: 0x0161, streamNum: 1, packets: packets})
	hdr := parseFile(t, data)
	stream, _ := hdr.AudioStream()
	demux := NewDemuxer(context.Background(), bytes.NewReader(data), hdr, stream)

	var before, after runtime.MemStats

	runtime.ReadMemStats(&before)

	_, err := demux.Read()

	runtime.ReadMemStats(&after)

	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got: %v", err)
	}

	if grown := after.TotalAlloc - before.TotalAlloc; grown > 1<<20 {
		t.Fatalf("allocated %d bytes for a %d byte file", grown, len(data))
	}
}

func TestDemuxer_Seek(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		index  []uint32
		target int64
		want   int64
	}{
		{"middle", nil, 4_550_000, 4_500_000},
		{"exact", nil, 7_000_000, 7_000_000},
		{"start", nil, 0, 0},
		{"before first", nil, 50_000, 0},
		{"past end", nil, 60_000_000, 9_900_000},
		{"with index", []uint32{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}, 4_550_000, 4_500_000},
	}

	data := timedFile(100, 1000, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			file := data
			if tt.index != nil {
				file = timedFile(100, 1000, tt.index)
			}

			hdr := parseFile(t, file)
			stream, _ := hdr.AudioStream()
			demux := NewDemuxer(context.Background(), bytes.NewReader(file), hdr, stream)

			if err := demux.Seek(tt.target); err != nil {
				t.Fatalf("Seek: %v", err)
			}

			obj, err := demux.Read()
			if err != nil {
				t.Fatalf("Read: %v", err)
			}

			if obj.TimeUs != tt.want {
				t.Fatalf("time after seek: got %d, want %d", obj.TimeUs, tt.want)
			}
		})
	}
}

func TestDemuxer_SeekUsesLearnedEntries(t *testing.T) {
	t.Parallel()

	data := timedFile(30, 0, nil)
	hdr := parseFile(t, data)
	stream, _ := hdr.AudioStream()
	demux := NewDemuxer(context.Background(), bytes.NewReader(data), hdr, stream)

	for range 20 {
		if _, err := demux.Read(); err != nil {
			t.Fatalf("Read: %v", err)
		}
	}

	if err := demux.Seek(1_234_000); err != nil {
		t.Fatalf("Seek: %v", err)
	}

	obj, err := demux.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if obj.TimeUs != 1_200_000 {
		t.Fatalf("time after seek: got %d, want 1200000", obj.TimeUs)
	}
}

func TestDemuxer_Interrupted(t *testing.T) {
	t.Parallel()

	data := timedFile(3, 0, nil)
	hdr := parseFile(t, data)
	stream, _ := hdr.AudioStream()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	demux := NewDemuxer(ctx, bytes.NewReader(data), hdr, stream)

	if _, err := demux.Read(); !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got: %v", err)
	}
}

func TestDemuxer_Descramble(t *testing.T) {
	t.Parallel()

	// Span 2, virtual packet 4 bytes, chunk 2 bytes: chunks are stored
	// column-major across the two virtual packets.
	demux := &Demuxer{stream: &Stream{Spread: &Spread{Span: 2, PacketSize: 4, ChunkSize: 2}}}

	got := demux.descramble([]byte{'a', 'a', 'c', 'c', 'b', 'b', 'd', 'd'})
	if string(got) != "aabbccdd" {
		t.Fatalf("got %q, want %q", got, "aabbccdd")
	}

	// Unexpected sizes pass through.
	if got := demux.descramble([]byte{1, 2, 3}); len(got) != 3 {
		t.Fatalf("passthrough: got %v", got)
	}
}
