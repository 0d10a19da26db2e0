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

package demux_test

import (
	"bytes"
	"encoding/binary"
	"math/bits"
	"testing"
	"unicode/utf16"

	"github.com/bluenviron/mediacommon/pkg/codecs/mpeg4audio"
	"github.com/deepch/vdk/codec/aacparser"
	"github.com/google/uuid"
	"github.com/mycophonic/agar/pkg/agar"

	"github.com/mycophonic/saprobe-demux"
)

// bitWriter packs MSB-first bit fields.
type bitWriter struct {
	buf  []byte
	bits int
}

func (w *bitWriter) put(value uint64, width int) {
	for i := width - 1; i >= 0; i-- {
		if w.bits%8 == 0 {
			w.buf = append(w.buf, 0)
		}

		if value>>uint(i)&1 == 1 {
			w.buf[len(w.buf)-1] |= 0x80 >> uint(w.bits%8)
		}

		w.bits++
	}
}

func (w *bitWriter) putBytes(data []byte) {
	for _, b := range data {
		w.put(uint64(b), 8)
	}
}

func (w *bitWriter) align() {
	for w.bits%8 != 0 {
		w.put(0, 1)
	}
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, part := range parts {
		out = append(out, part...)
	}

	return out
}

func open(t *testing.T, data []byte, mime string, opts ...demux.Option) *demux.Extractor {
	t.Helper()

	ext, err := demux.CreateExtractor(demux.NewBytesSource(data), mime, opts...)
	if err != nil {
		t.Fatalf("CreateExtractor(%s): %v", mime, err)
	}

	if ext.Err() != nil {
		t.Fatalf("extractor %s: %v", mime, ext.Err())
	}

	return ext
}

type frame struct {
	size   int
	timeUs int64
}

// readAll starts track 0 and drains it.
func readAll(t *testing.T, ext *demux.Extractor) []frame {
	t.Helper()

	track, err := ext.Track(0)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}

	if err := track.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	defer track.Stop()

	var frames []frame

	for {
		buf, err := track.Read(nil)
		if err != nil {
			break
		}

		frames = append(frames, frame{len(buf.Data), buf.TimeUs})
		buf.Release()
	}

	return frames
}

// --- AIFF ---

func extended(rate uint64) []byte {
	out := make([]byte, 10)
	top := bits.Len64(rate) - 1
	binary.BigEndian.PutUint16(out[0:2], uint16(16383+top))
	binary.BigEndian.PutUint64(out[2:10], rate<<(63-top))

	return out
}

func aiffChunk(id string, data []byte) []byte {
	out := append([]byte(id), binary.BigEndian.AppendUint32(nil, uint32(len(data)))...)
	out = append(out, data...)

	if len(data)%2 == 1 {
		out = append(out, 0)
	}

	return out
}

func aiffFile(comm []byte, pcm []byte) []byte {
	body := concat([]byte("AIFF"), aiffChunk("COMM", comm), aiffChunk("SSND", append(make([]byte, 8), pcm...)))
	out := append([]byte("FORM"), binary.BigEndian.AppendUint32(nil, uint32(len(body)))...)

	return append(out, body...)
}

func commData(channels, frames, bitDepth int, rate uint64) []byte {
	data := binary.BigEndian.AppendUint16(nil, uint16(channels))
	data = binary.BigEndian.AppendUint32(data, uint32(frames))
	data = binary.BigEndian.AppendUint16(data, uint16(bitDepth))

	return append(data, extended(rate)...)
}

// noiseAIFF holds one second of 16-bit stereo noise at 44.1 kHz.
func noiseAIFF() []byte {
	pcm := agar.GenerateWhiteNoise(44100, 16, 2, 1)

	return aiffFile(commData(2, len(pcm)/4, 16, 44100), pcm)
}

// --- AAC ---

// frontPCE writes a program config element with pairs front channel pairs.
func frontPCE(w *bitWriter, rateIndex, pairs uint64) {
	w.put(0, 4)         // element_instance_tag
	w.put(1, 2)         // object_type LC
	w.put(rateIndex, 4) // sampling_frequency_index
	w.put(pairs, 4)     // front elements
	w.put(0, 4)         // side
	w.put(0, 4)         // back
	w.put(0, 2)         // lfe
	w.put(0, 3)         // assoc data
	w.put(0, 4)         // valid cc
	w.put(0, 3)         // mixdown flags

	for range pairs {
		w.put(1, 1) // is_cpe
		w.put(0, 4) // tag
	}

	w.align()
	w.put(0, 8) // comment_field_bytes
}

// adifFile is a 17-byte stereo 44.1 kHz header followed by payload bytes.
func adifFile(bitrate uint64, payload int) []byte {
	return adifPairs(bitrate, 1, payload)
}

func adifPairs(bitrate, pairs uint64, payload int) []byte {
	var w bitWriter

	w.putBytes([]byte("ADIF"))
	w.put(0, 1) // copyright_id_present
	w.put(0, 1) // original_copy
	w.put(0, 1) // home
	w.put(0, 1) // constant rate
	w.put(bitrate, 23)
	w.put(0, 4) // one program
	w.put(0, 20)
	frontPCE(&w, 4, pairs)
	w.align()

	return append(w.buf, bytes.Repeat([]byte{0x5A}, payload)...)
}

func adtsFrame(rateIndex, channelConfig uint, payloadLen int) []byte {
	config := aacparser.MPEG4AudioConfig{
		ObjectType:      aacparser.AOT_AAC_LC,
		SampleRateIndex: rateIndex,
		ChannelConfig:   channelConfig,
	}

	out := make([]byte, aacparser.ADTSHeaderLength+payloadLen)
	aacparser.FillADTSHeader(out, config, 1024, payloadLen)

	for i := aacparser.ADTSHeaderLength; i < len(out); i++ {
		out[i] = 0x11
	}

	return out
}

func lcConfig(t *testing.T, rate, channels int) []byte {
	t.Helper()

	conf := mpeg4audio.Config{Type: mpeg4audio.ObjectTypeAACLC, SampleRate: rate, ChannelCount: channels}

	asc, err := conf.Marshal()
	if err != nil {
		t.Fatalf("marshal audio config: %v", err)
	}

	return asc
}

// loasFrame wraps one AudioMuxElement. A nil asc reuses the previous config.
func loasFrame(asc []byte, payloadLen int) []byte {
	var w bitWriter

	if asc == nil {
		w.put(1, 1)
	} else {
		w.put(0, 1) // useSameStreamMux
		w.put(0, 1) // audioMuxVersion
		w.put(1, 1) // allStreamsSameTimeFraming
		w.put(0, 6) // numSubFrames
		w.put(0, 4) // numProgram
		w.put(0, 3) // numLayer
		w.putBytes(asc)
		w.put(0, 3)    // frameLengthType
		w.put(0xFF, 8) // latmBufferFullness
		w.put(0, 1)    // otherDataPresent
		w.put(0, 1)    // crcCheckPresent
	}

	for i := payloadLen; i > 0; i -= 255 {
		w.put(uint64(min(i, 255)), 8)
	}

	for range payloadLen {
		w.put(0xA5, 8)
	}

	w.align()

	header := []byte{0x56, 0xE0 | byte(len(w.buf)>>8), byte(len(w.buf))}

	return append(header, w.buf...)
}

// --- DTS ---

// dtsFrame is a 16-bit big-endian 48 kHz stereo core frame of 16 blocks.
func dtsFrame(blocks, size uint64) []byte {
	var w bitWriter

	w.put(0x7FFE8001, 32)
	w.put(1, 1)  // normal frame
	w.put(31, 5) // no deficit samples
	w.put(0, 1)  // no CRC
	w.put(blocks-1, 7)
	w.put(size-1, 14)
	w.put(2, 6)  // stereo
	w.put(13, 4) // 48 kHz
	w.put(15, 5) // 768 kbit/s
	w.put(0, 10)
	w.put(0, 2) // no LFE

	out := make([]byte, size)
	copy(out, w.buf)

	return out
}

// --- TrueHD ---

func thdUnit(size int) []byte {
	out := make([]byte, size)
	binary.BigEndian.PutUint16(out, 0xF000|uint16(size/2))

	return out
}

// thdMajorUnit carries a 48 kHz family major sync with a 5.1 assignment.
func thdMajorUnit(size int, rateIndex uint32) []byte {
	out := thdUnit(size)
	binary.BigEndian.PutUint32(out[4:], 0xF8726FBA)
	binary.BigEndian.PutUint32(out[8:], rateIndex<<28|0x0F)
	binary.BigEndian.PutUint16(out[12:], 0xB752)
	binary.BigEndian.PutUint16(out[18:], 0x9000)
	out[20] = 0x20

	return out
}

// --- ASF ---

const asfPacketSize = 512

func le16(b []byte, v int) []byte    { return binary.LittleEndian.AppendUint16(b, uint16(v)) }
func le32(b []byte, v uint32) []byte { return binary.LittleEndian.AppendUint32(b, v) }
func le64(b []byte, v uint64) []byte { return binary.LittleEndian.AppendUint64(b, v) }

// asfGUID returns the on-disk form of a canonical GUID.
func asfGUID(s string) []byte {
	c := uuid.MustParse(s)

	return append([]byte{c[3], c[2], c[1], c[0], c[5], c[4], c[7], c[6]}, c[8:]...)
}

func asfObject(guid string, payload []byte) []byte {
	out := le64(asfGUID(guid), uint64(24+len(payload)))

	return append(out, payload...)
}

// asfPacket carries one whole key object for stream 1.
func asfPacket(id uint8, timeMs uint32, data []byte) []byte {
	b := []byte{0x82, 0x00, 0x00, 0x11, 0x5D}
	padPos := len(b)
	b = le16(b, 0)
	b = le32(b, timeMs)
	b = le16(b, 0)
	b = append(b, 1|2<<6)
	b = append(b, 0x81, id)
	b = le32(b, 0)
	b = append(b, 8)
	b = le32(b, uint32(len(data)))
	b = le32(b, timeMs)
	b = le16(b, len(data))
	b = append(b, data...)

	pad := asfPacketSize - len(b)
	binary.LittleEndian.PutUint16(b[padPos:], uint16(pad))

	return append(b, make([]byte, pad)...)
}

func utf16z(s string) []byte {
	var out []byte
	for _, unit := range utf16.Encode([]rune(s + "\x00")) {
		out = le16(out, int(unit))
	}

	return out
}

// asfFile holds count WMAv2 objects of 100 bytes, 100 ms apart.
func asfFile(count int) []byte {
	props := make([]byte, 16)
	props = le64(props, 0)
	props = le64(props, 0)
	props = le64(props, uint64(count))
	props = le64(props, uint64(count)*100*10_000)
	props = le64(props, uint64(count)*100*10_000)
	props = le64(props, 0)
	props = le32(props, 2)
	props = le32(props, asfPacketSize)
	props = le32(props, asfPacketSize)
	props = le32(props, 128_000)

	wave := le16(nil, 0x0161)
	wave = le16(wave, 2)
	wave = le32(wave, 44100)
	wave = le32(wave, 16000)
	wave = le16(wave, 2230)
	wave = le16(wave, 16)
	wave = le16(wave, 0)

	stream := asfGUID("F8699E40-5B4D-11CF-A8FD-00805F5C442B")
	stream = append(stream, asfGUID("20FB5700-5B55-11CF-A8FD-00805F5C442B")...)
	stream = le64(stream, 0)
	stream = le32(stream, uint32(len(wave)))
	stream = le32(stream, 0)
	stream = le16(stream, 1)
	stream = le32(stream, 0)
	stream = append(stream, wave...)

	title := utf16z("Hyphae")
	desc := le16(nil, len(title))
	desc = le16(desc, 0)
	desc = le16(desc, 0)
	desc = le16(desc, 0)
	desc = le16(desc, 0)
	desc = append(desc, title...)

	header := le32(nil, 3)
	header = append(header, 1, 2)
	header = append(header, asfObject("8CABDCA1-A947-11CF-8EE4-00C00C205365", props)...)
	header = append(header, asfObject("B7DC0791-A9B7-11CF-8EE6-00C00C205365", stream)...)
	header = append(header, asfObject("75B22633-668E-11CF-A6D9-00AA0062CE6C", desc)...)

	data := make([]byte, 16)
	data = le64(data, uint64(count))
	data = append(data, 1, 1)

	for i := range count {
		data = append(data, asfPacket(uint8(i), uint32(i*100), bytes.Repeat([]byte{byte(i)}, 100))...)
	}

	return concat(
		asfObject("75B22630-668E-11CF-A6D9-00AA0062CE6C", header),
		asfObject("75B22636-668E-11CF-A6D9-00AA0062CE6C", data),
	)
}
