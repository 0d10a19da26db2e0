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
	"encoding/binary"
	"unicode/utf16"
)

// frag is one payload written by buildPacket.
type frag struct {
	stream     uint8
	key        bool
	objID      uint8
	offset     uint32
	objSize    uint32
	timeMs     uint32
	data       []byte
	compressed [][]byte
	delta      uint8
}

func le16(b []byte, v int) []byte    { return binary.LittleEndian.AppendUint16(b, uint16(v)) }
func le32(b []byte, v uint32) []byte { return binary.LittleEndian.AppendUint32(b, v) }
func le64(b []byte, v uint64) []byte { return binary.LittleEndian.AppendUint64(b, v) }

// buildPacket writes a data packet of size bytes with error correction data
// and the multiple-payload layout.
func buildPacket(size int, sendMs uint32, frags ...frag) []byte {
	b := []byte{0x82, 0x00, 0x00, 0x11, 0x5D}
	padPos := len(b)
	b = le16(b, 0)
	b = le32(b, sendMs)
	b = le16(b, 0)
	b = append(b, byte(len(frags))|2<<6)

	for _, f := range frags {
		streamByte := f.stream
		if f.key {
			streamByte |= 0x80
		}

		b = append(b, streamByte, f.objID)

		if f.compressed != nil {
			b = le32(b, f.timeMs)
			b = append(b, 1, f.delta)

			var body []byte
			for _, sub := range f.compressed {
				body = append(body, byte(len(sub)))
				body = append(body, sub...)
			}

			b = le16(b, len(body))
			b = append(b, body...)

			continue
		}

		b = le32(b, f.offset)
		b = append(b, 8)
		b = le32(b, f.objSize)
		b = le32(b, f.timeMs)
		b = le16(b, len(f.data))
		b = append(b, f.data...)
	}

	pad := size - len(b)
	binary.LittleEndian.PutUint16(b[padPos:], uint16(pad))

	return append(b, make([]byte, pad)...)
}

func object(guid GUID, payload []byte) []byte {
	out := append([]byte(nil), guid[:]...)
	out = le64(out, uint64(objectHeaderSize+len(payload)))

	return append(out, payload...)
}

func utf16z(s string) []byte {
	var out []byte
	for _, unit := range utf16.Encode([]rune(s + "\x00")) {
		out = le16(out, int(unit))
	}

	return out
}

type fileSpec struct {
	packetSize  int
	prerollMs   uint64
	durationMs  uint64
	formatTag   uint16
	streamNum   uint8
	spread      []byte
	title       string
	packets     [][]byte
	indexPeriod uint64 // ms, zero for no index
	index       []uint32
}

func buildFile(spec fileSpec) []byte {
	var children [][]byte

	props := make([]byte, 16)
	props = le64(props, 0)
	props = le64(props, 0)
	props = le64(props, uint64(len(spec.packets)))
	props = le64(props, (spec.durationMs+spec.prerollMs)*10_000)
	props = le64(props, spec.durationMs*10_000)
	props = le64(props, spec.prerollMs)
	props = le32(props, 2)
	props = le32(props, uint32(spec.packetSize))
	props = le32(props, uint32(spec.packetSize))
	props = le32(props, 128_000)
	children = append(children, object(guidFileProperties, props))

	wave := le16(nil, int(spec.formatTag))
	wave = le16(wave, 2)
	wave = le32(wave, 44100)
	wave = le32(wave, 16000)
	wave = le16(wave, 2230)
	wave = le16(wave, 16)
	wave = le16(wave, 0)

	correction := mustGUID("20FB5700-5B55-11CF-A8FD-00805F5C442B")
	if spec.spread != nil {
		correction = guidAudioSpread
	}

	stream := append([]byte(nil), guidAudioMedia[:]...)
	stream = append(stream, correction[:]...)
	stream = le64(stream, 0)
	stream = le32(stream, uint32(len(wave)))
	stream = le32(stream, uint32(len(spec.spread)))
	stream = le16(stream, int(spec.streamNum))
	stream = le32(stream, 0)
	stream = append(stream, wave...)
	stream = append(stream, spec.spread...)
	children = append(children, object(guidStreamProperties, stream))

	if spec.title != "" {
		title := utf16z(spec.title)
		desc := le16(nil, len(title))
		desc = le16(desc, 0)
		desc = le16(desc, 0)
		desc = le16(desc, 0)
		desc = le16(desc, 0)
		desc = append(desc, title...)
		children = append(children, object(guidContentDescription, desc))
	}

	headerPayload := le32(nil, uint32(len(children)))
	headerPayload = append(headerPayload, 1, 2)

	for _, child := range children {
		headerPayload = append(headerPayload, child...)
	}

	out := object(guidHeader, headerPayload)

	data := make([]byte, 16)
	data = le64(data, uint64(len(spec.packets)))
	data = append(data, 1, 1)

	for _, pkt := range spec.packets {
		data = append(data, pkt...)
	}

	out = append(out, object(guidData, data)...)

	if spec.index != nil {
		index := make([]byte, 16)
		index = le64(index, spec.indexPeriod*10_000)
		index = le32(index, 1)
		index = le32(index, uint32(len(spec.index)))

		for _, packet := range spec.index {
			index = le32(index, packet)
			index = le16(index, 1)
		}

		out = append(out, object(guidSimpleIndex, index)...)
	}

	return out
}
