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
	"encoding/binary"
)

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

type frameSpec struct {
	blocks    uint64
	size      uint64
	amode     uint64
	rateIndex uint64
	lfe       uint64
}

// 16 blocks, 1024 bytes, stereo, 48 kHz.
func stereoFrame() frameSpec {
	return frameSpec{blocks: 16, size: 1024, amode: 2, rateIndex: 13}
}

// core16 builds a 16-bit big-endian core frame padded with zeros.
func core16(spec frameSpec) []byte {
	var w bitWriter

	w.put(0x7FFE8001, 32)
	w.put(1, 1)  // normal frame
	w.put(31, 5) // no deficit samples
	w.put(0, 1)  // no CRC
	w.put(spec.blocks-1, 7)
	w.put(spec.size-1, 14)
	w.put(spec.amode, 6)
	w.put(spec.rateIndex, 4)
	w.put(15, 5) // 768 kbit/s
	w.put(0, 10) // MIX through ASPF
	w.put(spec.lfe, 2)

	out := make([]byte, spec.size)
	copy(out, w.buf)

	return out
}

func swap16(data []byte) []byte {
	out := make([]byte, len(data))
	for i := 0; i+1 < len(data); i += 2 {
		out[i], out[i+1] = data[i+1], data[i]
	}

	return out
}

// to14 spreads a 16-bit stream over 14-bit words with sign-extended tops.
func to14(data []byte) []byte {
	var (
		out  []byte
		acc  uint32
		bits uint
	)

	for _, b := range data {
		acc = acc<<8 | uint32(b)
		bits += 8

		for bits >= 14 {
			bits -= 14
			word := uint16(acc>>bits) & 0x3FFF
			if word&0x2000 != 0 {
				word |= 0xC000
			}

			out = binary.BigEndian.AppendUint16(out, word)
			acc &= 1<<bits - 1
		}
	}

	return out
}

func chunk(id string, payload []byte) []byte {
	out := append([]byte(id), make([]byte, 8)...)
	binary.BigEndian.PutUint64(out[8:], uint64(len(payload)))

	return append(out, payload...)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, part := range parts {
		out = append(out, part...)
	}

	return out
}
