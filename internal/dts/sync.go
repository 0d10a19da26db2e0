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
	"encoding/binary"
)

// SyncType identifies the packing and byte order of a DTS stream.
// SyncType identifies the bitstream packing announced by a sync word.
type SyncType int

// Sync word variants.
const (
	SyncNone SyncType = iota
	SyncCore16BE
	SyncCore16LE
	SyncCore14BE
	SyncCore14LE
	SyncCore24
	SyncCore24M
	SyncHDContainer
)

// Sync words.
const (
	syncCore16BE = 0x7FFE8001
	syncCore16LE = 0xFE7F0180
	syncCore14BE = 0x1FFFE800
	syncCore14LE = 0xFF1F00E8
	syncCore24   = 0xFE80007F
	syncCore24M  = 0x80FE7F00
	syncHDHigh   = 0x44545348 // "DTSH"
	syncHDLow    = 0x44484452 // "DHDR"

	syncCore14BEExt     = 0x07F0
	syncCore14BEExtMask = 0xFFF0
	syncCore14LEExt     = 0xF007
	syncCore14LEExtMask = 0xF0FF

	// Bytes MatchSync needs to classify a candidate.
	SyncSize = 8
)

func (s SyncType) String() string {
	switch s {
	case SyncCore16BE:
		return "core-16be"
	case SyncCore16LE:
		return "core-16le"
	case SyncCore14BE:
		return "core-14be"
	case SyncCore14LE:
		return "core-14le"
	case SyncCore24:
		return "core-24"
	case SyncCore24M:
		return "core-24m"
	case SyncHDContainer:
		return "dts-hd"
	default:
		return "none"
	}
}

// MatchSync classifies the sync word at the start of buf, which must hold
// at least SyncSize bytes.
// MatchSync classifies the sync word at the start of buf.
func MatchSync(buf []byte) SyncType {
	if len(buf) < SyncSize {
		return SyncNone
	}

	word := binary.BigEndian.Uint32(buf)
	next := binary.BigEndian.Uint32(buf[4:])

	switch word {
	case syncCore16BE:
		return SyncCore16BE
	case syncCore16LE:
		return SyncCore16LE
	case syncCore14BE:
		if next>>16&syncCore14BEExtMask == syncCore14BEExt {
			return SyncCore14BE
		}
	case syncCore14LE:
		if next>>16&syncCore14LEExtMask == syncCore14LEExt {
			return SyncCore14LE
		}
	case syncCore24, syncCore24M:
		// TODO: this tests that the upper half of the second word is
		// non-zero, not that it matches the low byte of the sync word.
		// Tighten once 24-bit sample streams are available to verify
		// against.
		if next>>16 != 0 {
			if word == syncCore24 {
				return SyncCore24
			}

			return SyncCore24M
		}
	case syncHDHigh:
		if next == syncHDLow {
			return SyncHDContainer
		}
	}

	return SyncNone
}
