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

package aac

import (
	"bytes"
	"fmt"

	"github.com/mycophonic/saprobe-demux/internal/bitio"
)

//nolint:gochecknoglobals
var adifMagic = []byte("ADIF")

const (
	adifMagicSize       = 4
	adifCopyrightSize   = 9 // 72 bits
	adifBitrateOffset   = 4
	adifMaxPrograms     = 16
	adifPackedFieldSize = 4

	// ADIFChunkBytesPerChannel is the largest raw data block one channel
	// may occupy (6144 bits).
	ADIFChunkBytesPerChannel = 768
)

// ADIFHeader is a parsed adif_header.
type ADIFHeader struct {
	CopyrightID    []byte
	OriginalCopy   bool
	Home           bool
	VariableRate   bool
	Bitrate        int
	BufferFullness uint32
	Programs       []ProgramConfig
	// Size of the header in bytes, including the trailing byte alignment.
	Size int
}

// IsADIF reports whether header starts with the ADIF magic.
func IsADIF(header []byte) bool {
	return bytes.HasPrefix(header, adifMagic)
}

// ParseADIF parses the adif_header at the start of data.
func ParseADIF(data []byte) (ADIFHeader, error) {
	if !IsADIF(data) {
		return ADIFHeader{}, ErrADIFMagic
	}

	var hdr ADIFHeader

	reader := bitio.NewBitReader(data)
	reader.Advance(adifMagicSize * 8)

	if reader.ReadFlag() {
		hdr.CopyrightID = make([]byte, adifCopyrightSize)
		for i := range hdr.CopyrightID {
			hdr.CopyrightID[i] = reader.ReadSmall(8)
		}
	}

	hdr.OriginalCopy = reader.ReadFlag()
	hdr.Home = reader.ReadFlag()
	hdr.VariableRate = reader.ReadFlag()
	hdr.Bitrate = int(reader.Read(23))

	numPrograms := int(reader.ReadSmall(4)) + 1
	hdr.Programs = make([]ProgramConfig, 0, numPrograms)

	for range numPrograms {
		if !hdr.VariableRate {
			hdr.BufferFullness = reader.Read(20)
		}

		pce, err := parseProgramConfig(reader, 0)
		if err != nil {
			return ADIFHeader{}, fmt.Errorf("%w: ADIF program %d: %w", ErrInvalidHeader, len(hdr.Programs), err)
		}

		hdr.Programs = append(hdr.Programs, pce)
	}

	reader.ByteAlign()

	if reader.Overrun() {
		return ADIFHeader{}, fmt.Errorf("%w: ADIF header truncated", ErrBitstreamOverrun)
	}

	hdr.Size = reader.Pos

	return hdr, nil
}

// SampleRate returns the sampling rate of the first program.
func (h *ADIFHeader) SampleRate() int {
	rate, _ := SampleRate(h.Programs[0].SampleRateIndex)

	return rate
}

// Channels returns the channel count of the first program.
func (h *ADIFHeader) Channels() int {
	return h.Programs[0].Channels
}

// ObjectType returns the MPEG-4 audio object type of the first program.
func (h *ADIFHeader) ObjectType() int {
	return int(h.Programs[0].ObjectType) + 1
}

// PackedBitrate extracts the bit rate from the four header bytes that hold
// it, at offset 4 or 13 when a copyright id is present.
//
// The low byte keeps its three bits in place instead of shifting them down,
// so the value can exceed the bit-parsed rate by up to 217 bps. Durations and
// timestamps of existing ADIF streams are computed with this value.
func PackedBitrate(data []byte) (int, bool) {
	off := adifBitrateOffset
	if len(data) > off && data[off]&0x80 != 0 {
		off += adifCopyrightSize
	}

	if len(data) < off+adifPackedFieldSize {
		return 0, false
	}

	b := data[off : off+adifPackedFieldSize]

	return int(b[0]&0x0F)<<19 | int(b[1])<<11 | int(b[2])<<3 | int(b[3]&0xE0), true
}

// ADIFTimeUs maps a byte position inside the raw data to a timestamp.
// A zero bit rate degrades to eight microseconds per byte.
func ADIFTimeUs(dataOffset int64, bitrate int) int64 {
	if bitrate <= 0 {
		return dataOffset * 8
	}

	return dataOffset * 8 * 1_000_000 / int64(bitrate)
}

// ADIFDurationUs estimates the duration of a file of size bytes.
func ADIFDurationUs(size int64, bitrate int) int64 {
	return ADIFTimeUs(size, bitrate)
}
