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

//nolint:gosec // Header fields are at most 14 bits wide.
package dts

import (
	"encoding/binary"
	"fmt"

	"github.com/mycophonic/saprobe-demux/internal/bitio"
)

const (
	// HeaderProbeSize is the number of stream bytes ParseHeader reads.
	HeaderProbeSize = 24

	samplesPerBlock = 32

	minBlocks    = 6
	maxBlocks    = 128
	minFrameSize = 96
	maxFrameSize = 16384
	maxAMode     = 9

	lfeNone = 0
)

//nolint:gochecknoglobals
var (
	sampleRates = [16]int{
		0, 8000, 16000, 32000, 0, 0, 11025, 22050,
		44100, 0, 0, 12000, 24000, 48000, 0, 0,
	}

	amodeChannels = [maxAMode + 1]int{1, 2, 2, 2, 2, 3, 3, 4, 4, 5}

	// Nominal bit rates in kbit/s. Zero marks open, variable and lossless.
	bitRates = [32]int{
		32, 56, 64, 96, 112, 128, 192, 224,
		256, 320, 384, 448, 512, 576, 640, 768,
		960, 1024, 1152, 1280, 1344, 1408, 1411, 1472,
		1536, 1920, 2048, 3072, 3840, 0, 0, 0,
	}
)

// Header is a decoded core frame header.
type Header struct {
	Sync       SyncType
	Normal     bool
	Deficit    uint8
	CRC        bool
	Blocks     int
	FrameSize  int
	AMode      uint8
	RateIndex  uint8
	SampleRate int
	// Nominal bit rate in bit/s, or zero when not fixed.
	BitRate int
	LFE     uint8
}

// Samples returns the PCM samples per channel carried by the frame.
func (h *Header) Samples() int {
	return h.Blocks * samplesPerBlock
}

// DurationUs returns the frame duration in microseconds.
func (h *Header) DurationUs() int64 {
	if h.SampleRate == 0 {
		return 0
	}

	return int64(h.Samples()) * 1_000_000 / int64(h.SampleRate)
}

// Channels returns the channel count including the LFE channel.
func (h *Header) Channels() int {
	channels := 0
	if int(h.AMode) < len(amodeChannels) {
		channels = amodeChannels[h.AMode]
	}

	if h.LFE != lfeNone {
		channels++
	}

	return channels
}

// StreamSize returns the number of stream bytes the core frame occupies.
func (h *Header) StreamSize() int {
	switch h.Sync {
	case SyncCore14BE, SyncCore14LE:
		return h.FrameSize * 8 / 14 * 2
	default:
		return h.FrameSize
	}
}

// Validate checks that the header fields describe a decodable frame.
func (h *Header) Validate() error {
	switch {
	case h.Blocks < minBlocks || h.Blocks > maxBlocks:
		return fmt.Errorf("%w: %d blocks", ErrInvalidHeader, h.Blocks)
	case h.FrameSize < minFrameSize || h.FrameSize > maxFrameSize:
		return fmt.Errorf("%w: frame size %d", ErrInvalidHeader, h.FrameSize)
	case h.AMode > maxAMode:
		return fmt.Errorf("%w: channel arrangement %d", ErrInvalidHeader, h.AMode)
	case h.SampleRate == 0:
		return fmt.Errorf("%w: sample rate index %d", ErrInvalidHeader, h.RateIndex)
	default:
		return nil
	}
}

// normalize converts the start of a stream to a 16-bit big-endian bitstream.
func normalize(buf []byte, sync SyncType) ([]byte, error) {
	if len(buf) < HeaderProbeSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(buf))
	}

	raw := buf[:HeaderProbeSize]

	switch sync {
	case SyncCore16BE:
		return raw, nil
	case SyncCore16LE:
		return swapPairs(raw), nil
	case SyncCore14BE:
		return pack14(raw), nil
	case SyncCore14LE:
		return pack14(swapPairs(raw)), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedSync, sync)
	}
}

func swapPairs(raw []byte) []byte {
	out := make([]byte, len(raw))
	for i := 0; i+1 < len(raw); i += 2 {
		out[i], out[i+1] = raw[i+1], raw[i]
	}

	return out
}

// pack14 keeps the low 14 bits of every big-endian 16-bit word.
func pack14(raw []byte) []byte {
	out := make([]byte, 0, len(raw))

	var (
		acc  uint32
		bits uint
	)

	for i := 0; i+1 < len(raw); i += 2 {
		acc = acc<<14 | uint32(binary.BigEndian.Uint16(raw[i:]))&0x3FFF
		bits += 14

		for bits >= 8 {
			bits -= 8
			out = append(out, byte(acc>>bits))
		}

		acc &= 1<<bits - 1
	}

	return out
}

// ParseHeader decodes the core frame header at the start of buf. It does
// not validate the fields.
func ParseHeader(buf []byte, sync SyncType) (Header, error) {
	stream, err := normalize(buf, sync)
	if err != nil {
		return Header{}, err
	}

	reader := bitio.NewBitReader(stream)
	reader.Advance(32)

	hdr := Header{Sync: sync}
	hdr.Normal = reader.ReadFlag()
	hdr.Deficit = reader.ReadSmall(5)
	hdr.CRC = reader.ReadFlag()
	hdr.Blocks = int(reader.ReadSmall(7)) + 1
	hdr.FrameSize = int(reader.Read(14)) + 1
	hdr.AMode = reader.ReadSmall(6)
	hdr.RateIndex = reader.ReadSmall(4)
	hdr.SampleRate = sampleRates[hdr.RateIndex]
	hdr.BitRate = bitRates[reader.ReadSmall(5)] * 1000
	reader.Advance(10) // MIX through ASPF
	hdr.LFE = reader.ReadSmall(2)

	return hdr, nil
}
