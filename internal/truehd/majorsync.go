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

//nolint:gosec // Header fields are at most 16 bits wide.
package truehd

import (
	"encoding/binary"
	"fmt"
)

const (
	// MajorSync is the TrueHD major sync word at offset 4 of an access unit.
	MajorSync = 0xF8726FBA
	// Signature follows the format info in every TrueHD major sync.
	Signature = 0xB752

	// MajorSyncSize is the access unit header plus the fixed major sync fields.
	MajorSyncSize = 32

	// ProbeSize is the prefix the sniffer inspects.
	ProbeSize = 16

	// MinAccessUnit and MaxAccessUnit bound the access unit length.
	MinAccessUnit = 6
	MaxAccessUnit = 4000

	baseSamples = 40

	rateFamily44 = 0x8
	rateShift    = 0x7
	maxRateShift = 2
)

// thdChannels counts the channels of each assignment bit, LSB first:
// L/R, C, LFE, Ls/Rs, Tfl/Tfr, Lsc/Rsc, Lb/Rb, Cb, Tc, Lsd/Rsd, Lw/Rw, Tfc, LFE2.
//
//nolint:gochecknoglobals
var thdChannels = [13]int{2, 1, 1, 2, 2, 2, 2, 1, 1, 2, 2, 1, 1}

// Info is the stream description carried by a major sync.
type Info struct {
	RateIndex  uint8
	SampleRate int
	// Channels of the richest presentation the stream carries.
	Channels int
	// Samples per channel in one access unit.
	SamplesPerUnit int
	// Peak bit rate in bit/s.
	PeakBitRate  int
	VariableRate bool
	Substreams   int
}

// AccessUnitSize decodes the access unit length from its first two bytes.
func AccessUnitSize(b0, b1 byte) int {
	word := uint16(b0)<<8 | uint16(b1)

	return int(word&0x0FFF) << 1
}

// HasMajorSync reports whether the access unit in buf carries a major sync.
func HasMajorSync(buf []byte) bool {
	return len(buf) >= 8 && binary.BigEndian.Uint32(buf[4:]) == MajorSync
}

// Probe reports whether buf starts with a TrueHD access unit carrying a
// major sync and its signature.
func Probe(buf []byte) bool {
	return len(buf) >= ProbeSize &&
		HasMajorSync(buf) &&
		binary.BigEndian.Uint16(buf[12:]) == Signature
}

// SampleRate decodes a 4-bit sample rate index.
func SampleRate(idx uint8) (int, bool) {
	if idx&rateShift > maxRateShift || idx > 0xF {
		return 0, false
	}

	base := 48000
	if idx&rateFamily44 != 0 {
		base = 44100
	}

	return base << (idx & rateShift), true
}

func channelCount(assignment uint16) int {
	channels := 0

	for i, count := range thdChannels {
		if assignment>>uint(i)&1 == 1 {
			channels += count
		}
	}

	return channels
}

// ParseMajorSync decodes the major sync of the access unit at the start of buf.
func ParseMajorSync(buf []byte) (Info, error) {
	if len(buf) < MajorSyncSize {
		return Info{}, fmt.Errorf("%w: %d bytes", ErrShortHeader, len(buf))
	}

	if !HasMajorSync(buf) {
		return Info{}, ErrNoMajorSync
	}

	if sig := binary.BigEndian.Uint16(buf[12:]); sig != Signature {
		return Info{}, fmt.Errorf("%w: %#04x", ErrSignature, sig)
	}

	format := binary.BigEndian.Uint32(buf[8:])

	info := Info{RateIndex: uint8(format >> 28)}

	rate, ok := SampleRate(info.RateIndex)
	if !ok {
		return Info{}, fmt.Errorf("%w: %d", ErrSampleRate, info.RateIndex)
	}

	info.SampleRate = rate
	info.SamplesPerUnit = baseSamples << (info.RateIndex & rateShift)

	// 4 reserved, 2+2 modifiers, 5-bit 6ch assignment, 2 modifier,
	// 13-bit 8ch assignment.
	info.Channels = channelCount(uint16(format & 0x1FFF))
	if info.Channels == 0 {
		info.Channels = channelCount(uint16(format >> 15 & 0x1F))
	}

	if info.Channels == 0 {
		return Info{}, ErrChannels
	}

	peak := binary.BigEndian.Uint16(buf[18:])
	info.VariableRate = peak&0x8000 != 0
	info.PeakBitRate = (int(peak&0x7FFF)*rate + 8) >> 4
	info.Substreams = int(buf[20] >> 4)

	return info, nil
}

// UnitTimeUs returns the timestamp of access unit n.
func (i *Info) UnitTimeUs(n int64) int64 {
	return n * int64(i.SamplesPerUnit) * 1_000_000 / int64(i.SampleRate)
}
