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

//nolint:gosec // ADTS header fields are at most 4 bits wide.
package aac

import (
	"fmt"

	"github.com/deepch/vdk/codec/aacparser"
)

// ADTSMaxFrameSize bounds one ADTS frame (13-bit length field).
const ADTSMaxFrameSize = 0x1FFF

// ADTSHeader describes one ADTS frame.
type ADTSHeader struct {
	ObjectType      int
	SampleRateIndex uint8
	SampleRate      int
	ChannelConfig   uint8
	Channels        int
	HeaderSize      int
	FrameSize       int
	Samples         int
}

// IsADTSSync reports whether buf starts with an ADTS sync word.
func IsADTSSync(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFF && buf[1]&0xF6 == 0xF0
}

// ParseADTSHeader parses the fixed and variable ADTS header at buf[0].
func ParseADTSHeader(buf []byte) (ADTSHeader, error) {
	if len(buf) < aacparser.ADTSHeaderLength {
		return ADTSHeader{}, ErrNeedMore
	}

	if !IsADTSSync(buf) {
		return ADTSHeader{}, ErrADTSSync
	}

	config, hdrLen, frameLen, samples, err := aacparser.ParseADTSHeader(buf)
	if err != nil {
		return ADTSHeader{}, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}

	rate, ok := SampleRate(uint8(config.SampleRateIndex))
	if !ok {
		return ADTSHeader{}, fmt.Errorf("%w: %d", ErrSampleRate, config.SampleRateIndex)
	}

	channels, ok := ChannelCount(uint8(config.ChannelConfig))
	if !ok {
		return ADTSHeader{}, fmt.Errorf("%w: %d", ErrChannelConfig, config.ChannelConfig)
	}

	return ADTSHeader{
		ObjectType:      int(config.ObjectType),
		SampleRateIndex: uint8(config.SampleRateIndex),
		SampleRate:      rate,
		ChannelConfig:   uint8(config.ChannelConfig),
		Channels:        channels,
		HeaderSize:      hdrLen,
		FrameSize:       frameLen,
		Samples:         samples,
	}, nil
}

// ADTSParser splits an ADTS stream into frames. Bytes that do not start a
// frame with the parameters of the first one are reported as junk and
// skipped one at a time.
type ADTSParser struct {
	first *ADTSHeader
	last  ADTSHeader
}

// First returns the header of the first frame, or nil before it.
func (p *ADTSParser) First() *ADTSHeader {
	return p.first
}

// Last returns the header of the most recently parsed frame.
func (p *ADTSParser) Last() ADTSHeader {
	return p.last
}

// ParseFrame implements FrameParser.
func (p *ADTSParser) ParseFrame(buf []byte, _ bool) (Frame, error) {
	if len(buf) < aacparser.ADTSHeaderLength {
		return Frame{}, ErrNeedMore
	}

	hdr, err := ParseADTSHeader(buf)
	if err != nil {
		return Frame{Skip: 1}, nil //nolint:nilerr // not a frame start; resync one byte later
	}

	if p.first != nil && (hdr.SampleRate != p.first.SampleRate || hdr.Channels != p.first.Channels) {
		return Frame{Skip: 1}, nil
	}

	if len(buf) < hdr.FrameSize {
		return Frame{}, ErrNeedMore
	}

	if p.first == nil {
		first := hdr
		p.first = &first
	}

	p.last = hdr

	return Frame{Size: hdr.FrameSize}, nil
}
