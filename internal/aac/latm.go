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
	"fmt"

	"github.com/mycophonic/saprobe-demux/internal/bitio"
)

const (
	loasHeaderSize = 3
	loasSync0      = 0x56
	loasSync1Mask  = 0xE0

	// LOASMaxFrameSize bounds one AudioSyncStream frame.
	LOASMaxFrameSize = loasHeaderSize + 0x1FFF
)

// StreamMuxConfig is the subset of a LATM StreamMuxConfig that describes a
// single-program, single-layer stream.
type StreamMuxConfig struct {
	AudioMuxVersion           uint8
	AllStreamsSameTimeFraming bool
	NumSubFrames              int
	Audio                     AudioConfig
	FrameLengthType           uint8
	OtherDataBits             uint32
	CRC                       bool
}

// latmValue reads a LatmGetValue() field.
func latmValue(reader *bitio.BitReader) uint32 {
	count := int(reader.ReadSmall(2)) + 1

	var value uint32
	for range count {
		value = value<<8 | reader.Read(8)
	}

	return value
}

func parseStreamMuxConfig(reader *bitio.BitReader) (StreamMuxConfig, error) {
	var smc StreamMuxConfig

	smc.AudioMuxVersion = reader.ReadOne()
	if smc.AudioMuxVersion == 1 {
		if reader.ReadOne() == 1 { // audioMuxVersionA
			return StreamMuxConfig{}, fmt.Errorf("%w: audioMuxVersionA", ErrUnsupportedMux)
		}

		latmValue(reader) // taraBufferFullness
	}

	smc.AllStreamsSameTimeFraming = reader.ReadFlag()
	smc.NumSubFrames = int(reader.ReadSmall(6)) + 1

	if numProgram := reader.ReadSmall(4); numProgram != 0 {
		return StreamMuxConfig{}, fmt.Errorf("%w: %d programs", ErrUnsupportedMux, numProgram+1)
	}

	if numLayer := reader.ReadSmall(3); numLayer != 0 {
		return StreamMuxConfig{}, fmt.Errorf("%w: %d layers", ErrUnsupportedMux, numLayer+1)
	}

	if smc.AudioMuxVersion == 0 {
		conf, err := parseAudioConfig(reader)
		if err != nil {
			return StreamMuxConfig{}, err
		}

		smc.Audio = conf
	} else {
		ascLen := int(latmValue(reader))
		start := reader.BitPos()

		conf, err := parseAudioConfig(reader)
		if err != nil {
			return StreamMuxConfig{}, err
		}

		used := reader.BitPos() - start
		if used > ascLen {
			return StreamMuxConfig{}, fmt.Errorf("%w: audio config overruns its length", ErrInvalidHeader)
		}

		reader.Advance(uint32(ascLen - used)) //nolint:gosec // Non-negative by the check above.

		smc.Audio = conf
	}

	smc.FrameLengthType = reader.ReadSmall(3)

	switch smc.FrameLengthType {
	case 0:
		reader.Advance(8) // latmBufferFullness
	case 1:
		reader.Advance(9) // frameLength
	case 3, 4, 5:
		reader.Advance(6) // CELPframeLengthTableIndex
	case 6, 7:
		reader.Advance(1) // HVXCframeLengthTableIndex
	}

	if reader.ReadFlag() { // otherDataPresent
		if smc.AudioMuxVersion == 1 {
			smc.OtherDataBits = latmValue(reader)
		} else {
			for {
				smc.OtherDataBits <<= 8

				escape := reader.ReadFlag()
				smc.OtherDataBits += reader.Read(8)

				if !escape {
					break
				}
			}
		}
	}

	if smc.CRC = reader.ReadFlag(); smc.CRC {
		reader.Advance(8)
	}

	if reader.Overrun() {
		return StreamMuxConfig{}, fmt.Errorf("%w: stream mux config", ErrBitstreamOverrun)
	}

	return smc, nil
}

// IsLOASSync reports whether buf starts with an AudioSyncStream sync word.
func IsLOASSync(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == loasSync0 && buf[1]&loasSync1Mask == loasSync1Mask
}

// LOASParser splits an AudioSyncStream into frames. It keeps the most recent
// StreamMuxConfig so frames that reuse it can be validated.
type LOASParser struct {
	config *StreamMuxConfig
	reader bitio.BitReader
}

// Config returns the most recent StreamMuxConfig, or nil before the first.
func (p *LOASParser) Config() *StreamMuxConfig {
	return p.config
}

// ParseFrame implements FrameParser.
func (p *LOASParser) ParseFrame(buf []byte, _ bool) (Frame, error) {
	if len(buf) < loasHeaderSize {
		return Frame{}, ErrNeedMore
	}

	if !IsLOASSync(buf) {
		return Frame{}, ErrLOASSync
	}

	total := loasHeaderSize + (int(buf[1]&^loasSync1Mask)<<8 | int(buf[2]))
	if len(buf) < total {
		return Frame{}, ErrNeedMore
	}

	p.reader.Reset(buf[loasHeaderSize:total])

	if p.reader.ReadOne() == 0 { // useSameStreamMux
		smc, err := parseStreamMuxConfig(&p.reader)
		if err != nil {
			return Frame{}, err
		}

		if p.config != nil && !sameStream(&p.config.Audio, &smc.Audio) {
			return Frame{}, ErrStreamChanged
		}

		p.config = &smc
	} else if p.config == nil {
		return Frame{}, ErrNoStreamMuxConfig
	}

	return Frame{Size: total}, nil
}

func sameStream(a, b *AudioConfig) bool {
	return a.ObjectType == b.ObjectType && a.SampleRate == b.SampleRate && a.Channels == b.Channels
}
