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

	"github.com/bluenviron/mediacommon/pkg/codecs/mpeg4audio"

	"github.com/mycophonic/saprobe-demux/internal/bitio"
)

// Audio object types handled by the general audio parser.
const (
	ObjectTypeMain = 1
	ObjectTypeLC   = 2
	ObjectTypeSSR  = 3
	ObjectTypeLTP  = 4
	ObjectTypeSBR  = 5
	ObjectTypePS   = 29

	objectTypeEscape = 31
	rateIndexEscape  = 0xF
)

// AudioConfig is a parsed AudioSpecificConfig.
type AudioConfig struct {
	ObjectType      int
	SampleRate      int
	Channels        int
	ChannelConfig   uint8
	FrameLengthFlag bool
	// Set when explicit SBR or PS signalling is present.
	ExtensionObjectType int
	ExtensionSampleRate int
	Program             *ProgramConfig
}

func readObjectType(reader *bitio.BitReader) int {
	aot := int(reader.ReadSmall(5))
	if aot == objectTypeEscape {
		aot = 32 + int(reader.ReadSmall(6))
	}

	return aot
}

func readSampleRate(reader *bitio.BitReader) (int, error) {
	index := reader.ReadSmall(4)
	if index == rateIndexEscape {
		return int(reader.Read(24)), nil
	}

	rate, ok := SampleRate(index)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrSampleRate, index)
	}

	return rate, nil
}

// parseAudioConfig reads an AudioSpecificConfig in place from reader.
// LC, SBR and PS configurations with a fixed channel layout go through
// mediacommon; the rest are read by parseGeneralAudioConfig.
func parseAudioConfig(reader *bitio.BitReader) (AudioConfig, error) {
	if conf, ok := unmarshalAudioConfig(reader); ok {
		return conf, nil
	}

	return parseGeneralAudioConfig(reader)
}

// unmarshalAudioConfig leaves reader untouched when mediacommon declines.
func unmarshalAudioConfig(reader *bitio.BitReader) (AudioConfig, bool) {
	start := reader.BitPos()
	pos := start

	var asc mpeg4audio.AudioSpecificConfig
	if err := asc.UnmarshalFromPos(reader.Buf[:reader.Size], &pos); err != nil || asc.SampleRate == 0 {
		return AudioConfig{}, false
	}

	reader.Advance(uint32(pos - start)) //nolint:gosec // UnmarshalFromPos only moves forward.

	conf := AudioConfig{
		ObjectType:          int(asc.Type),
		SampleRate:          asc.SampleRate,
		Channels:            asc.ChannelCount,
		ChannelConfig:       uint8(asc.ChannelCount), //nolint:gosec // At most 8.
		FrameLengthFlag:     asc.FrameLengthFlag,
		ExtensionObjectType: int(asc.ExtensionType),
		ExtensionSampleRate: asc.ExtensionSampleRate,
	}

	if asc.ChannelCount == 8 {
		conf.ChannelConfig = 7
	}

	return conf, true
}

func parseGeneralAudioConfig(reader *bitio.BitReader) (AudioConfig, error) {
	start := reader.BitPos()

	var (
		conf AudioConfig
		err  error
	)

	conf.ObjectType = readObjectType(reader)

	if conf.SampleRate, err = readSampleRate(reader); err != nil {
		return AudioConfig{}, err
	}

	conf.ChannelConfig = reader.ReadSmall(4)

	if conf.ObjectType == ObjectTypeSBR || conf.ObjectType == ObjectTypePS {
		conf.ExtensionObjectType = conf.ObjectType

		if conf.ExtensionSampleRate, err = readSampleRate(reader); err != nil {
			return AudioConfig{}, err
		}

		conf.ObjectType = readObjectType(reader)
	}

	switch conf.ObjectType {
	case ObjectTypeMain, ObjectTypeLC, ObjectTypeSSR, ObjectTypeLTP, 6, 7, 17, 19, 20, 21, 22, 23:
	default:
		return AudioConfig{}, fmt.Errorf("%w: %d", ErrObjectType, conf.ObjectType)
	}

	// GASpecificConfig.
	conf.FrameLengthFlag = reader.ReadFlag()

	if reader.ReadFlag() { // dependsOnCoreCoder
		reader.Advance(14)
	}

	extensionFlag := reader.ReadFlag()

	if conf.ChannelConfig == 0 {
		pce, err := parseProgramConfig(reader, start)
		if err != nil {
			return AudioConfig{}, err
		}

		conf.Program = &pce
		conf.Channels = pce.Channels
	} else {
		channels, ok := ChannelCount(conf.ChannelConfig)
		if !ok {
			return AudioConfig{}, fmt.Errorf("%w: %d", ErrChannelConfig, conf.ChannelConfig)
		}

		conf.Channels = channels
	}

	if conf.ObjectType == 6 || conf.ObjectType == 20 {
		reader.Advance(3) // layerNr
	}

	if extensionFlag {
		switch conf.ObjectType {
		case 22:
			reader.Advance(5 + 11) // numOfSubFrame, layer_length
		case 17, 19, 20, 23:
			reader.Advance(3) // resilience flags
		}

		reader.Advance(1) // extensionFlag3
	}

	switch conf.ObjectType {
	case 17, 19, 20, 21, 22, 23:
		if epConfig := reader.ReadSmall(2); epConfig > 1 {
			return AudioConfig{}, fmt.Errorf("%w: epConfig %d", ErrObjectType, epConfig)
		}
	}

	if reader.Overrun() {
		return AudioConfig{}, fmt.Errorf("%w: audio specific config", ErrBitstreamOverrun)
	}

	if conf.SampleRate == 0 {
		return AudioConfig{}, fmt.Errorf("%w: zero", ErrSampleRate)
	}

	return conf, nil
}

// ParseAudioConfig parses a standalone AudioSpecificConfig.
func ParseAudioConfig(data []byte) (AudioConfig, error) {
	return parseAudioConfig(bitio.NewBitReader(data))
}
