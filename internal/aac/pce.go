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

// ProgramConfig holds the fields of a program_config_element that the
// demuxer needs to describe a stream.
type ProgramConfig struct {
	ElementInstanceTag uint8
	ObjectType         uint8 // profile, 0 = Main, 1 = LC, 2 = SSR, 3 = LTP
	SampleRateIndex    uint8
	FrontElements      uint8
	SideElements       uint8
	BackElements       uint8
	LFEElements        uint8
	Channels           int
	Comment            string
}

// parseProgramConfig reads a program_config_element. The trailing
// byte_alignment is measured from alignBase, the bit position at which the
// enclosing syntax element started.
func parseProgramConfig(reader *bitio.BitReader, alignBase int) (ProgramConfig, error) {
	var pce ProgramConfig

	pce.ElementInstanceTag = reader.ReadSmall(4)
	pce.ObjectType = reader.ReadSmall(2)
	pce.SampleRateIndex = reader.ReadSmall(4)
	pce.FrontElements = reader.ReadSmall(4)
	pce.SideElements = reader.ReadSmall(4)
	pce.BackElements = reader.ReadSmall(4)
	pce.LFEElements = reader.ReadSmall(2)
	assocData := reader.ReadSmall(3)
	validCC := reader.ReadSmall(4)

	if reader.ReadFlag() { // mono_mixdown_present
		reader.Advance(4)
	}

	if reader.ReadFlag() { // stereo_mixdown_present
		reader.Advance(4)
	}

	if reader.ReadFlag() { // matrix_mixdown_idx_present
		reader.Advance(3)
	}

	for _, count := range []uint8{pce.FrontElements, pce.SideElements, pce.BackElements} {
		for range count {
			if reader.ReadFlag() { // is_cpe
				pce.Channels += 2
			} else {
				pce.Channels++
			}

			reader.Advance(4) // element tag
		}
	}

	pce.Channels += int(pce.LFEElements)

	reader.Advance(uint32(pce.LFEElements) * 4)
	reader.Advance(uint32(assocData) * 4)
	reader.Advance(uint32(validCC) * 5)
	reader.AlignFrom(alignBase)

	commentLen := int(reader.ReadSmall(8))
	comment := make([]byte, commentLen)

	for i := range comment {
		comment[i] = reader.ReadSmall(8)
	}

	pce.Comment = string(comment)

	if reader.Overrun() {
		return ProgramConfig{}, fmt.Errorf("%w: program config element", ErrBitstreamOverrun)
	}

	if _, ok := SampleRate(pce.SampleRateIndex); !ok {
		return ProgramConfig{}, fmt.Errorf("%w: %d", ErrSampleRate, pce.SampleRateIndex)
	}

	if pce.Channels == 0 {
		return ProgramConfig{}, fmt.Errorf("%w: program config declares no channels", ErrChannelConfig)
	}

	return pce, nil
}
