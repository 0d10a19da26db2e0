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
)

// CodecSpecificData builds the AudioSpecificConfig a decoder expects for a
// stream with the given parameters.
func CodecSpecificData(objectType, sampleRate, channels int) ([]byte, error) {
	conf := mpeg4audio.Config{
		Type:         mpeg4audio.ObjectType(objectType),
		SampleRate:   sampleRate,
		ChannelCount: channels,
	}

	csd, err := conf.Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}

	return csd, nil
}
