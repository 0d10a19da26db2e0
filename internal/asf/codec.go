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

package asf

// Codec identifies the audio coding of a stream, from its WAVEFORMATEX tag.
type Codec int

// Supported codecs.
const (
	CodecUnknown Codec = iota
	CodecWMAv1
	CodecWMAv2
	CodecWMAPro
	CodecWMALossless
	CodecWMAVoice
	CodecMP3
	CodecPCM
)

// LookupCodec maps a format tag to a codec.
func LookupCodec(tag uint16) Codec {
	switch tag {
	case 0x0160:
		return CodecWMAv1
	case 0x0161:
		return CodecWMAv2
	case 0x0162:
		return CodecWMAPro
	case 0x0163:
		return CodecWMALossless
	case 0x000A:
		return CodecWMAVoice
	case 0x0055:
		return CodecMP3
	case 0x0001:
		return CodecPCM
	default:
		return CodecUnknown
	}
}

func (c Codec) String() string {
	switch c {
	case CodecWMAv1:
		return "wmav1"
	case CodecWMAv2:
		return "wmav2"
	case CodecWMAPro:
		return "wmapro"
	case CodecWMALossless:
		return "wmalossless"
	case CodecWMAVoice:
		return "wmavoice"
	case CodecMP3:
		return "mp3"
	case CodecPCM:
		return "pcm"
	default:
		return "unknown"
	}
}
