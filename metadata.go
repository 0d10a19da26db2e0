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

package demux

import (
	"maps"
	"slices"
)

// Container and track MIME types.
const (
	MIMEAACADIF = "audio/aac-adif"
	MIMEAACLATM = "audio/aac-latm"
	MIMEAACADTS = "audio/aac-adts"
	MIMEAIFF    = "audio/x-aiff"
	MIMEASF     = "video/x-ms-asf"
	MIMEDTSHD   = "audio/vnd.dts.hd"
	MIMETrueHD  = "audio/true-hd"

	MIMERaw         = "audio/raw"
	MIMEMPEG        = "audio/mpeg"
	MIMEWMA         = "audio/x-ms-wma"
	MIMEWMAPro      = "audio/x-ms-wmapro"
	MIMEWMALossless = "audio/x-ms-wmalossless"
	MIMEWMAVoice    = "audio/x-ms-wmavoice"
)

// Tag keys used in Metadata.Tags.
const (
	TagTitle       = "title"
	TagArtist      = "artist"
	TagCopyright   = "copyright"
	TagComment     = "comment"
	TagCodecName   = "codec"
	TagPacking     = "packing"
	TagCompression = "compression"
)

// Metadata describes a container or one of its tracks. Values handed out by
// an Extractor or Track are copies; changing them has no effect.
type Metadata struct {
	MIME       string
	SampleRate int
	Channels   int
	// BitRate in bit/s, nominal or peak depending on the format.
	BitRate    int
	DurationUs int64
	// BitsPerSample is set for PCM tracks and where the container declares it.
	BitsPerSample int
	// MaxInputSize bounds the size of every buffer Track.Read returns.
	MaxInputSize int
	BlockAlign   int
	// Encoding names the PCM sample layout of audio/raw tracks.
	Encoding string
	// CodecSpecificData is the decoder configuration: an AudioSpecificConfig
	// for AAC tracks, the WAVEFORMATEX extra bytes for ASF.
	CodecSpecificData []byte
	Tags              map[string]string
}

func (m *Metadata) clone() Metadata {
	out := *m
	out.CodecSpecificData = slices.Clone(m.CodecSpecificData)
	out.Tags = maps.Clone(m.Tags)

	return out
}
