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
	"fmt"
	"maps"

	"github.com/mycophonic/saprobe-demux/internal/asf"
)

const (
	confidenceASF = 0.01
	asfProbeSize  = 16

	// Codec list entry type of audio codecs.
	asfAudioCodecType = 2
)

// SniffASF matches sources starting with the ASF header object GUID.
func SniffASF(src Source) (string, float32, bool) {
	if !asf.Probe(readPrefix(src, asfProbeSize)) {
		return "", 0, false
	}

	return MIMEASF, confidenceASF, true
}

func asfTrackMIME(codec asf.Codec) (string, bool) {
	switch codec {
	case asf.CodecWMAv1, asf.CodecWMAv2:
		return MIMEWMA, true
	case asf.CodecWMAPro:
		return MIMEWMAPro, true
	case asf.CodecWMALossless:
		return MIMEWMALossless, true
	case asf.CodecWMAVoice:
		return MIMEWMAVoice, true
	case asf.CodecMP3:
		return MIMEMPEG, true
	case asf.CodecPCM:
		return MIMERaw, true
	default:
		return "", false
	}
}

func newASFExtractor(src Source, size int64, cfg *config) *Extractor {
	hdr, err := asf.ParseHeader(src, size)
	if err != nil {
		return failedExtractor(MIMEASF, cfg, err)
	}

	stream, ok := hdr.AudioStream()
	if !ok {
		return failedExtractor(MIMEASF, cfg, asf.ErrNoAudioStream)
	}

	if stream.Encrypted {
		return failedExtractor(MIMEASF, cfg, fmt.Errorf("%w: stream %d is encrypted", asf.ErrNoAudioStream, stream.Number))
	}

	mime, ok := asfTrackMIME(stream.Codec)
	if !ok {
		return failedExtractor(MIMEASF, cfg, fmt.Errorf("%w: %#04x", asf.ErrUnsupportedTag, stream.Format.Tag))
	}

	if stream.Format.SampleRate == 0 {
		return failedExtractor(MIMEASF, cfg, fmt.Errorf("%w: zero sample rate", asf.ErrNoAudioStream))
	}

	bitrate := int(stream.Bitrate)
	if bitrate == 0 {
		bitrate = int(stream.Format.AvgBytesPerSec) * 8
	}

	tags := maps.Clone(hdr.Tags)

	for _, codec := range hdr.Codecs {
		if codec.Type == asfAudioCodecType && codec.Name != "" {
			tags[TagCodecName] = codec.Name

			break
		}
	}

	probe := asf.NewDemuxer(cfg.ctx, src, hdr, stream)

	meta := Metadata{
		MIME:              mime,
		SampleRate:        int(stream.Format.SampleRate),
		Channels:          int(stream.Format.Channels),
		BitRate:           bitrate,
		DurationUs:        hdr.DurationUs(),
		BitsPerSample:     int(stream.Format.BitsPerSample),
		MaxInputSize:      probe.MaxObjectSize(),
		BlockAlign:        int(stream.Format.BlockAlign),
		CodecSpecificData: stream.Format.Extra,
		Tags:              tags,
	}

	cfg.logger.Debug("asf stream",
		"stream", stream.Number,
		"codec", stream.Codec.String(),
		"packets", hdr.Packets,
		"packet_size", hdr.PacketSize(),
		"simple_index", hdr.Index != nil,
	)

	return readyExtractor(MIMEASF, cfg, meta, nil, func() frameSource {
		return &objectFrames{demuxer: asf.NewDemuxer(cfg.ctx, src, hdr, stream)}
	})
}

// objectFrames hands out reassembled media objects.
type objectFrames struct {
	demuxer *asf.Demuxer
}

func (f *objectFrames) rewind() {
	f.demuxer.Rewind()
}

func (f *objectFrames) seek(timeUs int64) error {
	return f.demuxer.Seek(timeUs)
}

func (f *objectFrames) read(dst []byte) ([]byte, int64, error) {
	obj, err := f.demuxer.Read()
	if err != nil {
		return dst, 0, err
	}

	dst = grow(dst, len(obj.Data))
	copy(dst, obj.Data)

	return dst, obj.TimeUs, nil
}
