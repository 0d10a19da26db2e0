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
	"io"
	"maps"
	"strings"

	"github.com/mycophonic/saprobe-demux/internal/aiff"
	"github.com/mycophonic/saprobe-demux/internal/bitio"
)

const (
	confidenceAIFF = 0.25
	aiffProbeSize  = 12
)

// SniffAIFF matches FORM files of type AIFF or AIFC.
func SniffAIFF(src Source) (string, float32, bool) {
	if !aiff.Probe(readPrefix(src, aiffProbeSize)) {
		return "", 0, false
	}

	return MIMEAIFF, confidenceAIFF, true
}

func newAIFFExtractor(src Source, size int64, cfg *config) *Extractor {
	info, err := aiff.Parse(src, size)
	if err != nil {
		return failedExtractor(MIMEAIFF, cfg, err)
	}

	tags := maps.Clone(info.Tags)
	if info.Compressed {
		tags[TagCompression] = strings.TrimSpace(string(info.Compression[:]))
	}

	meta := Metadata{
		MIME:          MIMERaw,
		SampleRate:    info.SampleRate,
		Channels:      info.Channels,
		BitRate:       info.SampleRate * info.FrameSize() * 8,
		DurationUs:    info.DurationUs(),
		BitsPerSample: info.BitsPerSample,
		MaxInputSize:  info.ReadSize(),
		BlockAlign:    info.FrameSize(),
		Encoding:      info.Encoding.String(),
		Tags:          tags,
	}

	cfg.logger.Debug("aiff sound data",
		"offset", info.DataOffset,
		"size", info.DataSize,
		"encoding", meta.Encoding,
	)

	return readyExtractor(MIMEAIFF, cfg, meta, nil, func() frameSource {
		return &pcmFrames{src: src, info: info, pos: info.DataOffset}
	})
}

// pcmFrames cuts the sound data into reads of whole sample frames and maps
// time to offsets arithmetically.
type pcmFrames struct {
	src  io.ReaderAt
	info *aiff.Info
	pos  int64
}

func (f *pcmFrames) rewind() {
	f.pos = f.info.DataOffset
}

func (f *pcmFrames) seek(timeUs int64) error {
	f.pos = f.info.OffsetForTime(timeUs)

	return nil
}

func (f *pcmFrames) read(dst []byte) ([]byte, int64, error) {
	end := f.info.DataOffset + f.info.DataSize
	if f.pos >= end {
		return dst, 0, io.EOF
	}

	n := min(int64(f.info.ReadSize()), end-f.pos)
	dst = grow(dst, int(n))

	if _, err := bitio.ReadFullAt(f.src, dst, f.pos); err != nil {
		return dst[:0], 0, err
	}

	timeUs := f.info.TimeForOffset(f.pos)
	f.pos += n

	return dst, timeUs, nil
}
