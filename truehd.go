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

	"github.com/mycophonic/saprobe-demux/internal/bitio"
	"github.com/mycophonic/saprobe-demux/internal/truehd"
)

const confidenceTrueHD = 0.3

// SniffTrueHD matches a leading access unit with a TrueHD major sync.
func SniffTrueHD(src Source) (string, float32, bool) {
	if !truehd.Probe(readPrefix(src, truehd.ProbeSize)) {
		return "", 0, false
	}

	return MIMETrueHD, confidenceTrueHD, true
}

func newTrueHDExtractor(src Source, size int64, cfg *config) *Extractor {
	stream, err := truehd.Scan(cfg.ctx, src, cfg.limit(size))
	if err != nil {
		return failedExtractor(MIMETrueHD, cfg, err)
	}

	if trailing := cfg.limit(size) - stream.End; trailing > 0 {
		cfg.logger.Warn("truehd stream ends with a truncated access unit", "bytes", trailing)
	}

	meta := Metadata{
		MIME:         MIMETrueHD,
		SampleRate:   stream.Info.SampleRate,
		Channels:     stream.Info.Channels,
		BitRate:      stream.Info.PeakBitRate,
		DurationUs:   stream.DurationUs,
		MaxInputSize: truehd.MaxAccessUnit,
	}

	return readyExtractor(MIMETrueHD, cfg, meta, stream.Index, func() frameSource {
		return &accessUnits{src: src, stream: stream}
	})
}

// accessUnits reads one access unit per frame. Seeks land on major syncs.
type accessUnits struct {
	src    io.ReaderAt
	stream *truehd.Stream
	pos    int64
	unit   int64
	head   [2]byte
}

func (f *accessUnits) rewind() {
	f.pos = 0
	f.unit = 0
}

func (f *accessUnits) seek(timeUs int64) error {
	i, ok := f.stream.Index.Floor(timeUs)
	if !ok {
		f.pos = f.stream.End

		return nil
	}

	entry := f.stream.Index.At(i)
	f.pos = entry.Offset
	f.unit = entry.Frame

	return nil
}

func (f *accessUnits) read(dst []byte) ([]byte, int64, error) {
	if f.pos >= f.stream.End {
		return dst, 0, io.EOF
	}

	if _, err := bitio.ReadFullAt(f.src, f.head[:], f.pos); err != nil {
		return dst, 0, err
	}

	size := truehd.AccessUnitSize(f.head[0], f.head[1])
	dst = grow(dst, size)

	if _, err := bitio.ReadFullAt(f.src, dst, f.pos); err != nil {
		return dst[:0], 0, err
	}

	timeUs := f.stream.Info.UnitTimeUs(f.unit)
	f.pos += int64(size)
	f.unit++

	return dst, timeUs, nil
}
