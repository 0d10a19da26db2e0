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
	"github.com/mycophonic/saprobe-demux/internal/dts"
)

const (
	confidenceDTS = 0.3
	// A sync word found past the first byte ranks below every sniffer that
	// matches a magic at offset 0.
	confidenceDTSUnaligned = 0.005
)

// SniffDTS scans the first 40 KiB for a DTS-HD container header or a core
// sync word with a valid frame header.
func SniffDTS(src Source) (string, float32, bool) {
	size, ok := src.Size()
	if !ok {
		size = dts.WindowSize
	}

	_, offset, ok := dts.Probe(src, size)
	if !ok {
		return "", 0, false
	}

	if offset > 0 {
		return MIMEDTSHD, confidenceDTSUnaligned, true
	}

	return MIMEDTSHD, confidenceDTS, true
}

func newDTSExtractor(src Source, size int64, cfg *config) *Extractor {
	stream, err := dts.Scan(cfg.ctx, src, cfg.limit(size))
	if err != nil {
		return failedExtractor(MIMEDTSHD, cfg, err)
	}

	first := stream.First

	meta := Metadata{
		MIME:         MIMEDTSHD,
		SampleRate:   first.SampleRate,
		Channels:     first.Channels(),
		BitRate:      first.BitRate,
		DurationUs:   stream.DurationUs,
		MaxInputSize: dts.WindowSize,
		Tags:         map[string]string{TagPacking: stream.Sync.String()},
	}

	if last, ok := stream.Index.Last(); ok && last.Offset+int64(last.Size) < stream.Range.End {
		cfg.logger.Warn("dts stream has unindexed trailing bytes",
			"offset", last.Offset+int64(last.Size),
			"end", stream.Range.End,
		)
	}

	index := stream.Index

	return readyExtractor(MIMEDTSHD, cfg, meta, index, func() frameSource {
		return &indexedFrames{src: src, index: index}
	})
}
