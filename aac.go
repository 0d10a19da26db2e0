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
	"github.com/mycophonic/saprobe-demux/internal/aac"
	"github.com/mycophonic/saprobe-demux/internal/bitio"
	"github.com/mycophonic/saprobe-demux/internal/seekindex"
)

const (
	confidenceADIF = 0.2
	confidenceLATM = 0.15
	confidenceADTS = 0.1

	adifHeaderProbeSize = 1024
	aacProbeSize        = 2 * aac.LOASMaxFrameSize
	aacScanWindow       = 2 * aac.LOASMaxFrameSize
)

// SniffADIF matches sources starting with the ADIF magic.
func SniffADIF(src Source) (string, float32, bool) {
	if !aac.IsADIF(readPrefix(src, 4)) {
		return "", 0, false
	}

	return MIMEAACADIF, confidenceADIF, true
}

// SniffAAC matches LOAS/LATM and ADTS streams by parsing their first frame.
// LATM wins only when the first frame carries a StreamMuxConfig.
func SniffAAC(src Source) (string, float32, bool) {
	head := readPrefix(src, aacProbeSize)

	switch {
	case aac.IsLOASSync(head):
		var parser aac.LOASParser
		if _, err := parser.ParseFrame(head, true); err != nil || parser.Config() == nil {
			return "", 0, false
		}

		return MIMEAACLATM, confidenceLATM, true
	case aac.IsADTSSync(head):
		if _, err := aac.ParseADTSHeader(head); err != nil {
			return "", 0, false
		}

		return MIMEAACADTS, confidenceADTS, true
	default:
		return "", 0, false
	}
}

func aacCSD(cfg *config, objectType, rate, channels int) []byte {
	csd, err := aac.CodecSpecificData(objectType, rate, channels)
	if err != nil {
		cfg.logger.Debug("no codec specific data", "object_type", objectType, "channels", channels, "error", err)

		return nil
	}

	return csd
}

// scanAAC walks [start, end) with parser through a window of window bytes,
// which must hold the largest frame. A parser failure after at least one
// frame keeps the frames found so far.
func scanAAC(
	src Source, start, end int64, window int, cfg *config, parser aac.FrameParser,
	add func(offset int64, size int) error,
) (int, error) {
	win := bitio.NewWindow(src, start, end, window)

	var (
		frames int
		addErr error
	)

	err := aac.ScanFrames(win, parser, func(offset int64, size int) bool {
		if frames%1024 == 0 {
			if addErr = cfg.ctx.Err(); addErr != nil {
				return false
			}
		}

		if addErr = add(offset, size); addErr != nil {
			return false
		}

		frames++

		return true
	})

	switch {
	case addErr != nil:
		return frames, addErr
	case err != nil && frames == 0:
		return 0, err
	case err != nil:
		cfg.logger.Debug("frame scan stopped", "offset", win.Offset(), "frames", frames, "error", err)
	}

	return frames, nil
}

func newADIFExtractor(src Source, size int64, cfg *config) *Extractor {
	head := readPrefix(src, adifHeaderProbeSize)

	hdr, err := aac.ParseADIF(head)
	if err != nil {
		return failedExtractor(MIMEAACADIF, cfg, err)
	}

	rate, channels := hdr.SampleRate(), hdr.Channels()
	if rate == 0 || channels == 0 {
		return failedExtractor(MIMEAACADIF, cfg, aac.ErrInvalidHeader)
	}

	bitrate, _ := aac.PackedBitrate(head)
	chunk := aac.ADIFChunkBytesPerChannel * channels
	window := max(aacScanWindow, chunk)
	index := seekindex.New(0)

	// The header travels alone as the first buffer.
	if err := index.Append(seekindex.Entry{Size: hdr.Size}); err != nil {
		return failedExtractor(MIMEAACADIF, cfg, err)
	}

	_, err = scanAAC(src, int64(hdr.Size), cfg.limit(size), window, cfg, aac.FixedParser{Size: chunk},
		func(offset int64, n int) error {
			return index.Append(seekindex.Entry{
				Offset: offset,
				TimeUs: aac.ADIFTimeUs(offset, bitrate),
				Frame:  int64(index.Len()),
				Size:   n,
			})
		})
	if err != nil {
		return failedExtractor(MIMEAACADIF, cfg, err)
	}

	meta := Metadata{
		MIME:              MIMEAACADIF,
		SampleRate:        rate,
		Channels:          channels,
		BitRate:           bitrate,
		DurationUs:        aac.ADIFDurationUs(size, bitrate),
		MaxInputSize:      max(chunk, hdr.Size),
		CodecSpecificData: aacCSD(cfg, hdr.ObjectType(), rate, channels),
	}

	if comment := hdr.Programs[0].Comment; comment != "" {
		meta.Tags = map[string]string{TagComment: comment}
	}

	return readyExtractor(MIMEAACADIF, cfg, meta, index, func() frameSource {
		return &indexedFrames{src: src, index: index}
	})
}

func newLATMExtractor(src Source, size int64, cfg *config) *Extractor {
	var (
		parser   aac.LOASParser
		duration int64
	)

	index := seekindex.New(0)

	frames, err := scanAAC(src, 0, cfg.limit(size), aacScanWindow, cfg, &parser, func(offset int64, n int) error {
		if duration == 0 {
			duration = aac.FrameDurationUs(parser.Config().Audio.SampleRate)
		}

		return index.Append(seekindex.Entry{
			Offset: offset,
			TimeUs: int64(index.Len()) * duration,
			Frame:  int64(index.Len()),
			Size:   n,
		})
	})
	if err != nil {
		return failedExtractor(MIMEAACLATM, cfg, err)
	}

	if frames == 0 || parser.Config() == nil {
		return failedExtractor(MIMEAACLATM, cfg, aac.ErrLOASSync)
	}

	audio := parser.Config().Audio

	meta := Metadata{
		MIME:              MIMEAACLATM,
		SampleRate:        audio.SampleRate,
		Channels:          audio.Channels,
		DurationUs:        int64(frames) * duration,
		MaxInputSize:      maxEntrySize(index),
		CodecSpecificData: aacCSD(cfg, audio.ObjectType, audio.SampleRate, audio.Channels),
	}

	return readyExtractor(MIMEAACLATM, cfg, meta, index, func() frameSource {
		return &indexedFrames{src: src, index: index}
	})
}

func newADTSExtractor(src Source, size int64, cfg *config) *Extractor {
	var (
		parser  aac.ADTSParser
		samples int64
		total   int64
	)

	index := seekindex.New(0)

	frames, err := scanAAC(src, 0, cfg.limit(size), aacScanWindow, cfg, &parser, func(offset int64, n int) error {
		hdr := parser.Last()

		err := index.Append(seekindex.Entry{
			Offset: offset,
			TimeUs: samples * 1_000_000 / int64(hdr.SampleRate),
			Frame:  int64(index.Len()),
			Size:   n,
		})

		samples += int64(hdr.Samples)
		total += int64(n)

		return err
	})
	if err != nil {
		return failedExtractor(MIMEAACADTS, cfg, err)
	}

	first := parser.First()
	if frames == 0 || first == nil {
		return failedExtractor(MIMEAACADTS, cfg, aac.ErrADTSSync)
	}

	duration := samples * 1_000_000 / int64(first.SampleRate)

	meta := Metadata{
		MIME:              MIMEAACADTS,
		SampleRate:        first.SampleRate,
		Channels:          first.Channels,
		DurationUs:        duration,
		MaxInputSize:      maxEntrySize(index),
		CodecSpecificData: aacCSD(cfg, first.ObjectType, first.SampleRate, first.Channels),
	}

	if duration > 0 {
		meta.BitRate = int(total * 8 * 1_000_000 / duration)
	}

	return readyExtractor(MIMEAACADTS, cfg, meta, index, func() frameSource {
		return &indexedFrames{src: src, index: index}
	})
}
