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

//nolint:gosec // Header fields are 16/32-bit and fit in int.
package aiff

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/mycophonic/saprobe-demux/internal/bitio"
)

const (
	formHeaderSize = 12
	commMinSize    = 18
	ssndHeaderSize = 8

	// Largest read the PCM reader issues, rounded down to whole frames.
	maxReadSize = 32768
)

//nolint:gochecknoglobals
var (
	fccForm = [4]byte{'F', 'O', 'R', 'M'}
	fccAIFF = [4]byte{'A', 'I', 'F', 'F'}
	fccAIFC = [4]byte{'A', 'I', 'F', 'C'}
	fccComm = [4]byte{'C', 'O', 'M', 'M'}
	fccSsnd = [4]byte{'S', 'S', 'N', 'D'}
)

// textChunks maps text chunk ids to metadata keys.
//
//nolint:gochecknoglobals
var textChunks = map[[4]byte]string{
	{'N', 'A', 'M', 'E'}: "title",
	{'A', 'U', 'T', 'H'}: "artist",
	{'(', 'c', ')', ' '}: "copyright",
	{'A', 'N', 'N', 'O'}: "comment",
}

// Info describes the audio stream of an AIFF or AIFF-C file.
type Info struct {
	Compressed      bool
	Channels        int
	Frames          uint32
	BitsPerSample   int
	SampleRate      int
	Compression     [4]byte
	CompressionName string
	Encoding        Encoding
	// Offset of the first sample frame.
	DataOffset int64
	// Bytes of sound data available from DataOffset.
	DataSize int64
	Tags     map[string]string
}

// Probe reports whether header starts an AIFF or AIFF-C file.
func Probe(header []byte) bool {
	if len(header) < formHeaderSize {
		return false
	}

	return bytes.Equal(header[0:4], fccForm[:]) &&
		(bytes.Equal(header[8:12], fccAIFF[:]) || bytes.Equal(header[8:12], fccAIFC[:]))
}

// Parse walks the chunks of an AIFF file and returns the stream description.
func Parse(src io.ReaderAt, size int64) (*Info, error) {
	var header [formHeaderSize]byte

	if _, err := bitio.ReadFullAt(src, header[:], 0); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAIFF, err)
	}

	if !Probe(header[:]) {
		return nil, ErrNotAIFF
	}

	info := &Info{
		Compressed: bytes.Equal(header[8:12], fccAIFC[:]),
		Tags:       map[string]string{},
	}

	// The FORM size is unreliable in streamed files; trust the file size.
	end := size

	var haveComm, haveSsnd bool

	err := iterChunks(src, formHeaderSize, end, func(chunk chunkInfo) (bool, error) {
		switch {
		case chunk.id == fccComm:
			if err := info.parseCommon(src, &chunk); err != nil {
				return false, err
			}

			haveComm = true
		case chunk.id == fccSsnd:
			if err := info.parseSoundData(src, &chunk, end); err != nil {
				return false, err
			}

			haveSsnd = true
		default:
			if key, ok := textChunks[chunk.id]; ok {
				info.addText(src, &chunk, key)
			}
		}

		return false, nil
	})
	if err != nil {
		return nil, err
	}

	if !haveComm {
		return nil, ErrNoCommon
	}

	if !haveSsnd {
		return nil, ErrNoSoundData
	}

	// Never read past the frames COMM declares.
	if declared := int64(info.Frames) * int64(info.FrameSize()); declared < info.DataSize {
		info.DataSize = declared
	}

	return info, nil
}

func (info *Info) parseCommon(src io.ReaderAt, chunk *chunkInfo) error {
	if chunk.size < commMinSize {
		return fmt.Errorf("%w: %d bytes", ErrShortCommon, chunk.size)
	}

	reader := bitio.NewReader(src, chunk.payloadOffset(), chunk.payloadOffset()+chunk.size)

	info.Channels = int(int16(reader.U16BE()))
	info.Frames = reader.U32BE()
	info.BitsPerSample = int(int16(reader.U16BE()))

	var rate [10]byte

	reader.ReadFull(rate[:])

	info.SampleRate = extendedToRate(rate)
	info.Encoding = EncodingSignedBE

	if info.Compressed && reader.Remaining() >= 4 {
		reader.ReadFull(info.Compression[:])

		if reader.Remaining() > 0 {
			nameLen := int(reader.U8())
			info.CompressionName = macRoman(reader.Bytes(min(nameLen, int(reader.Remaining()))))
		}

		encoding, ok := compressionTypes[info.Compression]
		if !ok {
			return fmt.Errorf("%w: %q", ErrCompression, info.Compression[:])
		}

		info.Encoding = encoding
	}

	if err := reader.Err(); err != nil {
		return fmt.Errorf("reading COMM chunk: %w", err)
	}

	return info.validate()
}

func (info *Info) validate() error {
	if info.Channels < 1 {
		return fmt.Errorf("%w: %d", ErrChannels, info.Channels)
	}

	if info.SampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrSampleRate, info.SampleRate)
	}

	switch info.Encoding {
	case EncodingFloatBE:
		if info.BitsPerSample != 32 && info.BitsPerSample != 64 {
			return fmt.Errorf("%w: %d-bit float", ErrBitDepth, info.BitsPerSample)
		}
	case EncodingULaw, EncodingALaw:
		// Stored as 8-bit codes whatever sampleSize declares.
		info.BitsPerSample = 8
	default:
		if info.BitsPerSample < 1 || info.BitsPerSample > 32 {
			return fmt.Errorf("%w: %d", ErrBitDepth, info.BitsPerSample)
		}
	}

	return nil
}

func (info *Info) parseSoundData(src io.ReaderAt, chunk *chunkInfo, end int64) error {
	reader := bitio.NewReader(src, chunk.payloadOffset(), end)

	offset := int64(reader.U32BE())
	reader.U32BE() // blockSize

	if err := reader.Err(); err != nil {
		return fmt.Errorf("reading SSND chunk: %w", err)
	}

	info.DataOffset = chunk.payloadOffset() + ssndHeaderSize + offset

	dataEnd := min(chunk.payloadOffset()+chunk.size, end)
	if info.DataOffset > dataEnd {
		return fmt.Errorf("%w: offset %d", ErrInvalidOffset, offset)
	}

	info.DataSize = dataEnd - info.DataOffset

	return nil
}

func (info *Info) addText(src io.ReaderAt, chunk *chunkInfo, key string) {
	reader := bitio.NewReader(src, chunk.payloadOffset(), chunk.payloadOffset()+chunk.size)

	text := strings.TrimRight(macRoman(reader.Bytes(int(chunk.size))), "\x00")
	if reader.Err() != nil || text == "" {
		return
	}

	if prev, ok := info.Tags[key]; ok {
		text = prev + "\n" + text
	}

	info.Tags[key] = text
}

// macRoman decodes classic Mac OS text.
func macRoman(raw []byte) string {
	decoded, err := charmap.Macintosh.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}

	return string(decoded)
}

// FrameSize returns the size of one sample frame in bytes.
func (info *Info) FrameSize() int {
	return info.Channels * BytesPerSample(info.BitsPerSample, info.Encoding)
}

// ReadSize returns the size of one PCM read: the largest whole number of
// frames that fits in 32 KiB, and at least one frame.
func (info *Info) ReadSize() int {
	frameSize := info.FrameSize()

	return max(maxReadSize/frameSize, 1) * frameSize
}

// DurationUs returns the stream duration in microseconds.
func (info *Info) DurationUs() int64 {
	return int64(info.Frames) * 1_000_000 / int64(info.SampleRate)
}

// OffsetForTime returns the byte offset of the frame at or before timeUs,
// or the end of the sound data from the stream duration on.
func (info *Info) OffsetForTime(timeUs int64) int64 {
	if timeUs >= info.DurationUs() {
		return info.DataOffset + info.DataSize
	}

	frame := max(timeUs, 0) * int64(info.SampleRate) / 1_000_000
	offset := frame * int64(info.FrameSize())

	return info.DataOffset + min(offset, info.DataSize)
}

// TimeForOffset returns the presentation time of the frame at offset.
func (info *Info) TimeForOffset(offset int64) int64 {
	frame := (offset - info.DataOffset) / int64(info.FrameSize())

	return frame * 1_000_000 / int64(info.SampleRate)
}
