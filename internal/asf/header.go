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

//nolint:gosec // Header fields are bounded by the object sizes that carry them.
package asf

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/mycophonic/saprobe-demux/internal/bitio"
)

const (
	headerPreambleSize   = 6  // object count(4) + reserved(2)
	dataPreambleSize     = 26 // file id(16) + packet count(8) + reserved(2)
	streamFlagNumberMask = 0x7F
	streamFlagEncrypted  = 0x8000
	waveFormatSize       = 18
)

// FileProperties mirrors the File Properties Object.
type FileProperties struct {
	FileSize      uint64
	Packets       uint64
	PlayDuration  uint64 // 100 ns units, includes preroll
	SendDuration  uint64
	PrerollMs     uint64
	Broadcast     bool
	Seekable      bool
	MinPacketSize uint32
	MaxPacketSize uint32
	MaxBitrate    uint32
}

// AudioFormat is the WAVEFORMATEX carried by an audio stream.
type AudioFormat struct {
	Tag            uint16
	Channels       uint16
	SampleRate     uint32
	AvgBytesPerSec uint32
	BlockAlign     uint16
	BitsPerSample  uint16
	Extra          []byte
}

// Spread holds audio-spread error correction parameters.
type Spread struct {
	Span       uint8
	PacketSize uint16
	ChunkSize  uint16
}

// Stream is one entry from a Stream Properties Object.
type Stream struct {
	Number    uint8
	Audio     bool
	Encrypted bool
	Format    AudioFormat
	Codec     Codec
	Spread    *Spread
	Bitrate   uint32
}

// CodecEntry is one entry of the Codec List Object.
type CodecEntry struct {
	Type        uint16
	Name        string
	Description string
}

// Header is the parsed ASF header plus the location of the packet data.
type Header struct {
	File    FileProperties
	Streams []Stream
	Codecs  []CodecEntry
	Tags    map[string]string
	// Offset of the first data packet.
	DataOffset int64
	// Offset just past the last data packet.
	DataEnd int64
	Packets uint64
	Index   *SimpleIndex
}

// Probe reports whether header starts with the ASF header object GUID.
func Probe(header []byte) bool {
	return len(header) >= len(guidHeader) && bytes.Equal(header[:len(guidHeader)], guidHeader[:])
}

// PacketSize returns the fixed data packet size.
func (h *Header) PacketSize() int {
	return int(h.File.MinPacketSize)
}

// PrerollUs returns the preroll in microseconds.
func (h *Header) PrerollUs() int64 {
	return int64(h.File.PrerollMs) * 1000
}

// DurationUs returns the play duration net of preroll.
func (h *Header) DurationUs() int64 {
	return max(int64(h.File.PlayDuration/10)-h.PrerollUs(), 0)
}

// AudioStream returns the first audio stream.
func (h *Header) AudioStream() (*Stream, bool) {
	for i := range h.Streams {
		if h.Streams[i].Audio {
			return &h.Streams[i], true
		}
	}

	return nil, false
}

// PacketOffset returns the file offset of data packet n.
func (h *Header) PacketOffset(n uint64) int64 {
	return h.DataOffset + int64(n)*int64(h.PacketSize())
}

// ParseHeader reads the header object and locates the data and index objects.
func ParseHeader(src io.ReaderAt, size int64) (*Header, error) {
	root, err := readObjectInfo(src, 0, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotASF, err)
	}

	if root.guid != guidHeader {
		return nil, ErrNotASF
	}

	hdr := &Header{Tags: map[string]string{}}

	var haveFile bool

	bitrates := map[uint8]uint32{}

	err = iterObjects(src, root.payloadOffset()+headerPreambleSize, min(root.end(), size), func(obj objectInfo) (bool, error) {
		reader := obj.payloadReader(src)

		switch obj.guid {
		case guidFileProperties:
			hdr.parseFileProperties(reader)
			haveFile = true
		case guidStreamProperties:
			hdr.parseStreamProperties(reader)
		case guidContentDescription:
			hdr.parseContentDescription(reader)
		case guidExtendedContent:
			hdr.parseExtendedContent(reader)
		case guidCodecList:
			hdr.parseCodecList(reader)
		case guidStreamBitrate:
			parseStreamBitrates(reader, bitrates)
		case guidHeaderExtension:
			// Extended stream properties and metadata objects are not needed.
		}

		if err := reader.Err(); err != nil {
			return false, fmt.Errorf("reading header object %s: %w", obj.guid, err)
		}

		return false, nil
	})
	if err != nil {
		return nil, err
	}

	if !haveFile {
		return nil, ErrNoFileProps
	}

	for i := range hdr.Streams {
		hdr.Streams[i].Bitrate = bitrates[hdr.Streams[i].Number]
	}

	if hdr.File.MinPacketSize == 0 || hdr.File.MinPacketSize != hdr.File.MaxPacketSize {
		return nil, fmt.Errorf("%w: min %d max %d", ErrPacketSize, hdr.File.MinPacketSize, hdr.File.MaxPacketSize)
	}

	if err := hdr.locateData(src, root.end(), size); err != nil {
		return nil, err
	}

	return hdr, nil
}

func (h *Header) locateData(src io.ReaderAt, start, size int64) error {
	var haveData bool

	err := iterObjects(src, start, size, func(obj objectInfo) (bool, error) {
		switch obj.guid {
		case guidData:
			reader := obj.payloadReader(src)
			reader.Skip(16)
			h.Packets = reader.U64LE()

			if err := reader.Err(); err != nil {
				return false, fmt.Errorf("reading data object: %w", err)
			}

			h.DataOffset = obj.payloadOffset() + dataPreambleSize
			h.DataEnd = min(obj.end(), size)
			haveData = true

			// Broadcast files may leave the data object size unset.
			if obj.size == objectHeaderSize+dataPreambleSize {
				h.DataEnd = size
			}
		case guidSimpleIndex:
			index, err := parseSimpleIndex(obj.payloadReader(src))
			if err != nil {
				return false, err
			}

			h.Index = index
		}

		return false, nil
	})
	if err != nil && !haveData {
		return err
	}

	if !haveData {
		return ErrNoDataObject
	}

	available := uint64(max(h.DataEnd-h.DataOffset, 0)) / uint64(h.PacketSize())
	if h.Packets == 0 || h.Packets > available {
		h.Packets = available
	}

	return nil
}

func (h *Header) parseFileProperties(reader *bitio.Reader) {
	reader.Skip(16) // file id

	h.File.FileSize = reader.U64LE()
	reader.U64LE() // creation date
	h.File.Packets = reader.U64LE()
	h.File.PlayDuration = reader.U64LE()
	h.File.SendDuration = reader.U64LE()
	h.File.PrerollMs = reader.U64LE()

	flags := reader.U32LE()
	h.File.Broadcast = flags&1 != 0
	h.File.Seekable = flags&2 != 0
	h.File.MinPacketSize = reader.U32LE()
	h.File.MaxPacketSize = reader.U32LE()
	h.File.MaxBitrate = reader.U32LE()
}

func (h *Header) parseStreamProperties(reader *bitio.Reader) {
	var streamType, correctionType GUID

	reader.ReadFull(streamType[:])
	reader.ReadFull(correctionType[:])
	reader.U64LE() // time offset

	typeLen := int(reader.U32LE())
	correctionLen := int(reader.U32LE())
	flags := reader.U16LE()
	reader.U32LE() // reserved

	stream := Stream{
		Number:    uint8(flags & streamFlagNumberMask),
		Audio:     streamType == guidAudioMedia,
		Encrypted: flags&streamFlagEncrypted != 0,
	}

	typeSpecific := reader.Bytes(typeLen)
	correction := reader.Bytes(correctionLen)

	if reader.Err() != nil {
		return
	}

	if stream.Audio {
		stream.Format = parseWaveFormat(typeSpecific)
		stream.Codec = LookupCodec(stream.Format.Tag)

		if correctionType == guidAudioSpread && len(correction) >= 5 {
			stream.Spread = &Spread{
				Span:       correction[0],
				PacketSize: uint16(correction[1]) | uint16(correction[2])<<8,
				ChunkSize:  uint16(correction[3]) | uint16(correction[4])<<8,
			}
		}
	}

	h.Streams = append(h.Streams, stream)
}

func parseWaveFormat(data []byte) AudioFormat {
	if len(data) < waveFormatSize-2 {
		return AudioFormat{}
	}

	reader := bitio.NewReader(bytes.NewReader(data), 0, int64(len(data)))

	format := AudioFormat{
		Tag:            reader.U16LE(),
		Channels:       reader.U16LE(),
		SampleRate:     reader.U32LE(),
		AvgBytesPerSec: reader.U32LE(),
		BlockAlign:     reader.U16LE(),
		BitsPerSample:  reader.U16LE(),
	}

	if reader.Remaining() >= 2 {
		extraLen := int(reader.U16LE())
		format.Extra = reader.Bytes(min(extraLen, int(reader.Remaining())))
	}

	return format
}

func (h *Header) parseContentDescription(reader *bitio.Reader) {
	var lengths [5]int
	for i := range lengths {
		lengths[i] = int(reader.U16LE())
	}

	keys := [5]string{"title", "artist", "copyright", "comment", "rating"}

	for i, key := range keys {
		if text := decodeUTF16(reader.Bytes(lengths[i])); text != "" {
			h.Tags[key] = text
		}
	}
}

func (h *Header) parseExtendedContent(reader *bitio.Reader) {
	count := int(reader.U16LE())

	for range count {
		name := decodeUTF16(reader.Bytes(int(reader.U16LE())))
		valueType := reader.U16LE()
		value := reader.Bytes(int(reader.U16LE()))

		if reader.Err() != nil {
			return
		}

		if text, ok := descriptorValue(valueType, value); ok && name != "" {
			h.Tags[name] = text
		}
	}
}

// descriptorValue renders an extended content descriptor value as text.
// Byte arrays are skipped.
func descriptorValue(valueType uint16, value []byte) (string, bool) {
	var number uint64
	for i := len(value) - 1; i >= 0; i-- {
		number = number<<8 | uint64(value[i])
	}

	switch valueType {
	case 0:
		return decodeUTF16(value), true
	case 2:
		return strconv.FormatBool(number != 0), true
	case 3, 4, 5:
		return strconv.FormatUint(number, 10), true
	default:
		return "", false
	}
}

func (h *Header) parseCodecList(reader *bitio.Reader) {
	reader.Skip(16) // reserved

	count := int(reader.U32LE())

	for range count {
		entry := CodecEntry{Type: reader.U16LE()}
		entry.Name = decodeUTF16(reader.Bytes(int(reader.U16LE()) * 2))
		entry.Description = decodeUTF16(reader.Bytes(int(reader.U16LE()) * 2))
		reader.Skip(int64(reader.U16LE())) // codec information

		if reader.Err() != nil {
			return
		}

		h.Codecs = append(h.Codecs, entry)
	}
}

func parseStreamBitrates(reader *bitio.Reader, bitrates map[uint8]uint32) {
	count := int(reader.U16LE())

	for range count {
		number := uint8(reader.U16LE() & streamFlagNumberMask)
		bitrates[number] = reader.U32LE()
	}
}

// decodeUTF16 decodes little-endian UTF-16 text and drops the terminator.
func decodeUTF16(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
	if err != nil {
		return ""
	}

	return strings.TrimRight(string(decoded), "\x00")
}
