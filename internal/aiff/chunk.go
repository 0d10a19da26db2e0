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

//nolint:gosec // Chunk sizes are 32-bit and fit in int64.
package aiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/mycophonic/saprobe-demux/internal/bitio"
)

const chunkHeaderSize = 8

// chunkInfo holds the position and size of a parsed IFF chunk.
type chunkInfo struct {
	// Offset of the chunk header start in the file.
	offset int64
	// Payload size declared in the header, excluding the pad byte.
	size int64
	// Four-character chunk id.
	id [4]byte
}

// readChunkInfo reads a chunk header at offset.
// Returns io.EOF if fewer than eight bytes remain before end.
func readChunkInfo(src io.ReaderAt, offset, end int64) (chunkInfo, error) {
	if offset+chunkHeaderSize > end {
		return chunkInfo{}, io.EOF
	}

	var header [chunkHeaderSize]byte

	if _, err := bitio.ReadFullAt(src, header[:], offset); err != nil {
		return chunkInfo{}, fmt.Errorf("reading chunk header: %w", err)
	}

	return chunkInfo{
		offset: offset,
		size:   int64(binary.BigEndian.Uint32(header[4:])),
		id:     [4]byte{header[0], header[1], header[2], header[3]},
	}, nil
}

// payloadOffset returns the file offset where this chunk's payload begins.
func (info *chunkInfo) payloadOffset() int64 {
	return info.offset + chunkHeaderSize
}

// next returns the offset of the following chunk. Odd-sized payloads are
// followed by a pad byte.
func (info *chunkInfo) next() int64 {
	return info.payloadOffset() + info.size + info.size&1
}

// iterChunks calls callback for each chunk between start and end.
// callback returns true to stop iteration early.
func iterChunks(
	src io.ReaderAt,
	start, end int64,
	callback func(chunk chunkInfo) (stop bool, err error),
) error {
	for pos := start; pos < end; {
		chunk, err := readChunkInfo(src, pos, end)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}

			return err
		}

		stop, err := callback(chunk)
		if err != nil {
			return err
		}

		if stop {
			return nil
		}

		pos = chunk.next()
	}

	return nil
}
