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

package dts

import (
	"fmt"
	"io"

	"github.com/mycophonic/saprobe-demux/internal/bitio"
)

const (
	chunkHeaderSize = 16
	chunkStreamData = "STRMDATA"
)

// StreamRange locates the elementary stream inside a DTS-HD container. Raw
// streams span the whole source.
type StreamRange struct {
	Start     int64
	End       int64
	Container bool
}

// LocateStream returns the byte range of the DTS elementary stream. A source
// starting with a DTS-HD header chunk is walked up to its STRMDATA chunk.
func LocateStream(src io.ReaderAt, size int64) (StreamRange, error) {
	head := make([]byte, SyncSize)
	if _, err := bitio.ReadFullAt(src, head, 0); err != nil {
		return StreamRange{}, fmt.Errorf("%w: %w", ErrNoSync, err)
	}

	if MatchSync(head) != SyncHDContainer {
		return StreamRange{Start: 0, End: size}, nil
	}

	reader := bitio.NewReader(src, 0, size)

	for reader.Remaining() >= chunkHeaderSize {
		id := string(reader.Bytes(8))
		length := reader.U64BE()

		if reader.Err() != nil {
			return StreamRange{}, fmt.Errorf("%w: %w", ErrInvalidChunk, reader.Err())
		}

		start := reader.Pos()
		if length > uint64(reader.Remaining()) { //nolint:gosec // Remaining is non-negative.
			if id == chunkStreamData {
				// Truncated file. Keep what is there.
				return StreamRange{Start: start, End: size, Container: true}, nil
			}

			return StreamRange{}, fmt.Errorf("%w: %q overruns the file", ErrInvalidChunk, id)
		}

		end := start + int64(length) //nolint:gosec // Bounded by Remaining above.
		if id == chunkStreamData {
			return StreamRange{Start: start, End: end, Container: true}, nil
		}

		reader.Seek(end)
	}

	return StreamRange{}, ErrNoStreamData
}
