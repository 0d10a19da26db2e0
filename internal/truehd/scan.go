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

package truehd

import (
	"context"
	"fmt"
	"io"

	"github.com/mycophonic/saprobe-demux/internal/bitio"
	"github.com/mycophonic/saprobe-demux/internal/seekindex"
)

const ctxCheckInterval = 1024

// Stream is the result of indexing a TrueHD elementary stream.
type Stream struct {
	Info Info
	// Index holds one entry per access unit carrying a major sync. Entry.Frame
	// is the access unit number.
	Index      *seekindex.Index
	Units      int64
	DurationUs int64
	// End is the offset following the last complete access unit.
	End int64
}

// Scan parses the leading major sync and walks the access units that follow.
// Once the stream is locked each unit length is trusted; a length outside
// [MinAccessUnit, MaxAccessUnit] fails the whole scan. A truncated final unit
// ends the scan cleanly.
func Scan(ctx context.Context, src io.ReaderAt, size int64) (*Stream, error) {
	head := make([]byte, MajorSyncSize)
	if _, err := bitio.ReadFullAt(src, head, 0); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShortHeader, err)
	}

	info, err := ParseMajorSync(head)
	if err != nil {
		return nil, err
	}

	stream := &Stream{Info: info, Index: seekindex.New(0)}
	win := bitio.NewWindow(src, 0, size, MaxAccessUnit)

	for {
		if stream.Units%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		ok, err := win.Ensure(2)
		if err != nil {
			return nil, err
		}

		if !ok {
			break
		}

		buf := win.Bytes()
		offset := win.Offset()

		unit := AccessUnitSize(buf[0], buf[1])
		if unit < MinAccessUnit || unit > MaxAccessUnit {
			return nil, fmt.Errorf("%w: %d bytes at %d", ErrFrameSize, unit, offset)
		}

		if ok, err = win.Ensure(unit); err != nil {
			return nil, err
		}

		if !ok {
			// Truncated final unit.
			break
		}

		buf = win.Bytes()

		if HasMajorSync(buf[:unit]) {
			if err := stream.Index.Append(seekindex.Entry{
				Offset: offset,
				TimeUs: info.UnitTimeUs(stream.Units),
				Frame:  stream.Units,
				Size:   unit,
			}); err != nil {
				return nil, err
			}
		}

		win.Consume(unit)
		stream.Units++
		stream.End = offset + int64(unit)
	}

	if stream.Units == 0 {
		return nil, fmt.Errorf("%w: first access unit truncated", ErrShortHeader)
	}

	stream.DurationUs = info.UnitTimeUs(stream.Units)

	return stream, nil
}
