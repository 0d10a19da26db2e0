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

package aac

import (
	"errors"
	"io"

	"github.com/mycophonic/saprobe-demux/internal/bitio"
)

// Frame locates a frame relative to the start of the buffer handed to a
// FrameParser. Skip bytes precede it; a zero Size means none was found.
type Frame struct {
	Skip int
	Size int
}

// FrameParser measures the frame at the start of a buffer without decoding
// its payload. It returns ErrNeedMore when buf is too short to decide; eof
// reports that no more bytes will follow.
type FrameParser interface {
	ParseFrame(buf []byte, eof bool) (Frame, error)
}

// FixedParser cuts a stream into chunks of Size bytes. The final chunk may
// be shorter.
type FixedParser struct {
	Size int
}

// ParseFrame implements FrameParser.
func (p FixedParser) ParseFrame(buf []byte, eof bool) (Frame, error) {
	switch {
	case len(buf) >= p.Size:
		return Frame{Size: p.Size}, nil
	case eof && len(buf) > 0:
		return Frame{Size: len(buf)}, nil
	default:
		return Frame{}, ErrNeedMore
	}
}

// ScanFrames feeds win through parser and calls yield with the source offset
// and size of each frame, in order.
//
// Scanning stops cleanly at the end of the range, when the final frame is
// truncated, or when yield returns false. A parser failure also stops the
// scan and is returned so the caller can keep the frames found so far.
func ScanFrames(win *bitio.Window, parser FrameParser, yield func(offset int64, size int) bool) error {
	for {
		data := win.Bytes()
		eof := win.Exhausted()

		if len(data) == 0 {
			if eof {
				return nil
			}

			if _, err := win.Fill(); err != nil && !errors.Is(err, io.EOF) {
				return err
			}

			continue
		}

		frame, err := parser.ParseFrame(data, eof)

		switch {
		case errors.Is(err, ErrNeedMore):
			if eof {
				return nil
			}

			if _, err := win.Fill(); err != nil {
				if errors.Is(err, io.EOF) {
					continue
				}

				return err
			}

			continue
		case err != nil:
			return err
		}

		win.Consume(frame.Skip)

		if frame.Size == 0 {
			continue
		}

		if !yield(win.Offset(), frame.Size) {
			return nil
		}

		win.Consume(frame.Size)
	}
}
