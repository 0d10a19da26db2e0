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

package bitio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ReadFullAt fills p from src at offset off.
// A short read is reported as io.ErrUnexpectedEOF, or io.EOF when nothing was read.
func ReadFullAt(src io.ReaderAt, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, off)
	}

	total := 0

	for total < len(p) {
		n, err := src.ReadAt(p[total:], off+int64(total))
		total += n

		if err != nil {
			if total == len(p) && errors.Is(err, io.EOF) {
				return total, nil
			}

			if errors.Is(err, io.EOF) {
				if total == 0 {
					return 0, io.EOF
				}

				return total, io.ErrUnexpectedEOF
			}

			return total, err
		}

		if n == 0 {
			return total, io.ErrUnexpectedEOF
		}
	}

	return total, nil
}

// Reader reads fixed-width integers sequentially from a bounded range of a
// random-access source.
//
// The first failure is sticky: subsequent reads return zero values and Err
// reports the original error. This keeps field-by-field header parsing free
// of per-field error checks.
type Reader struct {
	src     io.ReaderAt
	pos     int64
	end     int64
	err     error
	scratch [8]byte
}

// NewReader returns a Reader over src[start:end].
func NewReader(src io.ReaderAt, start, end int64) *Reader {
	return &Reader{src: src, pos: start, end: end}
}

// Pos returns the absolute offset of the next byte to read.
func (r *Reader) Pos() int64 { return r.pos }

// End returns the exclusive limit of the readable range.
func (r *Reader) End() int64 { return r.end }

// Remaining returns the number of bytes left before End.
func (r *Reader) Remaining() int64 {
	if r.pos >= r.end {
		return 0
	}

	return r.end - r.pos
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error { return r.err }

// Seek moves to the absolute offset pos. It does not clear a sticky error.
func (r *Reader) Seek(pos int64) {
	if r.err != nil {
		return
	}

	if pos < 0 || pos > r.end {
		r.err = fmt.Errorf("%w: seek to %d (limit %d)", ErrOutOfRange, pos, r.end)

		return
	}

	r.pos = pos
}

// Skip advances by n bytes.
func (r *Reader) Skip(n int64) {
	r.Seek(r.pos + n)
}

// ReadFull fills p from the current position.
func (r *Reader) ReadFull(p []byte) {
	if r.err != nil {
		clear(p)

		return
	}

	if int64(len(p)) > r.Remaining() {
		r.err = fmt.Errorf("%w: need %d bytes at %d, have %d", ErrShortRead, len(p), r.pos, r.Remaining())
		clear(p)

		return
	}

	if _, err := ReadFullAt(r.src, p, r.pos); err != nil {
		r.err = fmt.Errorf("%w at %d: %w", ErrShortRead, r.pos, err)
		clear(p)

		return
	}

	r.pos += int64(len(p))
}

// Bytes reads n bytes into a new slice.
func (r *Reader) Bytes(n int) []byte {
	if n < 0 || int64(n) > r.Remaining() {
		if r.err == nil {
			r.err = fmt.Errorf("%w: need %d bytes at %d, have %d", ErrShortRead, n, r.pos, r.Remaining())
		}

		return nil
	}

	out := make([]byte, n)
	r.ReadFull(out)

	return out
}

// U8 reads one byte.
func (r *Reader) U8() uint8 {
	r.ReadFull(r.scratch[:1])

	return r.scratch[0]
}

// U16BE reads a big-endian uint16.
func (r *Reader) U16BE() uint16 {
	r.ReadFull(r.scratch[:2])

	return binary.BigEndian.Uint16(r.scratch[:2])
}

// U32BE reads a big-endian uint32.
func (r *Reader) U32BE() uint32 {
	r.ReadFull(r.scratch[:4])

	return binary.BigEndian.Uint32(r.scratch[:4])
}

// U64BE reads a big-endian uint64.
func (r *Reader) U64BE() uint64 {
	r.ReadFull(r.scratch[:8])

	return binary.BigEndian.Uint64(r.scratch[:8])
}

// U16LE reads a little-endian uint16.
func (r *Reader) U16LE() uint16 {
	r.ReadFull(r.scratch[:2])

	return binary.LittleEndian.Uint16(r.scratch[:2])
}

// U32LE reads a little-endian uint32.
func (r *Reader) U32LE() uint32 {
	r.ReadFull(r.scratch[:4])

	return binary.LittleEndian.Uint32(r.scratch[:4])
}

// U64LE reads a little-endian uint64.
func (r *Reader) U64LE() uint64 {
	r.ReadFull(r.scratch[:8])

	return binary.LittleEndian.Uint64(r.scratch[:8])
}
