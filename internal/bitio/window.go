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
	"errors"
	"io"
)

// Window is a sliding view over a byte range of a random-access source.
//
// Unconsumed bytes survive a refill: the tail is moved to the front of the
// buffer and the next chunk of the source is appended after it.
type Window struct {
	src   io.ReaderAt
	buf   []byte
	data  []byte
	start int64 // source offset of data[0]
	next  int64 // source offset of the next byte to load
	end   int64 // exclusive limit
	pos   int   // consumed bytes within data
}

// NewWindow returns a window of size bytes over src[start:end].
func NewWindow(src io.ReaderAt, start, end int64, size int) *Window {
	buf := make([]byte, size)

	return &Window{
		src:   src,
		buf:   buf,
		data:  buf[:0],
		start: start,
		next:  start,
		end:   end,
	}
}

// Bytes returns the unconsumed bytes currently loaded.
func (w *Window) Bytes() []byte {
	return w.data[w.pos:]
}

// Offset returns the source offset of Bytes()[0].
func (w *Window) Offset() int64 {
	return w.start + int64(w.pos)
}

// Exhausted reports whether every byte of the range has been loaded.
func (w *Window) Exhausted() bool {
	return w.next >= w.end
}

// Consume marks n loaded bytes as used.
func (w *Window) Consume(n int) {
	w.pos = min(w.pos+n, len(w.data))
}

// Seek discards the loaded bytes and restarts the window at off.
func (w *Window) Seek(off int64) {
	w.data = w.buf[:0]
	w.pos = 0
	w.start = off
	w.next = off
}

// Fill compacts the window and loads more bytes from the source.
// It returns io.EOF when the range is exhausted and ErrWindowFull when no
// space is left for new bytes.
func (w *Window) Fill() (int, error) {
	if w.Exhausted() {
		return 0, io.EOF
	}

	tail := copy(w.buf, w.data[w.pos:])
	w.start += int64(w.pos)
	w.pos = 0
	w.data = w.buf[:tail]

	if tail == len(w.buf) {
		return 0, ErrWindowFull
	}

	want := min(int64(len(w.buf)-tail), w.end-w.next)

	n, err := ReadFullAt(w.src, w.buf[tail:tail+int(want)], w.next)
	w.next += int64(n)
	w.data = w.buf[:tail+n]

	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			// Source ended before the declared range.
			w.end = w.next
			if n == 0 {
				return 0, io.EOF
			}

			return n, nil
		}

		return n, err
	}

	return n, nil
}

// Ensure fills until at least n unconsumed bytes are loaded.
// It returns false when the range ends first.
func (w *Window) Ensure(n int) (bool, error) {
	for len(w.Bytes()) < n {
		if _, err := w.Fill(); err != nil {
			if errors.Is(err, io.EOF) {
				return false, nil
			}

			return false, err
		}
	}

	return true, nil
}
