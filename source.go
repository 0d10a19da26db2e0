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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// maxProbedSize caps the size search for sources that do not report one.
const maxProbedSize = int64(1) << 50

// Source is a randomly readable byte stream. Size reports false when the
// length is not known up front; extractors then find it by probing reads.
type Source interface {
	io.ReaderAt
	Size() (int64, bool)
}

// BytesSource serves an in-memory byte slice.
type BytesSource struct {
	reader *bytes.Reader
}

// NewBytesSource returns a Source over data. The slice must not be modified
// while extractors use it.
func NewBytesSource(data []byte) *BytesSource {
	return &BytesSource{reader: bytes.NewReader(data)}
}

// ReadAt implements io.ReaderAt.
func (s *BytesSource) ReadAt(p []byte, off int64) (int, error) {
	return s.reader.ReadAt(p, off)
}

// Size returns the slice length.
func (s *BytesSource) Size() (int64, bool) {
	return s.reader.Size(), true
}

// FileSource serves a file on disk.
type FileSource struct {
	file *os.File
	size int64
}

// OpenFile opens path as a Source. The caller closes it once every extractor
// built on it is done.
func OpenFile(path string) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()

		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	return &FileSource{file: file, size: info.Size()}, nil
}

// ReadAt implements io.ReaderAt.
func (s *FileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.file.ReadAt(p, off)
}

// Size returns the file size at open time.
func (s *FileSource) Size() (int64, bool) {
	return s.size, true
}

// Close closes the underlying file.
func (s *FileSource) Close() error {
	return s.file.Close()
}

// sourceSize returns the source length, probing single-byte reads when the
// source does not know it.
func sourceSize(src Source) (int64, error) {
	if size, ok := src.Size(); ok {
		if size < 0 {
			return 0, fmt.Errorf("negative source size %d", size)
		}

		return size, nil
	}

	var probe [1]byte

	readable := func(off int64) bool {
		n, _ := src.ReadAt(probe[:], off)

		return n == 1
	}

	// Bytes [0, lo) are readable and byte hi-1 is not.
	lo, hi := int64(0), int64(1)
	for readable(hi - 1) {
		lo = hi
		hi *= 2

		if hi > maxProbedSize {
			return 0, errors.New("source size beyond probe limit")
		}
	}

	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if readable(mid - 1) {
			lo = mid
		} else {
			hi = mid
		}
	}

	return lo, nil
}

// readPrefix reads up to n bytes from the start of src. A short source yields
// a short slice.
func readPrefix(src io.ReaderAt, n int) []byte {
	buf := make([]byte, n)

	got, _ := src.ReadAt(buf, 0)

	return buf[:max(got, 0)]
}
