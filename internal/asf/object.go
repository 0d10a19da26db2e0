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

//nolint:gosec // Object sizes are 64-bit on disk and bounded by the file size.
package asf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/mycophonic/saprobe-demux/internal/bitio"
)

const objectHeaderSize = 24 // GUID(16) + size(8)

// objectInfo holds the position and size of a parsed ASF object.
type objectInfo struct {
	// Offset of the object header start in the file.
	offset int64
	// Total object size including header.
	size int64
	guid GUID
}

// readObjectInfo reads an object header at offset.
// Returns io.EOF if no complete header fits before end.
func readObjectInfo(src io.ReaderAt, offset, end int64) (objectInfo, error) {
	if offset+objectHeaderSize > end {
		return objectInfo{}, io.EOF
	}

	var header [objectHeaderSize]byte

	if _, err := bitio.ReadFullAt(src, header[:], offset); err != nil {
		return objectInfo{}, fmt.Errorf("reading object header: %w", err)
	}

	info := objectInfo{
		offset: offset,
		size:   int64(binary.LittleEndian.Uint64(header[16:])),
	}
	copy(info.guid[:], header[:16])

	if info.size < objectHeaderSize {
		return objectInfo{}, fmt.Errorf("%w: size %d at offset %d", ErrInvalidObject, info.size, offset)
	}

	return info, nil
}

// payloadOffset returns the file offset where this object's payload begins.
func (info *objectInfo) payloadOffset() int64 {
	return info.offset + objectHeaderSize
}

// end returns the offset just past this object.
func (info *objectInfo) end() int64 {
	return info.offset + info.size
}

// payloadReader returns a Reader over the object's payload.
func (info *objectInfo) payloadReader(src io.ReaderAt) *bitio.Reader {
	return bitio.NewReader(src, info.payloadOffset(), info.end())
}

// iterObjects calls callback for each object between start and end.
// callback returns true to stop iteration early.
func iterObjects(
	src io.ReaderAt,
	start, end int64,
	callback func(object objectInfo) (stop bool, err error),
) error {
	for pos := start; pos < end; {
		object, err := readObjectInfo(src, pos, end)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}

			return err
		}

		stop, err := callback(object)
		if err != nil {
			return err
		}

		if stop {
			return nil
		}

		pos = object.end()
	}

	return nil
}
