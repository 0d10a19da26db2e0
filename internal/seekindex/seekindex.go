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

// Package seekindex holds the ordered (byte offset, timestamp) tables that
// extractors build while scanning a stream and consult when seeking.
package seekindex

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotMonotonic is returned when an appended entry would break ordering.
var ErrNotMonotonic = errors.New("seekindex: entry not monotonic")

// Entry locates one seekable frame.
type Entry struct {
	// Offset of the frame's first byte in the source.
	Offset int64
	// Presentation time of the frame in microseconds.
	TimeUs int64
	// Ordinal of the frame within the stream, counting every frame and not
	// only indexed ones.
	Frame int64
	// Size of the frame in bytes, or 0 when the reader determines it.
	Size int
}

// Index is an append-only table of entries with strictly increasing offsets
// and non-decreasing timestamps.
type Index struct {
	entries []Entry
}

// New returns an empty index with room for capacity entries.
func New(capacity int) *Index {
	return &Index{entries: make([]Entry, 0, capacity)}
}

// Append adds an entry after the current last one.
func (x *Index) Append(entry Entry) error {
	if last, ok := x.Last(); ok {
		if entry.Offset <= last.Offset || entry.TimeUs < last.TimeUs {
			return fmt.Errorf("%w: (%d, %dus) after (%d, %dus)",
				ErrNotMonotonic, entry.Offset, entry.TimeUs, last.Offset, last.TimeUs)
		}
	}

	x.entries = append(x.entries, entry)

	return nil
}

// Len returns the number of entries.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}

	return len(x.entries)
}

// At returns entry i.
func (x *Index) At(i int) Entry {
	return x.entries[i]
}

// Last returns the final entry.
func (x *Index) Last() (Entry, bool) {
	if x.Len() == 0 {
		return Entry{}, false
	}

	return x.entries[len(x.entries)-1], true
}

// SetSize records the byte size of entry i.
func (x *Index) SetSize(i, size int) {
	x.entries[i].Size = size
}

// Floor returns the position of the last entry whose timestamp is at or
// before timeUs. Targets before the first entry resolve to entry 0.
func (x *Index) Floor(timeUs int64) (int, bool) {
	if x.Len() == 0 {
		return 0, false
	}

	// First entry strictly after the target.
	after := sort.Search(len(x.entries), func(i int) bool {
		return x.entries[i].TimeUs > timeUs
	})
	if after == 0 {
		return 0, true
	}

	return after - 1, true
}

// Entries returns a copy of the table.
func (x *Index) Entries() []Entry {
	if x == nil {
		return nil
	}

	out := make([]Entry, len(x.entries))
	copy(out, x.entries)

	return out
}
