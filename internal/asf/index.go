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

package asf

import (
	"fmt"

	"github.com/mycophonic/saprobe-demux/internal/bitio"
)

const indexEntrySize = 6

// SimpleIndex maps fixed time intervals to the data packet to start from.
type SimpleIndex struct {
	IntervalUs int64
	Packets    []uint32
}

func parseSimpleIndex(reader *bitio.Reader) (*SimpleIndex, error) {
	reader.Skip(16) // file id

	interval := reader.U64LE()
	reader.U32LE() // maximum packet count

	count := int64(reader.U32LE())
	if count*indexEntrySize > reader.Remaining() {
		count = reader.Remaining() / indexEntrySize
	}

	index := &SimpleIndex{
		IntervalUs: int64(interval / 10), //nolint:gosec // 100 ns units.
		Packets:    make([]uint32, 0, count),
	}

	for range count {
		index.Packets = append(index.Packets, reader.U32LE())
		reader.U16LE() // packet count
	}

	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("reading simple index: %w", err)
	}

	return index, nil
}

// Lookup returns the packet listed for presentation time timeUs, where
// timeUs includes the preroll.
func (x *SimpleIndex) Lookup(timeUs int64) (uint32, bool) {
	if x == nil || x.IntervalUs <= 0 || len(x.Packets) == 0 || timeUs < 0 {
		return 0, false
	}

	slot := min(timeUs/x.IntervalUs, int64(len(x.Packets)-1))

	return x.Packets[slot], true
}
