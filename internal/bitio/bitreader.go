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

//nolint:gosec // Field widths never exceed 32 bits, so narrowing conversions are exact.
package bitio

// BitReader provides MSB-first bit-level reading from a byte buffer.
//
// The buffer is padded with zero bytes so that reads near the end never index
// past the slice. Reads beyond the original data return zero bits; callers
// check Overrun after parsing a structure.
type BitReader struct {
	Buf    []byte // padded data (original + padding zero bytes)
	Pos    int    // current byte position within Buf
	BitIdx uint32 // 0-7, bit offset within current byte
	Size   int    // original (unpadded) byte size
}

const bitReaderPadding = 8

// NewBitReader returns a reader positioned at the first bit of data.
func NewBitReader(data []byte) *BitReader {
	var reader BitReader

	reader.Reset(data)

	return &reader
}

// Reset reuses the reader's backing storage, growing it only if needed.
func (b *BitReader) Reset(data []byte) {
	needed := len(data) + bitReaderPadding
	if cap(b.Buf) < needed {
		b.Buf = make([]byte, needed)
	} else {
		b.Buf = b.Buf[:needed]
	}

	copy(b.Buf, data)
	clear(b.Buf[len(data):])

	b.Pos = 0
	b.BitIdx = 0
	b.Size = len(data)
}

// Read reads up to 32 bits and returns them right-aligned.
func (b *BitReader) Read(numBits uint8) uint32 {
	if numBits == 0 {
		return 0
	}

	if b.Pos+5 > len(b.Buf) {
		b.Advance(uint32(numBits))

		return 0
	}

	// Five bytes cover a 32-bit field at any bit offset.
	word := uint64(b.Buf[b.Pos])<<32 |
		uint64(b.Buf[b.Pos+1])<<24 |
		uint64(b.Buf[b.Pos+2])<<16 |
		uint64(b.Buf[b.Pos+3])<<8 |
		uint64(b.Buf[b.Pos+4])
	word = (word << b.BitIdx) & 0xFF_FFFF_FFFF //revive:disable-line:add-constant
	word >>= 40 - uint64(numBits)

	b.Advance(uint32(numBits))

	return uint32(word)
}

// ReadSmall reads up to 8 bits.
func (b *BitReader) ReadSmall(numBits uint8) uint8 {
	return uint8(b.Read(numBits))
}

// ReadOne reads a single bit.
func (b *BitReader) ReadOne() uint8 {
	if b.Pos >= len(b.Buf) {
		b.Advance(1)

		return 0
	}

	bit := (b.Buf[b.Pos] >> (7 - b.BitIdx)) & 1

	b.Advance(1)

	return bit
}

// ReadFlag reads a single bit as a boolean.
func (b *BitReader) ReadFlag() bool {
	return b.ReadOne() == 1
}

// Advance skips forward by numBits bits.
func (b *BitReader) Advance(numBits uint32) {
	b.BitIdx += numBits
	b.Pos += int(b.BitIdx >> 3)
	b.BitIdx &= 7
}

// ByteAlign advances to the next byte boundary (if not already aligned).
func (b *BitReader) ByteAlign() {
	if b.BitIdx == 0 {
		return
	}

	b.Advance(8 - b.BitIdx)
}

// AlignFrom advances until the distance from the bit position base is a
// whole number of bytes.
func (b *BitReader) AlignFrom(base int) {
	if rem := (b.BitPos() - base) & 7; rem != 0 {
		b.Advance(uint32(8 - rem))
	}
}

// BitPos returns the number of bits consumed so far.
func (b *BitReader) BitPos() int {
	return b.Pos<<3 + int(b.BitIdx)
}

// BitsLeft returns the number of unread bits in the original data.
// It is negative once the reader has overrun.
func (b *BitReader) BitsLeft() int {
	return b.Size<<3 - b.BitPos()
}

// Overrun reports whether more bits were consumed than the data holds.
func (b *BitReader) Overrun() bool {
	return b.BitsLeft() < 0
}
