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

//nolint:gosec // Length fields are validated against the packet size before use.
package asf

import (
	"encoding/binary"
	"fmt"
)

const (
	ecPresentFlag    = 0x80
	ecLengthMask     = 0x0F
	ecLengthTypeMask = 0x60
	multipleFlag     = 0x01
	compressedRepl   = 1
	fullReplMin      = 8
	keyFrameFlag     = 0x80
	streamMask       = 0x7F
	payloadCount     = 0x3F
)

// Payload is one stream fragment carried by a data packet.
type Payload struct {
	Stream uint8
	Key    bool
	// Media object number, modulo 256 for one-byte fields.
	ObjectID uint32
	// Offset of this fragment within its media object.
	ObjectOffset uint32
	// Size of the whole media object.
	ObjectSize uint32
	// Presentation time of the media object in milliseconds, preroll included.
	TimeMs uint32
	Data   []byte
}

// Complete reports whether the payload holds a whole media object.
func (p *Payload) Complete() bool {
	return p.ObjectOffset == 0 && int(p.ObjectSize) == len(p.Data)
}

// Packet is a parsed data packet.
type Packet struct {
	SendTimeMs uint32
	DurationMs uint16
	Payloads   []Payload
}

// cursor reads the little-endian fields of a packet held in memory.
type cursor struct {
	buf []byte
	pos int
	end int
	err error
}

func (c *cursor) need(n int) bool {
	if c.err != nil {
		return false
	}

	if n < 0 || c.pos+n > c.end {
		c.err = fmt.Errorf("%w: field at %d overruns packet", ErrInvalidPacket, c.pos)

		return false
	}

	return true
}

func (c *cursor) u8() uint32 {
	if !c.need(1) {
		return 0
	}

	c.pos++

	return uint32(c.buf[c.pos-1])
}

func (c *cursor) u16() uint32 {
	if !c.need(2) {
		return 0
	}

	c.pos += 2

	return uint32(binary.LittleEndian.Uint16(c.buf[c.pos-2:]))
}

func (c *cursor) u32() uint32 {
	if !c.need(4) {
		return 0
	}

	c.pos += 4

	return binary.LittleEndian.Uint32(c.buf[c.pos-4:])
}

// varLen reads a field whose width is selected by a two-bit length type.
// Type 0 means the field is absent and yields def.
func (c *cursor) varLen(lengthType uint8, def uint32) uint32 {
	switch lengthType & 3 {
	case 1:
		return c.u8()
	case 2:
		return c.u16()
	case 3:
		return c.u32()
	default:
		return def
	}
}

func (c *cursor) bytes(n int) []byte {
	if !c.need(n) {
		return nil
	}

	c.pos += n

	return c.buf[c.pos-n : c.pos]
}

// ParsePacket parses the data packet in buf, whose length is the file's fixed
// packet size. Payload data aliases buf.
func ParsePacket(buf []byte, pkt *Packet) error {
	pkt.Payloads = pkt.Payloads[:0]

	cur := cursor{buf: buf, end: len(buf)}

	flags := uint8(cur.u8())
	if flags&ecPresentFlag != 0 {
		if flags&ecLengthTypeMask != 0 {
			return fmt.Errorf("%w: error correction length type", ErrInvalidPacket)
		}

		cur.bytes(int(flags & ecLengthMask))
		flags = uint8(cur.u8())
	}

	props := uint8(cur.u8())
	packetLen := int(cur.varLen(flags>>5, uint32(len(buf))))
	cur.varLen(flags>>1, 0) // sequence
	padding := int(cur.varLen(flags>>3, 0))
	pkt.SendTimeMs = cur.u32()
	pkt.DurationMs = uint16(cur.u16())

	if cur.err != nil {
		return cur.err
	}

	if packetLen > len(buf) || packetLen < cur.pos {
		return fmt.Errorf("%w: packet length %d", ErrInvalidPacket, packetLen)
	}

	// Bytes between the explicit packet length and the fixed size are padding.
	padding += len(buf) - packetLen

	cur.end = len(buf) - padding
	if cur.end < cur.pos {
		return fmt.Errorf("%w: padding %d", ErrInvalidPacket, padding)
	}

	count, lengthType := 1, uint8(0)
	multiple := flags&multipleFlag != 0

	if multiple {
		info := uint8(cur.u8())
		count = int(info & payloadCount)
		lengthType = info >> 6
	}

	for range count {
		if err := parsePayload(&cur, props, multiple, lengthType, pkt); err != nil {
			return err
		}
	}

	return cur.err
}

func parsePayload(cur *cursor, props uint8, multiple bool, lengthType uint8, pkt *Packet) error {
	streamByte := uint8(cur.u8())
	objectID := cur.varLen(props>>4, 0)
	objectOffset := cur.varLen(props>>2, 0)
	replLen := int(cur.varLen(props, 0))

	payload := Payload{
		Stream:   streamByte & streamMask,
		Key:      streamByte&keyFrameFlag != 0,
		ObjectID: objectID,
	}

	compressed := false

	var delta uint32

	switch {
	case replLen == compressedRepl:
		// The offset field carries the presentation time instead.
		compressed = true
		delta = cur.u8()
		payload.TimeMs = objectOffset
	case replLen >= fullReplMin:
		payload.ObjectSize = cur.u32()
		payload.TimeMs = cur.u32()
		payload.ObjectOffset = objectOffset
		cur.bytes(replLen - fullReplMin)
	case replLen == 0:
		payload.ObjectOffset = objectOffset
	default:
		return fmt.Errorf("%w: replicated data length %d", ErrInvalidPacket, replLen)
	}

	dataLen := cur.end - cur.pos
	if multiple {
		dataLen = int(cur.varLen(lengthType, 0))
	}

	data := cur.bytes(dataLen)
	if cur.err != nil {
		return cur.err
	}

	if !compressed {
		if replLen == 0 {
			payload.ObjectSize = uint32(len(data))
		}

		payload.Data = data
		pkt.Payloads = append(pkt.Payloads, payload)

		return nil
	}

	// Compressed payloads hold whole media objects, each prefixed by its size.
	for len(data) > 0 {
		size := int(data[0])
		if 1+size > len(data) {
			return fmt.Errorf("%w: sub-payload overruns payload", ErrInvalidPacket)
		}

		sub := payload
		sub.Data = data[1 : 1+size]
		sub.ObjectSize = uint32(size)
		pkt.Payloads = append(pkt.Payloads, sub)

		data = data[1+size:]
		payload.TimeMs += delta
		payload.ObjectID++
	}

	return nil
}
