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

//nolint:gosec // Packet numbers are bounded by the packet count.
package asf

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mycophonic/saprobe-demux/internal/bitio"
	"github.com/mycophonic/saprobe-demux/internal/seekindex"
)

// Consecutive interpolation steps that fail to halve the search range
// before the search falls back to bisection.
const maxSlowSteps = 2

// Object is one reassembled media object of the selected stream.
type Object struct {
	Data   []byte
	TimeUs int64
	Key    bool
	// Packet in which the object started.
	Packet uint64
}

// assembly collects the fragments of one media object.
type assembly struct {
	id     uint32
	timeMs uint32
	key    bool
	packet uint64
	data   []byte
	filled int
}

// Demuxer reads the media objects of one stream in packet order.
type Demuxer struct {
	ctx    context.Context //nolint:containedctx // Read and Seek take no context of their own.
	src    io.ReaderAt
	hdr    *Header
	stream *Stream

	next    uint64
	buf     []byte
	packet  Packet
	ready   []Object
	partial *assembly

	// First object time of packets read so far, learned during playback.
	learned *seekindex.Index
	// Object time per probed packet, or -1 when none starts there.
	probed map[uint64]int64
}

// NewDemuxer returns a demuxer positioned at the first packet.
func NewDemuxer(ctx context.Context, src io.ReaderAt, hdr *Header, stream *Stream) *Demuxer {
	if ctx == nil {
		ctx = context.Background()
	}

	return &Demuxer{
		ctx:     ctx,
		src:     src,
		hdr:     hdr,
		stream:  stream,
		buf:     make([]byte, hdr.PacketSize()),
		learned: seekindex.New(0),
		probed:  map[uint64]int64{},
	}
}

// Learned returns the seek entries recorded so far.
func (d *Demuxer) Learned() *seekindex.Index {
	return d.learned
}

// MaxObjectSize bounds the size of objects returned by Read.
func (d *Demuxer) MaxObjectSize() int {
	if d.stream.Spread != nil && d.stream.Spread.Span > 1 {
		return max(int(d.stream.Spread.PacketSize)*int(d.stream.Spread.Span), d.hdr.PacketSize())
	}

	// Objects may span packets; one block of a WMA stream rarely exceeds
	// a few packets.
	return max(int(d.stream.Format.BlockAlign), d.hdr.PacketSize()) * 4
}

// Read returns the next media object.
func (d *Demuxer) Read() (Object, error) {
	for len(d.ready) == 0 {
		if err := d.ctx.Err(); err != nil {
			return Object{}, fmt.Errorf("%w: %w", ErrInterrupted, err)
		}

		if d.next >= d.hdr.Packets {
			return Object{}, io.EOF
		}

		if err := d.readPacket(d.next); err != nil {
			return Object{}, err
		}

		d.collect(d.next)
		d.next++
	}

	obj := d.ready[0]
	d.ready = d.ready[1:]

	return obj, nil
}

// Rewind positions the demuxer at the first packet.
func (d *Demuxer) Rewind() {
	d.next = 0
	d.ready = nil
	d.partial = nil
}

func (d *Demuxer) readPacket(n uint64) error {
	if _, err := bitio.ReadFullAt(d.src, d.buf, d.hdr.PacketOffset(n)); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return io.EOF
		}

		return fmt.Errorf("reading packet %d: %w", n, err)
	}

	if err := ParsePacket(d.buf, &d.packet); err != nil {
		return fmt.Errorf("packet %d: %w", n, err)
	}

	return nil
}

func (d *Demuxer) timeUs(timeMs uint32) int64 {
	return max(int64(timeMs)*1000-d.hdr.PrerollUs(), 0)
}

// collect feeds the payloads of the current packet to the assembler.
func (d *Demuxer) collect(n uint64) {
	for i := range d.packet.Payloads {
		payload := &d.packet.Payloads[i]
		if payload.Stream != d.stream.Number {
			continue
		}

		switch {
		case payload.Complete():
			d.partial = nil
			d.emit(payload.TimeMs, payload.Key, n, append([]byte(nil), payload.Data...))
		case payload.ObjectOffset == 0:
			if int64(payload.ObjectSize) > int64(d.MaxObjectSize()) {
				d.partial = nil

				continue
			}

			d.partial = &assembly{
				id:     payload.ObjectID,
				timeMs: payload.TimeMs,
				key:    payload.Key,
				packet: n,
				data:   make([]byte, payload.ObjectSize),
			}
			d.append(payload)
		case d.partial != nil && d.partial.id == payload.ObjectID && d.partial.filled == int(payload.ObjectOffset):
			d.append(payload)
		default:
			// Continuation of an object whose start was not seen.
			d.partial = nil
		}
	}
}

func (d *Demuxer) append(payload *Payload) {
	part := d.partial
	if part.filled+len(payload.Data) > len(part.data) {
		d.partial = nil

		return
	}

	part.filled += copy(part.data[part.filled:], payload.Data)

	if part.filled == len(part.data) {
		d.partial = nil
		d.emit(part.timeMs, part.key, part.packet, part.data)
	}
}

func (d *Demuxer) emit(timeMs uint32, key bool, packet uint64, data []byte) {
	obj := Object{
		Data:   d.descramble(data),
		TimeUs: d.timeUs(timeMs),
		Key:    key,
		Packet: packet,
	}

	// Seeks and out-of-order objects produce rejected entries; the index
	// only grows along a monotonic playback path.
	_ = d.learned.Append(seekindex.Entry{
		Offset: d.hdr.PacketOffset(packet),
		TimeUs: obj.TimeUs,
		Frame:  int64(packet),
	})

	d.ready = append(d.ready, obj)
}

// descramble undoes audio-spread interleaving. Objects of an unexpected size
// are returned unchanged.
func (d *Demuxer) descramble(data []byte) []byte {
	spread := d.stream.Spread
	if spread == nil || spread.Span <= 1 || spread.ChunkSize == 0 || spread.PacketSize == 0 {
		return data
	}

	span := int(spread.Span)
	chunk := int(spread.ChunkSize)
	rows := int(spread.PacketSize) / chunk

	if len(data) != int(spread.PacketSize)*span || rows == 0 {
		return data
	}

	out := make([]byte, len(data))

	for offset := 0; offset+chunk <= len(data); offset += chunk {
		index := offset / chunk
		row := index / span
		col := index % span
		src := (row + col*rows) * chunk

		copy(out[offset:offset+chunk], data[src:src+chunk])
	}

	return out
}

// Seek positions the demuxer at the last packet whose first object starts at
// or before timeUs.
func (d *Demuxer) Seek(timeUs int64) error {
	d.ready = nil
	d.partial = nil

	if timeUs <= 0 || d.hdr.Packets == 0 {
		d.next = 0

		return nil
	}

	packet, err := d.search(timeUs)
	if err != nil {
		return err
	}

	d.next = packet

	return nil
}

// packetTime returns the time of the first object starting in packet n.
func (d *Demuxer) packetTime(n uint64) (int64, bool, error) {
	if cached, ok := d.probed[n]; ok {
		return cached, cached >= 0, nil
	}

	if err := d.ctx.Err(); err != nil {
		return 0, false, fmt.Errorf("%w: %w", ErrInterrupted, err)
	}

	if err := d.readPacket(n); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, false, nil
		}

		return 0, false, err
	}

	found := int64(-1)

	for i := range d.packet.Payloads {
		payload := &d.packet.Payloads[i]
		if payload.Stream == d.stream.Number && payload.ObjectOffset == 0 {
			found = d.timeUs(payload.TimeMs)

			break
		}
	}

	d.probed[n] = found

	return found, found >= 0, nil
}

// firstTimed returns the first packet in [from, limit) where an object starts.
func (d *Demuxer) firstTimed(from, limit uint64) (uint64, int64, bool, error) {
	for n := from; n < limit; n++ {
		t, ok, err := d.packetTime(n)
		if err != nil {
			return 0, 0, false, err
		}

		if ok {
			return n, t, true, nil
		}
	}

	return 0, 0, false, nil
}

// search runs an interpolation search over packet numbers.
//
// lo always names a packet whose first object starts at or before target.
// The first packet at or after hi that starts an object starts it after
// target, or hi is the packet count.
func (d *Demuxer) search(target int64) (uint64, error) {
	hi := d.hdr.Packets

	lo, loTime, ok, err := d.firstTimed(0, hi)
	if err != nil || !ok || loTime >= target {
		return lo, err
	}

	hiTime := d.hdr.DurationUs()

	if lo, loTime, hi, hiTime, err = d.narrow(target, lo, loTime, hi, hiTime); err != nil {
		return 0, err
	}

	slowSteps := 0

	for hi-lo > 1 {
		var mid uint64

		if slowSteps < maxSlowSteps && hiTime > loTime {
			mid = lo + uint64(float64(target-loTime)/float64(hiTime-loTime)*float64(hi-lo))
		} else {
			mid = lo + (hi-lo)/2
		}

		mid = min(max(mid, lo+1), hi-1)
		width := hi - lo

		n, t, found, err := d.firstTimed(mid, hi)
		if err != nil {
			return 0, err
		}

		switch {
		case !found:
			hi = mid
		case t <= target:
			lo, loTime = n, t
		default:
			hi, hiTime = mid, t
		}

		if hi-lo > width/2 {
			slowSteps++
		} else {
			slowSteps = 0
		}
	}

	return lo, nil
}

// narrow tightens the initial search range with the simple index and the
// entries learned during playback.
func (d *Demuxer) narrow(
	target int64,
	lo uint64, loTime int64,
	hi uint64, hiTime int64,
) (uint64, int64, uint64, int64, error) {
	if i, ok := d.learned.Floor(target); ok {
		if entry := d.learned.At(i); entry.TimeUs <= target && uint64(entry.Frame) > lo {
			lo, loTime = uint64(entry.Frame), entry.TimeUs
		}

		if i+1 < d.learned.Len() {
			if entry := d.learned.At(i + 1); uint64(entry.Frame) < hi && uint64(entry.Frame) > lo {
				hi, hiTime = uint64(entry.Frame), entry.TimeUs
			}
		}
	}

	if hint, ok := d.hdr.Index.Lookup(target + d.hdr.PrerollUs()); ok && uint64(hint) > lo && uint64(hint) < hi {
		t, found, err := d.packetTime(uint64(hint))
		if err != nil {
			return 0, 0, 0, 0, err
		}

		switch {
		case found && t <= target:
			lo, loTime = uint64(hint), t
		case found:
			hi, hiTime = uint64(hint), t
		}
	}

	return lo, loTime, hi, hiTime, nil
}
