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

package aiff

import "testing"

func TestExtendedToRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  [10]byte
		want int
	}{
		{"44100", [10]byte{0x40, 0x0E, 0xAC, 0x44}, 44100},
		{"48000", [10]byte{0x40, 0x0E, 0xBB, 0x80}, 48000},
		{"8000", [10]byte{0x40, 0x0B, 0xFA}, 8000},
		{"zero", [10]byte{}, 0},
		{"negative", [10]byte{0xC0, 0x0E, 0xAC, 0x44}, 0},
		{"infinite", [10]byte{0x7F, 0xFF, 0x80}, 0},
		{"fraction truncated", [10]byte{0x3F, 0xFF, 0xC0}, 1},
	}

	for _, tt := range tests {
		if got := extendedToRate(tt.raw); got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestBytesPerSample(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bits     int
		encoding Encoding
		want     int
	}{
		{8, EncodingSignedBE, 1},
		{12, EncodingSignedBE, 2},
		{24, EncodingSignedLE, 3},
		{32, EncodingSignedBE, 4},
		{32, EncodingFloatBE, 4},
		{64, EncodingFloatBE, 8},
		{16, EncodingULaw, 1},
	}

	for _, tt := range tests {
		if got := BytesPerSample(tt.bits, tt.encoding); got != tt.want {
			t.Errorf("BytesPerSample(%d, %v) = %d, want %d", tt.bits, tt.encoding, got, tt.want)
		}
	}
}
