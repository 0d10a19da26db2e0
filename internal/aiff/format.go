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

import "math"

// Encoding identifies the sample layout of the sound data.
type Encoding int

// Sample encodings.
const (
	EncodingSignedBE Encoding = iota
	EncodingSignedLE
	EncodingUnsigned
	EncodingFloatBE
	EncodingULaw
	EncodingALaw
)

func (e Encoding) String() string {
	switch e {
	case EncodingSignedBE:
		return "signed-be"
	case EncodingSignedLE:
		return "signed-le"
	case EncodingUnsigned:
		return "unsigned"
	case EncodingFloatBE:
		return "float-be"
	case EncodingULaw:
		return "ulaw"
	case EncodingALaw:
		return "alaw"
	default:
		return "unknown"
	}
}

// compressionTypes maps AIFF-C compression ids to their encoding.
//
//nolint:gochecknoglobals
var compressionTypes = map[[4]byte]Encoding{
	{'N', 'O', 'N', 'E'}: EncodingSignedBE,
	{'t', 'w', 'o', 's'}: EncodingSignedBE,
	{'i', 'n', '2', '4'}: EncodingSignedBE,
	{'i', 'n', '3', '2'}: EncodingSignedBE,
	{'s', 'o', 'w', 't'}: EncodingSignedLE,
	{'r', 'a', 'w', ' '}: EncodingUnsigned,
	{'f', 'l', '3', '2'}: EncodingFloatBE,
	{'F', 'L', '3', '2'}: EncodingFloatBE,
	{'f', 'l', '6', '4'}: EncodingFloatBE,
	{'F', 'L', '6', '4'}: EncodingFloatBE,
	{'u', 'l', 'a', 'w'}: EncodingULaw,
	{'U', 'L', 'A', 'W'}: EncodingULaw,
	{'a', 'l', 'a', 'w'}: EncodingALaw,
	{'A', 'L', 'A', 'W'}: EncodingALaw,
}

// BytesPerSample returns the storage size of one sample.
func BytesPerSample(bits int, encoding Encoding) int {
	switch encoding {
	case EncodingULaw, EncodingALaw:
		return 1
	case EncodingFloatBE:
		if bits > 32 {
			return 8
		}

		return 4
	default:
		return (bits + 7) / 8
	}
}

// extendedToRate converts an 80-bit IEEE 754 extended value to an integer
// sample rate, truncating any fraction. Negative, infinite and out-of-range
// values convert to zero.
func extendedToRate(raw [10]byte) int {
	exponent := int(raw[0]&0x7F)<<8 | int(raw[1])
	if raw[0]&0x80 != 0 || exponent == 0x7FFF {
		return 0
	}

	var mantissa uint64
	for _, b := range raw[2:] {
		mantissa = mantissa<<8 | uint64(b)
	}

	// Value = mantissa * 2^(exponent - 16383 - 63).
	shift := 16383 + 63 - exponent
	if shift < 0 || shift >= 64 {
		return 0
	}

	rate := mantissa >> uint(shift) //nolint:gosec // 0 <= shift < 64.
	if rate > math.MaxInt32 {
		return 0
	}

	return int(rate)
}
