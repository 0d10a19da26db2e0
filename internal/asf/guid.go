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
	"github.com/google/uuid"
)

// GUID is an ASF object identifier in on-disk byte order: the first three
// fields are little-endian.
type GUID [16]byte

// mustGUID converts the canonical textual form to on-disk order.
func mustGUID(s string) GUID {
	canonical := uuid.MustParse(s)

	var guid GUID

	copy(guid[:], canonical[:])

	guid[0], guid[1], guid[2], guid[3] = canonical[3], canonical[2], canonical[1], canonical[0]
	guid[4], guid[5] = canonical[5], canonical[4]
	guid[6], guid[7] = canonical[7], canonical[6]

	return guid
}

// UUID returns the identifier in canonical byte order.
func (g GUID) UUID() uuid.UUID {
	var canonical uuid.UUID

	copy(canonical[:], g[:])

	canonical[0], canonical[1], canonical[2], canonical[3] = g[3], g[2], g[1], g[0]
	canonical[4], canonical[5] = g[5], g[4]
	canonical[6], canonical[7] = g[7], g[6]

	return canonical
}

func (g GUID) String() string {
	return g.UUID().String()
}

// Object and type identifiers.
//
//nolint:gochecknoglobals
var (
	guidHeader             = mustGUID("75B22630-668E-11CF-A6D9-00AA0062CE6C")
	guidData               = mustGUID("75B22636-668E-11CF-A6D9-00AA0062CE6C")
	guidSimpleIndex        = mustGUID("33000890-E5B1-11CF-89F4-00A0C90349CB")
	guidFileProperties     = mustGUID("8CABDCA1-A947-11CF-8EE4-00C00C205365")
	guidStreamProperties   = mustGUID("B7DC0791-A9B7-11CF-8EE6-00C00C205365")
	guidHeaderExtension    = mustGUID("5FBF03B5-A92E-11CF-8EE3-00C00C205365")
	guidCodecList          = mustGUID("86D15240-311D-11D0-A3A4-00A0C90348F6")
	guidContentDescription = mustGUID("75B22633-668E-11CF-A6D9-00AA0062CE6C")
	guidExtendedContent    = mustGUID("D2D0A440-E307-11D2-97F0-00A0C95EA850")
	guidStreamBitrate      = mustGUID("7BF875CE-468D-11D1-8D82-006097C9A2B2")
	guidAudioMedia         = mustGUID("F8699E40-5B4D-11CF-A8FD-00805F5C442B")
	guidAudioSpread        = mustGUID("BFC3CD50-618F-11CF-8BB2-00AA00B4E220")
)

// HeaderGUID returns the on-disk bytes that start every ASF file.
func HeaderGUID() GUID {
	return guidHeader
}
