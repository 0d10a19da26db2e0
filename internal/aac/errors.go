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

package aac

import "errors"

// AAC transport error sentinels.
//
//revive:disable:exported
var (
	ErrADIFMagic         = errors.New("aac: missing ADIF magic")
	ErrInvalidHeader     = errors.New("aac: invalid header")
	ErrSampleRate        = errors.New("aac: invalid sample rate index")
	ErrChannelConfig     = errors.New("aac: unsupported channel configuration")
	ErrObjectType        = errors.New("aac: unsupported audio object type")
	ErrLOASSync          = errors.New("aac: missing LOAS sync")
	ErrADTSSync          = errors.New("aac: missing ADTS sync")
	ErrUnsupportedMux    = errors.New("aac: unsupported LATM mux configuration")
	ErrNoStreamMuxConfig = errors.New("aac: LATM frame before any StreamMuxConfig")
	ErrStreamChanged     = errors.New("aac: stream parameters changed mid-stream")
	ErrNeedMore          = errors.New("aac: need more data")
	ErrBitstreamOverrun  = errors.New("aac: bitstream overrun")
)
