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

import "errors"

// ASF container parsing error sentinels.
//
//revive:disable:exported
var (
	ErrNotASF         = errors.New("asf: missing header object")
	ErrInvalidObject  = errors.New("asf: invalid object size")
	ErrNoFileProps    = errors.New("asf: no file properties object")
	ErrNoAudioStream  = errors.New("asf: no audio stream")
	ErrUnsupportedTag = errors.New("asf: unsupported audio codec tag")
	ErrNoDataObject   = errors.New("asf: no data object")
	ErrPacketSize     = errors.New("asf: variable or zero packet size")
	ErrInvalidPacket  = errors.New("asf: invalid data packet")
	ErrInterrupted    = errors.New("asf: interrupted")
)
