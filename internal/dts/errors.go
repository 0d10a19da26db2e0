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

package dts

import "errors"

// DTS stream parsing error sentinels.
//
//revive:disable:exported
var (
	ErrNoSync          = errors.New("dts: no sync word found")
	ErrInvalidHeader   = errors.New("dts: invalid frame header")
	ErrUnsupportedSync = errors.New("dts: unsupported sync variant")
	ErrInvalidChunk    = errors.New("dts: invalid DTS-HD chunk")
	ErrNoStreamData    = errors.New("dts: DTS-HD file without STRMDATA chunk")
)
