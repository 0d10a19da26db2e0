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

package truehd

import "errors"

// TrueHD access-unit parsing error sentinels.
//
//revive:disable:exported
var (
	ErrNoMajorSync = errors.New("truehd: stream does not start with a major sync")
	ErrSignature   = errors.New("truehd: bad major sync signature")
	ErrSampleRate  = errors.New("truehd: reserved sample rate index")
	ErrChannels    = errors.New("truehd: no channels assigned")
	ErrFrameSize   = errors.New("truehd: access unit size out of range")
	ErrShortHeader = errors.New("truehd: major sync header truncated")
)
