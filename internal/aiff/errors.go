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

import "errors"

// AIFF container parsing error sentinels.
//
//revive:disable:exported
var (
	ErrNotAIFF       = errors.New("aiff: not an AIFF or AIFF-C file")
	ErrInvalidChunk  = errors.New("aiff: invalid chunk size")
	ErrNoCommon      = errors.New("aiff: no COMM chunk")
	ErrShortCommon   = errors.New("aiff: COMM chunk too short")
	ErrNoSoundData   = errors.New("aiff: no SSND chunk")
	ErrSampleRate    = errors.New("aiff: invalid sample rate")
	ErrChannels      = errors.New("aiff: invalid channel count")
	ErrBitDepth      = errors.New("aiff: unsupported bit depth")
	ErrCompression   = errors.New("aiff: unsupported compression type")
	ErrInvalidOffset = errors.New("aiff: sound data offset beyond chunk")
)
