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

package demux

import "errors"

// Public sentinel errors for consumer error matching.
var (
	// ErrInit indicates that an extractor failed to initialize
	// (bad magic, truncated header, field out of range, no valid frame).
	// The wrapped error carries the format-specific cause.
	ErrInit = errors.New("extractor initialization failed")

	// ErrNoTrack indicates a track index that does not exist, or a track
	// requested from an extractor that failed to initialize.
	ErrNoTrack = errors.New("no such track")

	// ErrUnknownFormat indicates that no sniffer claimed the source, or that
	// no extractor is registered for the requested MIME type.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrNotStarted indicates Read or Stop on a track that is not started.
	ErrNotStarted = errors.New("track not started")

	// ErrAlreadyStarted indicates Start on a track that is already started.
	ErrAlreadyStarted = errors.New("track already started")

	// ErrBufferInUse indicates Read while the buffer returned by the previous
	// Read has not been released.
	ErrBufferInUse = errors.New("buffer still in use")

	// ErrInterrupted indicates that the context given with WithContext was
	// canceled while a read was in progress.
	ErrInterrupted = errors.New("read interrupted")
)
