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

package tests_test

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/mycophonic/agar/pkg/agar"

	"github.com/mycophonic/saprobe-demux"

	"github.com/mycophonic/saprobe-demux/tests/testutil"
)

// survive opens data as mime. Either the extractor refuses it or its track
// drains to io.EOF.
func survive(t *testing.T, data []byte, mime string) {
	t.Helper()

	ext, err := demux.CreateExtractor(demux.NewBytesSource(data), mime)
	if err != nil {
		t.Fatalf("CreateExtractor(%s): %v", mime, err)
	}

	if ext.Err() != nil {
		return
	}

	testutil.Drain(t, ext)
}

// TestNoise_EveryFormat feeds white noise to every extractor.
func TestNoise_EveryFormat(t *testing.T) {
	t.Parallel()

	noise := agar.GenerateWhiteNoise(44100, 16, 2, 1)

	for _, mime := range demux.Supported() {
		t.Run(mime, func(t *testing.T) {
			t.Parallel()

			survive(t, noise, mime)
			survive(t, noise[:7], mime)
			survive(t, nil, mime)
		})
	}
}

// TestTruncated_FFmpeg cuts real files at several points.
func TestTruncated_FFmpeg(t *testing.T) {
	t.Parallel()

	testutil.RequireFFmpeg(t)

	for _, tc := range conformanceCases {
		t.Run(tc.fixture.Name, func(t *testing.T) {
			t.Parallel()

			_, data := testutil.Encode(t, t.TempDir(), tc.fixture)

			for _, cut := range []int{0, 4, 16, 64, len(data) / 3, len(data) / 2, len(data) - 1} {
				survive(t, data[:cut], tc.container)
			}
		})
	}
}

// TestCorrupted_FFmpeg flips random bytes past the first kilobyte.
func TestCorrupted_FFmpeg(t *testing.T) {
	t.Parallel()

	testutil.RequireFFmpeg(t)

	for _, tc := range conformanceCases {
		t.Run(tc.fixture.Name, func(t *testing.T) {
			t.Parallel()

			_, data := testutil.Encode(t, t.TempDir(), tc.fixture)
			rng := rand.New(rand.NewPCG(1, uint64(len(data))))

			for range 8 {
				corrupted := slices.Clone(data)

				for range 32 {
					corrupted[1024+rng.IntN(len(data)-1024)] ^= byte(1 + rng.IntN(255))
				}

				survive(t, corrupted, tc.container)
			}
		})
	}
}
