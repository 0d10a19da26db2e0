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

package testutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mycophonic/agar/pkg/agar"
)

// Fixture describes a file ffmpeg encodes from white noise.
type Fixture struct {
	Name       string
	Ext        string
	CodecArgs  []string
	SampleRate int
	Channels   int
	Seconds    int
}

// RequireFFmpeg skips the test when no ffmpeg binary is available.
func RequireFFmpeg(t *testing.T) {
	t.Helper()

	if _, err := agar.LookFor("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found: " + err.Error())
	}
}

// Encode writes the fixture into dir and returns its path and contents.
func Encode(t *testing.T, dir string, fx Fixture) (string, []byte) {
	t.Helper()

	RequireFFmpeg(t)

	seconds := max(fx.Seconds, 1)
	pcm := agar.GenerateWhiteNoise(fx.SampleRate, 16, fx.Channels, seconds)

	srcPath := filepath.Join(dir, fmt.Sprintf("%s_%ds.raw", fx.Name, seconds))
	if err := os.WriteFile(srcPath, pcm, 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	layout := "stereo"
	if fx.Channels == 1 {
		layout = "mono"
	}

	dstPath := filepath.Join(dir, fmt.Sprintf("%s_%ds%s", fx.Name, seconds, fx.Ext))

	agar.FFmpegEncode(t, agar.FFmpegEncodeOptions{
		Src:        srcPath,
		Dst:        dstPath,
		BitDepth:   16,
		SampleRate: fx.SampleRate,
		Channels:   fx.Channels,
		CodecArgs:  fx.CodecArgs,
		InputArgs:  []string{"-channel_layout", layout},
	})

	data, err := os.ReadFile(dstPath)
	if err != nil {
		t.Fatalf("read encoded: %v", err)
	}

	return dstPath, data
}

// BenchDecodeFFmpeg times a full ffmpeg decode of path, as a reference for
// demux throughput.
func BenchDecodeFFmpeg(t *testing.T, format BenchFormat, opts BenchOptions, path string) BenchResult {
	t.Helper()

	opts = opts.WithDefaults()
	durations := make([]time.Duration, opts.Iterations)

	for iter := range opts.Iterations {
		start := time.Now()

		agar.FFmpegDecode(t, agar.FFmpegDecodeOptions{
			Src:      path,
			BitDepth: 16,
			Channels: format.Channels,
			Stdout:   io.Discard,
		})

		durations[iter] = time.Since(start)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	return agar.ComputeResult(format, "ffmpeg", "decode", durations, int(info.Size()))
}
