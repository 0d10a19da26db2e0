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

// Samples per AAC raw data block.
const SamplesPerFrame = 1024

//nolint:gochecknoglobals
var sampleRates = [...]int{
	96000, 88200, 64000, 48000, 44100, 32000,
	24000, 22050, 16000, 12000, 11025, 8000, 7350,
}

// SampleRate maps a sampling frequency index to Hz.
func SampleRate(index uint8) (int, bool) {
	if int(index) >= len(sampleRates) {
		return 0, false
	}

	return sampleRates[index], true
}

// SampleRateIndex returns the table index for rate, if it has one.
func SampleRateIndex(rate int) (uint8, bool) {
	for i, r := range sampleRates {
		if r == rate {
			return uint8(i), true //nolint:gosec // Table has 13 entries.
		}
	}

	return 0, false
}

// ChannelCount maps a channel configuration to a channel count.
// Configuration 0 defers to a program config element and reports false.
func ChannelCount(config uint8) (int, bool) {
	switch {
	case config >= 1 && config <= 6:
		return int(config), true
	case config == 7:
		return 8, true
	default:
		return 0, false
	}
}

// FrameDurationUs returns the duration of one 1024-sample frame in
// microseconds, rounded up.
func FrameDurationUs(sampleRate int) int64 {
	if sampleRate <= 0 {
		return 0
	}

	rate := int64(sampleRate)

	return (SamplesPerFrame*1_000_000 + rate - 1) / rate
}
