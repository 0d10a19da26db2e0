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

package aac_test

// bitWriter packs MSB-first bit fields for building test bitstreams.
type bitWriter struct {
	buf  []byte
	bits int
}

func (w *bitWriter) put(value uint64, width int) {
	for i := width - 1; i >= 0; i-- {
		if w.bits%8 == 0 {
			w.buf = append(w.buf, 0)
		}

		if value>>uint(i)&1 == 1 {
			w.buf[len(w.buf)-1] |= 0x80 >> uint(w.bits%8)
		}

		w.bits++
	}
}

func (w *bitWriter) putBytes(data []byte) {
	for _, b := range data {
		w.put(uint64(b), 8)
	}
}

func (w *bitWriter) align() {
	for w.bits%8 != 0 {
		w.put(0, 1)
	}
}

func (w *bitWriter) bytes() []byte {
	return w.buf
}
