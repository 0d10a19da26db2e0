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

// Package demux extracts compressed audio frames from ADIF, LATM and ADTS
// AAC streams, AIFF and AIFF-C files, ASF/WMA files, DTS and DTS-HD streams,
// and TrueHD streams.
//
// A Registry of sniffers identifies a Source. CreateExtractor then parses the
// headers and builds a seek index in one synchronous pass; the resulting
// Extractor exposes a single audio track. A Track hands out one timestamped
// frame per Read and honors seek requests with floor semantics: the first
// frame after a seek never starts later than the requested time.
//
//	reg := demux.NewRegistry()
//	demux.RegisterSniffers(reg)
//
//	res, ok := reg.Sniff(src)
//	if !ok {
//		return demux.ErrUnknownFormat
//	}
//
//	ext, err := demux.CreateExtractor(src, res.MIME)
//	if err != nil {
//		return err
//	}
//
//	if err := ext.Err(); err != nil {
//		return err
//	}
//
//	track, _ := ext.Track(0)
//	_ = track.Start()
//	defer track.Stop()
//
//	for {
//		buf, err := track.Read(nil)
//		if errors.Is(err, io.EOF) {
//			break
//		}
//		// use buf.Data, buf.TimeUs
//		buf.Release()
//	}
package demux
