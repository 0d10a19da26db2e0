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

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Sniffer inspects the start of a source and reports whether it recognizes
// the format, the container MIME type, and a confidence in [0, 1].
type Sniffer func(src Source) (mime string, confidence float32, ok bool)

// SniffResult is the winning sniffer verdict.
type SniffResult struct {
	Name       string
	MIME       string
	Confidence float32
}

type namedSniffer struct {
	name  string
	sniff Sniffer
}

// Registry is an ordered list of sniffers. The host registers its own
// sniffers next to the ones from RegisterSniffers; Sniff picks the most
// confident verdict, earlier registrations winning ties.
type Registry struct {
	mu       sync.RWMutex
	sniffers []namedSniffer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a sniffer.
func (r *Registry) Register(name string, sniff Sniffer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sniffers = append(r.sniffers, namedSniffer{name: name, sniff: sniff})
}

// Names returns the registered sniffer names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.sniffers))
	for i, s := range r.sniffers {
		names[i] = s.name
	}

	return names
}

// Sniff runs every sniffer against src and returns the most confident match.
func (r *Registry) Sniff(src Source) (SniffResult, bool) {
	r.mu.RLock()
	sniffers := make([]namedSniffer, len(r.sniffers))
	copy(sniffers, r.sniffers)
	r.mu.RUnlock()

	var (
		best  SniffResult
		found bool
	)

	for _, s := range sniffers {
		mime, confidence, ok := s.sniff(src)
		if !ok {
			continue
		}

		if !found || confidence > best.Confidence {
			best = SniffResult{Name: s.name, MIME: mime, Confidence: confidence}
			found = true
		}
	}

	return best, found
}

type factory func(src Source, size int64, cfg *config) *Extractor

//nolint:gochecknoglobals
var (
	builtinSniffers = []namedSniffer{
		{name: "asf", sniff: SniffASF},
		{name: "aiff", sniff: SniffAIFF},
		{name: "adif", sniff: SniffADIF},
		{name: "aac", sniff: SniffAAC},
		{name: "dts", sniff: SniffDTS},
		{name: "truehd", sniff: SniffTrueHD},
	}

	factories = map[string]factory{
		MIMEAACADIF: newADIFExtractor,
		MIMEAACLATM: newLATMExtractor,
		MIMEAACADTS: newADTSExtractor,
		MIMEAIFF:    newAIFFExtractor,
		MIMEASF:     newASFExtractor,
		MIMEDTSHD:   newDTSExtractor,
		MIMETrueHD:  newTrueHDExtractor,
	}
)

// RegisterSniffers adds the sniffers of every format this package extracts.
func RegisterSniffers(r *Registry) {
	for _, s := range builtinSniffers {
		r.Register(s.name, s.sniff)
	}
}

// Supported returns the container MIME types CreateExtractor accepts.
func Supported() []string {
	return slices.Sorted(maps.Keys(factories))
}

// CreateExtractor builds the extractor for a container MIME type, as reported
// by a sniffer. The error is reserved for MIME types no extractor handles;
// an extractor that fails to parse the source is returned with Err set.
func CreateExtractor(src Source, mime string, opts ...Option) (*Extractor, error) {
	create, ok := factories[strings.ToLower(mime)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, mime)
	}

	cfg := newConfig(opts)

	size, err := sourceSize(src)
	if err != nil {
		return failedExtractor(mime, cfg, err), nil
	}

	return create(src, size, cfg), nil
}

// Open sniffs src with the built-in sniffers and builds the matching
// extractor. Unlike CreateExtractor it also returns initialization failures
// as errors, together with the failed extractor.
func Open(src Source, opts ...Option) (*Extractor, error) {
	reg := NewRegistry()
	RegisterSniffers(reg)

	res, ok := reg.Sniff(src)
	if !ok {
		return nil, ErrUnknownFormat
	}

	ext, err := CreateExtractor(src, res.MIME, opts...)
	if err != nil {
		return nil, err
	}

	return ext, ext.Err()
}
