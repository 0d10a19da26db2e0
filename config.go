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
	"context"
	"log/slog"
)

// config holds extractor construction settings.
type config struct {
	logger    *slog.Logger
	ctx       context.Context //nolint:containedctx // Extractors are built synchronously and read later.
	scanLimit int64
}

// Option configures an extractor.
type Option func(*config)

// WithLogger sets the logger used while building indexes and reading tracks.
// The default logger discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContext sets a context that bounds index building and interrupts
// track reads once canceled.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// WithScanLimit bounds the number of source bytes index builders walk.
// Frames past the limit are not indexed and cannot be read. Zero or a
// negative value scans the whole source.
func WithScanLimit(limit int64) Option {
	return func(c *config) {
		c.scanLimit = limit
	}
}

func newConfig(opts []Option) *config {
	cfg := &config{
		logger: slog.New(slog.DiscardHandler),
		ctx:    context.Background(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// limit returns the end of the range index builders may scan.
func (c *config) limit(size int64) int64 {
	if c.scanLimit > 0 && c.scanLimit < size {
		return c.scanLimit
	}

	return size
}
