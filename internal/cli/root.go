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

// Package cli implements the saprobe-demux command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mycophonic/saprobe-demux"
)

// ErrUnrecognized is returned when a file matches no sniffer.
var ErrUnrecognized = errors.New("format not recognized")

// app carries the resolved configuration into every command.
type app struct {
	cfg    Config
	logger *slog.Logger
	out    io.Writer
}

// NewRootCommand builds the command tree.
func NewRootCommand(version string) *cobra.Command {
	state := &app{cfg: DefaultConfig(), logger: slog.New(slog.DiscardHandler), out: io.Discard}

	var (
		configPath    string
		logLevel      string
		scanLimit     int64
		workers       int
		minConfidence float32
	)

	root := &cobra.Command{
		Use:           "saprobe-demux",
		Short:         "Probe, inspect and extract ADIF, LATM, ADTS, AIFF, ASF, DTS and TrueHD audio.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("log-level") {
				cfg.Log.Level = logLevel
			}

			if flags.Changed("scan-limit") {
				cfg.Scan.Limit = scanLimit
			}

			if flags.Changed("workers") {
				cfg.Probe.Workers = max(workers, 1)
			}

			if flags.Changed("min-confidence") {
				cfg.Probe.MinConfidence = minConfidence
			}

			state.cfg = cfg
			state.out = cmd.OutOrStdout()
			state.logger = NewLogger(cmd.ErrOrStderr(), cfg.Log)

			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "YAML configuration file")
	flags.StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	flags.Int64Var(&scanLimit, "scan-limit", 0, "bytes index builders may scan, 0 for the whole file")
	flags.IntVar(&workers, "workers", defaultWorkers, "files probed concurrently")
	flags.Float32Var(&minConfidence, "min-confidence", defaultMinConfidence, "lowest sniffer confidence accepted")

	root.AddCommand(
		newProbeCommand(state),
		newInfoCommand(state),
		newIndexCommand(state),
		newExtractCommand(state),
		newVersionCommand(version),
	)

	return root
}

// sniff identifies the format of src with the built-in sniffers.
func (a *app) sniff(src demux.Source) (demux.SniffResult, error) {
	reg := demux.NewRegistry()
	demux.RegisterSniffers(reg)

	res, ok := reg.Sniff(src)
	if !ok || res.Confidence < a.cfg.Probe.MinConfidence {
		return demux.SniffResult{}, ErrUnrecognized
	}

	return res, nil
}

// open sniffs path and builds its extractor. The caller closes the source.
func (a *app) open(ctx context.Context, path string) (*demux.FileSource, *demux.Extractor, demux.SniffResult, error) {
	src, err := demux.OpenFile(path)
	if err != nil {
		return nil, nil, demux.SniffResult{}, err
	}

	res, err := a.sniff(src)
	if err != nil {
		_ = src.Close()

		return nil, nil, demux.SniffResult{}, fmt.Errorf("%s: %w", path, err)
	}

	ext, err := demux.CreateExtractor(src, res.MIME,
		demux.WithLogger(a.logger.With("file", path)),
		demux.WithContext(ctx),
		demux.WithScanLimit(a.cfg.Scan.Limit),
	)
	if err == nil {
		err = ext.Err()
	}

	if err != nil {
		_ = src.Close()

		return nil, nil, demux.SniffResult{}, fmt.Errorf("%s: %w", path, err)
	}

	return src, ext, res, nil
}
