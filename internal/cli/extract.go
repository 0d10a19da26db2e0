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

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mycophonic/saprobe-demux"
)

type extractOptions struct {
	output  string
	startUs int64
	frames  int
}

func newExtractCommand(a *app) *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Write the raw frames of the audio track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.extract(cmd.Context(), args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "-", "output file, - for stdout")
	flags.Int64Var(&opts.startUs, "start", 0, "seek to this time in microseconds first")
	flags.IntVar(&opts.frames, "frames", 0, "stop after this many frames, 0 for all")

	return cmd
}

func (a *app) extract(ctx context.Context, path string, opts extractOptions) error {
	src, ext, _, err := a.open(ctx, path)
	if err != nil {
		return err
	}
	defer src.Close()

	out := a.out

	if opts.output != "-" {
		file, err := os.Create(opts.output)
		if err != nil {
			return err
		}
		defer file.Close()

		out = file
	}

	track, err := ext.Track(0)
	if err != nil {
		return err
	}

	if err := track.Start(); err != nil {
		return err
	}
	defer func() { _ = track.Stop() }()

	var readOpts *demux.ReadOptions
	if opts.startUs > 0 {
		readOpts = demux.SeekTo(opts.startUs)
	}

	written, frames := int64(0), 0

	for opts.frames == 0 || frames < opts.frames {
		buf, err := track.Read(readOpts)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return err
		}

		readOpts = nil

		if frames == 0 {
			a.logger.Debug("first frame", "time_us", buf.TimeUs)
		}

		n, err := out.Write(buf.Data)
		buf.Release()

		if err != nil {
			return fmt.Errorf("writing frame %d: %w", frames, err)
		}

		written += int64(n)
		frames++
	}

	a.logger.Info("extracted", "file", path, "frames", frames, "bytes", written)

	return nil
}
