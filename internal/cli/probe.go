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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mycophonic/saprobe-demux"
)

type probeResult struct {
	res demux.SniffResult
	err error
}

func newProbeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "probe FILE...",
		Short: "Identify the container format of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.probe(cmd.Context(), args)
		},
	}
}

func (a *app) probe(ctx context.Context, paths []string) error {
	results := make([]probeResult, len(paths))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(a.cfg.Probe.Workers)

	for i, path := range paths {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			results[i] = a.probeFile(path)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	failed := 0

	for i, path := range paths {
		result := results[i]

		switch {
		case errors.Is(result.err, ErrUnrecognized):
			failed++

			fmt.Fprintf(a.out, "%s\tunknown\n", path)
		case result.err != nil:
			failed++

			fmt.Fprintf(a.out, "%s\terror: %v\n", path, result.err)
		default:
			fmt.Fprintf(a.out, "%s\t%s\t%.2f\t%s\n", path, result.res.MIME, result.res.Confidence, result.res.Name)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files: %w", failed, len(paths), ErrUnrecognized)
	}

	return nil
}

func (a *app) probeFile(path string) probeResult {
	src, err := demux.OpenFile(path)
	if err != nil {
		return probeResult{err: err}
	}
	defer src.Close()

	res, err := a.sniff(src)
	if err != nil {
		return probeResult{err: err}
	}

	a.logger.Debug("probed", "file", path, "mime", res.MIME, "confidence", res.Confidence)

	return probeResult{res: res}
}
