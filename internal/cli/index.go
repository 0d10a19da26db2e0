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
	"fmt"

	"github.com/spf13/cobra"
)

func newIndexCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index FILE",
		Short: "Print the seek table built at open time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, ext, _, err := a.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer src.Close()

			entries := ext.SeekIndex()
			if len(entries) == 0 {
				a.logger.Info("format seeks without a prebuilt index", "container", ext.MIME())

				return nil
			}

			for _, entry := range entries {
				fmt.Fprintf(a.out, "%d\t%d\n", entry.Offset, entry.TimeUs)
			}

			return nil
		},
	}
}
