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
	"io"
	"log/slog"

	console "github.com/phsym/console-slog"
)

const logTimeFormat = "15:04:05.000"

// ParseLevel maps a level name to a slog level. Unknown names yield Info.
func ParseLevel(level string) slog.Level {
	var lv slog.LevelVar
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}

	return lv.Level()
}

// NewLogger returns a console logger writing to w.
func NewLogger(w io.Writer, cfg LogConfig) *slog.Logger {
	return slog.New(console.NewHandler(w, &console.HandlerOptions{
		Level:      ParseLevel(cfg.Level),
		NoColor:    cfg.NoColor,
		TimeFormat: logTimeFormat,
	}))
}
