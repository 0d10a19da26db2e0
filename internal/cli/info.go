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
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mycophonic/saprobe-demux"
)

type trackDoc struct {
	MIME              string            `yaml:"mime"`
	SampleRate        int               `yaml:"sampleRate"`
	Channels          int               `yaml:"channels"`
	BitRate           int               `yaml:"bitRate,omitempty"`
	DurationUs        int64             `yaml:"durationUs"`
	BitsPerSample     int               `yaml:"bitsPerSample,omitempty"`
	MaxInputSize      int               `yaml:"maxInputSize"`
	BlockAlign        int               `yaml:"blockAlign,omitempty"`
	Encoding          string            `yaml:"encoding,omitempty"`
	CodecSpecificData string            `yaml:"codecSpecificData,omitempty"`
	Tags              map[string]string `yaml:"tags,omitempty"`
}

type infoDoc struct {
	File         string            `yaml:"file"`
	Container    string            `yaml:"container"`
	Sniffer      string            `yaml:"sniffer"`
	Confidence   float32           `yaml:"confidence"`
	Tags         map[string]string `yaml:"tags,omitempty"`
	Tracks       []trackDoc        `yaml:"tracks"`
	IndexEntries int               `yaml:"indexEntries"`
}

func newInfoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE",
		Short: "Print container and track metadata as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, ext, res, err := a.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer src.Close()

			return a.writeInfo(args[0], ext, res)
		},
	}
}

func newTrackDoc(meta demux.Metadata) trackDoc {
	return trackDoc{
		MIME:              meta.MIME,
		SampleRate:        meta.SampleRate,
		Channels:          meta.Channels,
		BitRate:           meta.BitRate,
		DurationUs:        meta.DurationUs,
		BitsPerSample:     meta.BitsPerSample,
		MaxInputSize:      meta.MaxInputSize,
		BlockAlign:        meta.BlockAlign,
		Encoding:          meta.Encoding,
		CodecSpecificData: hex.EncodeToString(meta.CodecSpecificData),
		Tags:              meta.Tags,
	}
}

func (a *app) writeInfo(path string, ext *demux.Extractor, res demux.SniffResult) error {
	doc := infoDoc{
		File:         path,
		Container:    ext.MIME(),
		Sniffer:      res.Name,
		Confidence:   res.Confidence,
		Tags:         ext.Metadata().Tags,
		IndexEntries: len(ext.SeekIndex()),
	}

	for i := range ext.CountTracks() {
		meta, ok := ext.TrackMetadata(i)
		if !ok {
			continue
		}

		doc.Tracks = append(doc.Tracks, newTrackDoc(meta))
	}

	enc := yaml.NewEncoder(a.out)
	enc.SetIndent(2)

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding info: %w", err)
	}

	return enc.Close()
}
