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
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultWorkers       = 4
	defaultMinConfidence = 0.0
	defaultLogLevel      = "info"
)

// Config is the CLI configuration file.
type Config struct {
	Log   LogConfig   `yaml:"log"`
	Scan  ScanConfig  `yaml:"scan"`
	Probe ProbeConfig `yaml:"probe"`
}

// LogConfig controls the console logger.
type LogConfig struct {
	Level   string `yaml:"level"`
	NoColor bool   `yaml:"noColor"`
}

// ScanConfig bounds index building.
type ScanConfig struct {
	// Limit is the number of bytes index builders walk; zero scans everything.
	Limit int64 `yaml:"limit"`
}

// ProbeConfig controls the probe command.
type ProbeConfig struct {
	MinConfidence float32 `yaml:"minConfidence"`
	Workers       int     `yaml:"workers"`
}

// DefaultConfig returns the settings used without a config file.
func DefaultConfig() Config {
	return Config{
		Log:   LogConfig{Level: defaultLogLevel},
		Probe: ProbeConfig{MinConfidence: defaultMinConfidence, Workers: defaultWorkers},
	}
}

// LoadConfig reads a YAML config file over the defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Probe.Workers < 1 {
		cfg.Probe.Workers = 1
	}

	return cfg, nil
}
