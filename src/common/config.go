// MIT License
//
// Copyright (c) 2024 sphinx-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// hbss/src/common/config.go
package common

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	params "github.com/sphinx-core/hbss/src/core/hbss/config"
	"github.com/sphinx-core/hbss/src/crypto/digest"
)

const (
	// DataDir is the default data directory
	DataDir = "data"
	// DefaultHTTPAddr is the default listen address of the REST server
	DefaultHTTPAddr = "127.0.0.1:8080"
	// DefaultKeyTTL bounds how long a generated key stays in the registry
	DefaultKeyTTL = 30 * time.Minute
)

// Duration is a time.Duration encoded in JSON as a string such as "30m".
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config is the process configuration shared by the CLI and the server.
type Config struct {
	Hash      string   `json:"hash"`
	N         int      `json:"n"`
	M         int      `json:"m"`
	FanIn     int      `json:"fanIn"`
	Workers   int      `json:"workers"`
	LogLevel  string   `json:"logLevel"`
	LogFormat string   `json:"logFormat"`
	HTTPAddr  string   `json:"httpAddr"`
	DataDir   string   `json:"dataDir"`
	KeyTTL    Duration `json:"keyTTL"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Hash:      digest.SHA512.String(),
		N:         params.DefaultN,
		M:         params.DefaultM,
		FanIn:     params.DefaultFanIn,
		LogLevel:  "info",
		LogFormat: "console",
		HTTPAddr:  DefaultHTTPAddr,
		DataDir:   DataDir,
		KeyTTL:    Duration(DefaultKeyTTL),
	}
}

// LoadConfig reads a JSON configuration file. Fields missing from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the scheme parameters and the key TTL.
func (c *Config) Validate() error {
	if _, err := c.Parameters(); err != nil {
		return err
	}
	if c.KeyTTL <= 0 {
		return fmt.Errorf("keyTTL must be positive, got %v", time.Duration(c.KeyTTL))
	}
	return nil
}

// Parameters returns the scheme parameters described by the configuration.
func (c *Config) Parameters() (*params.Parameters, error) {
	fn, err := digest.ParseFunc(c.Hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", params.ErrInvalidParameters, err)
	}
	return params.NewParameters(c.N, c.M, c.FanIn, fn)
}

// GetLevelDBPath returns the standardized LevelDB path below a data directory
func GetLevelDBPath(dataDir string) string {
	return filepath.Join(dataDir, "leveldb")
}

// WriteJSONToFile writes data as indented JSON to dataDir/output/filename
// and returns the path written.
func WriteJSONToFile(data interface{}, dataDir, filename string) (string, error) {
	outputDir := filepath.Join(dataDir, "output")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filePath := filepath.Join(outputDir, filename)
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", filePath, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(data); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %w", err)
	}

	return filePath, nil
}
