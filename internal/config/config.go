/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package config provides configuration for the cqlwire tools.

CONFIGURATION SOURCES (in order of precedence):
===============================================
1. Command-line flags (applied by the caller, highest priority)
2. Environment variables (CQLWIRE_* prefix)
3. Configuration file (JSON format)
4. Default values (lowest priority)

EXAMPLE CONFIGURATION FILE:
===========================

	{
	  "log_level": "debug",
	  "max_frame_bytes": 268435456,
	  "metrics_enabled": true,
	  "metrics_addr": ":9180"
	}
*/
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Environment variable names.
const (
	EnvLogLevel       = "CQLWIRE_LOG_LEVEL"
	EnvLogJSON        = "CQLWIRE_LOG_JSON"
	EnvMaxFrameBytes  = "CQLWIRE_MAX_FRAME_BYTES"
	EnvReadChunkBytes = "CQLWIRE_READ_CHUNK_BYTES"
	EnvMetricsEnabled = "CQLWIRE_METRICS_ENABLED"
	EnvMetricsAddr    = "CQLWIRE_METRICS_ADDR"
	EnvGatewayEnabled = "CQLWIRE_GATEWAY_ENABLED"
	EnvGatewayAddr    = "CQLWIRE_GATEWAY_ADDR"
	EnvGatewayOrigins = "CQLWIRE_GATEWAY_ORIGINS"
)

// Defaults.
const (
	DefaultMaxFrameBytes  = 256 * 1024 * 1024
	DefaultReadChunkBytes = 4096
	DefaultMetricsAddr    = ":9180"
	DefaultGatewayAddr    = ":9181"
)

// Config holds the tool configuration.
type Config struct {
	// Logging
	LogLevel string `json:"log_level"`
	LogJSON  bool   `json:"log_json"`

	// Decoding limits. A response body larger than MaxFrameBytes is
	// treated as stream corruption.
	MaxFrameBytes  uint32 `json:"max_frame_bytes"`
	ReadChunkBytes int    `json:"read_chunk_bytes"`

	// Observability
	MetricsEnabled bool   `json:"metrics_enabled"`
	MetricsAddr    string `json:"metrics_addr"`

	// Event gateway
	GatewayEnabled bool     `json:"gateway_enabled"`
	GatewayAddr    string   `json:"gateway_addr"`
	GatewayOrigins []string `json:"gateway_origins"`
}

// Validation errors.
var (
	ErrZeroChunk    = errors.New("read chunk size must be positive")
	ErrZeroFrameCap = errors.New("max frame size must be positive")
	ErrNoAddr       = errors.New("enabled listener needs an address")
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:       "info",
		MaxFrameBytes:  DefaultMaxFrameBytes,
		ReadChunkBytes: DefaultReadChunkBytes,
		MetricsAddr:    DefaultMetricsAddr,
		GatewayAddr:    DefaultGatewayAddr,
	}
}

// Load builds a Config from defaults, an optional JSON file and the
// environment, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLogJSON); v != "" {
		c.LogJSON = parseBool(v, c.LogJSON)
	}
	if v := os.Getenv(EnvMaxFrameBytes); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			c.MaxFrameBytes = uint32(n)
		}
	}
	if v := os.Getenv(EnvReadChunkBytes); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ReadChunkBytes = n
		}
	}
	if v := os.Getenv(EnvMetricsEnabled); v != "" {
		c.MetricsEnabled = parseBool(v, c.MetricsEnabled)
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		c.MetricsAddr = v
	}
	if v := os.Getenv(EnvGatewayEnabled); v != "" {
		c.GatewayEnabled = parseBool(v, c.GatewayEnabled)
	}
	if v := os.Getenv(EnvGatewayAddr); v != "" {
		c.GatewayAddr = v
	}
	if v := os.Getenv(EnvGatewayOrigins); v != "" {
		c.GatewayOrigins = splitList(v)
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.ReadChunkBytes <= 0 {
		return ErrZeroChunk
	}
	if c.MaxFrameBytes == 0 {
		return ErrZeroFrameCap
	}
	if c.MetricsEnabled && c.MetricsAddr == "" {
		return fmt.Errorf("metrics: %w", ErrNoAddr)
	}
	if c.GatewayEnabled && c.GatewayAddr == "" {
		return fmt.Errorf("gateway: %w", ErrNoAddr)
	}
	return nil
}

func parseBool(s string, fallback bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return b
}

func splitList(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if part := s[start:i]; part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	return out
}
