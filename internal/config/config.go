// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 The payscript authors

// Package config loads the YAML configuration shared by the CLI and the
// server binaries.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v2"
)

// Database holds the settings for the event stream store.
type Database struct {
	Path string `yaml:"path"`
}

// Market holds the market conventions applied during indexing.
type Market struct {
	LocalCurrency string `yaml:"local_currency"`
}

// Simulation holds the Monte Carlo settings. A paths count of zero
// disables simulation and prices against a single flat scenario.
type Simulation struct {
	Paths      int     `yaml:"paths"`
	Volatility float64 `yaml:"volatility"`
	Drift      float64 `yaml:"drift"`
	Rate       float64 `yaml:"rate"`
	Seed       int64   `yaml:"seed"`
}

// Config is the top-level configuration document.
type Config struct {
	Listen     string     `yaml:"listen"`
	Database   Database   `yaml:"database"`
	Market     Market     `yaml:"market"`
	Simulation Simulation `yaml:"simulation"`
	Workers    int        `yaml:"workers"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen: ":8080",
		Database: Database{
			Path: "payscript.db",
		},
		Market: Market{
			LocalCurrency: "USD",
		},
		Workers: runtime.GOMAXPROCS(0),
	}
}

// Load reads a YAML configuration file, applying defaults for any field
// the file leaves unset.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	if cfg.Workers < 1 {
		return cfg, fmt.Errorf("config %q: workers must be at least 1, got %d", path, cfg.Workers)
	}
	if cfg.Simulation.Paths < 0 {
		return cfg, fmt.Errorf("config %q: simulation paths must not be negative, got %d", path, cfg.Simulation.Paths)
	}
	return cfg, nil
}
