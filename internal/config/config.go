// Copyright 2026 The hafindexer Authors
// This file is part of the hafindexer library.
//
// The hafindexer library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The hafindexer library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the hafindexer library. If not, see <http://www.gnu.org/licenses/>.

// Package config loads the indexer's configuration: a TOML file overlaid
// on defaults, with CLI flags applied on top by cmd/hafindexer.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds every knob the ingestion core reads: the database and
// context identity, sync tuning, test caps, logging and pool sizing.
type Config struct {
	DatabaseURL string `toml:"database_url"`
	ContextName string `toml:"context_name"`

	MaxBatch            int      `toml:"max_batch"`
	CommunityStartBlock uint32   `toml:"community_start_block"`
	MockBlockDataPath   []string `toml:"mock_block_data_path"`
	MockVopsDataPath    string   `toml:"mock_vops_data_path"`
	LogExplainQueries   bool     `toml:"log_explain_queries"`

	TestMaxBlock            uint32 `toml:"test_max_block"`
	TestLastBlockForMassive uint32 `toml:"test_last_block_for_massive"`

	LogLevel       string `toml:"log_level"`
	LogFile        string `toml:"log_file"`
	DBPoolMaxConns int32  `toml:"db_pool_max_conns"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		ContextName:    "hafindexer",
		MaxBatch:       1000,
		LogLevel:       "info",
		DBPoolMaxConns: 8,
	}
}

// Load reads a TOML configuration file and overlays it on Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the invariants the core relies on at startup.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: database_url is required")
	}
	if c.ContextName == "" {
		return fmt.Errorf("config: context_name is required")
	}
	if c.MaxBatch <= 0 {
		return fmt.Errorf("config: max_batch must be positive")
	}
	return nil
}

// TestMaxBlockPtr and TestLastBlockForMassivePtr expose the two test caps
// as optionals (0 means "unset") without forcing every caller to
// special-case the zero value inline.
func (c Config) TestMaxBlockPtr() *uint32 {
	if c.TestMaxBlock == 0 {
		return nil
	}
	v := c.TestMaxBlock
	return &v
}

func (c Config) TestLastBlockForMassivePtr() *uint32 {
	if c.TestLastBlockForMassive == 0 {
		return nil
	}
	v := c.TestLastBlockForMassive
	return &v
}
