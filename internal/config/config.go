// Package config loads process configuration for the pikistore server:
// listen address, database count, and an optional debug snapshot path.
// Configuration, like the network command parser, is named an external
// concern by the spec (spec §1); this package exists only to wire the
// handful of knobs this spec's components actually need.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// Config holds the server's runtime configuration.
type Config struct {
	ListenAddr   string `json:"listen_addr"`
	DBCount      int    `json:"db_count"`
	SnapshotPath string `json:"snapshot_path,omitempty"`
}

// Default returns the built-in defaults, applied before any config file or
// flag override.
func Default() Config {
	return Config{
		ListenAddr: "127.0.0.1:7890",
		DBCount:    16,
	}
}

// Load reads path (tolerant of JSON-with-comments/trailing-commas via
// hujson, mirroring calvinalkan-agent-task's config loader) and merges it
// over the defaults. A missing file is not an error — it just means
// defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: invalid JSONC in %s: %w", path, err)
	}

	var fileCfg Config
	if err := json.Unmarshal(standardized, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("config: invalid JSON in %s: %w", path, err)
	}

	return merge(cfg, fileCfg), nil
}

// merge overlays non-zero fields of overlay onto base.
func merge(base, overlay Config) Config {
	if overlay.ListenAddr != "" {
		base.ListenAddr = overlay.ListenAddr
	}
	if overlay.DBCount != 0 {
		base.DBCount = overlay.DBCount
	}
	if overlay.SnapshotPath != "" {
		base.SnapshotPath = overlay.SnapshotPath
	}
	return base
}

// Validate reports an error if cfg has an out-of-range db count.
func (c Config) Validate() error {
	if c.DBCount < 1 {
		return fmt.Errorf("config: db_count must be >= 1, got %d", c.DBCount)
	}
	return nil
}
