package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileOverlay mirrors the subset of Config fields an operator is likely to
// want to set from a file rather than the environment. Zero values are
// left untouched so LoadWithFile never clobbers an explicitly set env var.
type fileOverlay struct {
	DatabaseURL                    string `yaml:"databaseUrl"`
	BlockIntervalMs                int64  `yaml:"blockIntervalMs"`
	MempoolMaxDrainBatch           int    `yaml:"mempoolMaxDrainBatch"`
	ReactionsMerkleRootGracePeriod int    `yaml:"reactionsMerkleRootGracePeriod"`
	LogLevel                       string `yaml:"logLevel"`
}

// LoadWithFile behaves like Load, then overlays values from the YAML file
// named by HUSH_CONFIG_FILE (if set) on top of fields the environment did
// not set.
func LoadWithFile() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	path := os.Getenv("HUSH_CONFIG_FILE")
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = overlay.DatabaseURL
	}
	if os.Getenv("HUSH_BLOCK_INTERVAL_MS") == "" && overlay.BlockIntervalMs != 0 {
		cfg.BlockIntervalMs = overlay.BlockIntervalMs
	}
	if os.Getenv("HUSH_MEMPOOL_MAX_DRAIN") == "" && overlay.MempoolMaxDrainBatch != 0 {
		cfg.MempoolMaxDrainBatch = overlay.MempoolMaxDrainBatch
	}
	if os.Getenv("HUSH_MERKLE_ROOT_GRACE_PERIOD") == "" && overlay.ReactionsMerkleRootGracePeriod != 0 {
		cfg.ReactionsMerkleRootGracePeriod = overlay.ReactionsMerkleRootGracePeriod
	}
	if cfg.LogLevel == "info" && overlay.LogLevel != "" {
		cfg.LogLevel = overlay.LogLevel
	}

	return cfg, nil
}
