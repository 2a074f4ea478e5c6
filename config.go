package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/kelseyhightower/envconfig"

	"github.com/obsidianwallet/obsidian-wallet-client/common"
)

const (
	configFile = "config.json"
	envPrefix  = "WALLET"
)

// loadConfig starts from the defaults, applies path when it exists and then
// any WALLET_* environment variable.
func loadConfig(path string) (common.Config, error) {
	cfg := common.DefaultConfig
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return cfg, err
	}
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to process config: %w", err)
	}
	return cfg, nil
}
