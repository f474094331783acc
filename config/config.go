// Package config loads the kf tool's TOML configuration.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config holds the tool-wide settings. Defaults apply for anything the
// file does not set.
type Config struct {
	KeyServer string `toml:"keyserver"`
	StorePath string `toml:"store"`
	LogLevel  string `toml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		KeyServer: "hkps://keyserver.ubuntu.com",
		StorePath: filepath.Join(home, ".keyfold", "store.db"),
		LogLevel:  "warning",
	}
}

// Load reads the TOML file at path and overlays it on the defaults. Only
// keys present in the file override; a missing file is not an error when
// path is empty.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	var raw Config
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, errors.Wrap(err, "config: load")
	}
	if meta.IsDefined("keyserver") {
		cfg.KeyServer = strings.TrimSpace(raw.KeyServer)
	}
	if meta.IsDefined("store") {
		cfg.StorePath = strings.TrimSpace(raw.StorePath)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	return cfg, nil
}
