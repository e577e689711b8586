// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Game  GameConfig  `toml:"game"`
	Debug DebugConfig `toml:"debug"`
}

// GameConfig maps run-related settings.
type GameConfig struct {
	Catalog     *string `toml:"catalog"`
	WordList    *string `toml:"wordlist"`
	Nominal     *int    `toml:"nominal"`
	TickMs      *int    `toml:"tick-ms"`
	Seed        *int64  `toml:"seed"`
	SaveHistory *bool   `toml:"save-history"`
}

// DebugConfig maps the operator-only settings.
type DebugConfig struct {
	Enabled *bool `toml:"enabled"`
	StartAt *int  `toml:"start-at"`
	Resume  *bool `toml:"resume"`
	Verbose *bool `toml:"verbose"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
