// Package config holds server settings: defaults, an optional TOML file, and
// flag overrides applied by the binaries.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/poku-e/whisk/internal/store"
)

// Default values
const (
	DefaultAddr     = ":8080"
	DefaultBackend  = store.BackendFile
	DefaultDataPath = "whisk-data"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

type Config struct {
	Addr    string `toml:"addr"`
	Backend string `toml:"backend"`
	// DataPath is a directory for the file backend and a database file for
	// sqlite.
	DataPath string `toml:"data_path"`
	// PagePath is the host page: a file path or an http(s) URL. Empty uses
	// the built-in page.
	PagePath  string `toml:"page"`
	StaticDir string `toml:"static_dir"`
	Watch     bool   `toml:"watch"`
}

func Default() Config {
	return Config{
		Addr:     DefaultAddr,
		Backend:  DefaultBackend,
		DataPath: DefaultDataPath,
	}
}

// Load returns defaults overlaid with the TOML file at path. A missing file
// is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case store.BackendMemory:
	case store.BackendFile, store.BackendSQLite:
		if c.DataPath == "" {
			return fmt.Errorf("backend %s needs a data path", c.Backend)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	if c.Watch && (c.PagePath == "" || isURL(c.PagePath)) {
		return errors.New("watch needs a local page file")
	}
	return nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
