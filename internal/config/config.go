// Package config loads the server's TOML configuration file.
//
// The config parser and process lifecycle are named-only collaborators in
// spec.md §1 ("out of scope"), so this stays a thin struct + loader rather
// than growing validation logic beyond what the server needs to start.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level server configuration file shape.
type Config struct {
	Server    ServerConfig   `toml:"server"`
	Storage   StorageConfig  `toml:"storage"`
	Keyspaces []KeyspaceBoot `toml:"keyspaces"`
}

type ServerConfig struct {
	ListenAddr string `toml:"listen_addr"`
	DataPlane  string `toml:"data_plane_addr"`
}

type StorageConfig struct {
	// Dir is the directory holding the bbolt data file (lexidb.db); see
	// spec.md §6 "Persisted layout".
	Dir string `toml:"dir"`
	// SyncWrites forces fsync on every commit batch (spec.md §4.4 step 4).
	SyncWrites bool `toml:"sync_writes"`
}

// KeyspaceBoot names a keyspace that should be registered at startup if it
// doesn't already exist in the metadata prefix.
type KeyspaceBoot struct {
	Name string `toml:"name"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server:  ServerConfig{ListenAddr: "127.0.0.1:6030", DataPlane: "127.0.0.1:6031"},
		Storage: StorageConfig{Dir: "./lexidb-data", SyncWrites: true},
	}
}

// Load reads and parses a TOML config file from path.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
