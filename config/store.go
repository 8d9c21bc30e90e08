// Package config provides a JSON-file-backed flashfs.ConfigStore for
// hosts that have a regular filesystem to keep the two flashfs tunables
// in. A bare-metal host without one would instead back flashfs.ConfigStore
// with its own EEPROM/settings-page driver; no library in the retrieval
// pack offers a settings-persistence format, so this uses the standard
// library's encoding/json directly (see DESIGN.md).
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotorflight/flashfs"
)

// FileStore persists a flashfs.Config as JSON at Path.
type FileStore struct {
	Path string
}

// NewFileStore returns a FileStore rooted at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the config file, returning flashfs.DefaultConfig if it does
// not exist yet (a fresh host has never persisted one).
func (s *FileStore) Load() (flashfs.Config, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return flashfs.DefaultConfig(), nil
	}
	if err != nil {
		return flashfs.Config{}, fmt.Errorf("flashfs/config: reading %s: %w", s.Path, err)
	}

	var cfg flashfs.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return flashfs.Config{}, fmt.Errorf("flashfs/config: parsing %s: %w", s.Path, err)
	}
	return cfg, nil
}

// Save writes cfg to the config file, replacing it atomically.
func (s *FileStore) Save(cfg flashfs.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("flashfs/config: encoding config: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("flashfs/config: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("flashfs/config: renaming %s to %s: %w", tmp, s.Path, err)
	}
	return nil
}

var _ flashfs.ConfigStore = (*FileStore)(nil)
