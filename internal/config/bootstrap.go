package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// EnsureUserConfig makes sure dataDir holds a config.yml and returns the
// path to load. On first run the shipped default at defaultPath is seeded
// through a temp file, so a crash mid-copy cannot leave a truncated config
// that a later run would load.
func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}

	userPath := filepath.Join(dataDir, "config.yml")
	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	def, err := os.ReadFile(defaultPath)
	if err != nil {
		return "", fmt.Errorf("read default config: %w", err)
	}

	tmp := userPath + ".tmp"
	if err := os.WriteFile(tmp, def, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, userPath); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return userPath, nil
}
