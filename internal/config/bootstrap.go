package config

import (
	"errors"
	"os"
	"path/filepath"
)

// EnsureUserConfig returns dataDir/config.yml, writing the defaults there
// first when the file does not exist.
func EnsureUserConfig(dataDir string) (string, error) {
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	if err := SaveAtomic(userPath, Defaults()); err != nil {
		return "", err
	}
	return userPath, nil
}
