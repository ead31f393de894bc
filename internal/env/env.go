package env

import (
	"os"
	"path/filepath"
)

// WorkDir returns the per-user working directory of varbuild.
func WorkDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, "varbuild"), nil
}

// StageRoot returns the directory build attempts are staged under.
func StageRoot() (string, error) {
	dir, err := WorkDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "stage"), nil
}
