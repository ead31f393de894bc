//go:build !unix

package build

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// lockDir creates dir/name exclusively and removes it on unlock. A lock
// left behind by a crashed process must be removed by hand.
func lockDir(dir, name string) (unlock func(), err error) {
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, &StageBusyError{Dir: dir}
		}
		return nil, fmt.Errorf("create lock file %s: %w", path, err)
	}
	return func() {
		f.Close()
		os.Remove(path)
	}, nil
}
