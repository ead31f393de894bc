// Package fsutil writes build artifacts: atomically replaced files,
// idempotent symlinks and dereferencing tree copies.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// WriteError reports a filesystem failure while producing an artifact.
type WriteError struct {
	Op   string
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// WriteFileAtomic writes data to path through a temporary file in the same
// directory, so readers observe either the old content or the new one.
// Missing parent directories are created.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &WriteError{Op: "mkdir", Path: dir, Err: err}
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &WriteError{Op: "create", Path: path, Err: err}
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		return &WriteError{Op: "write", Path: path, Err: err}
	}
	if err = f.Sync(); err != nil {
		return &WriteError{Op: "sync", Path: path, Err: err}
	}
	if err = f.Chmod(perm); err != nil {
		return &WriteError{Op: "chmod", Path: path, Err: err}
	}
	if err = f.Close(); err != nil {
		return &WriteError{Op: "close", Path: path, Err: err}
	}
	if err = os.Rename(tmp, path); err != nil {
		return &WriteError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// SymlinkIfMissing creates link pointing at target unless something already
// exists at link, in which case it is left untouched. It reports whether a
// link was created.
func SymlinkIfMissing(target, link string) (bool, error) {
	if _, err := os.Lstat(link); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, &WriteError{Op: "stat", Path: link, Err: err}
	}
	if err := os.Symlink(target, link); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, &WriteError{Op: "symlink", Path: link, Err: err}
	}
	return true, nil
}

// ErrSymlinkLoop reports a symbolic link leading back into a directory that
// is being copied.
var ErrSymlinkLoop = errors.New("symbolic link loop")

// CopyTree copies the contents of src into dst, following symbolic links so
// that dst holds regular files only. Existing files in dst are replaced. A
// link to a directory that contains the one being copied fails with
// ErrSymlinkLoop.
func CopyTree(src, dst string) error {
	abs, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return &WriteError{Op: "stat", Path: src, Err: err}
	}
	return copyTree(root, dst, []string{root})
}

// copyTree copies the resolved directory src. walking holds the resolved
// directories entered so far, src included.
func copyTree(src, dst string, walking []string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.Type()&fs.ModeSymlink != 0 {
			real, err := filepath.EvalSymlinks(path)
			if err != nil {
				return &WriteError{Op: "stat", Path: path, Err: err}
			}
			info, err := os.Stat(real)
			if err != nil {
				return &WriteError{Op: "stat", Path: path, Err: err}
			}
			if !info.IsDir() {
				return copyFile(real, target, info.Mode().Perm())
			}
			for _, dir := range walking {
				if isWithin(dir, real) {
					return &WriteError{Op: "follow", Path: path, Err: ErrSymlinkLoop}
				}
			}
			return copyTree(real, target, append(walking[:len(walking):len(walking)], real))
		}

		info, err := d.Info()
		if err != nil {
			return &WriteError{Op: "stat", Path: path, Err: err}
		}
		if info.IsDir() {
			if err := os.MkdirAll(target, info.Mode().Perm()|0o700); err != nil {
				return &WriteError{Op: "mkdir", Path: target, Err: err}
			}
			return nil
		}
		return copyFile(path, target, info.Mode().Perm())
	})
}

// isWithin reports whether path is dir or lies below it.
func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return &WriteError{Op: "open", Path: src, Err: err}
	}
	defer in.Close()

	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &WriteError{Op: "remove", Path: dst, Err: err}
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return &WriteError{Op: "create", Path: dst, Err: err}
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return &WriteError{Op: "write", Path: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		return &WriteError{Op: "close", Path: dst, Err: err}
	}
	return nil
}
