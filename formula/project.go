package formula

import (
	"io"
	"io/fs"
	"path"
)

// -----------------------------------------------------------------------------

// Project represents the source tree of a package being built.
type Project struct {
	Dir   string // absolute source directory; may be empty for in-memory trees
	DirFS fs.FS
}

// ReadFile reads the content of a file in the project.
func (p *Project) ReadFile(name string) ([]byte, error) {
	file, err := p.DirFS.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// FindDir returns the first of root/name, for each root in order, that is a
// directory of the project. kind names what is looked up in the returned
// *ResolutionError.
func (p *Project) FindDir(kind, name string, roots ...string) (string, error) {
	searched := make([]string, 0, len(roots))
	for _, root := range roots {
		rel := path.Join(root, name)
		searched = append(searched, rel)
		if fi, err := fs.Stat(p.DirFS, rel); err == nil && fi.IsDir() {
			return rel, nil
		}
	}
	return "", &ResolutionError{Kind: kind, Name: name, Searched: searched}
}

// -----------------------------------------------------------------------------
