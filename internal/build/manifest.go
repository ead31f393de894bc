package build

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/ukri-bench/varbuild/pkgs/buildsys"
	"github.com/ukri-bench/varbuild/pkgs/fsutil"
)

// Install prefix layout:
//
//	<prefix>/
//	  .varbuild/
//	    install.toml      # what was built and how
//	  ...                 # files installed by the recipe
const (
	manifestDir  = ".varbuild"
	manifestFile = "install.toml"
)

// Manifest records how an installation was produced.
type Manifest struct {
	Package      string        `toml:"package"`
	Version      string        `toml:"version"`
	Selection    string        `toml:"selection"`
	Compiler     string        `toml:"compiler"`
	BuildTime    time.Time     `toml:"build_time"`
	Keys         ManifestKeys  `toml:"keys"`
	Dependencies []ManifestDep `toml:"dependencies"`
}

// ManifestKeys are the CPP keys passed to the native build tool.
type ManifestKeys struct {
	Add []string `toml:"add,omitempty"`
	Del []string `toml:"del,omitempty"`
}

// ManifestDep is one dependency the build was resolved against.
type ManifestDep struct {
	Name    string `toml:"name"`
	Types   string `toml:"types"`
	Prefix  string `toml:"prefix,omitempty"`
	Version string `toml:"version,omitempty"`
}

func newManifest(bc *buildsys.Context, now time.Time) *Manifest {
	m := &Manifest{
		Package:   bc.Formula.Name,
		Version:   bc.Version,
		Selection: bc.Selection.String(),
		Compiler:  bc.Compiler.Family,
		BuildTime: now.UTC().Truncate(time.Second),
	}
	if bc.Config != nil {
		m.Keys = ManifestKeys{Add: bc.Config.Keys.Add, Del: bc.Config.Keys.Del}
	}
	for _, d := range bc.Deps {
		m.Dependencies = append(m.Dependencies, ManifestDep{
			Name:    d.Name,
			Types:   d.Types.String(),
			Prefix:  d.Prefix,
			Version: d.Version,
		})
	}
	return m
}

// ManifestPath returns where the manifest of prefix is stored.
func ManifestPath(prefix string) string {
	return filepath.Join(prefix, manifestDir, manifestFile)
}

// ReadManifest loads the manifest of the installation at prefix.
func ReadManifest(prefix string) (*Manifest, error) {
	data, err := os.ReadFile(ManifestPath(prefix))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func writeManifest(prefix string, m *Manifest) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(ManifestPath(prefix), data, 0o644)
}
