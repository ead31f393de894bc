// Package build prepares and runs build attempts of recipes: it validates
// a request, stages the attempt in a private locked directory, runs the
// recipe's phases and records the installation manifest.
package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ukri-bench/varbuild/formula"
	"github.com/ukri-bench/varbuild/internal/recipes"
	"github.com/ukri-bench/varbuild/pkgs/buildsys"
	"github.com/ukri-bench/varbuild/pkgs/compiler"
)

// DefaultCompiler is the compiler family used when a request names none.
const DefaultCompiler = "gcc"

// Request is one build attempt to prepare.
type Request struct {
	Recipe    *recipes.Recipe
	Version   string
	Values    map[string]string
	Compiler  string
	Locations map[string]formula.Location

	SourceDir string // NEMO or CMake source tree; optional for dry runs
	Prefix    string // install prefix; required by Build
}

// Builder stages and runs build attempts.
type Builder struct {
	StageRoot string
	Jobs      int
	Logger    *log.Logger
	Stdout    io.Writer
	Stderr    io.Writer

	now func() time.Time
}

// NewBuilder creates a builder staging attempts under stageRoot.
func NewBuilder(stageRoot string, jobs int, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Builder{StageRoot: stageRoot, Jobs: jobs, Logger: logger, now: time.Now}
}

// StageBusyError reports a staging directory, or the source tree of an
// in-place build, locked by another attempt.
type StageBusyError struct {
	Dir string
}

func (e *StageBusyError) Error() string {
	return fmt.Sprintf("%s is in use by another build", e.Dir)
}

// StageName returns the staging directory name of an attempt:
// <pkg>@<version>-<hash of selection and compiler>.
func StageName(pkg, version string, sel formula.Selection, compilerFamily string) string {
	sum := sha256.Sum256([]byte(sel.String() + " %" + compilerFamily))
	return fmt.Sprintf("%s@%s-%s", pkg, version, hex.EncodeToString(sum[:])[:12])
}

// Lock files: one in every staging directory, and one at the root of the
// source tree of recipes that build in place.
const (
	stageLockName  = ".lock"
	sourceLockName = ".varbuild.lock"
)

func lockStage(dir string) (unlock func(), err error) {
	return lockDir(dir, stageLockName)
}

// Prepare validates req and synthesizes its build configuration. It has no
// side effects: every constraint, dependency and compiler problem is
// reported before anything is written.
func (b *Builder) Prepare(req Request) (*buildsys.Context, error) {
	r := req.Recipe
	if r == nil {
		return nil, errors.New("build: no recipe")
	}
	version, err := r.CheckVersion(req.Version)
	if err != nil {
		return nil, err
	}
	sel, err := r.Select(req.Values)
	if err != nil {
		return nil, err
	}
	family := req.Compiler
	if family == "" {
		family = DefaultCompiler
	}
	prof, err := compiler.Lookup(family)
	if err != nil {
		return nil, err
	}
	deps, err := formula.Locate(r.Resolve(sel), req.Locations)
	if err != nil {
		return nil, err
	}

	var proj *formula.Project
	if req.SourceDir != "" {
		dir, err := filepath.Abs(req.SourceDir)
		if err != nil {
			return nil, err
		}
		fi, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("source directory: %w", err)
		}
		if !fi.IsDir() {
			return nil, fmt.Errorf("source directory %s is not a directory", dir)
		}
		proj = &formula.Project{Dir: dir, DirFS: os.DirFS(dir)}
	}

	bc := &buildsys.Context{
		Formula:   r.Formula,
		Version:   version,
		Selection: sel,
		Compiler:  prof,
		Deps:      deps,
		Project:   proj,
		StageDir:  filepath.Join(b.StageRoot, StageName(r.Name, version, sel, prof.Family)),
		Prefix:    req.Prefix,
		Jobs:      b.Jobs,
		Logger:    b.Logger,
		Stdout:    b.Stdout,
		Stderr:    b.Stderr,
	}
	cfg, err := r.Synthesize(bc)
	if err != nil {
		return nil, err
	}
	bc.Config = cfg
	return bc, nil
}

// Build prepares req, runs the recipe's phases in the attempt's staging
// directory and writes the installation manifest. Only one attempt may use
// a staging directory at a time, and only one attempt of an in-place recipe
// may use a source tree at a time; a concurrent attempt fails with
// *StageBusyError.
func (b *Builder) Build(ctx context.Context, req Request) (*Manifest, error) {
	if req.SourceDir == "" {
		return nil, errors.New("build: no source directory")
	}
	if req.Prefix == "" {
		return nil, errors.New("build: no install prefix")
	}
	prefix, err := filepath.Abs(req.Prefix)
	if err != nil {
		return nil, err
	}
	req.Prefix = prefix
	bc, err := b.Prepare(req)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(bc.StageDir, 0o755); err != nil {
		return nil, err
	}
	unlock, err := lockStage(bc.StageDir)
	if err != nil {
		return nil, err
	}
	defer unlock()
	if req.Recipe.InTree {
		unlockSource, err := lockDir(bc.SourceDir(), sourceLockName)
		if err != nil {
			return nil, err
		}
		defer unlockSource()
	}

	logger := bc.Log()
	logger.Info("building", "package", bc.Formula.Name, "version", bc.Version, "variants", bc.Selection.String(), "stage", bc.StageDir)
	if err := buildsys.Run(ctx, bc, req.Recipe.Phases()...); err != nil {
		return nil, err
	}

	now := time.Now
	if b.now != nil {
		now = b.now
	}
	m := newManifest(bc, now())
	if err := writeManifest(bc.Prefix, m); err != nil {
		return nil, err
	}
	logger.Info("installed", "package", bc.Formula.Name, "prefix", bc.Prefix)
	return m, nil
}
