// Package makenemo drives NEMO's makenemo script: it writes the FCM arch
// file, assembles the makenemo command line and installs the built
// configuration.
package makenemo

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"

	"github.com/ukri-bench/varbuild/pkgs/buildsys"
	"github.com/ukri-bench/varbuild/pkgs/fcm"
	"github.com/ukri-bench/varbuild/pkgs/fsutil"
)

// Configuration roots of a NEMO source tree.
const (
	RootReference = "cfgs"  // reference configurations, built with -r
	RootTest      = "tests" // test cases, built with -a
)

// DefaultArch is the arch name written by Configure: arch/arch-<name>.fcm.
const DefaultArch = "fort"

// Options are the makenemo parameters of one build.
type Options struct {
	Jobs      int
	Arch      string
	Transform string // PSyclone transformation script; empty disables it
	Root      string // RootReference or RootTest
	Config    string // source configuration to copy from
	Name      string // name of the configuration being built
	Keys      fcm.KeySet
}

// Args assembles the makenemo command line. The key lists are included only
// when non-empty.
func Args(o Options) []string {
	arch := o.Arch
	if arch == "" {
		arch = DefaultArch
	}
	jobs := o.Jobs
	if jobs <= 0 {
		jobs = 1
	}
	params := []string{"-j", strconv.Itoa(jobs), "-m", arch}
	if o.Transform != "" {
		params = append(params, "-p", o.Transform)
	}
	if o.Root == RootTest {
		params = append(params, "-a")
	} else {
		params = append(params, "-r")
	}
	params = append(params, o.Config, "-n", o.Name)
	if len(o.Keys.Del) > 0 {
		params = append(params, "del_key", o.Keys.DelList())
	}
	if len(o.Keys.Add) > 0 {
		params = append(params, "add_key", o.Keys.AddList())
	}
	return params
}

// ArchPath returns the arch file location for arch, relative to the source
// directory.
func ArchPath(arch string) string {
	if arch == "" {
		arch = DefaultArch
	}
	return filepath.Join("arch", "arch-"+arch+".fcm")
}

// MakeNemo runs makenemo for the build described by a buildsys.Context.
type MakeNemo struct {
	bc         *buildsys.Context
	SourceDir  string
	installDir string
	opts       Options
}

var _ buildsys.BuildSystem = (*MakeNemo)(nil)

// New creates a makenemo helper.
func New(bc *buildsys.Context, opts Options) *MakeNemo {
	if bc.Config == nil {
		bc.Config = &buildsys.Config{}
	}
	if opts.Jobs == 0 {
		opts.Jobs = bc.Jobs
	}
	return &MakeNemo{
		bc:         bc,
		SourceDir:  bc.SourceDir(),
		installDir: bc.Prefix,
		opts:       opts,
	}
}

// Configure writes the arch file of the build configuration.
func (m *MakeNemo) Configure(ctx context.Context, args ...string) error {
	cfg := m.bc.Config
	if cfg.Arch == nil {
		return errors.New("makenemo: no arch file synthesized")
	}
	target := cfg.Target
	if target == "" {
		target = ArchPath(m.opts.Arch)
	}
	path := filepath.Join(m.SourceDir, target)
	m.bc.Log().Debug("writing arch file", "path", path)
	return fsutil.WriteFileAtomic(path, cfg.Arch.Render(), 0o644)
}

// Build runs ./makenemo from the source directory.
func (m *MakeNemo) Build(ctx context.Context, args ...string) error {
	params := append(Args(m.opts), args...)
	return m.bc.Exec(ctx, m.SourceDir, "./makenemo", params...)
}

// Install copies the built configuration into the install directory,
// replacing symbolic links with the files they point to.
func (m *MakeNemo) Install(ctx context.Context, args ...string) error {
	return fsutil.CopyTree(m.ConfigDir(), m.installDir)
}

// ConfigDir returns the directory makenemo builds the configuration in.
func (m *MakeNemo) ConfigDir() string {
	root := m.opts.Root
	if root == "" {
		root = RootReference
	}
	return filepath.Join(m.SourceDir, root, m.opts.Name)
}
