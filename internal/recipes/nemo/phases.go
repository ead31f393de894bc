package nemo

import (
	"context"
	"path/filepath"

	"github.com/ukri-bench/varbuild/pkgs/buildsys"
	"github.com/ukri-bench/varbuild/pkgs/buildsys/makenemo"
	"github.com/ukri-bench/varbuild/pkgs/fsutil"
	"github.com/ukri-bench/varbuild/pkgs/wrapper"
)

// WrapperName is the launcher installed under <prefix>/bin.
const WrapperName = "nemo-wrapper"

func newMakeNemo(bc *buildsys.Context) *makenemo.MakeNemo {
	cfg := bc.Config
	return makenemo.New(bc, makenemo.Options{
		Jobs:      bc.Jobs,
		Arch:      makenemo.DefaultArch,
		Transform: cfg.Vars[VarTransform],
		Root:      cfg.Vars[VarRoot],
		Config:    cfg.Vars[VarSourceConfig],
		Name:      BuildConfig,
		Keys:      cfg.Keys,
	})
}

// Phases returns the build phases of the recipe.
func Phases() []buildsys.Phase {
	return buildsys.ToolPhases(func(bc *buildsys.Context) buildsys.BuildSystem {
		return &tool{bc: bc, MakeNemo: newMakeNemo(bc)}
	})
}

// tool extends makenemo with the recipe's own build and install steps.
type tool struct {
	*makenemo.MakeNemo
	bc *buildsys.Context
}

// Build runs makenemo and, with +xios, links the XIOS server into the run
// directory template.
func (t *tool) Build(ctx context.Context, args ...string) error {
	if err := t.MakeNemo.Build(ctx, args...); err != nil {
		return err
	}
	if !t.bc.Selection.Bool("xios") {
		return nil
	}
	return LinkXIOSServer(t.bc, t.ConfigDir())
}

// Install writes the runtime wrapper, then copies the configuration.
func (t *tool) Install(ctx context.Context, args ...string) error {
	path := filepath.Join(t.bc.Prefix, "bin", WrapperName)
	if err := wrapper.Write(path, WrapperSpec(t.bc.Prefix, t.bc.Selection)); err != nil {
		return err
	}
	return t.MakeNemo.Install(ctx, args...)
}

// LinkXIOSServer links the XIOS server executable into the EXP00 directory
// of the built configuration. An existing entry is left alone.
func LinkXIOSServer(bc *buildsys.Context, configDir string) error {
	target := filepath.Join(bc.PrefixOf("xios"), "bin", "xios_server.exe")
	link := filepath.Join(configDir, "EXP00", "xios_server.exe")
	created, err := fsutil.SymlinkIfMissing(target, link)
	if err != nil {
		return err
	}
	bc.Log().Debug("xios server link", "link", link, "created", created)
	return nil
}
