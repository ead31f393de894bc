package buildsys

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/ukri-bench/varbuild/formula"
	"github.com/ukri-bench/varbuild/pkgs/compiler"
	"github.com/ukri-bench/varbuild/pkgs/fcm"
)

// BuildSystem is the lifecycle of a native build tool helper (CMake,
// makenemo). Helpers read the synthesized configuration and never change it.
type BuildSystem interface {
	Configure(ctx context.Context, args ...string) error
	Build(ctx context.Context, args ...string) error
	Install(ctx context.Context, args ...string) error
}

// Standard phase names.
const (
	Configure = "configure"
	Build     = "build"
	Install   = "install"
)

// Config is the synthesized configuration of one build. It is produced once
// by a formula's synthesizer and read by the phases that follow.
type Config struct {
	Arch   *fcm.Arch  // nil for tools configured through arguments
	Target string     // file Arch is written to, relative to the source dir
	Keys   fcm.KeySet // CPP keys to add and delete
	Args   []string   // configure arguments derived from the selection

	Env     map[string]string // variables set for every tool invocation
	Prepend map[string]string // path-list variables prefixed for every tool invocation

	Vars map[string]string // recipe values consumed by later phases
}

// Context is threaded through every phase of one build attempt.
type Context struct {
	Formula   *formula.Formula
	Version   string
	Selection formula.Selection
	Compiler  compiler.Profile
	Deps      []formula.Located

	Project  *formula.Project
	StageDir string // private scratch space of this attempt
	Prefix   string // install prefix
	Jobs     int

	Config *Config

	Logger *log.Logger
	Stdout io.Writer // tool output is copied here when set
	Stderr io.Writer
}

// Dep returns the located dependency named name.
func (c *Context) Dep(name string) (formula.Located, bool) {
	for _, d := range c.Deps {
		if d.Name == name {
			return d, true
		}
	}
	return formula.Located{}, false
}

// PrefixOf returns the install prefix of dependency name, or "" if it is not
// part of this build.
func (c *Context) PrefixOf(name string) string {
	d, _ := c.Dep(name)
	return d.Prefix
}

// SourceDir returns the project directory.
func (c *Context) SourceDir() string {
	if c.Project == nil {
		return ""
	}
	return c.Project.Dir
}

// Log returns the build logger, discarding output when none is set.
func (c *Context) Log() *log.Logger {
	if c.Logger == nil {
		c.Logger = log.New(io.Discard)
	}
	return c.Logger
}

// Phase is one step of a build.
type Phase struct {
	Name string
	Run  func(ctx context.Context, bc *Context) error
}

// ToolPhases returns the configure, build and install phases of the helper
// newTool creates for each phase.
func ToolPhases(newTool func(bc *Context) BuildSystem) []Phase {
	return []Phase{
		{Name: Configure, Run: func(ctx context.Context, bc *Context) error {
			return newTool(bc).Configure(ctx)
		}},
		{Name: Build, Run: func(ctx context.Context, bc *Context) error {
			return newTool(bc).Build(ctx)
		}},
		{Name: Install, Run: func(ctx context.Context, bc *Context) error {
			return newTool(bc).Install(ctx)
		}},
	}
}

// PhaseError reports the phase a build stopped in.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// Run executes phases strictly in order. The first failure aborts the
// remaining phases.
func Run(ctx context.Context, bc *Context, phases ...Phase) error {
	logger := bc.Log()
	for _, p := range phases {
		if err := ctx.Err(); err != nil {
			return &PhaseError{Phase: p.Name, Err: err}
		}
		logger.Info("running phase", "phase", p.Name, "package", bc.formulaName())
		if err := p.Run(ctx, bc); err != nil {
			return &PhaseError{Phase: p.Name, Err: err}
		}
	}
	return nil
}

func (c *Context) formulaName() string {
	if c.Formula == nil {
		return ""
	}
	return c.Formula.Name
}
