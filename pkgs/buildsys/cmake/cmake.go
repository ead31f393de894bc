package cmake

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/ukri-bench/varbuild/formula"
	"github.com/ukri-bench/varbuild/pkgs/buildsys"
)

type defineValue struct {
	value    string
	typeName string
}

// CMake wraps common CMake build steps with chainable configuration.
type CMake struct {
	bc         *buildsys.Context
	SourceDir  string
	buildDir   string
	installDir string
	buildType  string
	Defines    map[string]defineValue
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New creates a CMake helper for the build described by bc. The build tree
// lives in the attempt's stage directory.
func New(bc *buildsys.Context) *CMake {
	if bc.Config == nil {
		bc.Config = &buildsys.Config{}
	}
	buildDir := filepath.Join(bc.StageDir, "cmake-build")
	if bc.StageDir == "" {
		buildDir = filepath.Join(bc.SourceDir(), "build")
	}
	return &CMake{
		bc:         bc,
		SourceDir:  bc.SourceDir(),
		buildDir:   buildDir,
		installDir: bc.Prefix,
		Defines:    map[string]defineValue{},
	}
}

func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

func (c *CMake) Define(key, value string) *CMake {
	c.Defines[key] = defineValue{value: value, typeName: "STRING"}
	return c
}

// Use makes dep's install prefix visible to find_package. It is meant for
// synthesis, while the configuration is still being built.
func (c *CMake) Use(dep formula.Located) {
	if dep.Prefix == "" {
		return
	}
	cfg := c.bc.Config
	if cfg.Prepend == nil {
		cfg.Prepend = map[string]string{}
	}
	sep := string(filepath.ListSeparator)
	if cur := cfg.Prepend["CMAKE_PREFIX_PATH"]; cur != "" {
		cfg.Prepend["CMAKE_PREFIX_PATH"] = cur + sep + dep.Prefix
		return
	}
	cfg.Prepend["CMAKE_PREFIX_PATH"] = dep.Prefix
}

// ConfigureArgs returns the arguments Configure passes to cmake.
func (c *CMake) ConfigureArgs(args ...string) []string {
	cmakeArgs := []string{"-S", c.SourceDir, "-B", c.buildDir}
	if c.installDir != "" {
		c.Define("CMAKE_INSTALL_PREFIX", c.installDir)
	}
	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	return append(cmakeArgs, args...)
}

func (c *CMake) Configure(ctx context.Context, args ...string) error {
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return err
	}
	return c.bc.Exec(ctx, c.SourceDir, "cmake", c.ConfigureArgs(args...)...)
}

func (c *CMake) Build(ctx context.Context, args ...string) error {
	cmdArgs := []string{"--build", c.buildDir}
	if c.bc.Jobs > 0 {
		cmdArgs = append(cmdArgs, "--parallel", strconv.Itoa(c.bc.Jobs))
	}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "--config", c.buildType)
	}
	cmdArgs = append(cmdArgs, args...)
	return c.bc.Exec(ctx, c.SourceDir, "cmake", cmdArgs...)
}

func (c *CMake) Install(ctx context.Context, args ...string) error {
	cmdArgs := []string{"--install", c.buildDir}
	if c.installDir != "" {
		cmdArgs = append(cmdArgs, "--prefix", c.installDir)
	}
	cmdArgs = append(cmdArgs, args...)
	return c.bc.Exec(ctx, c.SourceDir, "cmake", cmdArgs...)
}

func (c *CMake) definesArgs() []string {
	if len(c.Defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.Defines))
	for k := range c.Defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := c.Defines[k]
		if def.typeName != "" {
			args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
			continue
		}
		args = append(args, "-D"+k+"="+def.value)
	}
	return args
}
