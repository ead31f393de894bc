// Package benchdolfinx is the recipe of the DOLFINx finite element
// benchmark, a CMake project targeting CPUs, CUDA or ROCm devices.
package benchdolfinx

import (
	"github.com/ukri-bench/varbuild/formula"
	"github.com/ukri-bench/varbuild/pkgs/buildsys"
	"github.com/ukri-bench/varbuild/pkgs/buildsys/cmake"
)

// Name of the recipe.
const Name = "bench-dolfinx"

const buildType = "Release"

// Formula returns the declarative part of the recipe.
func Formula() *formula.Formula {
	return &formula.Formula{
		Name:     Name,
		Summary:  "A benchmark using DOLFINx",
		Homepage: "https://github.com/ukri-bench/ukri-bench",
		Versions: []string{"main"},
		Schema: formula.NewSchema(
			formula.Bool("cuda", false, "Build for NVIDIA GPUs"),
			formula.Bool("rocm", false, "Build for AMD GPUs"),
			formula.Bool("fp32", false, "Build for float32 scalar type"),
			formula.String("cuda_arch", "none", "CUDA architecture, e.g. 80"),
			formula.String("amdgpu_target", "none", "AMD GPU target, e.g. gfx90a"),
		),
		Rules: []formula.Rule{
			formula.Conflicts(formula.On("cuda"), formula.On("rocm"), "Cannot build for both ROCm and CUDA"),
			formula.Requires(formula.On("cuda"), formula.Not("cuda_arch", "none"), "cuda_arch must be set with +cuda"),
			formula.Requires(formula.On("rocm"), formula.Not("amdgpu_target", "none"), "amdgpu_target must be set with +rocm"),
		},
		Deps: []formula.Dependency{
			{Name: "c", Types: formula.Build},
			{Name: "cxx", Types: formula.Build},
			{Name: "fenics-dolfinx", Version: "main", Types: formula.Build | formula.Link, NeedsPrefix: true},
			{Name: "py-fenics-ffcx", Version: "main", Types: formula.Build},
			{Name: "py-fenics-ufl", Version: "main", Types: formula.Build},
			{Name: "boost", Variants: "+program_options", Types: formula.Build | formula.Link, NeedsPrefix: true},
			{Name: "mpi", Types: formula.Build | formula.Link, NeedsPrefix: true},
			{Name: "hip", Types: formula.Build | formula.Link, When: formula.On("rocm"), NeedsPrefix: true},
			{Name: "cuda", Types: formula.Build | formula.Link, When: formula.On("cuda"), NeedsPrefix: true},
			{Name: "jsoncpp", Types: formula.Build | formula.Link, NeedsPrefix: true},
			{Name: "rocm-core", Types: formula.Build | formula.Link, When: formula.On("rocm"), NeedsPrefix: true},
			{Name: "rocthrust", Types: formula.Build | formula.Link, When: formula.On("rocm"), NeedsPrefix: true},
		},
	}
}

// Defines returns the CMake cache entries derived from the selection.
func Defines(sel formula.Selection) map[string]string {
	defs := map[string]string{"SCALAR_TYPE": "float64"}
	if sel.Bool("fp32") {
		defs["SCALAR_TYPE"] = "float32"
	}
	if sel.Bool("rocm") {
		defs["HIP_ARCH"] = sel.Value("amdgpu_target")
	}
	if sel.Bool("cuda") {
		defs["CUDA_ARCH"] = sel.Value("cuda_arch")
	}
	return defs
}

// Synthesize records the CMake definitions in Config.Vars, exposes the
// located dependencies through CMAKE_PREFIX_PATH and renders the resulting
// cmake command line into Config.Args.
func Synthesize(bc *buildsys.Context) (*buildsys.Config, error) {
	cfg := &buildsys.Config{Vars: Defines(bc.Selection)}
	scoped := *bc
	scoped.Config = cfg
	c := newCMake(&scoped)
	for _, d := range bc.Deps {
		if d.NeedsPrefix {
			c.Use(d)
		}
	}
	cfg.Args = c.ConfigureArgs()
	return cfg, nil
}

func newCMake(bc *buildsys.Context) *cmake.CMake {
	c := cmake.New(bc).BuildType(buildType)
	for k, v := range bc.Config.Vars {
		c.Define(k, v)
	}
	return c
}

// Phases returns the build phases of the recipe.
func Phases() []buildsys.Phase {
	return buildsys.ToolPhases(func(bc *buildsys.Context) buildsys.BuildSystem {
		return newCMake(bc)
	})
}
