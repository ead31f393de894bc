// Package nemo is the recipe of the NEMO ocean modelling framework, built
// with its own makenemo tool from a generated FCM arch file.
package nemo

import (
	"fmt"

	"github.com/ukri-bench/varbuild/formula"
)

// Name of the recipe.
const Name = "nemo"

// BuildConfig is the name of the configuration makenemo builds.
const BuildConfig = "BLDCFG"

// ConfigGeneric redirects the build to the configuration named by the
// generic_config variant.
const ConfigGeneric = "GENERIC"

// Config is a representative NEMO source configuration and the optional
// components it can be built with.
type Config struct {
	Name   string
	Ice    bool
	Pisces bool
}

// Configs lists the configurations offered by the config variant.
var Configs = []Config{
	{Name: "ORCA2_ICE_PISCES", Ice: true, Pisces: true},
	{Name: "BENCH", Ice: true, Pisces: true},
	{Name: "GOSI10p0.0_like_eORCA1"},
	{Name: "GOSI10p0.0_like_eORCA025"},
	{Name: "GOSI10p0.0_like_eORCA12"},
	{Name: ConfigGeneric, Ice: true, Pisces: true},
}

func configNames() []string {
	names := make([]string, len(Configs))
	for i, c := range Configs {
		names[i] = c.Name
	}
	return names
}

// Schema returns the variants of the recipe.
func Schema() *formula.Schema {
	return formula.NewSchema(
		formula.Bool("mpi", true, "Enable MPI support"),
		formula.Bool("ice", false, "Enable the SI3 sea-ice component"),
		formula.Bool("pisces", false, "Enable the PISCES biogeochemistry component"),
		formula.Bool("xios", false, "Enable XIOS IO server support"),
		formula.Bool("openmp", false, "Apply OpenMP transforms to NEMO through PSyclone"),
		formula.Choice("config", "ORCA2_ICE_PISCES", configNames(), "Build the specified NEMO source configuration"),
		formula.String("generic_config", "none", "Source configuration used when config=GENERIC"),
	)
}

// Rules returns the constraints of the recipe. strictHost adds the
// conflicts that describe known breakage of host packages rather than of
// NEMO itself.
func Rules(strictHost bool) []formula.Rule {
	var rules []formula.Rule
	if strictHost {
		rules = append(rules,
			formula.Conflicts(formula.On("xios"), formula.Always,
				"the XIOS host package is currently broken and cannot be used"),
			formula.Conflicts(formula.On("openmp"), formula.Always,
				"the py-psyclone host package is currently broken, change if newer versions work"),
		)
	}
	rules = append(rules, formula.Requires(
		formula.Is("config", ConfigGeneric), formula.Not("generic_config", "none"),
		"generic_config should be set when using config=GENERIC"))

	for _, c := range Configs {
		if !c.Ice {
			rules = append(rules, formula.Conflicts(formula.On("ice"), formula.Is("config", c.Name),
				fmt.Sprintf("%s does not support SEA-ICE. Use config=GENERIC to circumvent this", c.Name)))
		}
		if !c.Pisces {
			rules = append(rules, formula.Conflicts(formula.On("pisces"), formula.Is("config", c.Name),
				fmt.Sprintf("%s does not support PISCES. Use config=GENERIC to circumvent this", c.Name)))
		}
	}
	return rules
}

// Deps returns the dependency declarations of the recipe. NEMO needs MPI
// even in serial builds.
func Deps() []formula.Dependency {
	const (
		build = formula.Build
		link  = formula.Link
		run   = formula.Run
	)
	return []formula.Dependency{
		{Name: "c", Types: build},
		{Name: "fortran", Types: build},
		{Name: "binutils", Types: build, NeedsPrefix: true},
		{Name: "gmake", Types: build, NeedsPrefix: true},
		{Name: "mpi", Types: build, NeedsPrefix: true},
		{Name: "hdf5", Variants: "+shared +fortran +mpi", Types: build, NeedsPrefix: true},
		{Name: "xios", Version: "2.5:", Types: build | link, When: formula.On("xios"), NeedsPrefix: true},
		{Name: "netcdf-c", Version: "4.9.0:", Variants: "+mpi +shared", Types: build | link, NeedsPrefix: true},
		{Name: "netcdf-fortran", Version: "4.6.1:", Variants: "+shared", Types: build, NeedsPrefix: true},
		{Name: "py-f90nml", Types: run},
		{Name: "py-psyclone", Types: build, When: formula.On("openmp"), NeedsPrefix: true},
	}
}

// Formula returns the declarative part of the recipe.
func Formula(strictHost bool) *formula.Formula {
	return &formula.Formula{
		Name:     Name,
		Summary:  "Nucleus for European Modelling of the Ocean",
		Homepage: "https://www.nemo-ocean.eu/",
		Versions: []string{"5.0"},
		Schema:   Schema(),
		Rules:    Rules(strictHost),
		Deps:     Deps(),
	}
}

// SourceConfig returns the configuration the build copies from: the config
// variant, or generic_config when config=GENERIC.
func SourceConfig(sel formula.Selection) string {
	if cfg := sel.Value("config"); cfg != ConfigGeneric {
		return cfg
	}
	return sel.Value("generic_config")
}
