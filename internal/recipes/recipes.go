// Package recipes is the registry of built-in package recipes.
package recipes

import (
	"sort"

	"github.com/ukri-bench/varbuild/formula"
	"github.com/ukri-bench/varbuild/internal/recipes/benchdolfinx"
	"github.com/ukri-bench/varbuild/internal/recipes/nemo"
	"github.com/ukri-bench/varbuild/pkgs/buildsys"
	"github.com/ukri-bench/varbuild/pkgs/wrapper"
)

// Options tune how recipes are instantiated.
type Options struct {
	// StrictHostConflicts installs conflicts that describe breakage of
	// host packages rather than of the recipe itself.
	StrictHostConflicts bool
}

// Recipe is a formula together with the code that builds it.
type Recipe struct {
	*formula.Formula

	// Synthesize derives the build configuration of a prepared context.
	Synthesize func(bc *buildsys.Context) (*buildsys.Config, error)

	// Phases lists the build phases, run in order.
	Phases func() []buildsys.Phase

	// Wrapper describes the runtime launcher installed with the package.
	// Nil for recipes without one.
	Wrapper func(prefix string, sel formula.Selection) wrapper.Spec

	// InTree is set for recipes whose native tool writes into the source
	// tree. Attempts of such recipes lock the source tree as well as their
	// staging directory.
	InTree bool
}

var registry = map[string]func(Options) *Recipe{
	nemo.Name: func(opts Options) *Recipe {
		return &Recipe{
			Formula:    nemo.Formula(opts.StrictHostConflicts),
			Synthesize: nemo.Synthesize,
			Phases:     nemo.Phases,
			Wrapper:    nemo.WrapperSpec,
			InTree:     true,
		}
	},
	benchdolfinx.Name: func(Options) *Recipe {
		return &Recipe{
			Formula:    benchdolfinx.Formula(),
			Synthesize: benchdolfinx.Synthesize,
			Phases:     benchdolfinx.Phases,
		}
	},
}

// Lookup returns the recipe named name.
func Lookup(name string, opts Options) (*Recipe, error) {
	newRecipe, ok := registry[name]
	if !ok {
		return nil, &formula.ResolutionError{Kind: "package", Name: name, Searched: Names()}
	}
	return newRecipe(opts), nil
}

// Names returns the names of the built-in recipes, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
