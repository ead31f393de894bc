package internal

import (
	"fmt"
	"maps"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ukri-bench/varbuild/formula"
	"github.com/ukri-bench/varbuild/internal/build"
	"github.com/ukri-bench/varbuild/internal/output"
	"github.com/ukri-bench/varbuild/internal/recipes"
)

// request is a package request read from the command line, bound to its
// recipe and to the dependency locations known for it.
type request struct {
	formula.Request
	recipe    *recipes.Recipe
	locations map[string]formula.Location
}

// addWithFlag registers --with on cmd.
func addWithFlag(cmd *cobra.Command) {
	cmd.Flags().StringArray("with", nil, "dependency location as name=prefix[@version] (repeatable)")
}

// parseWith parses --with values. A value is name=prefix, optionally
// followed by @version; the last '@' separates the version.
func parseWith(vals []string) (map[string]formula.Location, error) {
	locs := make(map[string]formula.Location, len(vals))
	for _, val := range vals {
		name, loc, ok := strings.Cut(val, "=")
		if !ok || name == "" || loc == "" {
			return nil, fmt.Errorf("invalid --with %q: want name=prefix[@version]", val)
		}
		var l formula.Location
		if i := strings.LastIndexByte(loc, '@'); i >= 0 {
			l.Prefix, l.Version = loc[:i], loc[i+1:]
		} else {
			l.Prefix = loc
		}
		if l.Prefix == "" {
			return nil, fmt.Errorf("invalid --with %q: empty prefix", val)
		}
		locs[name] = l
	}
	return locs, nil
}

// loadRequest parses args as a package request. Locations from --with take
// precedence over the configured ones; a %compiler in the request takes
// precedence over the configured compiler.
func loadRequest(cmd *cobra.Command, args []string) (*request, error) {
	req, err := formula.ParseRequest(args)
	if err != nil {
		return nil, err
	}
	r, err := recipes.Lookup(req.Name, recipes.Options{StrictHostConflicts: cfg.StrictHostConflicts})
	if err != nil {
		return nil, err
	}
	if req.Compiler == "" {
		req.Compiler = cfg.Compiler
	}

	locs := make(map[string]formula.Location, len(cfg.Deps))
	maps.Copy(locs, cfg.Deps)
	if cmd.Flags().Lookup("with") != nil {
		vals, err := cmd.Flags().GetStringArray("with")
		if err != nil {
			return nil, err
		}
		with, err := parseWith(vals)
		if err != nil {
			return nil, err
		}
		maps.Copy(locs, with)
	}
	return &request{Request: req, recipe: r, locations: locs}, nil
}

func (r *request) buildRequest(sourceDir, prefix string) build.Request {
	return build.Request{
		Recipe:    r.recipe,
		Version:   r.Version,
		Values:    r.Values,
		Compiler:  r.Compiler,
		Locations: r.locations,
		SourceDir: sourceDir,
		Prefix:    prefix,
	}
}

func newBuilder() *build.Builder {
	return build.NewBuilder(cfg.StageRoot, cfg.Jobs, output.Logger)
}

// spell renders a concrete request as "name@version selection %compiler".
func spell(name, version string, sel formula.Selection, compiler string) string {
	s := output.Noun(name + "@" + version)
	if v := sel.String(); v != "" {
		s += " " + output.Selection(v)
	}
	return s + " %" + compiler
}
