package formula

import (
	"fmt"
	"strings"
)

// DepType tells when a dependency is needed.
type DepType uint8

const (
	Build DepType = 1 << iota
	Link
	Run
)

func (t DepType) String() string {
	var parts []string
	if t&Build != 0 {
		parts = append(parts, "build")
	}
	if t&Link != 0 {
		parts = append(parts, "link")
	}
	if t&Run != 0 {
		parts = append(parts, "run")
	}
	return strings.Join(parts, ",")
}

// Dependency is an external package a formula may require.
type Dependency struct {
	Name     string
	Version  string // version constraint, e.g. "2.5:" or "main"; empty means any
	Variants string // variant constraint passed through to the host, e.g. "+shared +mpi"
	Types    DepType
	When     Cond

	// NeedsPrefix marks dependencies whose install prefix the formula reads
	// while synthesizing its configuration.
	NeedsPrefix bool
}

// Resolved is an active dependency of a concrete selection.
type Resolved struct {
	Name        string
	Constraint  string
	Variants    string
	Types       DepType
	NeedsPrefix bool
}

func (r Resolved) String() string {
	s := r.Name
	if r.Constraint != "" {
		s += "@" + r.Constraint
	}
	if r.Variants != "" {
		s += " " + r.Variants
	}
	return s
}

// Resolve lists the dependencies active under sel, in declaration order.
// Inactive dependencies are omitted.
func Resolve(sel Selection, deps []Dependency) []Resolved {
	var ret []Resolved
	for _, d := range deps {
		if !d.When.Holds(sel) {
			continue
		}
		ret = append(ret, Resolved{
			Name:        d.Name,
			Constraint:  d.Version,
			Variants:    d.Variants,
			Types:       d.Types,
			NeedsPrefix: d.NeedsPrefix,
		})
	}
	return ret
}

// -----------------------------------------------------------------------------

// Location is where the host installed a dependency.
type Location struct {
	Prefix  string `mapstructure:"prefix" yaml:"prefix" toml:"prefix"`
	Version string `mapstructure:"version" yaml:"version,omitempty" toml:"version,omitempty"`
}

// Located pairs a resolved dependency with its location. Location is zero
// for dependencies the formula never reads a prefix from.
type Located struct {
	Resolved
	Location
}

// Locate attaches locations to resolved dependencies. Every dependency that
// needs a prefix but has none, or whose known version falls outside its
// constraint, is reported in a single *DependencyResolutionError.
func Locate(resolved []Resolved, locs map[string]Location) ([]Located, error) {
	var (
		ret []Located
		e   DependencyResolutionError
	)
	for _, r := range resolved {
		loc, ok := locs[r.Name]
		if r.NeedsPrefix && (!ok || loc.Prefix == "") {
			e.Missing = append(e.Missing, r.Name)
			continue
		}
		if loc.Version != "" && r.Constraint != "" {
			match, err := VersionMatch(loc.Version, r.Constraint)
			if err == nil && !match {
				e.Unsatisfied = append(e.Unsatisfied, fmt.Sprintf("%s@%s does not satisfy %s", r.Name, loc.Version, r.Constraint))
				continue
			}
		}
		ret = append(ret, Located{Resolved: r, Location: loc})
	}
	if len(e.Missing) > 0 || len(e.Unsatisfied) > 0 {
		return nil, &e
	}
	return ret, nil
}

// DependencyResolutionError reports dependencies the host did not provide.
type DependencyResolutionError struct {
	Missing     []string
	Unsatisfied []string
}

func (e *DependencyResolutionError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "no location for "+strings.Join(e.Missing, ", "))
	}
	parts = append(parts, e.Unsatisfied...)
	return "unresolved dependencies: " + strings.Join(parts, "; ")
}

// -----------------------------------------------------------------------------

// ResolutionError reports a named configuration, profile or compiler family
// that could not be found.
type ResolutionError struct {
	Kind     string
	Name     string
	Searched []string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot find %s %q (searched: %s)", e.Kind, e.Name, strings.Join(e.Searched, ", "))
}
