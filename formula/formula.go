package formula

import (
	"slices"
)

// -----------------------------------------------------------------------------

// Formula is the declarative part of a package recipe: what can be chosen,
// which choices are invalid, and what the choices pull in.
type Formula struct {
	Name     string
	Summary  string
	Homepage string
	Versions []string // newest first; Versions[0] is the default

	Schema *Schema
	Rules  []Rule
	Deps   []Dependency
}

// DefaultVersion returns the version built when none is requested.
func (f *Formula) DefaultVersion() string {
	if len(f.Versions) == 0 {
		return ""
	}
	return f.Versions[0]
}

// CheckVersion returns ver, or the default version if ver is empty, after
// verifying the formula knows it.
func (f *Formula) CheckVersion(ver string) (string, error) {
	if ver == "" {
		return f.DefaultVersion(), nil
	}
	if !slices.Contains(f.Versions, ver) {
		return "", &ResolutionError{Kind: "version", Name: f.Name + "@" + ver, Searched: f.Versions}
	}
	return ver, nil
}

// Select builds the selection for input and checks it against the formula's
// rules. No selection is returned unless every rule passes.
func (f *Formula) Select(input map[string]string) (Selection, error) {
	sel, err := f.Schema.Select(input)
	if err != nil {
		return Selection{}, err
	}
	if err := Check(sel, f.Rules); err != nil {
		return Selection{}, err
	}
	return sel, nil
}

// Resolve lists the dependencies sel activates.
func (f *Formula) Resolve(sel Selection) []Resolved {
	return Resolve(sel, f.Deps)
}

// Selections enumerates the schema matrix and returns the combinations that
// satisfy every rule, together with the total number of combinations tried.
func (f *Formula) Selections() (valid []Selection, total int) {
	m := f.Schema.Matrix()
	combos := m.Combinations()
	for _, combo := range combos {
		sel, err := f.Select(combo)
		if err != nil {
			continue
		}
		valid = append(valid, sel)
	}
	return valid, len(combos)
}

// -----------------------------------------------------------------------------
