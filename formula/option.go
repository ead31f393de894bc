package formula

import (
	"fmt"
	"slices"
)

// -----------------------------------------------------------------------------

// Kind is the kind of value a variant accepts.
type Kind int

const (
	// KindBool is a two-state variant, spelled +name / ~name.
	KindBool Kind = iota
	// KindChoice accepts one value out of a closed set.
	KindChoice
	// KindString accepts any non-empty value.
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindChoice:
		return "choice"
	case KindString:
		return "string"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

const (
	valTrue  = "true"
	valFalse = "false"
)

// OptionSpec declares a variant of a formula.
type OptionSpec struct {
	Name        string
	Kind        Kind
	Allowed     []string
	Default     string
	Description string
}

// Bool declares a boolean variant.
func Bool(name string, def bool, desc string) OptionSpec {
	return OptionSpec{
		Name:        name,
		Kind:        KindBool,
		Allowed:     []string{valFalse, valTrue},
		Default:     boolValue(def),
		Description: desc,
	}
}

// Choice declares a variant whose value is one of allowed.
func Choice(name, def string, allowed []string, desc string) OptionSpec {
	return OptionSpec{
		Name:        name,
		Kind:        KindChoice,
		Allowed:     slices.Clone(allowed),
		Default:     def,
		Description: desc,
	}
}

// String declares a free-form variant.
func String(name, def, desc string) OptionSpec {
	return OptionSpec{Name: name, Kind: KindString, Default: def, Description: desc}
}

// Accepts reports whether value is a legal value for the option.
func (o OptionSpec) Accepts(value string) bool {
	if o.Kind == KindString {
		return value != ""
	}
	return slices.Contains(o.Allowed, value)
}

func boolValue(b bool) string {
	if b {
		return valTrue
	}
	return valFalse
}

// -----------------------------------------------------------------------------

// Schema is the ordered set of variants a formula declares.
type Schema struct {
	options []OptionSpec
	index   map[string]int
}

// NewSchema builds a schema. It panics on a duplicate name or on a default
// that the option itself rejects: both are programming errors in a formula.
func NewSchema(opts ...OptionSpec) *Schema {
	s := &Schema{index: make(map[string]int, len(opts))}
	for _, o := range opts {
		if _, dup := s.index[o.Name]; dup {
			panic(fmt.Sprintf("formula: duplicate option %q", o.Name))
		}
		if !o.Accepts(o.Default) {
			panic(fmt.Sprintf("formula: option %q: default %q not allowed", o.Name, o.Default))
		}
		s.index[o.Name] = len(s.options)
		s.options = append(s.options, o)
	}
	return s
}

// Options returns the declared options in declaration order.
func (s *Schema) Options() []OptionSpec {
	return slices.Clone(s.options)
}

// Lookup returns the option named name.
func (s *Schema) Lookup(name string) (OptionSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return OptionSpec{}, false
	}
	return s.options[i], true
}

// Defaults returns the selection made of every option's default.
func (s *Schema) Defaults() Selection {
	sel, _ := s.Select(nil)
	return sel
}

// Select merges input over the defaults. Unknown names and values outside
// an option's allowed set are all reported in one *ConstraintViolation.
func (s *Schema) Select(input map[string]string) (Selection, error) {
	values := make(map[string]string, len(s.options))
	for _, o := range s.options {
		values[o.Name] = o.Default
	}

	var bad []string
	for _, name := range sortedKeys(input) {
		v := input[name]
		o, ok := s.Lookup(name)
		if !ok {
			bad = append(bad, fmt.Sprintf("unknown variant %q", name))
			continue
		}
		if o.Kind == KindBool {
			if b, ok := parseBool(v); ok {
				v = boolValue(b)
			}
		}
		if !o.Accepts(v) {
			if o.Kind == KindString {
				bad = append(bad, fmt.Sprintf("variant %q needs a value", name))
			} else {
				bad = append(bad, fmt.Sprintf("invalid value %q for variant %q (allowed: %v)", v, name, o.Allowed))
			}
			continue
		}
		values[name] = v
	}
	if len(bad) > 0 {
		return Selection{}, newViolation("select", bad)
	}
	return Selection{schema: s, values: values}, nil
}

func parseBool(v string) (bool, bool) {
	switch v {
	case "true", "on", "yes", "1":
		return true, true
	case "false", "off", "no", "0":
		return false, true
	}
	return false, false
}
