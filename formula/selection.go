package formula

import (
	"maps"
	"sort"
	"strings"
)

// Selection is a complete, validated assignment of values to a schema's
// variants. The zero value is an empty selection. Selections are read-only.
type Selection struct {
	schema *Schema
	values map[string]string
}

// Value returns the chosen value of the named variant, or "" if the variant
// is not declared.
func (s Selection) Value(name string) string {
	return s.values[name]
}

// Bool reports whether the named boolean variant is enabled.
func (s Selection) Bool(name string) bool {
	return s.values[name] == valTrue
}

// Has reports whether the selection declares the named variant.
func (s Selection) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Map returns a copy of the underlying name to value mapping.
func (s Selection) Map() map[string]string {
	return maps.Clone(s.values)
}

// Schema returns the schema the selection was built from.
func (s Selection) Schema() *Schema {
	return s.schema
}

// String renders the selection in canonical spec form, sorted by name:
// booleans as +name / ~name and everything else as name=value.
func (s Selection) String() string {
	var b strings.Builder
	for i, name := range sortedKeys(s.values) {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(spell(s.kindOf(name), name, s.values[name]))
	}
	return b.String()
}

func (s Selection) kindOf(name string) Kind {
	if s.schema == nil {
		return KindString
	}
	o, _ := s.schema.Lookup(name)
	return o.Kind
}

func spell(kind Kind, name, value string) string {
	if kind == KindBool {
		if value == valTrue {
			return "+" + name
		}
		return "~" + name
	}
	return name + "=" + value
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
