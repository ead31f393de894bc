package formula

import "strings"

// Matrix lists, per variant, the values worth enumerating.
type Matrix struct {
	Options map[string][]string
}

// Matrix returns the enumeration matrix of the schema. Boolean and choice
// variants contribute every allowed value; free-form variants contribute
// only their default.
func (s *Schema) Matrix() Matrix {
	m := Matrix{Options: make(map[string][]string, len(s.options))}
	for _, o := range s.options {
		if o.Kind == KindString {
			m.Options[o.Name] = []string{o.Default}
			continue
		}
		m.Options[o.Name] = append([]string(nil), o.Allowed...)
	}
	return m
}

// Combinations returns all cartesian product combinations of the matrix.
// Keys are sorted alphabetically and combinations are built layer by layer,
// so the first key varies slowest.
func (m *Matrix) Combinations() []map[string]string {
	if len(m.Options) == 0 {
		return nil
	}
	keys := sortedKeys(m.Options)

	result := []map[string]string{{}}
	for _, k := range keys {
		values := m.Options[k]
		next := make([]map[string]string, 0, len(result)*len(values))
		for _, prev := range result {
			for _, v := range values {
				combo := make(map[string]string, len(prev)+1)
				for pk, pv := range prev {
					combo[pk] = pv
				}
				combo[k] = v
				next = append(next, combo)
			}
		}
		result = next
	}
	return result
}

// CombinationCount returns the total number of cartesian product combinations.
func (m *Matrix) CombinationCount() int {
	if len(m.Options) == 0 {
		return 0
	}
	count := 1
	for _, v := range m.Options {
		count *= len(v)
	}
	return count
}

// Key renders a combination as its values joined by "-" in key order.
func Key(combo map[string]string) string {
	keys := sortedKeys(combo)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = combo[k]
	}
	return strings.Join(parts, "-")
}
