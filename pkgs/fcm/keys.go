package fcm

import (
	"strings"

	"github.com/ukri-bench/varbuild/formula"
)

// Action is what a rule does to a key.
type Action int

const (
	Add Action = iota
	Del
)

func (a Action) String() string {
	if a == Del {
		return "del"
	}
	return "add"
}

// Op schedules a key for addition or deletion.
type Op struct {
	Key    string
	Action Action
}

// KeySet is the outcome of a sequence of Ops. A key never appears in both
// lists.
type KeySet struct {
	Add []string
	Del []string
}

// Reduce folds ops into a KeySet. The last Op of a key wins; keys keep the
// position of their first appearance.
func Reduce(ops []Op) KeySet {
	var order []string
	last := make(map[string]Action)
	for _, op := range ops {
		if _, seen := last[op.Key]; !seen {
			order = append(order, op.Key)
		}
		last[op.Key] = op.Action
	}
	var ks KeySet
	for _, k := range order {
		if last[k] == Del {
			ks.Del = append(ks.Del, k)
		} else {
			ks.Add = append(ks.Add, k)
		}
	}
	return ks
}

// AddList returns the keys to add joined by spaces.
func (ks KeySet) AddList() string { return strings.Join(ks.Add, " ") }

// DelList returns the keys to delete joined by spaces.
func (ks KeySet) DelList() string { return strings.Join(ks.Del, " ") }

// -----------------------------------------------------------------------------

// Facts is what key rules are evaluated against.
type Facts struct {
	Selection formula.Selection
	Versions  map[string]string // package name -> version
}

// Predicate is a condition over Facts.
type Predicate func(f Facts) bool

// On holds when the boolean variant is enabled.
func On(variant string) Predicate {
	return func(f Facts) bool { return f.Selection.Bool(variant) }
}

// Off holds when the boolean variant is disabled.
func Off(variant string) Predicate {
	return func(f Facts) bool { return !f.Selection.Bool(variant) }
}

// Version holds when the version of pkg is known and lo <= version < hi.
// Empty bounds are open.
func Version(pkg, lo, hi string) Predicate {
	return func(f Facts) bool {
		v, ok := f.Versions[pkg]
		return ok && v != "" && formula.InRange(v, lo, hi)
	}
}

// All holds when every predicate holds.
func All(preds ...Predicate) Predicate {
	return func(f Facts) bool {
		for _, p := range preds {
			if !p(f) {
				return false
			}
		}
		return true
	}
}

// KeyRule applies Action to Keys when When holds.
type KeyRule struct {
	When   Predicate
	Action Action
	Keys   []string
}

// AddKeys builds a rule adding keys.
func AddKeys(when Predicate, keys ...string) KeyRule {
	return KeyRule{When: when, Action: Add, Keys: keys}
}

// DelKeys builds a rule deleting keys.
func DelKeys(when Predicate, keys ...string) KeyRule {
	return KeyRule{When: when, Action: Del, Keys: keys}
}

// Fold evaluates rules in order against facts and reduces the resulting ops.
func Fold(rules []KeyRule, facts Facts) KeySet {
	var ops []Op
	for _, r := range rules {
		if r.When != nil && !r.When(facts) {
			continue
		}
		for _, k := range r.Keys {
			ops = append(ops, Op{Key: k, Action: r.Action})
		}
	}
	return Reduce(ops)
}
