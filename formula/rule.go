package formula

import (
	"fmt"
	"strings"

	xerrors "github.com/qiniu/x/errors"
)

// -----------------------------------------------------------------------------

// Cond is a single-variant predicate over a selection. The zero Cond always
// holds.
type Cond struct {
	Name  string
	Value string
	Neg   bool
}

// Always is the condition that holds for every selection.
var Always Cond

// On holds when the boolean variant name is enabled.
func On(name string) Cond { return Cond{Name: name, Value: valTrue} }

// Off holds when the boolean variant name is disabled.
func Off(name string) Cond { return Cond{Name: name, Value: valFalse} }

// Is holds when variant name has the given value.
func Is(name, value string) Cond { return Cond{Name: name, Value: value} }

// Not holds when variant name does not have the given value.
func Not(name, value string) Cond { return Cond{Name: name, Value: value, Neg: true} }

// Holds evaluates the condition against sel.
func (c Cond) Holds(sel Selection) bool {
	if c.Name == "" {
		return true
	}
	return (sel.Value(c.Name) == c.Value) != c.Neg
}

func (c Cond) String() string {
	switch {
	case c.Name == "":
		return "always"
	case c.Value == valTrue && !c.Neg, c.Value == valFalse && c.Neg:
		return "+" + c.Name
	case c.Value == valFalse && !c.Neg, c.Value == valTrue && c.Neg:
		return "~" + c.Name
	case c.Neg:
		return c.Name + "!=" + c.Value
	}
	return c.Name + "=" + c.Value
}

// -----------------------------------------------------------------------------

// Rule is a named constraint over a selection with the message reported when
// it is violated.
type Rule struct {
	Name     string
	Msg      string
	violated func(sel Selection) bool
}

// Violated reports whether sel breaks the rule.
func (r Rule) Violated(sel Selection) bool {
	return r.violated(sel)
}

// Conflicts forbids a while when holds.
func Conflicts(a, when Cond, msg string) Rule {
	name := "conflicts(" + a.String() + ")"
	if when != Always {
		name = "conflicts(" + a.String() + " when " + when.String() + ")"
	}
	return Rule{
		Name: name,
		Msg:  msg,
		violated: func(sel Selection) bool {
			return a.Holds(sel) && when.Holds(sel)
		},
	}
}

// Requires demands need whenever when holds.
func Requires(when, need Cond, msg string) Rule {
	return Rule{
		Name: "requires(" + when.String() + " => " + need.String() + ")",
		Msg:  msg,
		violated: func(sel Selection) bool {
			return when.Holds(sel) && !need.Holds(sel)
		},
	}
}

// Check evaluates every rule against sel and reports all violations at once.
// Rules are pure predicates, so their order does not matter.
func Check(sel Selection, rules []Rule) error {
	var msgs []string
	for _, r := range rules {
		if r.Violated(sel) {
			msgs = append(msgs, r.Name+": "+r.Msg)
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return newViolation("check", msgs)
}

// -----------------------------------------------------------------------------

// ConstraintViolation reports an invalid option selection. It is returned
// before any side effect takes place.
type ConstraintViolation struct {
	Op   string
	errs xerrors.List
}

func newViolation(op string, msgs []string) *ConstraintViolation {
	v := &ConstraintViolation{Op: op}
	for _, m := range msgs {
		v.errs.Add(violationError(m))
	}
	return v
}

type violationError string

func (e violationError) Error() string { return string(e) }

// Messages returns one message per violated rule.
func (v *ConstraintViolation) Messages() []string {
	msgs := make([]string, len(v.errs))
	for i, err := range v.errs {
		msgs[i] = err.Error()
	}
	return msgs
}

func (v *ConstraintViolation) Error() string {
	msgs := v.Messages()
	if len(msgs) == 1 {
		return "invalid selection: " + msgs[0]
	}
	return fmt.Sprintf("invalid selection: %d violations:\n  %s", len(msgs), strings.Join(msgs, "\n  "))
}

func (v *ConstraintViolation) Unwrap() []error {
	return v.errs
}
