package formula

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// CompareVersions compares two dotted numeric versions such as "4.2" or
// "4.9.0". Versions that are not semantic versions (e.g. "main") yield an
// error.
func CompareVersions(a, b string) (int, error) {
	ca, err := canonical(a)
	if err != nil {
		return 0, err
	}
	cb, err := canonical(b)
	if err != nil {
		return 0, err
	}
	return semver.Compare(ca, cb), nil
}

// VersionMatch reports whether v satisfies constraint. A constraint is either
// an exact version or a range "lo:hi" with both bounds inclusive and
// optional.
func VersionMatch(v, constraint string) (bool, error) {
	lo, hi, isRange := strings.Cut(constraint, ":")
	if !isRange {
		if _, err := canonical(constraint); err != nil {
			return v == constraint, nil
		}
		c, err := CompareVersions(v, constraint)
		return c == 0, err
	}
	if lo != "" {
		c, err := CompareVersions(v, lo)
		if err != nil || c < 0 {
			return false, err
		}
	}
	if hi != "" {
		c, err := CompareVersions(v, hi)
		if err != nil || c > 0 {
			return false, err
		}
	}
	return true, nil
}

// InRange reports whether lo <= v < hi; empty bounds are open.
func InRange(v, lo, hi string) bool {
	if lo != "" {
		if c, err := CompareVersions(v, lo); err != nil || c < 0 {
			return false
		}
	}
	if hi != "" {
		if c, err := CompareVersions(v, hi); err != nil || c >= 0 {
			return false
		}
	}
	return true
}

func canonical(v string) (string, error) {
	sv := v
	if !strings.HasPrefix(sv, "v") {
		sv = "v" + sv
	}
	if !semver.IsValid(sv) {
		return "", fmt.Errorf("invalid version %q", v)
	}
	return semver.Canonical(sv), nil
}
