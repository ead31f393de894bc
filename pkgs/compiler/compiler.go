// Package compiler holds the per-family Fortran flag table used when
// synthesizing build configurations.
package compiler

import (
	"sort"
	"strings"

	"github.com/ukri-bench/varbuild/formula"
)

// Profile is the flag set of one compiler family.
type Profile struct {
	Family    string
	FFlags    string // optimisation and real/integer size control
	LDFlags   string
	OpenMP    string // appended to both FFlags and LDFlags when OpenMP is on
	ArchExtra string // raw line appended to generated FCM arch files
}

var profiles = map[string]Profile{
	"gcc": {
		Family:  "gcc",
		FFlags:  "-fdefault-real-8 -O2 -funroll-all-loops -fcray-pointer -ffree-line-length-none",
		LDFlags: "-fdefault-real-8",
		OpenMP:  "-fopenmp",
	},
	"nvhpc": {
		Family:  "nvhpc",
		FFlags:  "-i4 -Mr8 -Mnovect -Mflushz -Minline -Mnofma -O2 -gopt -traceback",
		LDFlags: "-i4 -Mr8 -Mnofma",
		OpenMP:  "-mp",
	},
	"oneapi": {
		Family:  "oneapi",
		FFlags:  "-i4 -r8 -O2 -fp-model strict -xHost -fno-alias",
		LDFlags: "-i4 -r8",
		OpenMP:  "-fiopenmp",
	},
	"cce": {
		Family:    "cce",
		FFlags:    "-em -s integer32 -s real64 -O2 -hvector_classic -hflex_mp=intolerant -N1023 -M878",
		OpenMP:    "-h omp",
		ArchExtra: "bld::tool::fc_modsearch -J",
	},
}

// Lookup returns the profile of family. An unknown family is reported as a
// *formula.ResolutionError listing the known ones.
func Lookup(family string) (Profile, error) {
	if p, ok := profiles[family]; ok {
		return p, nil
	}
	return Profile{}, &formula.ResolutionError{Kind: "compiler", Name: family, Searched: Families()}
}

// Families returns the known compiler families, sorted.
func Families() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Flags returns the compile and link flags, with the OpenMP flag appended to
// both when openmp is set.
func (p Profile) Flags(openmp bool) (fflags, ldflags string) {
	if !openmp {
		return p.FFlags, p.LDFlags
	}
	return join(p.FFlags, p.OpenMP), join(p.LDFlags, p.OpenMP)
}

func join(parts ...string) string {
	var ret []string
	for _, s := range parts {
		if s != "" {
			ret = append(ret, s)
		}
	}
	return strings.Join(ret, " ")
}
