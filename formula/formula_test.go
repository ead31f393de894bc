package formula

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"
)

func testFormula() *Formula {
	return &Formula{
		Name:     "demo",
		Versions: []string{"2.0", "1.0"},
		Schema: NewSchema(
			Bool("mpi", true, "MPI"),
			Bool("cuda", false, "CUDA"),
			Bool("rocm", false, "ROCm"),
			Choice("mode", "fast", []string{"fast", "safe", "GENERIC"}, "mode"),
			String("generic", "none", "generic mode"),
		),
		Rules: []Rule{
			Conflicts(On("cuda"), On("rocm"), "Cannot build for both ROCm and CUDA"),
			Requires(Is("mode", "GENERIC"), Not("generic", "none"), "generic should be set when using mode=GENERIC"),
		},
		Deps: []Dependency{
			{Name: "c", Types: Build},
			{Name: "mpi", Types: Build | Link, NeedsPrefix: true},
			{Name: "cuda", Version: "11.0:", Types: Build | Link, When: On("cuda"), NeedsPrefix: true},
			{Name: "hip", Types: Build | Link, When: On("rocm")},
		},
	}
}

func TestSchema_Select(t *testing.T) {
	f := testFormula()

	t.Run("defaults", func(t *testing.T) {
		sel, err := f.Schema.Select(nil)
		if err != nil {
			t.Fatalf("Select(nil) error = %v", err)
		}
		if !sel.Bool("mpi") || sel.Bool("cuda") || sel.Value("mode") != "fast" || sel.Value("generic") != "none" {
			t.Fatalf("Select(nil) = %v", sel)
		}
	})

	t.Run("bool spellings", func(t *testing.T) {
		sel, err := f.Schema.Select(map[string]string{"mpi": "off", "cuda": "on"})
		if err != nil {
			t.Fatalf("Select error = %v", err)
		}
		if sel.Bool("mpi") || !sel.Bool("cuda") {
			t.Fatalf("Select = %v", sel)
		}
	})

	t.Run("every bad entry reported", func(t *testing.T) {
		_, err := f.Schema.Select(map[string]string{"nope": "1", "mode": "slow", "generic": ""})
		var cv *ConstraintViolation
		if !errors.As(err, &cv) {
			t.Fatalf("Select error = %v, want *ConstraintViolation", err)
		}
		if got := len(cv.Messages()); got != 3 {
			t.Fatalf("Messages() = %q, want 3 entries", cv.Messages())
		}
	})
}

func TestSelection_String(t *testing.T) {
	sel, err := testFormula().Schema.Select(map[string]string{"cuda": "true"})
	if err != nil {
		t.Fatal(err)
	}
	want := "+cuda generic=none mode=fast +mpi ~rocm"
	if got := sel.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestCheck(t *testing.T) {
	f := testFormula()

	t.Run("valid", func(t *testing.T) {
		sel, _ := f.Schema.Select(map[string]string{"mode": "GENERIC", "generic": "mine"})
		if err := Check(sel, f.Rules); err != nil {
			t.Fatalf("Check() error = %v", err)
		}
	})

	t.Run("collects all violations", func(t *testing.T) {
		sel, _ := f.Schema.Select(map[string]string{"cuda": "true", "rocm": "true", "mode": "GENERIC"})
		err := Check(sel, f.Rules)
		var cv *ConstraintViolation
		if !errors.As(err, &cv) {
			t.Fatalf("Check() error = %v, want *ConstraintViolation", err)
		}
		msgs := cv.Messages()
		if len(msgs) != 2 {
			t.Fatalf("Messages() = %q, want 2", msgs)
		}
		if !strings.Contains(msgs[0], "ROCm and CUDA") || !strings.Contains(msgs[1], "generic should be set") {
			t.Fatalf("Messages() = %q", msgs)
		}
	})

	t.Run("order independent", func(t *testing.T) {
		sel, _ := f.Schema.Select(map[string]string{"cuda": "true", "rocm": "true", "mode": "GENERIC"})
		rev := []Rule{f.Rules[1], f.Rules[0]}
		var a, b *ConstraintViolation
		errors.As(Check(sel, f.Rules), &a)
		errors.As(Check(sel, rev), &b)
		if a == nil || b == nil || len(a.Messages()) != len(b.Messages()) {
			t.Fatalf("Check() differs with rule order: %v vs %v", a, b)
		}
	})
}

func TestCond_String(t *testing.T) {
	tests := []struct {
		cond Cond
		want string
	}{
		{Always, "always"},
		{On("ice"), "+ice"},
		{Off("ice"), "~ice"},
		{Is("config", "GENERIC"), "config=GENERIC"},
		{Not("generic_config", "none"), "generic_config!=none"},
	}
	for _, tt := range tests {
		if got := tt.cond.String(); got != tt.want {
			t.Errorf("Cond.String() = %q, want %q", got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	f := testFormula()
	sel, err := f.Select(map[string]string{"cuda": "true"})
	if err != nil {
		t.Fatal(err)
	}
	first := f.Resolve(sel)
	second := f.Resolve(sel)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Resolve() not deterministic: %v vs %v", first, second)
	}
	var names []string
	for _, r := range first {
		names = append(names, r.Name)
	}
	if got, want := strings.Join(names, " "), "c mpi cuda"; got != want {
		t.Fatalf("Resolve() = %q, want %q", got, want)
	}
	if got := first[2].Types.String(); got != "build,link" {
		t.Fatalf("Types = %q, want build,link", got)
	}
}

func TestLocate(t *testing.T) {
	f := testFormula()
	sel, _ := f.Select(map[string]string{"cuda": "true"})
	resolved := f.Resolve(sel)

	t.Run("all located", func(t *testing.T) {
		got, err := Locate(resolved, map[string]Location{
			"mpi":  {Prefix: "/opt/mpi"},
			"cuda": {Prefix: "/opt/cuda", Version: "12.2"},
		})
		if err != nil {
			t.Fatalf("Locate() error = %v", err)
		}
		if len(got) != 3 || got[2].Prefix != "/opt/cuda" {
			t.Fatalf("Locate() = %+v", got)
		}
	})

	t.Run("missing and unsatisfied", func(t *testing.T) {
		_, err := Locate(resolved, map[string]Location{
			"cuda": {Prefix: "/opt/cuda", Version: "10.1"},
		})
		var de *DependencyResolutionError
		if !errors.As(err, &de) {
			t.Fatalf("Locate() error = %v, want *DependencyResolutionError", err)
		}
		if len(de.Missing) != 1 || de.Missing[0] != "mpi" || len(de.Unsatisfied) != 1 {
			t.Fatalf("Locate() error = %+v", de)
		}
	})
}

func TestVersionMatch(t *testing.T) {
	tests := []struct {
		v, constraint string
		want          bool
	}{
		{"2.5", "2.5:", true},
		{"3.0", "2.5:", true},
		{"2.4.9", "2.5:", false},
		{"4.9.0", "4.9.0:", true},
		{"4.1", "4.0:4.1", true},
		{"4.2", "4.0:4.1", false},
		{"main", "main", true},
		{"5.0", "5.0", true},
	}
	for _, tt := range tests {
		got, err := VersionMatch(tt.v, tt.constraint)
		if err != nil {
			t.Errorf("VersionMatch(%q, %q) error = %v", tt.v, tt.constraint, err)
			continue
		}
		if got != tt.want {
			t.Errorf("VersionMatch(%q, %q) = %v, want %v", tt.v, tt.constraint, got, tt.want)
		}
	}
	if !InRange("4.0", "4.0", "4.2") || InRange("4.2", "4.0", "4.2") || !InRange("5.0", "4.2", "") {
		t.Errorf("InRange bounds wrong")
	}
}

func TestFormula_CheckVersion(t *testing.T) {
	f := testFormula()
	if v, err := f.CheckVersion(""); err != nil || v != "2.0" {
		t.Fatalf("CheckVersion(\"\") = %q, %v", v, err)
	}
	var re *ResolutionError
	if _, err := f.CheckVersion("3.0"); !errors.As(err, &re) || re.Kind != "version" {
		t.Fatalf("CheckVersion(3.0) error = %v", err)
	}
}

func TestMatrix_CombinationCount(t *testing.T) {
	tests := []struct {
		name   string
		matrix Matrix
		want   int
	}{
		{
			name: "options",
			matrix: Matrix{Options: map[string][]string{
				"mpi":  {"false", "true"},
				"ice":  {"false", "true"},
				"conf": {"A", "B", "C"},
			}},
			want: 12,
		},
		{
			name:   "empty matrix",
			matrix: Matrix{},
			want:   0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.matrix.CombinationCount(); got != tt.want {
				t.Errorf("Matrix.CombinationCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMatrix_Combinations(t *testing.T) {
	m := Matrix{Options: map[string][]string{
		"zlib": {"on", "off"},
		"ssl":  {"yes"},
		"arch": {"x86_64", "arm64"},
	}}
	var got []string
	for _, c := range m.Combinations() {
		got = append(got, Key(c))
	}
	// sorted keys: arch, ssl, zlib
	want := []string{
		"x86_64-yes-on",
		"x86_64-yes-off",
		"arm64-yes-on",
		"arm64-yes-off",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Matrix.Combinations() = %v, want %v", got, want)
	}
	if (&Matrix{}).Combinations() != nil {
		t.Fatalf("empty Matrix.Combinations() != nil")
	}
}

func TestFormula_Selections(t *testing.T) {
	valid, total := testFormula().Selections()
	// mpi x cuda x rocm x mode(3) x generic(1) = 24; cuda+rocm removes 6,
	// GENERIC with generic=none removes the remaining 6 GENERIC ones.
	if total != 24 {
		t.Fatalf("total = %d, want 24", total)
	}
	if len(valid) != 12 {
		t.Fatalf("valid = %d, want 12", len(valid))
	}
}

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest([]string{"nemo@5.0", "+ice~xios", "config=BENCH", "%nvhpc", "~mpi"})
	if err != nil {
		t.Fatalf("ParseRequest() error = %v", err)
	}
	want := Request{
		Name:     "nemo",
		Version:  "5.0",
		Compiler: "nvhpc",
		Values:   map[string]string{"ice": "true", "xios": "false", "config": "BENCH", "mpi": "false"},
	}
	if !reflect.DeepEqual(req, want) {
		t.Fatalf("ParseRequest() = %+v, want %+v", req, want)
	}

	for _, bad := range [][]string{nil, {""}, {"nemo", "bogus"}, {"nemo", "+"}, {"nemo", "%"}, {"nemo", "=x"}} {
		if _, err := ParseRequest(bad); err == nil {
			t.Errorf("ParseRequest(%q) error = nil, want error", bad)
		}
	}
}

func TestParseNameArg(t *testing.T) {
	tests := []struct {
		arg, name, version string
	}{
		{"nemo@5.0", "nemo", "5.0"},
		{"bench-dolfinx", "bench-dolfinx", ""},
		{"multiple@at@signs", "multiple@at", "signs"},
	}
	for _, tt := range tests {
		name, version := parseNameArg(tt.arg)
		if name != tt.name || version != tt.version {
			t.Errorf("parseNameArg(%q) = %q, %q; want %q, %q", tt.arg, name, version, tt.name, tt.version)
		}
	}
}

func TestProject_FindDir(t *testing.T) {
	proj := &Project{
		DirFS: fstest.MapFS{
			"cfgs/ORCA2/EXP00/namelist_cfg":  {Data: []byte("&namrun\n/")},
			"tests/BENCH/EXP00/namelist_cfg": {Data: []byte("&namrun\n/")},
			"cfgs/FILE":                      {Data: []byte("not a dir")},
		},
	}

	if got, err := proj.FindDir("configuration", "ORCA2", "cfgs", "tests"); err != nil || got != "cfgs/ORCA2" {
		t.Fatalf("FindDir(ORCA2) = %q, %v", got, err)
	}
	if got, err := proj.FindDir("configuration", "BENCH", "cfgs", "tests"); err != nil || got != "tests/BENCH" {
		t.Fatalf("FindDir(BENCH) = %q, %v", got, err)
	}
	_, err := proj.FindDir("configuration", "FILE", "cfgs", "tests")
	var re *ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("FindDir(FILE) error = %v, want *ResolutionError", err)
	}
	if !reflect.DeepEqual(re.Searched, []string{"cfgs/FILE", "tests/FILE"}) {
		t.Fatalf("Searched = %v", re.Searched)
	}
	if data, err := proj.ReadFile("cfgs/ORCA2/EXP00/namelist_cfg"); err != nil || !strings.HasPrefix(string(data), "&namrun") {
		t.Fatalf("ReadFile() = %q, %v", data, err)
	}
}
