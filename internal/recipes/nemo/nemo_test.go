package nemo

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukri-bench/varbuild/formula"
	"github.com/ukri-bench/varbuild/pkgs/buildsys"
	"github.com/ukri-bench/varbuild/pkgs/compiler"
	"github.com/ukri-bench/varbuild/pkgs/wrapper"
)

func testLocations() map[string]formula.Location {
	return map[string]formula.Location{
		"binutils":       {Prefix: "/opt/binutils"},
		"gmake":          {Prefix: "/opt/gmake"},
		"mpi":            {Prefix: "/opt/mpi"},
		"hdf5":           {Prefix: "/opt/hdf5"},
		"netcdf-c":       {Prefix: "/opt/netcdf-c", Version: "4.9.2"},
		"netcdf-fortran": {Prefix: "/opt/netcdf-fortran", Version: "4.6.1"},
		"xios":           {Prefix: "/opt/xios", Version: "2.5"},
		"py-psyclone":    {Prefix: "/opt/psyclone"},
	}
}

func testContext(t *testing.T, family string, input map[string]string, locs map[string]formula.Location) *buildsys.Context {
	t.Helper()
	f := Formula(false)
	sel, err := f.Select(input)
	require.NoError(t, err)
	deps, err := formula.Locate(f.Resolve(sel), locs)
	require.NoError(t, err)
	prof, err := compiler.Lookup(family)
	require.NoError(t, err)
	return &buildsys.Context{
		Formula:   f,
		Version:   f.DefaultVersion(),
		Selection: sel,
		Compiler:  prof,
		Deps:      deps,
	}
}

func TestSelect_IceAndPiscesOnReferenceConfig(t *testing.T) {
	bc := testContext(t, "gcc", map[string]string{
		"ice": "true", "pisces": "true", "mpi": "true", "xios": "false",
		"config": "ORCA2_ICE_PISCES",
	}, testLocations())

	keys := Keys(bc)
	assert.Contains(t, keys.Add, "key_si3")
	assert.Contains(t, keys.Add, "key_top")
	assert.Contains(t, keys.Del, "key_xios")
	assert.Equal(t, []string{"key_xios", "key_xios3", "key_iomput", "key_mpi_off"}, keys.Del)
	assert.Equal(t, []string{"key_si3", "key_top"}, keys.Add)
}

func TestSelect_IceUnsupported(t *testing.T) {
	_, err := Formula(false).Select(map[string]string{
		"ice":    "true",
		"config": "GOSI10p0.0_like_eORCA1",
	})
	var cv *formula.ConstraintViolation
	require.True(t, errors.As(err, &cv), "error = %v", err)
	require.Len(t, cv.Messages(), 1)
	assert.Contains(t, cv.Messages()[0], "conflicts(+ice when config=GOSI10p0.0_like_eORCA1)")
	assert.Contains(t, cv.Messages()[0], "does not support SEA-ICE")
}

func TestSelect_GenericNeedsName(t *testing.T) {
	f := Formula(false)
	_, err := f.Select(map[string]string{"config": "GENERIC", "generic_config": "none"})
	var cv *formula.ConstraintViolation
	require.True(t, errors.As(err, &cv), "error = %v", err)
	assert.Contains(t, cv.Error(), "generic_config should be set")

	sel, err := f.Select(map[string]string{"config": "GENERIC", "generic_config": "AMM12"})
	require.NoError(t, err)
	assert.Equal(t, "AMM12", SourceConfig(sel))
}

func TestSelect_StrictHostConflicts(t *testing.T) {
	input := map[string]string{"xios": "true", "openmp": "true"}

	_, err := Formula(false).Select(input)
	require.NoError(t, err)

	_, err = Formula(true).Select(input)
	var cv *formula.ConstraintViolation
	require.True(t, errors.As(err, &cv), "error = %v", err)
	assert.Len(t, cv.Messages(), 2)
}

func TestSelect_AllViolationsReported(t *testing.T) {
	_, err := Formula(false).Select(map[string]string{
		"ice": "true", "pisces": "true", "config": "GOSI10p0.0_like_eORCA12",
	})
	var cv *formula.ConstraintViolation
	require.True(t, errors.As(err, &cv), "error = %v", err)
	assert.Len(t, cv.Messages(), 2)
}

func TestResolve(t *testing.T) {
	f := Formula(false)
	names := func(input map[string]string) string {
		sel, err := f.Select(input)
		require.NoError(t, err)
		var ret []string
		for _, r := range f.Resolve(sel) {
			ret = append(ret, r.Name)
		}
		return strings.Join(ret, " ")
	}
	assert.Equal(t, "c fortran binutils gmake mpi hdf5 netcdf-c netcdf-fortran py-f90nml", names(nil))
	assert.Equal(t, "c fortran binutils gmake mpi hdf5 xios netcdf-c netcdf-fortran py-f90nml py-psyclone",
		names(map[string]string{"xios": "true", "openmp": "true"}))
}

func TestKeys_VersionGated(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]string
		nemo    string
		xios    string
		wantAdd []string
		wantDel []string
	}{
		{
			name:    "xios 3",
			input:   map[string]string{"xios": "true"},
			nemo:    "5.0",
			xios:    "3.0",
			wantAdd: []string{"key_iomput", "key_xios3"},
			wantDel: []string{"key_xios", "key_mpi_off", "key_si3", "key_top"},
		},
		{
			name:    "xios 2.5",
			input:   map[string]string{"xios": "true"},
			nemo:    "5.0",
			xios:    "2.5",
			wantAdd: []string{"key_iomput", "key_xios"},
			wantDel: []string{"key_xios3", "key_mpi_off", "key_si3", "key_top"},
		},
		{
			name:    "serial nemo 4.0",
			input:   map[string]string{"mpi": "false"},
			nemo:    "4.0",
			wantDel: []string{"key_xios", "key_xios3", "key_iomput", "key_mpp_mpi", "key_si3", "key_top"},
		},
		{
			name:    "parallel nemo 4.0",
			input:   map[string]string{"ice": "true"},
			nemo:    "4.0",
			wantAdd: []string{"key_mpp_mpi", "key_si3"},
			wantDel: []string{"key_xios", "key_xios3", "key_iomput", "key_top"},
		},
		{
			name:    "serial nemo 5.0",
			input:   map[string]string{"mpi": "false"},
			nemo:    "5.0",
			wantAdd: []string{"key_mpi_off"},
			wantDel: []string{"key_xios", "key_xios3", "key_iomput", "key_si3", "key_top"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locs := testLocations()
			xios := locs["xios"]
			xios.Version = tt.xios
			locs["xios"] = xios

			bc := testContext(t, "gcc", tt.input, locs)
			bc.Version = tt.nemo
			keys := Keys(bc)
			assert.Equal(t, tt.wantAdd, keys.Add)
			assert.Equal(t, tt.wantDel, keys.Del)
		})
	}
}

func TestArch_Golden(t *testing.T) {
	bc := testContext(t, "gcc", nil, testLocations())
	want, err := os.ReadFile(filepath.Join("testdata", "arch-fort-gcc.fcm"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(Arch(bc).Render()))
}

func TestArch_CrayOpenMP(t *testing.T) {
	bc := testContext(t, "cce", map[string]string{"openmp": "true"}, testLocations())
	arch := Arch(bc)

	ld, _ := arch.Get("LDFLAGS")
	assert.True(t, strings.HasPrefix(ld, "-h omp -Wl,-rpath="), "LDFLAGS = %q", ld)
	fflags, _ := arch.Get("PROD_FCFLAGS")
	assert.True(t, strings.HasSuffix(fflags, " -h omp"), "PROD_FCFLAGS = %q", fflags)
	home, _ := arch.Get("PSYCLONE_HOME")
	assert.Equal(t, "/opt/psyclone", home)
	assert.True(t, strings.HasSuffix(string(arch.Render()), "bld::tool::fc_modsearch -J\n"))
}

func TestSynthesize(t *testing.T) {
	bc := testContext(t, "gcc", map[string]string{"xios": "true", "openmp": "true", "config": "BENCH"}, testLocations())
	bc.Project = &formula.Project{DirFS: fstest.MapFS{
		"tests/BENCH/EXP00/namelist_cfg": {Data: []byte("&namrun /\n")},
	}}

	cfg, err := Synthesize(bc)
	require.NoError(t, err)
	assert.Equal(t, "tests", cfg.Vars[VarRoot])
	assert.Equal(t, "BENCH", cfg.Vars[VarSourceConfig])
	assert.Equal(t, "/opt/xios", cfg.Env["XIOS_PATH"])
	assert.Equal(t, filepath.Join("/opt/psyclone", psycloneScripts), cfg.Prepend["PYTHONPATH"])
	assert.Equal(t, filepath.Join("/opt/psyclone", psycloneScripts, "omp_cpu_trans.py"), cfg.Vars[VarTransform])
	assert.Equal(t, filepath.Join("arch", "arch-fort.fcm"), cfg.Target)
}

func TestSynthesize_XIOSVersionWarning(t *testing.T) {
	tests := []struct {
		version string
		warn    bool
	}{
		{"", true},
		{"trunk", true},
		{"2.5", false},
		{"3.0", false},
	}
	for _, tt := range tests {
		t.Run("version "+tt.version, func(t *testing.T) {
			locs := testLocations()
			locs["xios"] = formula.Location{Prefix: "/opt/xios", Version: tt.version}
			bc := testContext(t, "gcc", map[string]string{"xios": "true"}, locs)
			var buf bytes.Buffer
			bc.Logger = log.New(&buf)

			cfg, err := Synthesize(bc)
			require.NoError(t, err)
			assert.Equal(t, tt.warn, strings.Contains(buf.String(), "no xios key selected"), "log: %s", buf.String())
			if tt.warn {
				assert.NotContains(t, cfg.Keys.Add, "key_xios")
				assert.NotContains(t, cfg.Keys.Add, "key_xios3")
			}
		})
	}
}

func TestSynthesize_MissingConfiguration(t *testing.T) {
	bc := testContext(t, "gcc", map[string]string{"config": "GENERIC", "generic_config": "AMM12"}, testLocations())
	bc.Project = &formula.Project{DirFS: fstest.MapFS{
		"cfgs/ORCA2_ICE_PISCES/EXP00/namelist_cfg": {Data: []byte("&namrun /\n")},
	}}

	_, err := Synthesize(bc)
	var re *formula.ResolutionError
	require.True(t, errors.As(err, &re), "error = %v", err)
	assert.Equal(t, "configuration", re.Kind)
	assert.Equal(t, []string{"cfgs/AMM12", "tests/AMM12"}, re.Searched)
}

func TestWrapper_MPIWithoutXIOS(t *testing.T) {
	f := Formula(false)
	sel, err := f.Select(map[string]string{"mpi": "true", "xios": "false"})
	require.NoError(t, err)

	script, mode, err := wrapper.Render(WrapperSpec("/opt/nemo", sel))
	require.NoError(t, err)
	s := string(script)

	assert.Equal(t, wrapper.Mode, mode)
	assert.Contains(t, s, "-i, --lon num")
	assert.Contains(t, s, "-j, --lat num")
	assert.Contains(t, s, "Error: -i is required.")
	assert.NotContains(t, s, "--xproc")
	assert.NotContains(t, s, "XPROC")
	assert.NotContains(t, s, "iodef.xml")
	assert.NotContains(t, s, "IPROC=1")
	assert.Contains(t, s, `set_flag namctl ln_timing "${TIMINGS}"`)
}

func TestWrapper_SerialWithXIOS(t *testing.T) {
	f := Formula(false)
	sel, err := f.Select(map[string]string{"mpi": "false", "xios": "true"})
	require.NoError(t, err)

	script, _, err := wrapper.Render(WrapperSpec("/opt/nemo", sel))
	require.NoError(t, err)
	s := string(script)

	assert.Contains(t, s, "IPROC=1\nJPROC=1")
	assert.Contains(t, s, "-x, --xproc num")
	assert.Contains(t, s, "iodef.xml")
	assert.NotContains(t, s, "--lon")
}

func TestLinkXIOSServer_Idempotent(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks")
	}
	cfgDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(cfgDir, "EXP00"), 0o755))
	link := filepath.Join(cfgDir, "EXP00", "xios_server.exe")
	require.NoError(t, os.Symlink("/elsewhere/xios_server.exe", link))

	bc := testContext(t, "gcc", map[string]string{"xios": "true"}, testLocations())
	require.NoError(t, LinkXIOSServer(bc, cfgDir))
	require.NoError(t, LinkXIOSServer(bc, cfgDir))

	got, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/xios_server.exe", got)
}

func TestPhases(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts")
	}
	src := t.TempDir()
	prefix := filepath.Join(t.TempDir(), "prefix")
	xiosDir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(xiosDir, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(xiosDir, "bin", "xios_server.exe"), []byte("xios"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "cfgs", "ORCA2_ICE_PISCES", "EXP00"), 0o755))

	script := `#!/bin/sh
printf '%s\n' "$@" > args.txt
mkdir -p cfgs/BLDCFG/EXP00
echo "$XIOS_PATH" > cfgs/BLDCFG/EXP00/namelist_cfg
`
	require.NoError(t, os.WriteFile(filepath.Join(src, "makenemo"), []byte(script), 0o755))

	locs := testLocations()
	locs["xios"] = formula.Location{Prefix: xiosDir, Version: "3.0"}
	bc := testContext(t, "gcc", map[string]string{"xios": "true", "ice": "true"}, locs)
	bc.Project = &formula.Project{Dir: src, DirFS: os.DirFS(src)}
	bc.Prefix = prefix
	bc.Jobs = 4

	cfg, err := Synthesize(bc)
	require.NoError(t, err)
	bc.Config = cfg
	require.NoError(t, buildsys.Run(context.Background(), bc, Phases()...))

	arch, err := os.ReadFile(filepath.Join(src, "arch", "arch-fort.fcm"))
	require.NoError(t, err)
	assert.Contains(t, string(arch), "%XIOS_HOME           "+xiosDir)

	args, err := os.ReadFile(filepath.Join(src, "args.txt"))
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"-j", "4", "-m", "fort", "-r", "ORCA2_ICE_PISCES", "-n", "BLDCFG",
		"del_key", "key_xios key_mpi_off key_top",
		"add_key", "key_iomput key_xios3 key_si3",
	}, "\n")+"\n", string(args))

	nml, err := os.ReadFile(filepath.Join(prefix, "EXP00", "namelist_cfg"))
	require.NoError(t, err)
	assert.Equal(t, xiosDir+"\n", string(nml))

	fi, err := os.Lstat(filepath.Join(prefix, "EXP00", "xios_server.exe"))
	require.NoError(t, err)
	assert.True(t, fi.Mode().IsRegular(), "xios server should be copied, not linked")

	fi, err = os.Stat(filepath.Join(prefix, "bin", WrapperName))
	require.NoError(t, err)
	assert.Equal(t, wrapper.Mode, fi.Mode().Perm())
}
