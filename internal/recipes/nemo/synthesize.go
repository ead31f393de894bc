package nemo

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/ukri-bench/varbuild/formula"
	"github.com/ukri-bench/varbuild/pkgs/buildsys"
	"github.com/ukri-bench/varbuild/pkgs/buildsys/makenemo"
	"github.com/ukri-bench/varbuild/pkgs/fcm"
)

// Keys of buildsys.Config.Vars set by Synthesize.
const (
	VarSourceConfig = "source_config"
	VarRoot         = "root"
	VarTransform    = "transform"
)

// KeyRules is the CPP key table. Version gated entries cover the NEMO and
// XIOS releases known to need them; new releases are added here explicitly.
var KeyRules = []fcm.KeyRule{
	fcm.AddKeys(fcm.On("xios"), "key_iomput"),
	fcm.DelKeys(fcm.All(fcm.On("xios"), fcm.Version("xios", "3.0", "")), "key_xios"),
	fcm.AddKeys(fcm.All(fcm.On("xios"), fcm.Version("xios", "3.0", "")), "key_xios3"),
	fcm.DelKeys(fcm.All(fcm.On("xios"), fcm.Version("xios", xiosKeyedFrom, "3.0")), "key_xios3"),
	fcm.AddKeys(fcm.All(fcm.On("xios"), fcm.Version("xios", xiosKeyedFrom, "3.0")), "key_xios"),
	fcm.DelKeys(fcm.Off("xios"), "key_xios", "key_xios3", "key_iomput"),

	fcm.DelKeys(fcm.All(fcm.On("mpi"), fcm.Version(Name, "4.2", "")), "key_mpi_off"),
	fcm.AddKeys(fcm.All(fcm.On("mpi"), fcm.Version(Name, "4.0", "4.2")), "key_mpp_mpi"),
	fcm.AddKeys(fcm.All(fcm.Off("mpi"), fcm.Version(Name, "4.2", "")), "key_mpi_off"),
	fcm.DelKeys(fcm.All(fcm.Off("mpi"), fcm.Version(Name, "4.0", "4.2")), "key_mpp_mpi"),

	fcm.AddKeys(fcm.On("ice"), "key_si3"),
	fcm.DelKeys(fcm.Off("ice"), "key_si3"),
	fcm.AddKeys(fcm.On("pisces"), "key_top"),
	fcm.DelKeys(fcm.Off("pisces"), "key_top"),
}

// xiosKeyedFrom is the oldest XIOS release KeyRules selects a key for.
const xiosKeyedFrom = "2.5"

// psycloneScripts is where py-psyclone installs its NEMO transformation
// scripts, relative to its prefix.
var psycloneScripts = filepath.Join("share", "psyclone", "examples", "nemo", "scripts")

// Keys folds KeyRules for the build.
func Keys(bc *buildsys.Context) fcm.KeySet {
	versions := map[string]string{Name: bc.Version}
	if d, ok := bc.Dep("xios"); ok {
		versions["xios"] = d.Version
	}
	return fcm.Fold(KeyRules, fcm.Facts{Selection: bc.Selection, Versions: versions})
}

// Arch builds the FCM arch file from the located dependencies and the
// compiler profile.
func Arch(bc *buildsys.Context) *fcm.Arch {
	sel := bc.Selection
	fc := filepath.Join(bc.PrefixOf("mpi"), "bin", "mpif90")
	fflags, ldflags := bc.Compiler.Flags(sel.Bool("openmp"))
	rpath := []string{
		"-Wl,-rpath=" + fcm.Ref("HDF5_HOME") + "/lib",
		"-Wl,-rpath=" + fcm.Ref("NCDFF_HOME") + "/lib",
		"-Wl,-rpath=" + fcm.Ref("XIOS_HOME") + "/lib",
	}

	a := new(fcm.Arch)
	a.Set("NCDFF_HOME", bc.PrefixOf("netcdf-fortran")).
		Set("NCDFC_HOME", bc.PrefixOf("netcdf-c")).
		Set("HDF5_HOME", bc.PrefixOf("hdf5")).
		Set("XIOS_HOME", bc.PrefixOf("xios")).
		Set("PSYCLONE_HOME", bc.PrefixOf("py-psyclone")).
		Set("NCDF_INC", "-I"+fcm.Ref("NCDFF_HOME")+"/include").
		Set("NCDF_LIB", strings.Join([]string{
			"-L" + fcm.Ref("NCDFF_HOME") + "/lib", "-lnetcdff",
			"-L" + fcm.Ref("NCDFC_HOME") + "/lib", "-lnetcdf",
			"-L" + fcm.Ref("HDF5_HOME") + "/lib", "-lhdf5_hl", "-lhdf5", "-lhdf5",
		}, " ")).
		Set("XIOS_INC", "-I"+fcm.Ref("XIOS_HOME")+"/inc").
		Set("XIOS_LIB", "-L"+fcm.Ref("XIOS_HOME")+"/lib -lxios -lstdc++").
		Set("CPP", "cpp -Dkey_nosignedzero").
		Set("FC", fc).
		Set("PROD_FCFLAGS", fflags).
		Set("DEBUG_FCFLAGS", "").
		Set("FFLAGS", "").
		Set("LD", fc).
		Set("LDFLAGS", strings.TrimSpace(ldflags+" "+strings.Join(rpath, " "))).
		Set("FPPFLAGS", "-P -traditional").
		Set("AR", filepath.Join(bc.PrefixOf("binutils"), "bin", "ar")).
		Set("ARFLAGS", "-rs").
		Set("MK", filepath.Join(bc.PrefixOf("gmake"), "bin", "gmake")).
		Set("USER_INC", fcm.Refs("XIOS_INC", "NCDF_INC")).
		Set("USER_LIB", fcm.Refs("XIOS_LIB", "NCDF_LIB")).
		Raw(bc.Compiler.ArchExtra)
	return a
}

// Synthesize produces the build configuration: the arch file, the CPP keys,
// the tool environment and, when a source tree is attached, the location of
// the source configuration.
func Synthesize(bc *buildsys.Context) (*buildsys.Config, error) {
	sel := bc.Selection
	cfg := &buildsys.Config{
		Arch:    Arch(bc),
		Target:  makenemo.ArchPath(makenemo.DefaultArch),
		Keys:    Keys(bc),
		Env:     map[string]string{},
		Prepend: map[string]string{},
		Vars:    map[string]string{VarSourceConfig: SourceConfig(sel)},
	}

	if sel.Bool("xios") {
		d, _ := bc.Dep("xios")
		cfg.Env["XIOS_PATH"] = d.Prefix
		if !formula.InRange(d.Version, xiosKeyedFrom, "") {
			bc.Log().Warn("xios version not covered by the key table, no xios key selected",
				"prefix", d.Prefix, "version", d.Version)
		}
	}
	if sel.Bool("openmp") {
		scripts := filepath.Join(bc.PrefixOf("py-psyclone"), psycloneScripts)
		cfg.Prepend["PYTHONPATH"] = scripts
		cfg.Vars[VarTransform] = filepath.Join(scripts, "omp_cpu_trans.py")
	}

	if bc.Project != nil {
		dir, err := bc.Project.FindDir("configuration", cfg.Vars[VarSourceConfig], makenemo.RootReference, makenemo.RootTest)
		if err != nil {
			return nil, err
		}
		cfg.Vars[VarRoot] = path.Dir(dir)
	}
	return cfg, nil
}
