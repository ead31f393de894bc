package nemo

import (
	_ "embed"

	"github.com/ukri-bench/varbuild/formula"
	"github.com/ukri-bench/varbuild/pkgs/wrapper"
)

//go:embed wrapper.sh.tmpl
var wrapperTemplate string

var wrapperBlocks = []wrapper.Block{
	{
		Feature: "mpi",
		Help: []string{
			"  -i, --lon num         (required) No. of NEMO MPI processes in the i (longitudinal) direction",
			"  -j, --lat num         (required) No. of NEMO MPI processes in the j (latitudinal) direction",
		},
		Cases: []string{
			wrapper.Lines(
				`    -i|--lon)`,
				`      IPROC="$2"`,
				`      shift 2`,
				`      ;;`,
				`    -j|--lat)`,
				`      JPROC="$2"`,
				`      shift 2`,
				`      ;;`,
			),
		},
		Checks: []string{
			requireArg("IPROC", "-i"),
			requireArg("JPROC", "-j"),
		},
	},
	{
		Feature:  "mpi",
		Negate:   true,
		Defaults: []string{"IPROC=1", "JPROC=1"},
	},
	{
		Feature: "xios",
		Help: []string{
			"  -x, --xproc num       No. of XIOS servers (set to 0 if using attached mode) (default: 0)",
		},
		Defaults: []string{"XPROC=0"},
		Cases: []string{
			wrapper.Lines(
				`    -x|--xproc)`,
				`      XPROC="$2"`,
				`      shift 2`,
				`      ;;`,
			),
		},
		Stage: []string{
			`cp --remove-destination "${REF_DIR}/iodef.xml" "${RUN_DIR}/iodef.xml"`,
		},
	},
}

func requireArg(name, flag string) string {
	return wrapper.Lines(
		`if [[ -z "$`+name+`" ]]; then`,
		`  echo "Error: `+flag+` is required."`,
		`  show_help`,
		`  exit 1`,
		`fi`,
	)
}

// WrapperSpec describes the nemo-wrapper launcher of an installation.
func WrapperSpec(prefix string, sel formula.Selection) wrapper.Spec {
	return wrapper.Spec{
		Name:     WrapperName,
		Template: wrapperTemplate,
		Prefix:   prefix,
		Features: map[string]bool{
			"mpi":  sel.Bool("mpi"),
			"xios": sel.Bool("xios"),
		},
		Blocks: wrapperBlocks,
	}
}
