package internal

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ukri-bench/varbuild/internal/output"
)

var archSource string

var archCmd = &cobra.Command{
	Use:   "arch <package>[@version] [variants...] [%compiler]",
	Short: "Print the synthesized build configuration",
	Long: `Arch validates a package request, resolves its dependencies and prints the
configuration the native build tool would receive, without building: the FCM
arch file for makenemo-based recipes, the configure arguments otherwise.
CPP keys and environment are logged to stderr.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runArch,
}

func init() {
	archCmd.Flags().StringVar(&archSource, "source", "", "source tree, used to locate configurations")
	addWithFlag(archCmd)
	rootCmd.AddCommand(archCmd)
}

func runArch(cmd *cobra.Command, args []string) error {
	req, err := loadRequest(cmd, args)
	if err != nil {
		return err
	}
	bc, err := newBuilder().Prepare(req.buildRequest(archSource, ""))
	if err != nil {
		return err
	}
	c := bc.Config
	output.Info("synthesized", "package", spell(bc.Formula.Name, bc.Version, bc.Selection, bc.Compiler.Family))
	if len(c.Keys.Add) > 0 {
		output.Info("keys", "add_key", c.Keys.AddList())
	}
	if len(c.Keys.Del) > 0 {
		output.Info("keys", "del_key", c.Keys.DelList())
	}
	logVars("env", c.Env)
	logVars("prepend", c.Prepend)

	out := cmd.OutOrStdout()
	if c.Arch != nil {
		_, err := out.Write(c.Arch.Render())
		return err
	}
	if len(c.Args) > 0 {
		fmt.Fprintln(out, strings.Join(c.Args, "\n"))
	}
	return nil
}

// logVars logs the variables of m at debug level, sorted by name.
func logVars(kind string, m map[string]string) {
	for _, k := range slices.Sorted(maps.Keys(m)) {
		output.Debug(kind, k, m[k])
	}
}
