package internal

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ukri-bench/varbuild/internal/output"
)

var (
	buildSource string
	buildPrefix string
)

var buildCmd = &cobra.Command{
	Use:   "build <package>[@version] [variants...] [%compiler]",
	Short: "Configure, build and install a package",
	Long: `Build validates a package request, synthesizes the native build
configuration and runs the recipe's configure, build and install phases on
the given source tree. The attempt is staged in a private directory under the
stage root; a concurrent attempt of the same selection fails immediately.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildSource, "source", "", "source tree to build (required)")
	buildCmd.Flags().StringVar(&buildPrefix, "prefix", "", "install prefix (required)")
	addWithFlag(buildCmd)
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	if buildSource == "" || buildPrefix == "" {
		return errors.New("--source and --prefix are required")
	}
	req, err := loadRequest(cmd, args)
	if err != nil {
		return err
	}

	b := newBuilder()
	if cfg.Verbose {
		b.Stdout = cmd.OutOrStdout()
		b.Stderr = cmd.ErrOrStderr()
	}
	m, err := b.Build(cmd.Context(), req.buildRequest(buildSource, buildPrefix))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %%%s\n",
		output.StyleAdd.Render("installed"), output.Noun(m.Package+"@"+m.Version), output.Selection(m.Selection), m.Compiler)
	return nil
}
