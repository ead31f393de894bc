package internal

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/ukri-bench/varbuild/internal/output"
	"github.com/ukri-bench/varbuild/pkgs/wrapper"
)

var (
	wrapperPrefix string
	wrapperOut    string
	wrapperPrint  bool
)

var wrapperCmd = &cobra.Command{
	Use:   "wrapper <package>[@version] [variants...]",
	Short: "Generate the runtime wrapper script of a package",
	Long: `Wrapper renders the launcher script installed with a package for the given
selection. By default it is written to <prefix>/bin/<name>; --print writes it
to stdout instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWrapper,
}

func init() {
	wrapperCmd.Flags().StringVar(&wrapperPrefix, "prefix", "", "install prefix the wrapper refers to (required)")
	wrapperCmd.Flags().StringVarP(&wrapperOut, "output", "o", "", "output path (default <prefix>/bin/<wrapper name>)")
	wrapperCmd.Flags().BoolVar(&wrapperPrint, "print", false, "write the script to stdout")
	rootCmd.AddCommand(wrapperCmd)
}

func runWrapper(cmd *cobra.Command, args []string) error {
	if wrapperPrefix == "" {
		return fmt.Errorf("--prefix is required")
	}
	req, err := loadRequest(cmd, args)
	if err != nil {
		return err
	}
	if req.recipe.Wrapper == nil {
		return fmt.Errorf("package %s has no runtime wrapper", req.recipe.Name)
	}
	if _, err := req.recipe.CheckVersion(req.Version); err != nil {
		return err
	}
	sel, err := req.recipe.Select(req.Values)
	if err != nil {
		return err
	}
	prefix, err := filepath.Abs(wrapperPrefix)
	if err != nil {
		return err
	}
	spec := req.recipe.Wrapper(prefix, sel)

	if wrapperPrint {
		script, _, err := wrapper.Render(spec)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(script)
		return err
	}

	path := wrapperOut
	if path == "" {
		path = filepath.Join(prefix, "bin", spec.Name)
	}
	if err := wrapper.Write(path, spec); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output.Noun(path))
	return nil
}
