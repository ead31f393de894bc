package internal

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ukri-bench/varbuild/pkgs/compiler"
)

var checkCmd = &cobra.Command{
	Use:   "check <package>[@version] [variants...] [%compiler]",
	Short: "Validate a variant selection",
	Long: `Check validates a package request against the recipe's variants and
constraints and prints the normalized selection. Every violated constraint is
reported, one per line.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	req, err := loadRequest(cmd, args)
	if err != nil {
		return err
	}
	version, err := req.recipe.CheckVersion(req.Version)
	if err != nil {
		return err
	}
	sel, err := req.recipe.Select(req.Values)
	if err != nil {
		return err
	}
	prof, err := compiler.Lookup(req.Compiler)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), spell(req.recipe.Name, version, sel, prof.Family))
	return nil
}
