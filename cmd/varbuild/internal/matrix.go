package internal

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ukri-bench/varbuild/internal/output"
	"github.com/ukri-bench/varbuild/internal/recipes"
)

var matrixCmd = &cobra.Command{
	Use:   "matrix <package>",
	Short: "Enumerate every valid selection of a recipe",
	Long: `Matrix enumerates the cartesian product of the recipe's boolean and choice
variants (free-form variants keep their default) and prints the combinations
that satisfy every constraint.`,
	Args: cobra.ExactArgs(1),
	RunE: runMatrix,
}

func init() {
	rootCmd.AddCommand(matrixCmd)
}

func runMatrix(cmd *cobra.Command, args []string) error {
	r, err := recipes.Lookup(args[0], recipes.Options{StrictHostConflicts: cfg.StrictHostConflicts})
	if err != nil {
		return err
	}
	valid, total := r.Selections()
	out := cmd.OutOrStdout()
	for _, sel := range valid {
		fmt.Fprintln(out, output.Selection(sel.String()))
	}
	fmt.Fprintln(out, output.StyleDim.Render(fmt.Sprintf("%d of %d combinations valid", len(valid), total)))
	return nil
}
