package internal

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ukri-bench/varbuild/internal/output"
	"github.com/ukri-bench/varbuild/internal/recipes"
)

var listCmd = &cobra.Command{
	Use:   "list [package]",
	Short: "List recipes or the variants of one recipe",
	Long: `Without arguments, list lists the built-in recipes. Given a package name it
prints the package's versions and the variants it declares.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	opts := recipes.Options{StrictHostConflicts: cfg.StrictHostConflicts}

	if len(args) == 0 {
		t := output.NewTable("PACKAGE", "VERSIONS", "SUMMARY")
		for _, name := range recipes.Names() {
			r, err := recipes.Lookup(name, opts)
			if err != nil {
				return err
			}
			t.Row(name, strings.Join(r.Versions, ", "), r.Summary)
		}
		fmt.Fprintln(out, t.String())
		return nil
	}

	r, err := recipes.Lookup(args[0], opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %s\n", output.Noun(r.Name), r.Summary)
	if r.Homepage != "" {
		fmt.Fprintf(out, "homepage: %s\n", r.Homepage)
	}
	fmt.Fprintf(out, "versions: %s\n\n", strings.Join(r.Versions, ", "))

	t := output.NewTable("VARIANT", "KIND", "DEFAULT", "VALUES", "DESCRIPTION")
	for _, o := range r.Schema.Options() {
		t.Row(o.Name, o.Kind.String(), o.Default, strings.Join(o.Allowed, ", "), o.Description)
	}
	fmt.Fprintln(out, t.String())
	return nil
}
