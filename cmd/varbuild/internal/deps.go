package internal

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var depsFormat string

var depsCmd = &cobra.Command{
	Use:   "deps <package>[@version] [variants...]",
	Short: "List the dependencies a selection activates",
	Long: `Deps validates a package request and lists the dependencies its selection
activates, in declaration order, with their version constraints and types.
Known locations (from the config file or --with) are included.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDeps,
}

func init() {
	depsCmd.Flags().StringVarP(&depsFormat, "output", "o", "plain", "output format: plain or yaml")
	addWithFlag(depsCmd)
	rootCmd.AddCommand(depsCmd)
}

// depEntry is one dependency in the yaml output of deps.
type depEntry struct {
	Name       string `yaml:"name"`
	Constraint string `yaml:"version,omitempty"`
	Variants   string `yaml:"variants,omitempty"`
	Types      string `yaml:"types"`
	Prefix     string `yaml:"prefix,omitempty"`
	Version    string `yaml:"installed,omitempty"`
}

func runDeps(cmd *cobra.Command, args []string) error {
	if depsFormat != "plain" && depsFormat != "yaml" {
		return fmt.Errorf("unknown output format %q", depsFormat)
	}
	req, err := loadRequest(cmd, args)
	if err != nil {
		return err
	}
	if _, err := req.recipe.CheckVersion(req.Version); err != nil {
		return err
	}
	sel, err := req.recipe.Select(req.Values)
	if err != nil {
		return err
	}

	var entries []depEntry
	for _, d := range req.recipe.Resolve(sel) {
		loc := req.locations[d.Name]
		entries = append(entries, depEntry{
			Name:       d.Name,
			Constraint: d.Constraint,
			Variants:   d.Variants,
			Types:      d.Types.String(),
			Prefix:     loc.Prefix,
			Version:    loc.Version,
		})
	}

	out := cmd.OutOrStdout()
	if depsFormat == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	}
	for _, e := range entries {
		constraint := e.Constraint
		if constraint == "" {
			constraint = "*"
		}
		fmt.Fprintf(out, "%s %s %s\n", e.Name, constraint, e.Types)
	}
	return nil
}
