package internal

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ukri-bench/varbuild/internal/config"
	"github.com/ukri-bench/varbuild/internal/output"
)

// Version is the varbuild version (set via -ldflags).
var Version = "dev"

var (
	cfgFile string

	// settings of the running command, loaded before it runs
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "varbuild",
	Short: "varbuild turns package variant selections into native build configurations",
	Long: `varbuild validates the variants selected for a package recipe, resolves the
dependencies they pull in and synthesizes the configuration of the package's
native build tool (FCM arch files and makenemo keys, CMake defines).

Packages are requested with a spack-like syntax:

  varbuild check nemo +ice ~xios config=BENCH %gcc
  varbuild arch nemo +xios --with xios=/opt/xios@2.5`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/varbuild/config.{cue,yaml,toml})")
	f.BoolP("verbose", "v", false, "enable verbose output")
	f.IntP("jobs", "j", 0, "parallel jobs passed to the native build tool (default: number of CPUs)")
	f.String("compiler", "", "default compiler family: gcc, nvhpc, oneapi or cce")
	f.String("stage-root", "", "directory holding per-attempt staging directories")
	f.Bool("strict-host-conflicts", false, "reject selections known to break on common hosts")
}

// flagKeys maps persistent flags to configuration keys.
var flagKeys = map[string]string{
	"verbose":               "verbose",
	"jobs":                  "jobs",
	"compiler":              "compiler",
	"stage-root":            "stage_root",
	"strict-host-conflicts": "strict_host_conflicts",
}

func loadConfig(cmd *cobra.Command, args []string) error {
	v := config.NewViper()
	if err := bindFlags(v, cmd); err != nil {
		return err
	}
	c, path, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = c
	output.SetupLoggingTo(cmd.ErrOrStderr(), cfg.Verbose)
	if path != "" {
		output.Debug("loaded configuration", "file", path)
	}
	return nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		fl := cmd.Flags().Lookup(name)
		if fl == nil {
			continue
		}
		if err := v.BindPFlag(key, fl); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// printErr writes err one problem per line.
func printErr(w io.Writer, _ fang.Styles, err error) {
	for _, line := range output.ErrorLines(err) {
		fmt.Fprintln(w, line)
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(Version),
		fang.WithErrorHandler(printErr),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
