// Package config loads varbuild settings from defaults, an optional config
// file (CUE, YAML or TOML) and VARBUILD_* environment variables.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/viper"
	"github.com/ukri-bench/varbuild/formula"
	"github.com/ukri-bench/varbuild/internal/env"
)

// EnvPrefix prefixes every environment variable read by the loader.
const EnvPrefix = "VARBUILD"

// ConfigFileName is the base name of config files looked up in ConfigDir.
const ConfigFileName = "config"

// configExts are the config file formats searched, in order.
var configExts = []string{"cue", "yaml", "yml", "toml"}

//go:embed config_schema.cue
var configSchema string

// Config holds the settings of a varbuild invocation.
type Config struct {
	Jobs                int                         `mapstructure:"jobs"`
	Compiler            string                      `mapstructure:"compiler"`
	StageRoot           string                      `mapstructure:"stage_root"`
	Verbose             bool                        `mapstructure:"verbose"`
	StrictHostConflicts bool                        `mapstructure:"strict_host_conflicts"`
	Deps                map[string]formula.Location `mapstructure:"deps"`
}

// ConfigDir returns the per-user configuration directory of varbuild.
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "varbuild"), nil
}

// NewViper returns a viper instance carrying the defaults and reading
// VARBUILD_* environment variables. Callers may bind flags to it before
// calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("jobs", runtime.NumCPU())
	v.SetDefault("compiler", "gcc")
	if stageRoot, err := env.StageRoot(); err == nil {
		v.SetDefault("stage_root", stageRoot)
	}
	v.SetDefault("verbose", false)
	v.SetDefault("strict_host_conflicts", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file at path into v and decodes the result. With an
// empty path the first config.{cue,yaml,yml,toml} found in ConfigDir is
// used; no file at all means defaults only.
func Load(v *viper.Viper, path string) (*Config, string, error) {
	if path == "" {
		found, err := findConfigFile()
		if err != nil {
			return nil, "", err
		}
		path = found
	} else if _, err := os.Stat(path); err != nil {
		return nil, "", fmt.Errorf("config file: %w", err)
	}

	if path != "" {
		if err := readFile(v, path); err != nil {
			return nil, "", fmt.Errorf("load configuration: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}
	return &cfg, path, nil
}

func findConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		// no config dir on this platform, run on defaults
		return "", nil
	}
	for _, ext := range configExts {
		path := filepath.Join(dir, ConfigFileName+"."+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", nil
}

// maxConfigSize bounds the size of a config file.
const maxConfigSize = 1 << 20

// FileError reports a config file that could not be read or validated.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	var ce cueerrors.Error
	if errors.As(e.Err, &ce) {
		// Details lists every error with its position, one per line.
		return fmt.Sprintf("%s: %s", e.Path, strings.TrimSpace(cueerrors.Details(e.Err, nil)))
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

func readFile(v *viper.Viper, path string) error {
	data, err := readLimited(path)
	if err != nil {
		return &FileError{Path: path, Err: err}
	}
	var settings map[string]any
	if filepath.Ext(path) == ".cue" {
		settings, err = decodeCUE(data, path)
		if err != nil {
			return &FileError{Path: path, Err: err}
		}
		if err := v.MergeConfigMap(settings); err != nil {
			return &FileError{Path: path, Err: err}
		}
		return nil
	}
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return &FileError{Path: path, Err: err}
	}
	return nil
}

func readLimited(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxConfigSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxConfigSize {
		return nil, fmt.Errorf("config file exceeds %d bytes", maxConfigSize)
	}
	return data, nil
}

// decodeCUE unifies data with #Config and returns the resulting settings.
// Every field is optional, so only non-concrete values are accepted.
func decodeCUE(data []byte, path string) (map[string]any, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(configSchema).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}
	val := schema.Unify(ctx.CompileBytes(data, cue.Filename(path)))
	if err := val.Validate(cue.Concrete(false)); err != nil {
		return nil, err
	}
	var settings map[string]any
	if err := val.Decode(&settings); err != nil {
		return nil, err
	}
	return settings, nil
}
