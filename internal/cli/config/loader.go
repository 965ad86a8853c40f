package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	intconfig "github.com/leapstack-labs/leapshader/internal/config"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// EnvPrefix prefixes every environment variable read by the loader.
const EnvPrefix = "LEAPSHADER_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// findConfigFile finds the config file to use.
// Priority: explicit path > leapshader.yaml > leapshader.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return intconfig.FindConfigFile(".")
}

// findProjectRootUpward searches upward from startDir for a leapshader config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if intconfig.FindConfigFile(dir) != "" {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the project root from CLI flags and filesystem.
// Priority:
//  1. Infer from --shaders-dir (parent if contains config or named "shaders")
//  2. Search upward from CWD for leapshader.yaml
//  3. Current working directory
func inferProjectRoot(flags *pflag.FlagSet) string {
	if flags != nil {
		if shadersDir, _ := flags.GetString("shaders-dir"); shadersDir != "" && flags.Changed("shaders-dir") {
			absShaders, err := filepath.Abs(shadersDir)
			if err == nil {
				parent := filepath.Dir(absShaders)
				if intconfig.FindConfigFile(parent) != "" {
					return parent
				}
				if filepath.Base(absShaders) == intconfig.DefaultShadersDir {
					return parent
				}
			}
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		if root := findProjectRootUpward(cwd); root != "" {
			return root
		}
	}

	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	return cwd
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// envKey maps LEAPSHADER_COMPILE__QUIET_PERIOD to compile.quiet_period.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// flagKey maps an explicitly changed flag to its config key.
func flagKey(name string) string {
	key := strings.ReplaceAll(name, "-", "_")
	// --state is short for state_path
	if key == "state" {
		return "state_path"
	}
	return key
}

// pathFlags are flags whose values are relative to the working directory.
var pathFlags = []string{"shaders-dir", "examples-dir", "state"}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	projectRoot := inferProjectRoot(flags)

	// Paths given as flags are relative to CWD, not to the project root.
	flagPaths := map[string]string{}
	if flags != nil {
		for _, name := range pathFlags {
			if !flags.Changed(name) {
				continue
			}
			if v, _ := flags.GetString(name); v != "" {
				if abs, err := filepath.Abs(v); err == nil {
					flagPaths[name] = abs
				}
			}
		}
	}

	if cfgFile != "" && projectRoot == inferProjectRoot(nil) {
		if absPath, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(absPath)
		}
	}

	// 1. Defaults
	defaults := intconfig.DefaultsMap()
	defaults["state_path"] = DefaultStateFile
	defaults["verbose"] = false
	defaults["output"] = DefaultOutput
	defaults["ui.port"] = DefaultUIPort
	defaults["ui.auto_open"] = true
	defaults["ui.watch"] = true
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file, searched in the project root when not explicit
	if cfgFile == "" {
		cfgFile = intconfig.FindConfigFile(projectRoot)
	}
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ProjectRoot = projectRoot
	cfg.ShadersDir = resolve(cfg.ShadersDir, flagPaths["shaders-dir"], projectRoot)
	cfg.ExamplesDir = resolve(cfg.ExamplesDir, flagPaths["examples-dir"], projectRoot)
	cfg.StatePath = resolve(cfg.StatePath, flagPaths["state"], projectRoot)

	intconfig.ApplyCompileDefaults(&cfg.Compile)
	intconfig.ApplyPreviewDefaults(&cfg.Preview)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	currentConfig = &cfg
	return &cfg, nil
}

// resolve prefers the absolute flag path, then resolves against root.
func resolve(value, flagPath, root string) string {
	if flagPath != "" {
		return flagPath
	}
	if value == ":memory:" {
		return value
	}
	return intconfig.ResolvePath(value, root)
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return slog.New(slog.DiscardHandler)
}
