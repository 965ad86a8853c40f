package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "leapshader.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "leapshader.yml"

// LoadFromDir loads a ProjectConfig from the given directory.
// It looks for leapshader.yaml or leapshader.yml in the directory.
// Returns defaults if no config file is found. Relative directories are
// resolved against dir.
func LoadFromDir(dir string) (*ProjectConfig, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(DefaultsMap(), "."), nil); err != nil {
		return nil, err
	}

	if configPath := FindConfigFile(dir); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	var cfg ProjectConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	cfg.ShadersDir = ResolvePath(cfg.ShadersDir, dir)
	cfg.ExamplesDir = ResolvePath(cfg.ExamplesDir, dir)
	return &cfg, nil
}

// FindConfigFile finds the config file in the given directory.
// Returns empty string if not found.
func FindConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// FindProjectRoot walks up from the given directory to find a directory
// containing leapshader.yaml or leapshader.yml.
// Returns empty string if not found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for {
		if FindConfigFile(dir) != "" {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ResolvePath resolves path relative to baseDir if it's not absolute.
func ResolvePath(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
