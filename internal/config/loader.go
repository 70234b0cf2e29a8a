package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// configFileNames is the ordered list of config file names to search for.
var configFileNames = []string{
	".jrewrite.yaml",
	".jrewrite.yml",
	"jrewrite.yaml",
	"jrewrite.yml",
}

// Discover returns the path of the first config file found in dir, or ""
// when there is none.
func Discover(dir string) string {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads the config file at configPath, or the one Discover finds in
// dir when configPath is empty. Without a config file it returns
// DefaultConfig. Fields missing from the file keep their defaults.
func Load(dir, configPath string) (*Config, error) {
	if configPath == "" {
		configPath = Discover(dir)
	}
	if configPath == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
	}
	cfg.Dir = filepath.Dir(configPath)
	return cfg, nil
}

// ClasspathFiles returns the stub files with paths resolved against the
// config file's directory.
func (c *Config) ClasspathFiles() []string {
	out := make([]string, len(c.Classpath))
	for i, p := range c.Classpath {
		if filepath.IsAbs(p) || c.Dir == "" {
			out[i] = p
		} else {
			out[i] = filepath.Join(c.Dir, p)
		}
	}
	return out
}
