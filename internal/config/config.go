// Package config defines the .jrewrite.yaml configuration and its defaults.
package config

// Config is the top-level configuration.
type Config struct {
	// JavaVersion is the language level for files no build file covers.
	JavaVersion string `yaml:"java_version"`
	// Rules names the enabled rules. Empty enables every built-in and
	// custom rule.
	Rules []string `yaml:"rules"`
	// Classpath lists extra type stub files, relative to the config file.
	Classpath []string `yaml:"classpath"`
	// Exclude holds gitignore-style patterns of files to skip.
	Exclude     []string     `yaml:"exclude"`
	Workers     int          `yaml:"workers"`
	MaxFileSize int          `yaml:"max_file_size"`
	CustomRules []RuleConfig `yaml:"custom_rules"`

	// Dir is the directory of the loaded config file, "" for defaults.
	Dir string `yaml:"-"`
}

// RuleConfig declares a rule in YAML.
type RuleConfig struct {
	Name           string           `yaml:"name"`
	DisplayName    string           `yaml:"display_name"`
	Description    string           `yaml:"description"`
	Effort         string           `yaml:"effort"` // a time.Duration, e.g. 5m
	Pattern        string           `yaml:"pattern"`
	MatchOverrides bool             `yaml:"match_overrides"`
	Applicability  *PredicateConfig `yaml:"applicability"`
	// Template is fixed replacement text. TemplateArgs builds one slot per
	// call argument instead. Exactly one must be set.
	Template     string        `yaml:"template"`
	TemplateArgs *JoinedConfig `yaml:"template_args"`
	Imports      []string      `yaml:"imports"`
	Arities      []int         `yaml:"arities"`
}

// JoinedConfig repeats Slot once per call argument between Prefix and
// Suffix.
type JoinedConfig struct {
	Prefix    string `yaml:"prefix"`
	Slot      string `yaml:"slot"`
	Separator string `yaml:"separator"`
	Suffix    string `yaml:"suffix"`
}

// PredicateConfig is one node of an applicability gate. Exactly one field
// is set.
type PredicateConfig struct {
	JavaVersion int               `yaml:"java_version"`
	Uses        string            `yaml:"uses"`
	All         []PredicateConfig `yaml:"all"`
	Any         []PredicateConfig `yaml:"any"`
	Not         *PredicateConfig  `yaml:"not"`
}

// Defaults.
const (
	DefaultMaxFileSize = 1_000_000 // 1 MB
	DefaultCacheFile   = ".jrewrite-cache"
)

// DefaultConfig returns a Config with every field at its default.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize: DefaultMaxFileSize,
	}
}
