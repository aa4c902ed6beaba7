// Package config resolves the settings of a dynload run from built-in
// defaults, an optional YAML file and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/qubicDB/dynload/pkg/dynlib"
	"github.com/qubicDB/dynload/pkg/example"
)

// ---------------------------------------------------------------------------
// Config — settings for one load-and-call run.
//
// Values are resolved through a three-level hierarchy where each layer
// overrides the one beneath it:
//
//	Priority (highest → lowest):
//	  1. Explicitly-set CLI flags
//	  2. YAML configuration file (--config)
//	  3. Built-in defaults
//
// No environment variables are consulted.
// ---------------------------------------------------------------------------

// Output formats understood by the report package.
const (
	FormatText    = "text"
	FormatYAML    = "yaml"
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// DefaultBuildDir is the directory, relative to the executable, searched
// when library.dir is not set.
const DefaultBuildDir = "build"

// LibraryConfig locates the dynamic library.
type LibraryConfig struct {
	// Name is the logical library name without prefix or extension.
	Name string `yaml:"name"`
	// Dir is the base directory holding one subdirectory per OS family.
	// Empty means <executable dir>/build.
	Dir string `yaml:"dir"`
	// OS selects the target family (Windows, Linux, Darwin). Empty means
	// the host.
	OS string `yaml:"os"`
}

// CallConfig describes the exported function to invoke.
type CallConfig struct {
	Symbol string  `yaml:"symbol"`
	Args   []int32 `yaml:"args"`
}

// OutputConfig controls what is printed.
type OutputConfig struct {
	Format string `yaml:"format"`
	// Quiet suppresses progress messages.
	Quiet bool `yaml:"quiet"`
}

// Config is the root configuration.
type Config struct {
	Library LibraryConfig `yaml:"library"`
	Call    CallConfig    `yaml:"call"`
	Output  OutputConfig  `yaml:"output"`
}

// ---------------------------------------------------------------------------
// Factory functions
// ---------------------------------------------------------------------------

// DefaultConfig returns the configuration of the bundled example: add(10, 20)
// from the "example" library.
func DefaultConfig() *Config {
	return &Config{
		Library: LibraryConfig{
			Name: example.LibraryName,
		},
		Call: CallConfig{
			Symbol: example.AddSymbol,
			Args:   []int32{10, 20},
		},
		Output: OutputConfig{
			Format: FormatText,
		},
	}
}

// ConfigFromFile reads a YAML configuration file and merges it on top of
// the built-in defaults. Fields absent from the file retain their defaults.
func ConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return cfg, nil
}

// LoadConfig returns the defaults, overlaid with configPath when it is
// non-empty. The caller may then apply CLI overrides.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}
	return ConfigFromFile(configPath)
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate checks the configuration and normalises the output format.
// library.os is not checked here; dynlib reports unsupported platforms.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Library.Name) == "" {
		return fmt.Errorf("library.name must not be empty")
	}
	if strings.TrimSpace(c.Call.Symbol) == "" {
		return fmt.Errorf("call.symbol must not be empty")
	}
	if len(c.Call.Args) > dynlib.MaxInt32Args {
		return fmt.Errorf("call.args takes at most %d values, got %d", dynlib.MaxInt32Args, len(c.Call.Args))
	}

	format := strings.ToLower(strings.TrimSpace(c.Output.Format))
	switch format {
	case FormatText, FormatYAML, FormatJSON, FormatMsgpack:
	default:
		return fmt.Errorf("output.format must be one of text|yaml|json|msgpack, got %q", c.Output.Format)
	}
	c.Output.Format = format
	return nil
}

// LibraryDir returns library.dir, or <executable dir>/build when unset.
func (c *Config) LibraryDir() (string, error) {
	if c.Library.Dir != "" {
		return c.Library.Dir, nil
	}
	dir, err := dynlib.DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultBuildDir), nil
}

// ---------------------------------------------------------------------------
// CLI flag overrides — final layer of the configuration hierarchy.
// ---------------------------------------------------------------------------

// CLIOverrides carries optional values set via command-line flags.
// Pointer fields are nil when the flag was not explicitly provided,
// allowing the caller to distinguish "not set" from the zero value.
type CLIOverrides struct {
	ConfigPath *string
	Name       *string
	Dir        *string
	OS         *string
	Format     *string
	Quiet      *bool
}

// ApplyCLIOverrides patches the Config with any explicitly-set CLI flags.
func (c *Config) ApplyCLIOverrides(o *CLIOverrides) {
	if o == nil {
		return
	}
	if o.Name != nil {
		c.Library.Name = *o.Name
	}
	if o.Dir != nil {
		c.Library.Dir = *o.Dir
	}
	if o.OS != nil {
		c.Library.OS = *o.OS
	}
	if o.Format != nil {
		c.Output.Format = *o.Format
	}
	if o.Quiet != nil {
		c.Output.Quiet = *o.Quiet
	}
}
