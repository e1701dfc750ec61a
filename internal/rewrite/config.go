package rewrite

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the autoname.yaml configuration consumed by the build-time
// rewriter. The zero value rewrites every qualifying assignment and injects
// options qualified with DefaultQualifier.
type Config struct {
	// OptionPackage is the package qualifier of the injected Name option
	// (e.g. "rv" produces rv.Name("x")). Defaults to DefaultQualifier.
	OptionPackage string `yaml:"option_package,omitempty"`

	// OptionImport is the import path added to a rewritten file when the
	// option package is not already imported. Optional; when empty the file
	// is assumed to import the option package itself.
	OptionImport string `yaml:"option_import,omitempty"`

	// Constructors restricts rewriting to calls qualified by these package
	// names (e.g. ["rv", "dist"]). Empty rewrites every qualifying call.
	Constructors []string `yaml:"constructors,omitempty"`

	// Functions restricts rewriting to these top-level function names.
	// Empty rewrites every function in a file.
	Functions []string `yaml:"functions,omitempty"`
}

// ParseConfig parses and validates a yaml configuration. path is used in
// error messages only.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for _, name := range cfg.Functions {
		if name == "" {
			return nil, fmt.Errorf("%s: empty function name", path)
		}
	}
	for _, name := range cfg.Constructors {
		if name == "" {
			return nil, fmt.Errorf("%s: empty constructor qualifier", path)
		}
	}
	return &cfg, nil
}

// LoadConfig reads and parses a yaml configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data, path)
}

// transformer builds the AutoName transform described by the config.
func (c *Config) transformer() *AutoName {
	return &AutoName{Qual: c.OptionPackage, Only: c.Constructors}
}

// rewriteAll reports whether every function in a file should be rewritten.
func (c *Config) rewriteAll() bool { return len(c.Functions) == 0 }

func (c *Config) wantsFunc(name string) bool {
	if c.rewriteAll() {
		return true
	}
	for _, fn := range c.Functions {
		if fn == name {
			return true
		}
	}
	return false
}
