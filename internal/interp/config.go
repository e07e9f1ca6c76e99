package interp

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the interpreter context's load-time configuration (spec.md
// §6.5, the "explicit interpreter context" Design Notes §9 asks for
// instead of package-level globals). A zero Config is valid and yields
// the same defaults as if no --config flag were given.
type Config struct {
	Seed     *uint64 `yaml:"seed"`
	MaxTicks int     `yaml:"maxTicks"`
	Trace    struct {
		Verbosity int  `yaml:"verbosity"`
		Stderr    bool `yaml:"stderr"`
	} `yaml:"trace"`
}

// LoadConfig reads and parses a YAML config file. A missing optional
// field simply keeps its zero value.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
