package atomese

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/opencog/question2atomese/pkg/relex"
)

//go:embed default.yaml
var defaultConfigYAML []byte

// Config controls how RelEx relations map onto Atomese.
type Config struct {
	// QueryVariable is the RelEx word that stands for the asked-for value.
	QueryVariable string `yaml:"query_variable"`
	// Attributes are unary relations kept as word features.
	Attributes []string `yaml:"attributes"`
	// Ignore lists binary relations dropped before conversion.
	Ignore []string `yaml:"ignore"`
	// Rename maps RelEx relation names to Atomese predicate names.
	Rename map[string]string `yaml:"rename"`
}

// DefaultConfig returns the embedded default mapping.
func DefaultConfig() *Config {
	cfg, err := ParseConfig(defaultConfigYAML)
	if err != nil {
		panic(fmt.Sprintf("invalid embedded atomese config: %v", err))
	}
	return cfg
}

// ParseConfig decodes a YAML mapping.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse atomese config: %w", err)
	}
	for _, a := range cfg.Attributes {
		if a == relex.NameFeature {
			return nil, fmt.Errorf("failed to parse atomese config: %q is reserved for word names and cannot be an attribute", a)
		}
	}
	if cfg.Rename == nil {
		cfg.Rename = make(map[string]string)
	}
	return cfg, nil
}

// LoadConfig reads the YAML file at path and merges it over the defaults.
// An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read atomese config: %w", err)
	}
	override, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}

	cfg.Merge(override)
	return cfg, nil
}

// Merge adds the entries of other to c. Scalar values of other win when set.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.QueryVariable != "" {
		c.QueryVariable = other.QueryVariable
	}
	c.Attributes = appendUnique(c.Attributes, other.Attributes...)
	c.Ignore = appendUnique(c.Ignore, other.Ignore...)
	if c.Rename == nil {
		c.Rename = make(map[string]string, len(other.Rename))
	}
	for k, v := range other.Rename {
		c.Rename[k] = v
	}
}

func (c *Config) IsIgnored(relation string) bool {
	for _, name := range c.Ignore {
		if name == relation {
			return true
		}
	}
	return false
}

// PredicateName returns the Atomese predicate name for a RelEx relation.
func (c *Config) PredicateName(relation string) string {
	if renamed, ok := c.Rename[relation]; ok && renamed != "" {
		return renamed
	}
	return relation
}

func appendUnique(dst []string, values ...string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}
