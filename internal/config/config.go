// Package config loads forge run files: a YAML list of fixture jobs with
// shared seed, depth and concurrency settings.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store kinds a job can seed into. An empty store means the job only
// generates output.
const (
	StoreMemory = "memory"
	StoreBbolt  = "bbolt"
	StoreSQLite = "sqlite"
)

// Output formats for generate jobs.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Defaults applied by Load.
const (
	DefaultConcurrency = 4
	DefaultMaxDepth    = 3
	DefaultFormat      = FormatJSON
	DefaultOutput      = "-"
)

// Config is a run file.
type Config struct {
	// Seed makes every job reproducible. Zero seeds from crypto/rand.
	Seed uint64 `yaml:"seed,omitempty"`
	// MaxDepth bounds self-referential fixtures unless a job overrides it.
	MaxDepth int `yaml:"max_depth,omitempty"`
	// Concurrency is the number of jobs run at once.
	Concurrency int `yaml:"concurrency,omitempty"`
	// Rate limits job starts per second. Zero is unlimited.
	Rate float64 `yaml:"rate,omitempty"`
	Jobs []Job   `yaml:"jobs"`
}

// Job generates or seeds one fixture.
type Job struct {
	Name     string `yaml:"name,omitempty"`
	Fixture  string `yaml:"fixture"`
	Count    int    `yaml:"count,omitempty"`
	MaxDepth int    `yaml:"max_depth,omitempty"`

	Store string `yaml:"store,omitempty"`
	Path  string `yaml:"path,omitempty"`

	Format string `yaml:"format,omitempty"`
	Output string `yaml:"output,omitempty"`
}

// Seeds reports whether the job persists into a store rather than writing output.
func (j Job) Seeds() bool { return j.Store != "" }

// Load reads the run file at path. Environment variables in the file are
// expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a run file, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	for i := range c.Jobs {
		j := &c.Jobs[i]
		if j.Name == "" {
			j.Name = fmt.Sprintf("%s-%d", j.Fixture, i)
		}
		if j.MaxDepth <= 0 {
			j.MaxDepth = c.MaxDepth
		}
		if !j.Seeds() {
			if j.Format == "" {
				j.Format = DefaultFormat
			}
			if j.Output == "" {
				j.Output = DefaultOutput
			}
		}
	}
}

// Validate checks the run file for structural errors.
func (c *Config) Validate() error {
	if len(c.Jobs) == 0 {
		return errors.New("config: no jobs defined")
	}
	if c.Rate < 0 {
		return fmt.Errorf("config: rate must be non-negative, got %v", c.Rate)
	}

	names := make(map[string]bool, len(c.Jobs))
	for i, j := range c.Jobs {
		if j.Fixture == "" {
			return fmt.Errorf("config: job %d: fixture is required", i)
		}
		if names[j.Name] {
			return fmt.Errorf("config: job %d: duplicate name %q", i, j.Name)
		}
		names[j.Name] = true

		if j.Count < 0 {
			return fmt.Errorf("config: job %q: count must be non-negative, got %d", j.Name, j.Count)
		}
		switch j.Store {
		case "", StoreMemory:
		case StoreBbolt, StoreSQLite:
			if j.Path == "" {
				return fmt.Errorf("config: job %q: %s store requires a path", j.Name, j.Store)
			}
		default:
			return fmt.Errorf("config: job %q: unknown store %q", j.Name, j.Store)
		}
		if !j.Seeds() && j.Format != FormatJSON && j.Format != FormatYAML {
			return fmt.Errorf("config: job %q: unknown format %q", j.Name, j.Format)
		}
	}
	return nil
}

// LoadEnv loads .env and .env.local from the working directory if present.
// Variables already set in the process environment win.
func LoadEnv() error {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

const example = `# forge run file
seed: 42
max_depth: 3
concurrency: 4

jobs:
  - name: users
    fixture: users
    count: 25
    store: sqlite
    path: fixtures.db
  - fixture: categories
    count: 5
    store: bbolt
    path: fixtures.bolt
  - fixture: actions
    count: 100
    format: yaml
    output: actions.yaml
`

// Init writes an example run file to path.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(example), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
