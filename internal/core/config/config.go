// Package config handles configuration loading and validation for backdate.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/backdate/internal/core/plan"
	"github.com/colonyops/backdate/pkg/timeutil"
)

// Author is one weighted commit identity from the config file.
type Author struct {
	Name   string  `yaml:"name" json:"name"`
	Email  string  `yaml:"email" json:"email"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// Config holds the application configuration.
type Config struct {
	RepoPath     string   `yaml:"repo_path" json:"repo_path"`
	Duration     string   `yaml:"duration" json:"duration"`
	TotalCommits *int     `yaml:"total_commits" json:"total_commits"`
	Mode         string   `yaml:"mode" json:"mode"`
	Patterns     []string `yaml:"patterns" json:"patterns"`
	Authors      []Author `yaml:"authors" json:"authors"`
	GitPath      string   `yaml:"git_path" json:"git_path"`
	Seed         *int64   `yaml:"seed" json:"seed"`

	// window is the parsed Duration, populated by Load.
	window time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RepoPath: ".",
		Duration: "7d",
		Mode:     string(plan.ModeEven),
		Patterns: []string{"**/*"},
		GitPath:  "git",
	}
}

// Load reads configuration from the given path. Files ending in .json are
// parsed as JSON; everything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg.window, err = timeutil.ParseDuration(cfg.Duration)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.GitPath == "" {
		c.GitPath = defaults.GitPath
	}
	if c.Mode == "" {
		c.Mode = defaults.Mode
	}
	if c.RepoPath == "" {
		c.RepoPath = defaults.RepoPath
	}
	if len(c.Patterns) == 0 {
		c.Patterns = defaults.Patterns
	}

	// A lone author needs no explicit weight.
	if len(c.Authors) == 1 && c.Authors[0].Weight == 0 {
		c.Authors[0].Weight = 1.0
	}
}

// Window returns the parsed scheduling duration. Only valid after Load.
func (c *Config) Window() time.Duration {
	return c.window
}

// PlanOptions converts the config into planner options.
func (c *Config) PlanOptions() plan.Options {
	authors := make([]plan.Author, 0, len(c.Authors))
	for _, a := range c.Authors {
		authors = append(authors, plan.Author{Name: a.Name, Email: a.Email, Weight: a.Weight})
	}

	return plan.Options{
		Duration:     c.window,
		TotalCommits: c.TotalCommits,
		Mode:         plan.Mode(c.Mode),
		Authors:      authors,
	}
}
