package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validYAML = `
repo_path: /tmp/repo
duration: 2h
mode: random
patterns:
  - "**/*.go"
authors:
  - name: Alice
    email: alice@example.com
    weight: 0.7
  - name: Bob
    email: bob@example.com
    weight: 0.3
`

func TestLoad(t *testing.T) {
	t.Run("loads yaml", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "backdate.yaml", validYAML))
		require.NoError(t, err)

		assert.Equal(t, "/tmp/repo", cfg.RepoPath)
		assert.Equal(t, "random", cfg.Mode)
		assert.Equal(t, 2*time.Hour, cfg.Window())
		require.Len(t, cfg.Authors, 2)
		assert.Equal(t, "Alice", cfg.Authors[0].Name)
	})

	t.Run("loads json", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "backdate.json", `{
			"repo_path": ".",
			"duration": "600s",
			"mode": "even",
			"patterns": ["**/*.md"],
			"authors": [{"name": "Alice", "email": "alice@example.com", "weight": 1.0}]
		}`))
		require.NoError(t, err)
		assert.Equal(t, 600*time.Second, cfg.Window())
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed file errors", func(t *testing.T) {
		_, err := Load(writeConfig(t, "bad.yaml", "repo_path: [unclosed"))
		assert.Error(t, err)
	})

	t.Run("defaults fill unset fields", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "minimal.yaml", `
duration: 1d
authors:
  - name: Alice
    email: alice@example.com
`))
		require.NoError(t, err)
		assert.Equal(t, ".", cfg.RepoPath)
		assert.Equal(t, "even", cfg.Mode)
		assert.Equal(t, "git", cfg.GitPath)
		assert.Equal(t, []string{"**/*"}, cfg.Patterns)
		// A lone author gets implicit weight 1.0.
		assert.Equal(t, 1.0, cfg.Authors[0].Weight)
	})
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			RepoPath: ".",
			Duration: "1h",
			Mode:     "even",
			GitPath:  "git",
			Patterns: []string{"**/*"},
			Authors:  []Author{{Name: "A", Email: "a@example.com", Weight: 1.0}},
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		cfg := valid()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("field failures", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*Config)
		}{
			{"empty repo path", func(c *Config) { c.RepoPath = "" }},
			{"bad duration", func(c *Config) { c.Duration = "soon" }},
			{"zero duration", func(c *Config) { c.Duration = "0s" }},
			{"unknown mode", func(c *Config) { c.Mode = "sometimes" }},
			{"no patterns", func(c *Config) { c.Patterns = nil }},
			{"empty pattern", func(c *Config) { c.Patterns = []string{""} }},
			{"no authors", func(c *Config) { c.Authors = nil }},
			{"author without email", func(c *Config) { c.Authors[0].Email = "" }},
			{"negative weight", func(c *Config) { c.Authors[0].Weight = -0.5 }},
			{"negative total commits", func(c *Config) { n := -1; c.TotalCommits = &n }},
			{
				"weights not summing to one",
				func(c *Config) {
					c.Authors = []Author{
						{Name: "A", Email: "a@example.com", Weight: 0.5},
						{Name: "B", Email: "b@example.com", Weight: 0.2},
					}
				},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				cfg := valid()
				tt.mutate(&cfg)
				assert.Error(t, cfg.Validate())
			})
		}
	})

	t.Run("weight tolerance absorbs float drift", func(t *testing.T) {
		cfg := valid()
		cfg.Authors = []Author{
			{Name: "A", Email: "a@example.com", Weight: 0.333},
			{Name: "B", Email: "b@example.com", Weight: 0.333},
			{Name: "C", Email: "c@example.com", Weight: 0.333},
		}
		assert.NoError(t, cfg.Validate())
	})
}
