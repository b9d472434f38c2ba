package config

import (
	"fmt"
	"math"
	"os"
	"os/exec"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/backdate/internal/core/plan"
	"github.com/colonyops/backdate/pkg/timeutil"
)

// weightTolerance absorbs float drift when checking that author weights sum
// to 1.0.
const weightTolerance = 0.01

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("repo_path", c.RepoPath, notEmpty),
		criterio.Run("duration", c.Duration, validDuration),
		criterio.Run("mode", c.Mode, validMode),
		criterio.Run("git_path", c.GitPath, notEmpty),
		c.validateTotalCommits(),
		c.validatePatterns(),
		c.validateAuthors(),
	)
}

// ValidateDeep performs validation including I/O checks: the repository path
// must be a directory (or absent, to be created) and the git binary must
// resolve.
func (c *Config) ValidateDeep() error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		criterio.Run("repo_path", c.RepoPath, isDirectoryOrNotExist),
		criterio.Run("git_path", c.GitPath, gitExecutableExists),
	)
}

func (c *Config) validateTotalCommits() error {
	if c.TotalCommits != nil && *c.TotalCommits < 0 {
		return criterio.NewFieldErrors("total_commits", fmt.Errorf("must be non-negative, got %d", *c.TotalCommits))
	}
	return nil
}

func (c *Config) validatePatterns() error {
	var errs criterio.FieldErrorsBuilder
	if len(c.Patterns) == 0 {
		errs = errs.Append("patterns", fmt.Errorf("at least one glob pattern is required"))
	}
	for i, p := range c.Patterns {
		if p == "" {
			errs = errs.Append(fmt.Sprintf("patterns[%d]", i), fmt.Errorf("pattern cannot be empty"))
		}
	}
	return errs.ToError()
}

func (c *Config) validateAuthors() error {
	var errs criterio.FieldErrorsBuilder

	if len(c.Authors) == 0 {
		errs = errs.Append("authors", fmt.Errorf("at least one author is required"))
		return errs.ToError()
	}

	total := 0.0
	for i, a := range c.Authors {
		field := fmt.Sprintf("authors[%d]", i)
		if a.Name == "" {
			errs = errs.Append(field+".name", fmt.Errorf("name is required"))
		}
		if a.Email == "" {
			errs = errs.Append(field+".email", fmt.Errorf("email is required"))
		}
		if a.Weight < 0 {
			errs = errs.Append(field+".weight", fmt.Errorf("weight must be non-negative, got %v", a.Weight))
		}
		total += a.Weight
	}

	if math.Abs(total-1.0) > weightTolerance {
		errs = errs.Append("authors", fmt.Errorf("weights must sum to 1.0, got %v", total))
	}

	return errs.ToError()
}

func notEmpty(s string) error {
	if s == "" {
		return fmt.Errorf("cannot be empty")
	}
	return nil
}

func validDuration(s string) error {
	d, err := timeutil.ParseDuration(s)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("must be greater than zero")
	}
	return nil
}

func validMode(s string) error {
	switch plan.Mode(s) {
	case plan.ModeEven, plan.ModeRandom:
		return nil
	}
	return fmt.Errorf("must be %q or %q, got %q", plan.ModeEven, plan.ModeRandom, s)
}

// gitExecutableExists validates that the git path is executable.
func gitExecutableExists(path string) error {
	if _, err := exec.LookPath(path); err != nil {
		return fmt.Errorf("executable not found: %s", path)
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}
