// Package scan discovers the files eligible for fabricated commits.
package scan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
)

// excludedDirs are never traversed. Pruning happens during the walk, not by
// filtering afterwards; descending into a node_modules tree only to throw
// the results away is both slow and risky.
var excludedDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"vendor":       {},
	"dist":         {},
	"build":        {},
	".next":        {},
	"__pycache__":  {},
	".venv":        {},
	"venv":         {},
	"env":          {},
}

// maxPathWarnLen is the path length above which a portability warning is
// emitted (Windows MAX_PATH headroom).
const maxPathWarnLen = 250

// Scanner matches files under a root directory against glob patterns.
type Scanner struct {
	patterns []string
	logger   zerolog.Logger
}

// New creates a Scanner for the given glob patterns.
func New(patterns []string, logger zerolog.Logger) *Scanner {
	return &Scanner{patterns: patterns, logger: logger}
}

// Scan walks root and returns the sorted, de-duplicated list of relative
// file paths matching any pattern. Symbolic links and conventionally
// dangerous directories are skipped during traversal.
func (s *Scanner) Scan(root string) ([]string, error) {
	for _, p := range s.patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
	}

	seen := map[string]struct{}{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			name := d.Name()
			if _, excluded := excludedDirs[name]; excluded || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		rel = filepath.ToSlash(rel)
		for _, p := range s.patterns {
			ok, matchErr := doublestar.Match(p, rel)
			if matchErr != nil {
				return fmt.Errorf("match %q against %q: %w", rel, p, matchErr)
			}
			// Also match against the basename so plain patterns like
			// "*.go" find files in subdirectories.
			if !ok {
				ok, _ = doublestar.Match(p, filepath.Base(rel))
			}
			if ok {
				seen[rel] = struct{}{}
				break
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)

	s.warnPaths(files)
	return files, nil
}

// warnPaths reports non-fatal portability issues: overlong paths and
// case-insensitive collisions that misbehave on cross-platform checkouts.
func (s *Scanner) warnPaths(files []string) {
	long := 0
	for _, f := range files {
		if len(f) > maxPathWarnLen {
			long++
		}
	}
	if long > 0 {
		s.logger.Warn().Int("count", long).Msgf("paths longer than %d chars may cause issues on Windows", maxPathWarnLen)
	}

	lower := make(map[string]string, len(files))
	collisions := 0
	for _, f := range files {
		key := strings.ToLower(f)
		if prev, ok := lower[key]; ok {
			collisions++
			if collisions <= 3 {
				s.logger.Warn().Str("a", prev).Str("b", f).Msg("case-insensitive path collision")
			}
			continue
		}
		lower[key] = f
	}
	if collisions > 0 {
		s.logger.Warn().Int("count", collisions).Msg("case-insensitive collisions may be unsafe on cross-platform transfers")
	}
}
