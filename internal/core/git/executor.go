package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/backdate/pkg/executil"
)

// stageBatchSize bounds the number of paths passed to a single git add,
// keeping the argument list under OS command-line limits.
const stageBatchSize = 1000

// missingWarnLimit caps how many missing files are warned about
// individually before collapsing into a single count.
const missingWarnLimit = 5

// Executor implements Git using the git command-line tool.
type Executor struct {
	gitPath string
	exec    executil.Executor
	logger  zerolog.Logger
}

// NewExecutor creates a new git executor with the specified git binary path.
func NewExecutor(gitPath string, exec executil.Executor, logger zerolog.Logger) *Executor {
	return &Executor{gitPath: gitPath, exec: exec, logger: logger}
}

func (e *Executor) IsAvailable(ctx context.Context) bool {
	_, err := e.exec.Run(ctx, e.gitPath, "--version")
	return err == nil
}

func (e *Executor) Init(ctx context.Context, dir string) error {
	if out, err := e.exec.RunDir(ctx, dir, e.gitPath, "init"); err != nil {
		return fmt.Errorf("git init: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

func (e *Executor) Stage(ctx context.Context, dir string, paths []string) (int, error) {
	valid := make([]string, 0, len(paths))
	missing := 0
	for _, p := range paths {
		if _, err := os.Lstat(filepath.Join(dir, p)); err != nil {
			missing++
			if missing <= missingWarnLimit {
				e.logger.Warn().Str("file", p).Msg("file missing, skipping")
			}
			continue
		}
		valid = append(valid, p)
	}
	if missing > missingWarnLimit {
		e.logger.Warn().Int("count", missing).Msg("files missing in total, skipping them")
	}

	for i := 0; i < len(valid); i += stageBatchSize {
		batch := valid[i:min(i+stageBatchSize, len(valid))]
		args := append([]string{"add", "--"}, batch...)
		if out, err := e.exec.RunDir(ctx, dir, e.gitPath, args...); err != nil {
			return missing, fmt.Errorf("git add: %s: %w", strings.TrimSpace(string(out)), err)
		}
	}

	return missing, nil
}

func (e *Executor) Commit(ctx context.Context, dir, message, authorName, authorEmail string, ts time.Time) (string, error) {
	date := ts.Format(time.RFC3339)
	env := []string{
		"GIT_AUTHOR_NAME=" + authorName,
		"GIT_AUTHOR_EMAIL=" + authorEmail,
		"GIT_AUTHOR_DATE=" + date,
		"GIT_COMMITTER_NAME=" + authorName,
		"GIT_COMMITTER_EMAIL=" + authorEmail,
		"GIT_COMMITTER_DATE=" + date,
	}

	if out, err := e.exec.RunDirEnv(ctx, dir, env, e.gitPath, "commit", "-m", message); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", strings.TrimSpace(string(out)), err)
	}

	id, ok, err := e.HeadID(ctx, dir)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("git commit: no head after commit")
	}
	return id, nil
}

func (e *Executor) HeadID(ctx context.Context, dir string) (string, bool, error) {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "rev-parse", "HEAD")
	if err != nil {
		// An unborn branch (no commits yet) has no head to report.
		if strings.Contains(string(out), "unknown revision") ||
			strings.Contains(string(out), "ambiguous argument") {
			return "", false, nil
		}
		return "", false, fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), true, nil
}

func (e *Executor) IsClean(ctx context.Context, dir string) (bool, error) {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}

	for line := range strings.Lines(strings.TrimSpace(string(out))) {
		line = strings.TrimRight(line, "\n")
		if line == "" {
			continue
		}
		// Untracked entries (??) are expected: they are the very files
		// about to be committed.
		if !strings.HasPrefix(line, "??") {
			return false, nil
		}
	}
	return true, nil
}

func (e *Executor) IsDetached(ctx context.Context, dir string) (bool, error) {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "branch", "--show-current")
	if err != nil {
		return false, fmt.Errorf("git branch: %w", err)
	}
	return strings.TrimSpace(string(out)) == "", nil
}

func (e *Executor) IsGPGSigningEnabled(ctx context.Context, dir string) bool {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "config", "--get", "commit.gpgsign")
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) == "true"
}
