// Package engine orchestrates an apply run: lock, precondition checks,
// ledger resume, and the checkpointed commit loop.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/backdate/internal/core/git"
	"github.com/colonyops/backdate/internal/core/ledger"
	"github.com/colonyops/backdate/internal/core/lock"
	"github.com/colonyops/backdate/internal/core/plan"
)

// State is the coordinator's lifecycle position. Completed and Aborted are
// terminal.
type State string

const (
	StateNotStarted State = "not-started"
	StateLocked     State = "locked"
	StateVerifying  State = "verifying"
	StateApplying   State = "applying"
	StateCompleted  State = "completed"
	StateAborted    State = "aborted"
)

var (
	// ErrGitUnavailable is returned when the git binary cannot be invoked.
	ErrGitUnavailable = errors.New("git is not installed or not found in PATH")
	// ErrRepoDirty is returned when the working tree has tracked
	// modifications that would be swept into fabricated commits.
	ErrRepoDirty = errors.New("repository has uncommitted tracked changes")
	// ErrHeadDiverged is returned when the repository head no longer
	// matches the ledger's last checkpoint, meaning the history was
	// rewound, rebased, or extended externally since the last run.
	ErrHeadDiverged = errors.New("repository head diverged from the saved execution state")
)

// Coordinator drives a manifest through git, one commit at a time,
// checkpointing the ledger after each success. Execution is single-threaded
// and synchronous; the only concurrency guard is the repository lock.
//
// No timeout is imposed on git invocations: if the external process hangs
// (for example on a GPG passphrase prompt), the run hangs with it. That
// failure mode is surfaced, not worked around.
type Coordinator struct {
	repoPath string
	git      git.Git
	ledger   *ledger.Store
	locker   lock.Locker
	logger   zerolog.Logger
	stdout   io.Writer

	state State
}

// New creates a Coordinator for the repository at repoPath.
func New(repoPath string, g git.Git, led *ledger.Store, locker lock.Locker, logger zerolog.Logger, stdout io.Writer) *Coordinator {
	return &Coordinator{
		repoPath: repoPath,
		git:      g,
		ledger:   led,
		locker:   locker,
		logger:   logger,
		stdout:   stdout,
		state:    StateNotStarted,
	}
}

// State returns the coordinator's current lifecycle state.
func (c *Coordinator) State() State { return c.state }

func (c *Coordinator) setState(s State) {
	c.logger.Debug().Str("from", string(c.state)).Str("to", string(s)).Msg("state transition")
	c.state = s
}

// Run applies the manifest. In dry-run mode no filesystem or git mutation
// happens, but every decision point (locking, preconditions, resume
// arithmetic) is traversed identically so the reported plan matches what a
// real run would do.
//
// Any failure before the apply loop leaves zero mutation. A failure inside
// the loop leaves exactly the prefix of actions that succeeded, each
// checkpointed; the next invocation resumes after the last success.
func (c *Coordinator) Run(ctx context.Context, manifest plan.Manifest, dryRun bool) (err error) {
	defer func() {
		if err != nil {
			c.setState(StateAborted)
		}
	}()

	if err := c.locker.Acquire(); err != nil {
		return err
	}
	defer func() {
		if rerr := c.locker.Release(); rerr != nil {
			c.logger.Error().Err(rerr).Msg("failed to release lock")
		}
	}()
	c.setState(StateLocked)

	c.setState(StateVerifying)
	if len(manifest) == 0 {
		fmt.Fprintln(c.stdout, "No commits to apply.")
		c.setState(StateCompleted)
		return nil
	}

	if err := c.verifyRepository(ctx, dryRun); err != nil {
		return err
	}

	start, err := c.resumePoint(ctx, manifest)
	if err != nil {
		return err
	}
	if start >= len(manifest) {
		fmt.Fprintln(c.stdout, "Plan already completed.")
		c.setState(StateCompleted)
		return nil
	}

	c.setState(StateApplying)
	if dryRun {
		fmt.Fprintln(c.stdout, "Dry run: no changes will be written.")
	}
	fmt.Fprintf(c.stdout, "Applying %d of %d commits...\n", len(manifest)-start, len(manifest))

	for i := start; i < len(manifest); i++ {
		if err := c.applyAction(ctx, manifest, i, dryRun); err != nil {
			return err
		}
	}

	c.setState(StateCompleted)
	fmt.Fprintln(c.stdout, "Done.")
	return nil
}

// verifyRepository checks the target is safe to mutate: initialize a missing
// repository, refuse a dirty tracked tree, and warn about detached HEAD and
// GPG signing.
func (c *Coordinator) verifyRepository(ctx context.Context, dryRun bool) error {
	if !c.git.IsAvailable(ctx) {
		return ErrGitUnavailable
	}

	if _, err := os.Stat(filepath.Join(c.repoPath, ".git")); os.IsNotExist(err) {
		if dryRun {
			fmt.Fprintf(c.stdout, "[dry-run] would init git repository at %s\n", c.repoPath)
			return nil
		}
		c.logger.Info().Str("path", c.repoPath).Msg("initializing git repository")
		if err := os.MkdirAll(c.repoPath, 0o755); err != nil {
			return fmt.Errorf("create repository dir: %w", err)
		}
		return c.git.Init(ctx, c.repoPath)
	}

	clean, err := c.git.IsClean(ctx, c.repoPath)
	if err != nil {
		return err
	}
	if !clean {
		return fmt.Errorf("%w: commit or stash them first", ErrRepoDirty)
	}

	if detached, err := c.git.IsDetached(ctx, c.repoPath); err == nil && detached {
		c.logger.Warn().Msg("detached HEAD: commits will not belong to any branch")
	}

	if c.git.IsGPGSigningEnabled(ctx, c.repoPath) {
		c.logger.Warn().Msg("commit.gpgsign is enabled; a passphrase prompt may hang this non-interactive run")
	}

	return nil
}

// resumePoint initializes or resumes the ledger and cross-checks the
// recorded head against the repository. A diverged head means the history
// was altered outside this tool; silently resuming over it is never
// attempted.
func (c *Coordinator) resumePoint(ctx context.Context, manifest plan.Manifest) (int, error) {
	start, err := c.ledger.InitOrResume(manifest)
	if err != nil {
		return 0, err
	}

	st, err := c.ledger.Load()
	if err != nil {
		return 0, err
	}
	if st != nil && st.LastCommitID != "" {
		head, ok, err := c.git.HeadID(ctx, c.repoPath)
		if err != nil {
			return 0, err
		}
		// Without a head reference there is nothing to compare against.
		if ok && head != st.LastCommitID {
			return 0, fmt.Errorf("%w: expected head %s, found %s (remove %s to force a fresh run)",
				ErrHeadDiverged, st.LastCommitID, head, c.ledger.Path())
		}
	}

	if start > 0 && start < len(manifest) {
		fmt.Fprintf(c.stdout, "Resuming execution from commit %d/%d...\n", start+1, len(manifest))
	}

	return start, nil
}

// applyAction stages and commits one action, then checkpoints. The
// checkpoint is strictly post-hoc: it happens only after git has succeeded,
// so an interruption at any point leaves a resumable prefix.
func (c *Coordinator) applyAction(ctx context.Context, manifest plan.Manifest, i int, dryRun bool) error {
	action := manifest[i]
	fmt.Fprintf(c.stdout, "[%d/%d] %s - %d files\n",
		i+1, len(manifest), action.Timestamp.Format(time.RFC3339), len(action.Files))

	if dryRun {
		fmt.Fprintf(c.stdout, "[dry-run] would commit as %s <%s>\n", action.AuthorName, action.AuthorEmail)
		return nil
	}

	if _, err := c.git.Stage(ctx, c.repoPath, action.Files); err != nil {
		return fmt.Errorf("stage commit %d: %w", i+1, err)
	}

	head, err := c.git.Commit(ctx, c.repoPath, action.Message, action.AuthorName, action.AuthorEmail, action.Timestamp)
	if err != nil {
		return fmt.Errorf("apply commit %d: %w", i+1, err)
	}

	if err := c.ledger.Advance(i, head, i == len(manifest)-1); err != nil {
		return fmt.Errorf("checkpoint commit %d: %w", i+1, err)
	}

	return nil
}
