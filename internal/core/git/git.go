// Package git provides an abstraction for git operations.
package git

import (
	"context"
	"time"
)

// Git defines the git operations needed by backdate.
type Git interface {
	// IsAvailable reports whether the git binary can be invoked.
	IsAvailable(ctx context.Context) bool
	// Init creates a new repository in dir.
	Init(ctx context.Context, dir string) error
	// Stage adds the given paths in dir. Paths missing on disk are skipped
	// and counted rather than failing the run; files can legitimately
	// disappear between planning and application.
	Stage(ctx context.Context, dir string, paths []string) (missing int, err error)
	// Commit records staged changes under the given identity, with the
	// timestamp forged as both author date and committer date. Returns the
	// new head id.
	Commit(ctx context.Context, dir, message, authorName, authorEmail string, ts time.Time) (string, error)
	// HeadID returns the current head commit id. ok is false when the
	// repository has no commits yet.
	HeadID(ctx context.Context, dir string) (id string, ok bool, err error)
	// IsClean reports whether the working tree has no tracked
	// modifications. Untracked files are ignored.
	IsClean(ctx context.Context, dir string) (bool, error)
	// IsDetached reports whether HEAD is detached.
	IsDetached(ctx context.Context, dir string) (bool, error)
	// IsGPGSigningEnabled reports whether commit.gpgsign is set, which can
	// make non-interactive commits hang on a passphrase prompt.
	IsGPGSigningEnabled(ctx context.Context, dir string) bool
}
