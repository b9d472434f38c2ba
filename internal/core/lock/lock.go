// Package lock guards a repository against concurrent apply runs.
//
// The guard is a PID file created with an atomic exclusive-create, so two
// coordinators racing for the same repository cannot both win. A lock left
// behind by a crashed process is detected by probing the recorded PID and
// reclaimed with a warning.
package lock

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
)

// Filename is the lock file name, created beside the target repository.
const Filename = ".backdate.lock"

// ErrAlreadyRunning is returned when another live process holds the lock.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Locker is the single-instance guard for one repository.
type Locker interface {
	// Acquire takes the lock, reclaiming a stale one if its owner is dead.
	// Returns ErrAlreadyRunning when a live owner holds it.
	Acquire() error
	// Release removes the lock. Safe to call when not held.
	Release() error
}

// PIDLocker implements Locker with a PID file.
type PIDLocker struct {
	path     string
	pid      int
	acquired bool
	logger   zerolog.Logger
}

// New creates a locker for the lock file at path.
func New(path string, logger zerolog.Logger) *PIDLocker {
	return &PIDLocker{path: path, pid: os.Getpid(), logger: logger}
}

// Acquire takes the lock.
func (l *PIDLocker) Acquire() error {
	err := l.create()
	if err == nil {
		return nil
	}
	if !os.IsExist(err) {
		return fmt.Errorf("create lock file: %w", err)
	}

	owner, readErr := l.ownerPID()
	switch {
	case readErr != nil:
		l.logger.Warn().Err(readErr).Str("path", l.path).Msg("unreadable lock file, reclaiming")
	case isProcessAlive(owner):
		return fmt.Errorf("%w (pid %d holds %s)", ErrAlreadyRunning, owner, l.path)
	default:
		l.logger.Warn().Int("pid", owner).Str("path", l.path).Msg("stale lock file, reclaiming")
	}

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale lock: %w", err)
	}

	if err := l.create(); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w (lock retaken after stale reclaim)", ErrAlreadyRunning)
		}
		return fmt.Errorf("create lock file: %w", err)
	}

	return nil
}

// Release removes the lock file if this locker acquired it.
func (l *PIDLocker) Release() error {
	if !l.acquired {
		return nil
	}
	l.acquired = false

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

// create writes the PID file with an atomic exclusive-create.
func (l *PIDLocker) create() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	_, werr := f.WriteString(strconv.Itoa(l.pid))
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(l.path)
		if werr != nil {
			return fmt.Errorf("write pid: %w", werr)
		}
		return fmt.Errorf("close lock file: %w", cerr)
	}

	l.acquired = true
	return nil
}

// ownerPID reads the PID recorded in the lock file.
func (l *PIDLocker) ownerPID() (int, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid pid in lock file: %w", err)
	}
	return pid, nil
}

// isProcessAlive probes a PID with signal 0.
func isProcessAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
