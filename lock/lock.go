// Package lock implements the advisory per-mailbox file lock: a sibling
// "<mailbox>.lock" file whose entire content is the decimal pid of the holder.
// Stale locks left by dead processes are reclaimed automatically.
package lock

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Suffix is appended to the mailbox path to form the lock file path.
const Suffix = ".lock"

// ErrTimeout is returned when a lock could not be acquired before the
// caller's timeout elapsed.
var ErrTimeout = errors.New("timed out waiting for mailbox lock")

// Manager acquires and releases advisory locks and remembers every lock held
// by the current run so they can all be released on exit.
type Manager struct {
	logger *slog.Logger
	poll   time.Duration

	mu   sync.Mutex
	held map[string]struct{}
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger: logger,
		poll:   time.Second,
		held:   make(map[string]struct{}),
	}
}

// Lock atomically creates the exclusive marker file for path. On contention
// it polls, reclaiming the marker immediately if its recorded holder process
// no longer exists, and gives up with ErrTimeout once timeout has elapsed
// since the first attempt.
func (m *Manager) Lock(path string, timeout time.Duration) error {
	lockFile := path + Suffix
	deadline := time.Now().Add(timeout)

	for {
		f, err := os.OpenFile(lockFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
		if err == nil {
			if _, werr := fmt.Fprintf(f, "%d", os.Getpid()); werr != nil {
				f.Close()
				os.Remove(lockFile)
				return fmt.Errorf("write lock file %s: %w", lockFile, werr)
			}
			if cerr := f.Close(); cerr != nil {
				os.Remove(lockFile)
				return fmt.Errorf("close lock file %s: %w", lockFile, cerr)
			}
			m.mu.Lock()
			m.held[path] = struct{}{}
			m.mu.Unlock()
			return nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("create lock file %s: %w", lockFile, err)
		}

		if pid, ok := readPID(lockFile); ok && pid > 0 && !processAlive(pid) {
			m.logger.Info("removing lock from defunct process", "lockFile", lockFile, "pid", pid)
			if rerr := os.Remove(lockFile); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
				return fmt.Errorf("remove stale lock %s: %w", lockFile, rerr)
			}
			continue
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%s: %w", lockFile, ErrTimeout)
		}
		time.Sleep(m.poll)
	}
}

// Unlock removes the marker file for path after verifying it still records
// this process's pid. A mismatch means a third party reclaimed a lock it
// considered stale; that is reported but not an error.
func (m *Manager) Unlock(path string) {
	lockFile := path + Suffix

	m.mu.Lock()
	delete(m.held, path)
	m.mu.Unlock()

	pid, ok := readPID(lockFile)
	switch {
	case !ok:
		m.logger.Warn("could not read lock file", "lockFile", lockFile)
		return
	case pid != os.Getpid():
		m.logger.Warn("lock file no longer ours", "lockFile", lockFile, "holderPid", pid)
		return
	}

	if err := os.Remove(lockFile); err != nil {
		m.logger.Error("could not remove lock file", "lockFile", lockFile, "err", err)
	}
}

// ReleaseAll releases every lock this run holds. It runs on normal exit and
// on signal delivery; a hard kill can still leave a marker behind, which the
// next Lock call's staleness check reclaims.
func (m *Manager) ReleaseAll() {
	m.mu.Lock()
	paths := make([]string, 0, len(m.held))
	for p := range m.held {
		paths = append(paths, p)
	}
	m.mu.Unlock()

	for _, p := range paths {
		m.Unlock(p)
	}
}

func readPID(lockFile string) (int, bool) {
	data, err := os.ReadFile(lockFile)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	return pid, true
}

// processAlive probes pid with a null signal. EPERM means the process exists
// but belongs to someone else.
func processAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
