// Package runner drives the mailbox commands over one or more mbox files.
// Mailboxes are processed strictly one at a time; the advisory lock protocol
// makes concurrent access to a spool directory a bad idea.
package runner

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mailtools/mboxfsck/config"
	"github.com/mailtools/mboxfsck/lock"
	"github.com/mailtools/mboxfsck/mbox"
	"github.com/mailtools/mboxfsck/progress"
	"github.com/mailtools/mboxfsck/report"
)

// ErrSomeFailed is returned by Each when at least one mailbox could not be
// processed. Per-mailbox detail has already been logged by then.
var ErrSomeFailed = errors.New("some mailboxes could not be processed")

// MailboxFunc is the per-mailbox work of one command. The mailbox arrives
// locked and parsed; the runner closes it afterwards.
type MailboxFunc func(box *mbox.Mailbox) error

type Runner struct {
	cfg    config.Config
	logger *slog.Logger
	rep    *report.Reporter
	locker *lock.Manager
}

func New(cfg config.Config, logger *slog.Logger) *Runner {
	rep := report.New(logger, report.Options{
		Strict:  cfg.Strict,
		Quiet:   cfg.Quiet,
		Verbose: cfg.Verbose,
		DryRun:  cfg.DryRun,
	})

	return &Runner{
		cfg:    cfg,
		logger: logger,
		rep:    rep,
		locker: lock.NewManager(logger),
	}
}

func (r *Runner) Config() config.Config {
	return r.cfg
}

func (r *Runner) Logger() *slog.Logger {
	return r.logger
}

func (r *Runner) Reporter() *report.Reporter {
	return r.rep
}

func (r *Runner) Locker() *lock.Manager {
	return r.locker
}

// ReleaseLocks drops every lock still held, for exit and signal paths.
func (r *Runner) ReleaseLocks() {
	r.locker.ReleaseAll()
}

// Open opens a single mailbox with the configured locking and mapping
// behavior.
func (r *Runner) Open(path string) (*mbox.Mailbox, error) {
	opts := mbox.OpenOptions{
		LockTimeout: r.cfg.LockTimeout,
		NoMap:       r.cfg.NoMap,
		Reporter:    r.rep,
	}
	if !r.cfg.NoLock {
		opts.Locker = r.locker
	}
	return mbox.Open(path, opts)
}

// Each runs fn over every mailbox in paths. A mailbox that cannot be opened
// or processed is logged and skipped so one bad file does not abort the
// batch. The summary is logged at the end.
func (r *Runner) Each(paths []string, fn MailboxFunc) error {
	since := time.Now()
	bar := progress.New(len(paths), r.cfg.LogLevel)

	failed := 0
	for _, path := range paths {
		bar.Step(path)
		if err := r.one(path, fn); err != nil {
			bar.Fail(path, err)
			r.logger.Error("mailbox failed", "path", path, "err", err)
			failed++
		}
	}
	bar.Stop()

	summary := r.rep.Summary()
	attrs := append(summary.LogAttrs(), "mailboxes", len(paths), "failed", failed,
		"duration", time.Since(since))
	if failed > 0 {
		r.logger.Error("batch completed with failures", attrs...)
		return fmt.Errorf("%d of %d: %w", failed, len(paths), ErrSomeFailed)
	}
	r.logger.Info("batch completed", attrs...)
	return nil
}

func (r *Runner) one(path string, fn MailboxFunc) error {
	box, err := r.Open(path)
	if err != nil {
		return err
	}
	defer box.Close()
	return fn(box)
}
