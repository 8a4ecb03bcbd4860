// Package report carries run configuration and accumulates warning counters.
// Core packages take an explicit *Reporter instead of consulting globals so
// scenarios can run in isolation.
package report

import (
	"fmt"
	"log/slog"
	"sync"
)

// Options are the behavioral switches the command line supplies. The core
// treats them opaquely.
type Options struct {
	Strict  bool
	Quiet   bool
	Verbose bool
	DryRun  bool
}

// Summary is a snapshot of the counters accumulated during a run.
type Summary struct {
	Warnings    int
	Repairs     int
	Duplicates  int
	LastWarning string
}

func (s Summary) LogAttrs() []any {
	attrs := []any{
		"warnings", s.Warnings,
		"repairs", s.Repairs,
		"duplicates", s.Duplicates,
	}
	if s.LastWarning != "" {
		attrs = append(attrs, "lastWarning", s.LastWarning)
	}
	return attrs
}

type Reporter struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	summary Summary
}

func New(logger *slog.Logger, opts Options) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{opts: opts, logger: logger}
}

func (r *Reporter) Strict() bool  { return r.opts.Strict }
func (r *Reporter) Quiet() bool   { return r.opts.Quiet }
func (r *Reporter) Verbose() bool { return r.opts.Verbose }
func (r *Reporter) DryRun() bool  { return r.opts.DryRun }

func (r *Reporter) Logger() *slog.Logger { return r.logger }

// Notef logs an informational message unless the run is quiet.
func (r *Reporter) Notef(format string, args ...any) {
	if r.opts.Quiet {
		return
	}
	r.logger.Info(fmt.Sprintf(format, args...))
}

// Verbosef logs progress information only in verbose runs.
func (r *Reporter) Verbosef(format string, args ...any) {
	if !r.opts.Verbose {
		return
	}
	r.logger.Info(fmt.Sprintf(format, args...))
}

// Warnf counts a warning and logs it unless the run is quiet. Warnings are
// always counted so the end-of-run summary is accurate even when quiet.
func (r *Reporter) Warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.mu.Lock()
	r.summary.Warnings++
	r.summary.LastWarning = msg
	r.mu.Unlock()
	if !r.opts.Quiet {
		r.logger.Warn(msg)
	}
}

func (r *Reporter) CountRepair() {
	r.mu.Lock()
	r.summary.Repairs++
	r.mu.Unlock()
}

func (r *Reporter) CountDuplicates(n int) {
	r.mu.Lock()
	r.summary.Duplicates += n
	r.mu.Unlock()
}

func (r *Reporter) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary
}
