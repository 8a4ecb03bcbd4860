// Package cmd wires the mailbox commands into a cobra CLI.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mailtools/mboxfsck/config"
	"github.com/mailtools/mboxfsck/runner"
)

var (
	cfg        config.Config
	logger     *slog.Logger
	run        *runner.Runner
	logCleanup func() error
)

var rootCmd = &cobra.Command{
	Use:   "mboxfsck",
	Short: "Inspect, validate, and repair mbox mailbox files",
	Long: `mboxfsck segments mbox files the way classic mail software wrote them,
validates Content-Length accounting and message identity, and can repair
the damage done by agents that miscount "From " quoting. Mailboxes are
dot-locked while open and rewritten atomically.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(cmd)
		if err != nil {
			return err
		}

		logger, logCleanup, err = setupLogger(cfg)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		run = runner.New(cfg, logger)
		releaseLocksOnSignal(run)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if run != nil {
			run.ReleaseLocks()
		}
		if logCleanup != nil {
			_ = logCleanup()
		}
	},
}

// Execute runs the CLI. It is the only entry point main needs.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	config.RegisterFlags(rootCmd)
}

// releaseLocksOnSignal makes sure an interrupted run does not leave stale
// lock files behind for the next invocation to time out on.
func releaseLocksOnSignal(r *runner.Runner) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		sig := <-ch
		r.Logger().Warn("interrupted, releasing mailbox locks", "signal", sig.String())
		r.ReleaseLocks()
		os.Exit(1)
	}()
}

func setupLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}

	opts := &slog.HandlerOptions{Level: level}
	cleanup := func() error { return nil }

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, cleanup, err
		}

		logFilePath := filepath.Join(cfg.LogDir, fmt.Sprintf("mboxfsck-%s.log", time.Now().Format("20060102T150405")))
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, cleanup, err
		}

		handler := slog.NewTextHandler(io.MultiWriter(os.Stderr, file), opts)
		cleanup = func() error {
			return file.Close()
		}
		return slog.New(handler), cleanup, nil
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	return slog.New(handler), cleanup, nil
}
