package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// Config captures all command-line options shared by the mailbox commands.
type Config struct {
	Strict      bool
	Quiet       bool
	Verbose     bool
	DryRun      bool
	Backup      bool
	Interactive bool
	NoLock      bool
	NoMap       bool
	PageWidth   int
	LockTimeout time.Duration
	LogLevel    string
	LogDir      string
}

// Filter captures the message selection options of the commands that walk
// mailbox contents.
type Filter struct {
	IncludeHeader []string
	IncludeBody   []string
	ExcludeHeader []string
	ExcludeBody   []string
}

// RegisterFlags attaches the shared flags to the root command so every
// subcommand inherits them.
func RegisterFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.Bool("strict", false, "Enable the pickier header checks and repairs")
	flags.BoolP("quiet", "q", false, "Suppress per-message diagnostics")
	flags.BoolP("verbose", "v", false, "Report every action taken")
	flags.BoolP("dry-run", "n", false, "Report what would change without writing or locking")
	flags.Bool("backup", true, "Keep the previous mailbox under a \"~\" suffix when rewriting")
	flags.BoolP("interactive", "i", false, "Ask before each repair or deletion")
	flags.Bool("no-lock", false, "Skip advisory mailbox locking (dangerous on live spools)")
	flags.Bool("no-map", false, "Read mailboxes into memory instead of mapping them")
	flags.Int("page-width", 80, "Line width for message listings")
	flags.Duration("lock-timeout", 15*time.Second, "How long to wait for a mailbox lock")
	flags.String("log-level", "info", "Logging level: debug, info, warn, error")
	flags.String("log-dir", "", "Also append logs to a timestamped file in this directory")
}

// RegisterFilterFlags attaches the message selection flags to commands that
// support them.
func RegisterFilterFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringArray("include-header", nil, "Regex allow-list applied to message headers (mutually exclusive with exclude flags)")
	flags.StringArray("include-body", nil, "Regex allow-list applied to message bodies (mutually exclusive with exclude flags)")
	flags.StringArray("exclude-header", nil, "Regex block-list applied to message headers (mutually exclusive with include flags)")
	flags.StringArray("exclude-body", nil, "Regex block-list applied to message bodies (mutually exclusive with include flags)")
}

// LoadConfig converts the parsed Cobra flags into a Config struct with validation.
func LoadConfig(cmd *cobra.Command) (Config, error) {
	flags := cmd.Flags()

	strict, err := flags.GetBool("strict")
	if err != nil {
		return Config{}, err
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return Config{}, err
	}
	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return Config{}, err
	}
	dryRun, err := flags.GetBool("dry-run")
	if err != nil {
		return Config{}, err
	}
	backup, err := flags.GetBool("backup")
	if err != nil {
		return Config{}, err
	}
	interactive, err := flags.GetBool("interactive")
	if err != nil {
		return Config{}, err
	}
	noLock, err := flags.GetBool("no-lock")
	if err != nil {
		return Config{}, err
	}
	noMap, err := flags.GetBool("no-map")
	if err != nil {
		return Config{}, err
	}
	pageWidth, err := flags.GetInt("page-width")
	if err != nil {
		return Config{}, err
	}
	lockTimeout, err := flags.GetDuration("lock-timeout")
	if err != nil {
		return Config{}, err
	}
	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return Config{}, err
	}
	logDir, err := flags.GetString("log-dir")
	if err != nil {
		return Config{}, err
	}

	logLevel = strings.ToLower(logLevel)
	if logLevel == "warning" {
		logLevel = "warn"
	}

	cfg := Config{
		Strict:      strict,
		Quiet:       quiet,
		Verbose:     verbose,
		DryRun:      dryRun,
		Backup:      backup,
		Interactive: interactive,
		NoLock:      noLock,
		NoMap:       noMap,
		PageWidth:   pageWidth,
		LockTimeout: lockTimeout,
		LogLevel:    logLevel,
		LogDir:      logDir,
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFilter converts the message selection flags into a Filter struct.
func LoadFilter(cmd *cobra.Command) (Filter, error) {
	flags := cmd.Flags()

	includeHeader, err := flags.GetStringArray("include-header")
	if err != nil {
		return Filter{}, err
	}
	includeBody, err := flags.GetStringArray("include-body")
	if err != nil {
		return Filter{}, err
	}
	excludeHeader, err := flags.GetStringArray("exclude-header")
	if err != nil {
		return Filter{}, err
	}
	excludeBody, err := flags.GetStringArray("exclude-body")
	if err != nil {
		return Filter{}, err
	}

	f := Filter{
		IncludeHeader: includeHeader,
		IncludeBody:   includeBody,
		ExcludeHeader: excludeHeader,
		ExcludeBody:   excludeBody,
	}

	includeActive := len(f.IncludeHeader) > 0 || len(f.IncludeBody) > 0
	excludeActive := len(f.ExcludeHeader) > 0 || len(f.ExcludeBody) > 0
	if includeActive && excludeActive {
		return Filter{}, fmt.Errorf("include and exclude flags are mutually exclusive")
	}

	return f, nil
}

func validateConfig(cfg Config) error {
	if cfg.Quiet && cfg.Verbose {
		return fmt.Errorf("--quiet and --verbose are mutually exclusive")
	}
	if cfg.LockTimeout < 0 {
		return fmt.Errorf("--lock-timeout must not be negative")
	}
	if cfg.PageWidth < 40 {
		return fmt.Errorf("--page-width must be at least 40")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level: %s", cfg.LogLevel)
	}

	return nil
}
