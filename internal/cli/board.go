package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/job-board/internal/config"
	"github.com/sakif/job-board/internal/server"
)

// loadConfig reads --config and the environment, then applies --db.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return cfg, WrapExitError(ExitCommandError, "loading configuration", err)
	}
	if opts.DBPath != "" {
		cfg.Store.Driver = config.DriverSQLite
		cfg.Store.Path = opts.DBPath
	}
	return cfg, nil
}

// session is what a one-shot board command runs against.
type session struct {
	deps *server.Deps
	out  *OutputFormatter
}

// openSession opens the configured store for a single command. Diagnostics
// go to stderr: warnings only, everything with --verbose.
func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	if cfg.Store.Driver == config.DriverMemory {
		return nil, NewExitError(ExitCommandError, "the memory store does not outlive a command; use --db or the sqlite driver")
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	deps, err := server.Open(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "opening board", err)
	}
	return &session{
		deps: deps,
		out:  &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()},
	}, nil
}

func (s *session) close() {
	_ = s.deps.Close()
}
