package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/job-board/internal/logging"
	"github.com/sakif/job-board/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until interrupted.

The board is initialized on first start. JWT_SECRET is required; GitHub
login is enabled when GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET are set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if rootOpts.Verbose {
				cfg.Log.Level = "debug"
			}

			logger, closer, err := logging.New(cfg.Log, cmd.OutOrStdout())
			if err != nil {
				return WrapExitError(ExitCommandError, "configuring logging", err)
			}
			defer closer.Close()

			deps, err := server.Open(cmd.Context(), cfg, logger)
			if err != nil {
				return WrapExitError(ExitCommandError, "opening board", err)
			}
			defer func() {
				if err := deps.Close(); err != nil {
					logger.Error("closing board", slog.String("error", err.Error()))
				}
			}()

			srv, err := server.New(cfg, deps, logger)
			if err != nil {
				return WrapExitError(ExitCommandError, "creating server", err)
			}
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config and PORT)")
	return cmd
}
