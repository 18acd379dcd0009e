// Package commands holds the cobra command tree for the server binary.
package commands

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sudeepta/portfolio/internal/config"
)

// state is what PersistentPreRunE hands to every subcommand.
type state struct {
	envFile string
	cfg     config.Config
	logger  *slog.Logger
}

// Execute builds the command tree and runs it against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd returns the root command. With no subcommand it serves HTTP.
func NewRootCmd() *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:          "portfolio",
		Short:        "Portfolio backend: contact mail, GitHub stats and tenure counters",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(st.envFile)
			if err != nil {
				return err
			}
			st.cfg = cfg
			st.logger = newLogger(cmd.ErrOrStderr(), cfg)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&st.envFile, "env-file", ".env", "dotenv file to seed the environment from (empty to skip)")

	serve := serveCmd(st)
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve, experienceCmd(st), statsCmd(st), hashPasswordCmd())
	return root
}

// newLogger builds the process logger from LOG_FORMAT and LOG_LEVEL.
func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
