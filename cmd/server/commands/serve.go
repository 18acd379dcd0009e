package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sudeepta/portfolio/internal/server"
)

func serveCmd(st *state) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server until SIGINT or SIGTERM",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				st.cfg.Port = port
			}

			srv, err := server.New(st.cfg, st.logger)
			if err != nil {
				st.logger.Error("failed to create server", slog.String("error", err.Error()))
				return err
			}

			// Start blocks until the server is shut down.
			if err := srv.Start(); err != nil {
				st.logger.Error("server error", slog.String("error", err.Error()))
				return err
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "listen port (overrides PORT)")
	return cmd
}
