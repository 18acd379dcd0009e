package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sudeepta/portfolio/internal/github"
	"github.com/sudeepta/portfolio/internal/stats"
)

func statsCmd(st *state) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Fetch GitHub stats once and print the resulting status as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				username = st.cfg.GitHub.Username
			}

			client := github.NewClient(github.Config{
				BaseURL: st.cfg.GitHub.APIURL,
				Token:   st.cfg.GitHub.Token,
			}, st.logger.With(slog.String("component", "github")))

			poller := stats.NewPoller(client, stats.Config{Username: username}, st.logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := poller.Refresh(ctx); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(poller.Status())
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "GitHub user (overrides GITHUB_USERNAME)")
	return cmd
}
