package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sudeepta/portfolio/internal/config"
	"github.com/sudeepta/portfolio/internal/tenure"
)

func experienceCmd(st *state) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "experience",
		Short: "Print the experience counter and current-role tenure",
		RunE: func(cmd *cobra.Command, args []string) error {
			clock := time.Now
			if at != "" {
				t, err := time.Parse(config.DateLayout, at)
				if err != nil {
					return fmt.Errorf("--at: %w", err)
				}
				clock = func() time.Time { return t }
			}

			experience := tenure.NewCalculator(st.cfg.Resume.ExperienceStart, clock)
			role := tenure.NewCalculator(st.cfg.Resume.CurrentRoleStart, clock)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Experience:   %s (since %s)\n",
				experience.Experience(), experience.Start().Format(config.DateLayout))
			fmt.Fprintf(out, "Current role: %s (since %s)\n",
				role.Elapsed(), role.Start().Format(config.DateLayout))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "evaluate as of this date ("+config.DateLayout+") instead of today")
	return cmd
}
