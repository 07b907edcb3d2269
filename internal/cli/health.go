package cli

import (
	"time"

	"github.com/spf13/cobra"
)

const healthPollInterval = 250 * time.Millisecond

func newHealthCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the server and its storage are up",
		RunE: func(cmd *cobra.Command, args []string) error {
			deadline := time.Now().Add(wait)
			for {
				var result HealthResult
				err := client.Get("/api/v1/health", &result)
				if err == nil {
					NewOutput(cfg.Output).Print(result)
					return nil
				}
				if !time.Now().Before(deadline) {
					return err
				}
				time.Sleep(healthPollInterval)
			}
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "Keep polling for up to this long until the server is healthy")

	return cmd
}
