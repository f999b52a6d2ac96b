package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the analysis service is reachable",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
	healthCmd.Flags().Duration("timeout", 5*time.Second, "How long to wait for the service")
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	client, err := newAPIClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), mustGetDuration(cmd, "timeout"))
	defer cancel()

	status, err := client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("analysis service at %s is not reachable: %w", client.URL, err)
	}

	fmt.Printf("Analysis service: %s\n", client.URL)
	fmt.Printf("  Status:  %s\n", status.Status)
	if status.Message != "" {
		fmt.Printf("  Message: %s\n", status.Message)
	}
	return nil
}
