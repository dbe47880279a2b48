package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/CodeCraftersgcuf/gympadday-live/internal/health"
)

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check backend and engine gateway reachability",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := newEnv()
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		status := health.CheckAll(ctx, e.cfg)
		fmt.Print(status.String())
		if !status.OK {
			return fmt.Errorf("one or more checks failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
}
