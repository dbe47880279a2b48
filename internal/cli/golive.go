package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/CodeCraftersgcuf/gympadday-live/internal/session"
)

var goliveTitle string

var goliveCmd = &cobra.Command{
	Use:   "golive",
	Short: "Start a live stream as host",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := newEnv()
		ctx, cancel := interruptContext()
		defer cancel()

		channel := "live-" + uuid.New().String()
		stream, err := e.api.CreateLiveStream(ctx, goliveTitle, channel)
		if err != nil {
			return err
		}
		fmt.Printf("live stream %s created; Ctrl-C to end\n", stream.ID)
		return runLive(ctx, e, channel, session.RoleHost, stream.ID)
	},
}

func init() {
	goliveCmd.Flags().StringVarP(&goliveTitle, "title", "t", "Untitled stream", "stream title")
	rootCmd.AddCommand(goliveCmd)
}
