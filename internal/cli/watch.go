package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CodeCraftersgcuf/gympadday-live/internal/session"
)

var watchCmd = &cobra.Command{
	Use:   "watch <stream-id>",
	Short: "Join a live stream as audience and follow its chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := newEnv()
		ctx, cancel := interruptContext()
		defer cancel()

		streamID := args[0]
		streams, err := e.api.LiveStreams(ctx)
		if err != nil {
			return err
		}
		channel := ""
		for _, s := range streams {
			if s.ID == streamID {
				channel = s.Channel
				break
			}
		}
		if channel == "" {
			return fmt.Errorf("stream %s not found", streamID)
		}
		if err := e.api.JoinLiveStream(ctx, streamID); err != nil {
			return err
		}
		fmt.Println("joined; Ctrl-C to leave")
		return runLive(ctx, e, channel, session.RoleAudience, streamID)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
