package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/CodeCraftersgcuf/gympadday-live/internal/livetypes"
)

var sayGift int

var sayCmd = &cobra.Command{
	Use:   "say <stream-id> <message...>",
	Short: "Send a chat message (or gift) to a live stream",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := newEnv()
		msg := livetypes.ChatSend{
			Message: strings.Join(args[1:], " "),
			Type:    "message",
		}
		if sayGift > 0 {
			msg.Type = "gift"
			msg.Amount = sayGift
		}
		return e.api.SendChat(cmd.Context(), args[0], msg)
	},
}

func init() {
	sayCmd.Flags().IntVar(&sayGift, "gift", 0, "send a gift of this coin amount instead of text")
	rootCmd.AddCommand(sayCmd)
}
