package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/CodeCraftersgcuf/gympadday-live/internal/livetypes"
	"github.com/CodeCraftersgcuf/gympadday-live/internal/push"
	"github.com/CodeCraftersgcuf/gympadday-live/internal/session"
)

var (
	callType      string
	answerPayload string
)

var callCmd = &cobra.Command{
	Use:   "call <receiver-uid>",
	Short: "Start a call to another user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := newEnv()
		ctx, cancel := interruptContext()
		defer cancel()

		receiver, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("receiver uid must be numeric: %w", err)
		}
		channel := "call-" + uuid.New().String()
		info, err := e.api.StartCall(ctx, receiver, channel, callType)
		if err != nil {
			return err
		}
		fmt.Printf("calling %d on channel %s; Ctrl-C to hang up\n", receiver, info.Channel)

		runErr := runLive(ctx, e, channel, session.RoleCaller, "")

		// Best effort regardless of how the session went down.
		if err := e.api.EndCall(cmd.Context(), channel); err != nil {
			fmt.Println("end-call cleanup failed:", err)
		}
		return runErr
	},
}

var answerCmd = &cobra.Command{
	Use:   "answer [channel]",
	Short: "Answer an incoming call, from a channel name or a push payload",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := newEnv()
		ctx, cancel := interruptContext()
		defer cancel()

		channel := ""
		if len(args) == 1 {
			channel = args[0]
		}
		if answerPayload != "" {
			var data map[string]string
			if err := json.Unmarshal([]byte(answerPayload), &data); err != nil {
				return fmt.Errorf("payload is not valid JSON: %w", err)
			}
			router := push.Router{OnIncomingCall: func(call livetypes.IncomingCall) {
				channel = call.Channel
				fmt.Printf("incoming %s call from %s\n", call.CallType, call.CallerName)
			}}
			if err := router.Route(data); err != nil {
				return err
			}
		}
		if channel == "" {
			return fmt.Errorf("a channel argument or --payload is required")
		}

		fmt.Printf("answering on channel %s; Ctrl-C to hang up\n", channel)
		return runLive(ctx, e, channel, session.RoleReceiver, "")
	},
}

func init() {
	callCmd.Flags().StringVar(&callType, "type", "audio", "call type (audio|video)")
	answerCmd.Flags().StringVar(&answerPayload, "payload", "", "push notification data payload (JSON)")
	rootCmd.AddCommand(callCmd, answerCmd)
}
