package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CodeCraftersgcuf/gympadday-live/internal/push"
)

var devicePlatform string

var deviceCmd = &cobra.Command{
	Use:   "register-device <push-token>",
	Short: "Register this device's push token with the backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := newEnv()
		if err := push.Register(cmd.Context(), e.api, args[0], devicePlatform); err != nil {
			return err
		}
		fmt.Println("device registered")
		return nil
	},
}

func init() {
	deviceCmd.Flags().StringVar(&devicePlatform, "platform", "cli", "device platform")
	rootCmd.AddCommand(deviceCmd)
}
