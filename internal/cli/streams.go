package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var streamsCmd = &cobra.Command{
	Use:   "streams",
	Short: "List currently available live streams",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := newEnv()
		streams, err := e.api.LiveStreams(cmd.Context())
		if err != nil {
			return err
		}
		if len(streams) == 0 {
			fmt.Println("no live streams")
			return nil
		}
		for _, s := range streams {
			fmt.Printf("%s  %-30q  host=%s channel=%s\n", s.ID, s.Title, s.Host.Name, s.Channel)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(streamsCmd)
}
