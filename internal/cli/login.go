package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the backend and store the bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := newEnv()
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		body, _ := json.Marshal(map[string]string{
			"username": loginUsername,
			"password": loginPassword,
		})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Backend.BaseURL+"/login", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("login request failed: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("login rejected (%d): %s", resp.StatusCode, string(b))
		}
		var parsed struct {
			Token  string `json:"token"`
			UserID int64  `json:"user_id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return err
		}
		if err := e.creds.Set(parsed.Token); err != nil {
			return err
		}
		fmt.Printf("logged in as %s (uid %d)\n", loginUsername, parsed.UserID)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := newEnv()
		if err := e.creds.Clear(); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password")
	loginCmd.MarkFlagRequired("username")
	loginCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(loginCmd, logoutCmd)
}
