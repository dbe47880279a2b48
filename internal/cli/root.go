// Package cli implements the livecli commands: a terminal client for the
// GymPadday live-session backend.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/CodeCraftersgcuf/gympadday-live/internal/backend"
	"github.com/CodeCraftersgcuf/gympadday-live/internal/config"
	"github.com/CodeCraftersgcuf/gympadday-live/internal/credstore"
)

var rootCmd = &cobra.Command{
	Use:           "livecli",
	Short:         "Terminal client for GymPadday live streams and calls",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env bundles what every command needs: config, the credential store and an
// authenticated backend client.
type env struct {
	cfg   config.Config
	creds credstore.Store
	api   *backend.Client
}

func newEnv() env {
	cfg := config.Load()
	creds := credstore.NewFile(cfg.Backend.CredentialFile)
	return env{
		cfg:   cfg,
		creds: creds,
		api:   backend.NewClient(cfg.Backend.BaseURL, creds),
	}
}

// localUID reads the numeric identity out of the stored bearer JWT. The
// signature is the server's concern; we only need the uid claim.
func (e env) localUID() (int64, error) {
	tok, err := e.creds.Get()
	if err != nil {
		return 0, fmt.Errorf("not logged in: %w", err)
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return 0, fmt.Errorf("stored credential is not a token: %w", err)
	}
	uid, ok := claims["uid"].(float64)
	if !ok {
		return 0, fmt.Errorf("stored credential has no uid claim")
	}
	return int64(uid), nil
}

// interruptContext returns a context cancelled on SIGINT/SIGTERM.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
