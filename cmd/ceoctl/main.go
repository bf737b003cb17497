// Package main implements ceoctl, the command-line client for the ceod API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/ceo-assistant/internal/client"
)

var (
	// serverURL is the base URL for the ceod HTTP server
	serverURL string
	// token is a Firebase ID token sent as a bearer token
	token string
	// userID is sent as X-User-Id to development servers
	userID string
	// outputFormat is table, json or yaml
	outputFormat string
	// requestTimeout bounds each command's API calls
	requestTimeout time.Duration
	// version information
	version = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ceoctl",
	Short: "CLI for the CEO Assistant API",
	Long: `ceoctl is a command-line interface for the CEO Assistant API served by ceod.
It manages tasks, weekly and daily goals, and LinkedIn posts, shows the
dashboard summary, and opens an interactive terminal dashboard.

Authenticate with a Firebase ID token (--token or CEO_TOKEN) or, against a
development server, a user ID (--user or CEO_USER_ID).`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: validateOutput,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("CEO_SERVER", "http://localhost:5000"), "ceod server URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("CEO_TOKEN"), "Firebase ID token")
	rootCmd.PersistentFlags().StringVar(&userID, "user", os.Getenv("CEO_USER_ID"), "user ID for development servers (X-User-Id)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", outputTable, "output format: table, json or yaml")
	rootCmd.PersistentFlags().DurationVar(&requestTimeout, "timeout", 10*time.Second, "request timeout")
	rootCmd.AddCommand(healthCmd)
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check ceod server health",
	Long: `Check that the ceod server is up and can reach its store.

Examples:
  # Check health
  ceoctl health

  # Check health on a different server
  ceoctl health --server http://localhost:8080`,
	RunE: runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	h, err := c.Ready(ctx)
	if err != nil {
		return fmt.Errorf("server unhealthy: %w", err)
	}
	return render(cmd, h, func(p *printer) {
		p.row("STATUS", "SERVER")
		p.row(h.Status, c.BaseURL())
	})
}

func newClient() (*client.Client, error) {
	var opts []client.Option
	if token != "" {
		opts = append(opts, client.WithToken(token))
	}
	if userID != "" {
		opts = append(opts, client.WithUserID(userID))
	}
	return client.New(serverURL, opts...)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, requestTimeout)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
