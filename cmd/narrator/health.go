package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-narration/internal/server"
)

func newHealthCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that a running narrator server is healthy",
		Long: `Calls GET /health on a narrator server started with "narrator serve"
and prints the version it reports. Defaults to the configured listen address.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.ListenAddr
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			h, err := server.CheckHealth(ctx, addr)
			if err != nil {
				return fmt.Errorf("narrator server at %s: %w", addr, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "narrator server at %s: %s (version %s)\n", addr, h.Status, h.Version)
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Narrator server address (defaults to --server-listen-addr)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Give up after this long")

	return cmd
}
