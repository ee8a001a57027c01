package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/go-narration/internal/server"
	"github.com/example/go-narration/internal/speech"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the narration HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			// Without a key the server still combines clips.
			synth, err := newSynthesizer(cmd.Context(), cfg.Speech)
			if err != nil {
				if !errors.Is(err, speech.ErrMissingAPIKey) {
					return err
				}
				slog.Warn("speech provider disabled", slog.String("error", err.Error()))
				synth = nil
			}

			srv := server.New(cfg, synth)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			slog.Info("server listening",
				slog.String("addr", cfg.Server.ListenAddr),
				slog.String("provider", cfg.Speech.Provider),
			)
			return srv.Start(ctx)
		},
	}

	return cmd
}
