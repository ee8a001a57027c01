package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/go-narration/internal/doctor"
	"github.com/example/go-narration/internal/speech"
)

func newDoctorCmd() *cobra.Command {
	var live bool

	cmd := &cobra.Command{
		Use:   "doctor [clip-file...]",
		Short: "Check configuration, credentials and clip files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "provider: %s\n", cfg.Speech.Provider)

			dcfg := doctor.Config{
				Provider:   cfg.Speech.Provider,
				SampleRate: cfg.Audio.SampleRate,
				Channels:   cfg.Audio.Channels,
				ResolveKey: func() (string, error) {
					return speech.ResolveAPIKey(cfg.Speech.Provider, cfg.Speech.APIKey)
				},
				ClipFiles: args,
			}
			if live {
				dcfg.Probe = func(ctx context.Context) (string, error) {
					synth, err := newSynthesizer(ctx, cfg.Speech)
					if err != nil {
						return "", err
					}
					return synth.Synthesize(ctx, "Testing, one two.", cfg.Speech.Voice)
				}
			}

			result := doctor.Run(cmd.Context(), dcfg, out)
			if result.Failed() {
				return fmt.Errorf("doctor found %d problem(s)", len(result.Failures()))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&live, "live", false, "Also synthesize a short phrase with the provider")

	return cmd
}
