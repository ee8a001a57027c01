package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-narration/internal/audio"
	"github.com/example/go-narration/internal/config"
	"github.com/example/go-narration/internal/speech"
	textpkg "github.com/example/go-narration/internal/text"
)

// newSynthesizer is replaced in tests.
var newSynthesizer = func(ctx context.Context, cfg config.SpeechConfig) (speech.Synthesizer, error) {
	return speech.New(ctx, cfg)
}

func newNarrateCmd() *cobra.Command {
	var text string
	var out string
	var voice string
	var maxChunkChars int

	cmd := &cobra.Command{
		Use:   "narrate",
		Short: "Synthesize a script into one WAV",
		Long: `Narrate splits a script into one segment per line, chunking long lines by
sentence, synthesizes the segments with the configured speech provider and
combines them in order. Segments that fail are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			script, err := readScript(text, cmd.InOrStdin())
			if err != nil {
				return err
			}
			segments, err := textpkg.SplitScript(script, maxChunkChars)
			if err != nil {
				return err
			}

			selectedVoice := cfg.Speech.Voice
			if voice != "" {
				selectedVoice = voice
			}

			synth, err := newSynthesizer(cmd.Context(), cfg.Speech)
			if err != nil {
				return err
			}

			n, err := narrate(cmd.Context(), cfg, synth, segments, selectedVoice)
			for _, f := range n.Failures {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", f)
			}
			if err != nil {
				return err
			}
			reportResult(cmd.ErrOrStderr(), n.Result)
			return writeClip(out, n.Audio, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Script to narrate (reads stdin if empty)")
	cmd.Flags().StringVar(&voice, "voice", "", "Voice name (overrides --speech-voice)")
	cmd.Flags().IntVar(&maxChunkChars, "max-chunk-chars", textpkg.DefaultMaxChars, "Maximum characters per synthesized segment")
	cmd.Flags().StringVar(&out, "out", "narration.wav", `Output WAV path ("-" prints the data URI)`)

	return cmd
}

func narrate(ctx context.Context, cfg config.Config, synth speech.Synthesizer, segments []string, voice string) (speech.Narration, error) {
	log := slog.Default()
	combiner := audio.NewCombiner(
		audio.WithFormat(cfg.Audio.SampleRate, cfg.Audio.Channels),
		audio.WithLogger(log),
	)
	nr := speech.NewNarrator(synth,
		speech.WithCombiner(combiner),
		speech.WithConcurrency(cfg.Speech.Concurrency),
		speech.WithSegmentTimeout(time.Duration(cfg.Speech.Timeout)*time.Second),
		speech.WithNarratorLogger(log),
	)
	return nr.Narrate(ctx, segments, voice)
}

func readScript(text string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	input := strings.TrimSpace(string(b))
	if input == "" {
		return "", fmt.Errorf("either provide --text or pipe a script on stdin")
	}
	return input, nil
}
