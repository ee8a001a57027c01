package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-narration/internal/audio"
)

var errNoUsableAudio = errors.New("no usable audio in input clips")

func newCombineCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "combine [clip-file...]",
		Short: "Combine WAV clips into one WAV",
		Long: `Combine reads one clip per file argument, or one clip per line from stdin
when no files (or "-") are given. A clip is base64, a data:audio/wav;base64 URI,
or a raw .wav file. Clips that fail to decode are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			clips, err := readClips(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			combiner := audio.NewCombiner(
				audio.WithFormat(cfg.Audio.SampleRate, cfg.Audio.Channels),
				audio.WithLogger(slog.Default()),
			)
			res := combiner.Combine(clips)
			reportResult(cmd.ErrOrStderr(), res)
			if res.Empty() {
				return errNoUsableAudio
			}
			return writeClip(out, res.Audio, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&out, "out", "combined.wav", `Output WAV path ("-" prints the data URI)`)

	return cmd
}

// readClips collects clips from files, or from stdin lines for "-".
func readClips(args []string, stdin io.Reader) ([]string, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}

	var clips []string
	for _, arg := range args {
		if arg == "-" {
			lines, err := readClipLines(stdin)
			if err != nil {
				return nil, err
			}
			clips = append(clips, lines...)
			continue
		}

		b, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("read clip %q: %w", arg, err)
		}
		clips = append(clips, clipFromBytes(b))
	}
	return clips, nil
}

// clipFromBytes returns raw WAV data as a data URI and anything else as
// trimmed clip text.
func clipFromBytes(b []byte) string {
	if bytes.HasPrefix(b, []byte("RIFF")) {
		return audio.EncodeDataURI(b)
	}
	return strings.TrimSpace(string(b))
}

func readClipLines(r io.Reader) ([]string, error) {
	var clips []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 256<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			clips = append(clips, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return clips, nil
}
