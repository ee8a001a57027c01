package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/go-narration/internal/audio"
)

func newInspectCmd() *cobra.Command {
	var (
		asJSON bool
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the format and duration of a WAV file or clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %q: %w", args[0], err)
			}
			wav, err := wavBytes(b)
			if err != nil {
				return err
			}

			info, err := audio.Inspect(wav)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				err = enc.Encode(info)
			} else {
				err = printInfo(cmd.OutOrStdout(), info, len(wav))
			}
			if err != nil || !strict {
				return err
			}

			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			return info.CheckFormat(cfg.Audio.SampleRate, cfg.Audio.Channels)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail unless the file matches the configured audio format")

	return cmd
}

// wavBytes accepts raw WAV data or an encoded clip.
func wavBytes(b []byte) ([]byte, error) {
	if bytes.HasPrefix(b, []byte("RIFF")) {
		return b, nil
	}
	return audio.DecodeClip(string(bytes.TrimSpace(b)))
}

func printInfo(w io.Writer, info audio.Info, size int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "sample rate\t%d Hz\n", info.SampleRate)
	_, _ = fmt.Fprintf(tw, "channels\t%d\n", info.Channels)
	_, _ = fmt.Fprintf(tw, "bit depth\t%d\n", info.BitDepth)
	_, _ = fmt.Fprintf(tw, "frames\t%d\n", info.Frames)
	_, _ = fmt.Fprintf(tw, "pcm bytes\t%d\n", info.PCMBytes)
	_, _ = fmt.Fprintf(tw, "file bytes\t%d\n", size)
	_, _ = fmt.Fprintf(tw, "duration\t%s\n", info.Duration)
	return tw.Flush()
}
