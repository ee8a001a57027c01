package main

import (
	"fmt"
	"io"
	"os"

	"github.com/example/go-narration/internal/audio"
)

// writeClip writes a combined clip. "-" prints the data URI to stdout; any
// other path receives the decoded WAV bytes.
func writeClip(outPath, clip string, stdout io.Writer) error {
	if outPath == "-" {
		if stdout == nil {
			return fmt.Errorf("stdout writer is nil")
		}
		_, err := fmt.Fprintln(stdout, clip)
		return err
	}

	wav, err := audio.DecodeClip(clip)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, wav, 0o644)
}

func reportResult(w io.Writer, res audio.Result) {
	_, _ = fmt.Fprintf(w, "combined %d segment(s), dropped %d, %d PCM bytes\n",
		res.Segments, res.Dropped, res.PCMBytes)
}
