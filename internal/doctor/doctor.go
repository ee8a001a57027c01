// Package doctor provides environment preflight checks for narrator.
package doctor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/example/go-narration/internal/audio"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// KeyFunc resolves the speech provider API key.
type KeyFunc func() (string, error)

// ProbeFunc synthesizes a short phrase and returns the encoded clip.
type ProbeFunc func(ctx context.Context) (string, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	Provider   string
	SampleRate int
	Channels   int
	// ResolveKey returns the API key the provider would use.
	ResolveKey KeyFunc
	// Probe performs one live synthesis call. Nil skips the check.
	Probe ProbeFunc
	// ClipFiles are clip or WAV files that must decode in the configured layout.
	ClipFiles []string
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(ctx context.Context, cfg Config, w io.Writer) Result {
	var res Result

	// ---- output format ----------------------------------------------------
	if err := checkFormat(cfg.SampleRate, cfg.Channels); err != nil {
		res.fail(fmt.Sprintf("audio format: %v", err))
		fmt.Fprintf(w, "%s audio format: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s audio format: %d Hz, %d channel(s), 16-bit\n", PassMark, cfg.SampleRate, cfg.Channels)
	}

	// ---- API key ----------------------------------------------------------
	keyOK := false
	if cfg.ResolveKey == nil {
		fmt.Fprintf(w, "%s %s API key: skipped\n", PassMark, cfg.Provider)
	} else if key, err := cfg.ResolveKey(); err != nil {
		res.fail(fmt.Sprintf("%s API key: %v", cfg.Provider, err))
		fmt.Fprintf(w, "%s %s API key: %v\n", FailMark, cfg.Provider, err)
	} else {
		keyOK = true
		fmt.Fprintf(w, "%s %s API key: %s\n", PassMark, cfg.Provider, MaskKey(key))
	}

	// ---- live synthesis ---------------------------------------------------
	switch {
	case cfg.Probe == nil:
		fmt.Fprintf(w, "%s live synthesis: skipped\n", PassMark)
	case !keyOK && cfg.ResolveKey != nil:
		fmt.Fprintf(w, "%s live synthesis: skipped (no API key)\n", FailMark)
	default:
		if info, err := probe(ctx, cfg.Probe); err != nil {
			res.fail(fmt.Sprintf("live synthesis: %v", err))
			fmt.Fprintf(w, "%s live synthesis: %v\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s live synthesis: %d Hz, %s\n", PassMark, info.SampleRate, info.Duration)
		}
	}

	// ---- clip files -------------------------------------------------------
	for _, path := range cfg.ClipFiles {
		if info, err := inspectFile(path, cfg.SampleRate, cfg.Channels); err != nil {
			res.fail(fmt.Sprintf("clip file %q: %v", path, err))
			fmt.Fprintf(w, "%s clip file %s: %v\n", FailMark, path, err)
		} else {
			fmt.Fprintf(w, "%s clip file %s: %s\n", PassMark, path, info.Duration)
		}
	}

	return res
}

func probe(ctx context.Context, fn ProbeFunc) (audio.Info, error) {
	clip, err := fn(ctx)
	if err != nil {
		return audio.Info{}, err
	}
	wav, err := audio.DecodeClip(clip)
	if err != nil {
		return audio.Info{}, err
	}
	return audio.Inspect(wav)
}

// checkFormat encodes a short silence in the configured layout and reads it
// back, so the encoder and decoder both accept the format.
func checkFormat(sampleRate, channels int) error {
	wav, err := audio.Silence(10*time.Millisecond, sampleRate, channels)
	if err != nil {
		return err
	}
	info, err := audio.Inspect(wav)
	if err != nil {
		return err
	}
	return info.CheckFormat(sampleRate, channels)
}

// inspectFile reads a raw WAV or encoded clip and requires the layout the
// combiner writes.
func inspectFile(path string, sampleRate, channels int) (audio.Info, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return audio.Info{}, err
	}
	if len(b) < 4 || string(b[:4]) != "RIFF" {
		if b, err = audio.DecodeClip(string(bytes.TrimSpace(b))); err != nil {
			return audio.Info{}, err
		}
	}
	info, err := audio.Inspect(b)
	if err != nil {
		return audio.Info{}, err
	}
	return info, info.CheckFormat(sampleRate, channels)
}

// MaskKey shows only the last four characters of key.
func MaskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
