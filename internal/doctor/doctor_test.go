package doctor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-narration/internal/audio"
	"github.com/example/go-narration/internal/doctor"
	"github.com/example/go-narration/internal/testutil"
)

var errNoKey = errors.New("speech API key is missing")

func okKey() (string, error) { return "sk-abcdef1234", nil }

func TestRun_AllChecksPass(t *testing.T) {
	cfg := doctor.Config{
		Provider:   "gemini",
		SampleRate: 24000,
		Channels:   1,
		ResolveKey: okKey,
		Probe: func(context.Context) (string, error) {
			return testutil.ToneClip(t, 2400, 440), nil
		},
	}

	var out strings.Builder
	result := doctor.Run(context.Background(), cfg, &out)

	if result.Failed() {
		t.Errorf("expected all checks to pass; failures: %v", result.Failures())
	}
	for _, want := range []string{"24000 Hz", "****1234", "live synthesis: 24000 Hz, 100ms"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "sk-abcdef") {
		t.Error("output leaks the API key")
	}
}

func TestRun_MissingKeyFailsAndSkipsProbe(t *testing.T) {
	probed := false
	cfg := doctor.Config{
		Provider:   "openai",
		SampleRate: 24000,
		Channels:   1,
		ResolveKey: func() (string, error) { return "", errNoKey },
		Probe: func(context.Context) (string, error) {
			probed = true
			return "", nil
		},
	}

	var out strings.Builder
	result := doctor.Run(context.Background(), cfg, &out)

	if !result.Failed() {
		t.Fatal("expected failure when the key is missing")
	}
	if probed {
		t.Error("probe must not run without a key")
	}
	if !strings.Contains(out.String(), doctor.FailMark+" openai API key") {
		t.Errorf("output should flag the key:\n%s", out.String())
	}
}

func TestRun_InvalidFormatFails(t *testing.T) {
	var out strings.Builder
	result := doctor.Run(context.Background(), doctor.Config{SampleRate: 0, Channels: 1}, &out)

	if !result.Failed() {
		t.Fatal("expected failure for a zero sample rate")
	}
	if !strings.Contains(result.Failures()[0], "audio format") {
		t.Errorf("failures = %v", result.Failures())
	}
}

func TestRun_ProbeErrors(t *testing.T) {
	tests := []struct {
		name  string
		probe doctor.ProbeFunc
	}{
		{"provider error", func(context.Context) (string, error) { return "", errors.New("quota") }},
		{"corrupt clip", func(context.Context) (string, error) { return "%%%", nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := doctor.Config{SampleRate: 24000, Channels: 1, ResolveKey: okKey, Probe: tt.probe}
			var out strings.Builder
			if result := doctor.Run(context.Background(), cfg, &out); !result.Failed() {
				t.Fatalf("expected failure:\n%s", out.String())
			}
		})
	}
}

func TestRun_ClipFiles(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "tone.wav")
	clipPath := filepath.Join(dir, "tone.txt")
	missing := filepath.Join(dir, "missing.wav")
	if err := os.WriteFile(wavPath, testutil.ToneWAV(t, 480, 440), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(clipPath, []byte(testutil.ToneClip(t, 480, 440)+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := doctor.Config{SampleRate: 24000, Channels: 1, ClipFiles: []string{wavPath, clipPath, missing}}
	var out strings.Builder
	result := doctor.Run(context.Background(), cfg, &out)

	if got := result.Failures(); len(got) != 1 || !strings.Contains(got[0], "missing.wav") {
		t.Fatalf("failures = %v, want only the missing file", got)
	}
	if strings.Count(out.String(), doctor.PassMark+" clip file") != 2 {
		t.Errorf("expected two passing clip files:\n%s", out.String())
	}
}

func TestRun_ClipFileFormatMismatch(t *testing.T) {
	stereo, err := audio.PCMToWAV(testutil.Ramp(16, 0), 48000, 2)
	if err != nil {
		t.Fatalf("PCMToWAV: %v", err)
	}
	path := filepath.Join(t.TempDir(), "stereo.wav")
	if err := os.WriteFile(path, stereo, 0o600); err != nil {
		t.Fatal(err)
	}

	var out strings.Builder
	result := doctor.Run(context.Background(), doctor.Config{SampleRate: 24000, Channels: 1, ClipFiles: []string{path}}, &out)
	if got := result.Failures(); len(got) != 1 || !strings.Contains(got[0], "format mismatch") {
		t.Fatalf("failures = %v, want one format mismatch", got)
	}

	out.Reset()
	result = doctor.Run(context.Background(), doctor.Config{SampleRate: 48000, Channels: 2, ClipFiles: []string{path}}, &out)
	if result.Failed() {
		t.Fatalf("clip matching the configured format failed: %v", result.Failures())
	}
}

func TestResult_AddFailure(t *testing.T) {
	var r doctor.Result
	r.AddFailure("external")
	got := r.Failures()
	got[0] = "mutated"
	if r.Failures()[0] != "external" {
		t.Error("Failures must return a copy")
	}
}

func TestMaskKey(t *testing.T) {
	tests := map[string]string{
		"":              "****",
		"abcd":          "****",
		"sk-1234567890": "****7890",
	}
	for in, want := range tests {
		if got := doctor.MaskKey(in); got != want {
			t.Errorf("MaskKey(%q) = %q, want %q", in, got, want)
		}
	}
}
