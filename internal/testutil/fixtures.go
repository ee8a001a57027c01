package testutil

import (
	"math"
	"testing"

	"github.com/example/go-narration/internal/audio"
)

// Ramp returns n bytes counting up from seed, wrapping at 256. Distinct seeds
// make concatenated payloads easy to tell apart.
func Ramp(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = seed + byte(i)
	}
	return b
}

// PCMClip wraps pcm in a 24 kHz mono header and returns it as a data URI.
func PCMClip(tb testing.TB, pcm []byte) string {
	tb.Helper()

	wav, err := audio.PCMToWAV(pcm, audio.ExpectedSampleRate, audio.ExpectedChannels)
	if err != nil {
		tb.Fatalf("PCMToWAV: %v", err)
	}
	return audio.EncodeDataURI(wav)
}

// ToneWAV returns a 24 kHz mono 16-bit sine tone of the given frame count.
func ToneWAV(tb testing.TB, frames int, freq float64) []byte {
	tb.Helper()

	samples := make([]float32, frames)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/audio.ExpectedSampleRate))
	}
	wav, err := audio.EncodeWAV(samples, audio.ExpectedSampleRate, audio.ExpectedChannels)
	if err != nil {
		tb.Fatalf("EncodeWAV: %v", err)
	}
	return wav
}

// ToneClip is ToneWAV encoded as a data URI.
func ToneClip(tb testing.TB, frames int, freq float64) string {
	tb.Helper()

	return audio.EncodeDataURI(ToneWAV(tb, frames, freq))
}
