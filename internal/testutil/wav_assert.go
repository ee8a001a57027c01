package testutil

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/example/go-narration/internal/audio"
)

// AssertValidWAV checks that data is a 24 kHz mono 16-bit PCM WAV holding at
// least one sample.
func AssertValidWAV(tb testing.TB, data []byte) {
	tb.Helper()

	AssertWAVFormat(tb, data, audio.ExpectedSampleRate, audio.ExpectedChannels)
}

// AssertWAVFormat checks the RIFF layout and format fields of data, and that
// the data chunk is non-empty and fits in the buffer.
func AssertWAVFormat(tb testing.TB, data []byte, sampleRate, channels int) {
	tb.Helper()

	if len(data) < audio.HeaderSize {
		tb.Fatalf("WAV data too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" {
		tb.Fatalf("WAV: missing RIFF header (got %q)", string(data[0:4]))
	}
	if string(data[8:12]) != "WAVE" {
		tb.Fatalf("WAV: missing WAVE marker (got %q)", string(data[8:12]))
	}
	if string(data[12:16]) != "fmt " {
		tb.Fatalf("WAV: missing fmt chunk (got %q)", string(data[12:16]))
	}

	if f := binary.LittleEndian.Uint16(data[20:22]); f != 1 {
		tb.Fatalf("WAV: expected PCM format (1), got %d", f)
	}
	if ch := binary.LittleEndian.Uint16(data[22:24]); int(ch) != channels {
		tb.Fatalf("WAV: expected %d channel(s), got %d", channels, ch)
	}
	if sr := binary.LittleEndian.Uint32(data[24:28]); int(sr) != sampleRate {
		tb.Fatalf("WAV: expected sample rate %d, got %d", sampleRate, sr)
	}
	if bd := binary.LittleEndian.Uint16(data[34:36]); bd != 16 {
		tb.Fatalf("WAV: expected 16-bit depth, got %d", bd)
	}

	size, offset, err := findDataChunk(data)
	if err != nil {
		tb.Fatalf("WAV: %v", err)
	}
	if size == 0 {
		tb.Fatal("WAV: data chunk contains zero samples")
	}
	if offset+int(size) > len(data) {
		tb.Fatalf("WAV: data chunk claims %d bytes but only %d follow", size, len(data)-offset)
	}
}

// AssertDataURI decodes a clip, checks it with AssertValidWAV and returns the
// WAV bytes.
func AssertDataURI(tb testing.TB, clip string) []byte {
	tb.Helper()

	if clip == "" {
		tb.Fatal("clip is the empty sentinel")
	}
	wav, err := audio.DecodeClip(clip)
	if err != nil {
		tb.Fatalf("DecodeClip: %v", err)
	}
	AssertValidWAV(tb, wav)
	return wav
}

// AssertWAVDurationApprox asserts that the duration of a WAV falls within
// [minSec, maxSec], using the rate and channel count from its header.
func AssertWAVDurationApprox(tb testing.TB, data []byte, minSec, maxSec float64) {
	tb.Helper()

	if len(data) < audio.HeaderSize {
		tb.Fatalf("WAV duration check: %d bytes is too short", len(data))
	}
	size, _, err := findDataChunk(data)
	if err != nil {
		tb.Fatalf("WAV duration check: %v", err)
	}
	rate := binary.LittleEndian.Uint32(data[24:28])
	align := binary.LittleEndian.Uint16(data[32:34])
	if rate == 0 || align == 0 {
		tb.Fatalf("WAV duration check: rate %d block align %d", rate, align)
	}

	durationSec := float64(size/uint32(align)) / float64(rate)
	if durationSec < minSec || durationSec > maxSec {
		tb.Fatalf("WAV duration %.3fs out of expected range [%.3fs, %.3fs]", durationSec, minSec, maxSec)
	}
}

// findDataChunk walks the chunk list after the RIFF/WAVE preamble and
// returns the size and payload offset of the "data" chunk.
func findDataChunk(data []byte) (uint32, int, error) {
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		if id == "data" {
			return size, offset + 8, nil
		}

		offset += 8 + int(size)
		if size%2 != 0 {
			offset++
		}
	}
	return 0, 0, errors.New("data chunk not found in WAV")
}
