package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

// makeWAV builds a minimal valid WAV file from parameters for testing.
func makeWAV(sampleRate uint32, numChannels uint16, bitDepth uint16, numSamples int) []byte {
	blockAlign := numChannels * bitDepth / 8
	byteRate := sampleRate * uint32(blockAlign)
	dataSize := uint32(numSamples) * uint32(blockAlign)
	riffSize := 4 + (8 + 16) + (8 + dataSize)

	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(riffSize))
	buf.WriteString("WAVE")

	// fmt chunk
	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16)) // chunk size
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))  // PCM
	_ = binary.Write(buf, binary.LittleEndian, numChannels)
	_ = binary.Write(buf, binary.LittleEndian, sampleRate)
	_ = binary.Write(buf, binary.LittleEndian, byteRate)
	_ = binary.Write(buf, binary.LittleEndian, blockAlign)
	_ = binary.Write(buf, binary.LittleEndian, bitDepth)

	// data chunk
	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, dataSize)
	for range numSamples {
		_ = binary.Write(buf, binary.LittleEndian, int16(0))
	}

	return buf.Bytes()
}

func TestInfo_CheckFormat(t *testing.T) {
	tests := []struct {
		name       string
		wav        []byte
		sampleRate int
		channels   int
		wantErr    bool
	}{
		{"matches default layout", makeWAV(24000, 1, 16, 100), ExpectedSampleRate, ExpectedChannels, false},
		{"matches stereo layout", makeWAV(48000, 2, 16, 10), 48000, 2, false},
		{"wrong sample rate", makeWAV(44100, 1, 16, 10), ExpectedSampleRate, ExpectedChannels, true},
		{"stereo against mono", makeWAV(24000, 2, 16, 10), ExpectedSampleRate, ExpectedChannels, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Inspect(tt.wav)
			if err != nil {
				t.Fatalf("Inspect: %v", err)
			}
			err = info.CheckFormat(tt.sampleRate, tt.channels)
			if tt.wantErr {
				if !errors.Is(err, ErrFormatMismatch) {
					t.Errorf("CheckFormat error = %v; want ErrFormatMismatch", err)
				}
				return
			}
			if err != nil {
				t.Errorf("CheckFormat error = %v; want nil", err)
			}
		})
	}
}

func TestInfo_CheckFormat_ListsEveryDifference(t *testing.T) {
	info := Info{SampleRate: 44100, Channels: 2, BitDepth: 8}
	err := info.CheckFormat(24000, 1)
	if !errors.Is(err, ErrFormatMismatch) {
		t.Fatalf("error = %v; want ErrFormatMismatch", err)
	}
	for _, want := range []string{"44100 Hz", "2 channel(s)", "8-bit"} {
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("error %v missing %q", err, want)
		}
	}
}

func TestEncodeWAV(t *testing.T) {
	t.Run("produces valid WAV with RIFF header", func(t *testing.T) {
		samples := make([]float32, 100)
		data, err := EncodeWAV(samples, ExpectedSampleRate, ExpectedChannels)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(data) < 44 {
			t.Fatalf("WAV too short: %d bytes", len(data))
		}
		if string(data[:4]) != "RIFF" {
			t.Errorf("missing RIFF header")
		}
		if string(data[8:12]) != "WAVE" {
			t.Errorf("missing WAVE identifier")
		}
	})

	t.Run("writes requested layout", func(t *testing.T) {
		data, err := EncodeWAV(make([]float32, 50*2), 16000, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		h, err := ParseHeader(data)
		if err != nil {
			t.Fatalf("ParseHeader: %v", err)
		}
		if h.SampleRate != 16000 || h.NumChannels != 2 || h.BitsPerSample != ExpectedBitDepth {
			t.Errorf("header = %+v", h)
		}
		if h.Subchunk2Size != 50*2*2 {
			t.Errorf("Subchunk2Size = %d; want %d", h.Subchunk2Size, 50*2*2)
		}
	})

	t.Run("rejects partial frames", func(t *testing.T) {
		if _, err := EncodeWAV(make([]float32, 3), ExpectedSampleRate, 2); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("error = %v; want ErrInvalidArgument", err)
		}
	})
}

func TestEncodeWAV_Quantizes(t *testing.T) {
	original := []float32{0.0, 0.5, -0.5, 1.0, -1.0}
	encoded, err := EncodeWAV(original, ExpectedSampleRate, ExpectedChannels)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}

	pcm := encoded[HeaderSize:]
	if len(pcm) != len(original)*2 {
		t.Fatalf("PCM bytes = %d, want %d", len(pcm), len(original)*2)
	}

	// 16-bit quantization introduces error up to ~1/32768.
	const tolerance = 1.0 / 32768.0 * 2
	for i, want := range original {
		got := float64(int16(binary.LittleEndian.Uint16(pcm[2*i:]))) / 32768.0
		if math.Abs(got-float64(want)) > tolerance {
			t.Errorf("sample[%d] = %f, want %f (tolerance %f)", i, got, want, tolerance)
		}
	}
}

func TestSilence(t *testing.T) {
	data, err := Silence(50*time.Millisecond, 24000, 2)
	if err != nil {
		t.Fatalf("Silence: %v", err)
	}
	info, err := Inspect(data)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.Frames != 1200 || info.Duration != 50*time.Millisecond {
		t.Errorf("info = %+v; want 1200 frames over 50ms", info)
	}
	if err := info.CheckFormat(24000, 2); err != nil {
		t.Errorf("CheckFormat: %v", err)
	}
	for _, b := range data[HeaderSize:] {
		if b != 0 {
			t.Fatal("silence contains non-zero PCM")
		}
	}

	if _, err := Silence(-time.Second, 24000, 1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("negative duration error = %v; want ErrInvalidArgument", err)
	}
	if _, err := Silence(time.Second, 24000, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("zero channels error = %v; want ErrInvalidArgument", err)
	}
}

func TestEncodeWAV_RejectsInvalidSampleRate(t *testing.T) {
	for _, rate := range []int{0, -1} {
		_, err := EncodeWAV([]float32{0.1}, rate, ExpectedChannels)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("EncodeWAV(rate=%d) error = %v; want ErrInvalidArgument", rate, err)
		}
	}
}

func TestEncodeWAV_MatchesCanonicalHeader(t *testing.T) {
	data, err := EncodeWAV(make([]float32, 10), ExpectedSampleRate, ExpectedChannels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h, err := ParseHeader(data)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.Subchunk2Size != 20 {
		t.Errorf("Subchunk2Size = %d; want 20", h.Subchunk2Size)
	}
	if len(data) != HeaderSize+20 {
		t.Errorf("len = %d; want %d", len(data), HeaderSize+20)
	}
}

func TestInspect(t *testing.T) {
	t.Run("reports stereo 44.1kHz layout", func(t *testing.T) {
		info, err := Inspect(makeWAV(44100, 2, 16, 441))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info.SampleRate != 44100 || info.Channels != 2 || info.BitDepth != 16 {
			t.Errorf("format = %d/%d/%d; want 44100/2/16", info.SampleRate, info.Channels, info.BitDepth)
		}
		if info.Frames != 441 {
			t.Errorf("Frames = %d; want 441", info.Frames)
		}
		if info.PCMBytes != 441*4 {
			t.Errorf("PCMBytes = %d; want %d", info.PCMBytes, 441*4)
		}
		if info.Duration != 10*time.Millisecond {
			t.Errorf("Duration = %v; want 10ms", info.Duration)
		}
	})

	t.Run("reads combined clips", func(t *testing.T) {
		pcm := make([]byte, 2400*2)
		wavData, err := PCMToWAV(pcm, ExpectedSampleRate, ExpectedChannels)
		if err != nil {
			t.Fatalf("PCMToWAV: %v", err)
		}
		uri := Combine([]string{EncodeDataURI(wavData), EncodeDataURI(wavData)})
		combined, err := DecodeClip(uri)
		if err != nil {
			t.Fatalf("DecodeClip: %v", err)
		}

		info, err := Inspect(combined)
		if err != nil {
			t.Fatalf("Inspect: %v", err)
		}
		if info.Duration != 200*time.Millisecond {
			t.Errorf("Duration = %v; want 200ms", info.Duration)
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		if _, err := Inspect([]byte("nope")); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestPCMToWAV(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	out, err := PCMToWAV(pcm, 16000, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out[HeaderSize:], pcm) {
		t.Errorf("payload = %v; want %v", out[HeaderSize:], pcm)
	}

	h, err := ParseHeader(out)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.SampleRate != 16000 || h.NumChannels != 2 || h.Subchunk2Size != 4 {
		t.Errorf("header = %+v", h)
	}

	if _, err := PCMToWAV(pcm, 0, 1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("PCMToWAV(rate=0) error = %v; want ErrInvalidArgument", err)
	}
}
