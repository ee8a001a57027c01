package audio

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestMakeHeader_Layout(t *testing.T) {
	got, err := MakeHeader(100, 24000, 1)
	if err != nil {
		t.Fatalf("MakeHeader: %v", err)
	}

	want := []byte{
		'R', 'I', 'F', 'F',
		136, 0, 0, 0, // 36 + 100
		'W', 'A', 'V', 'E',
		'f', 'm', 't', ' ',
		16, 0, 0, 0,
		1, 0, // PCM
		1, 0, // mono
		0xC0, 0x5D, 0, 0, // 24000
		0x80, 0xBB, 0, 0, // 48000
		2, 0,
		16, 0,
		'd', 'a', 't', 'a',
		100, 0, 0, 0,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("MakeHeader(100, 24000, 1) =\n%v\nwant\n%v", got, want)
	}
}

func TestMakeHeader_RoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		pcmLength  int
		sampleRate int
		channels   int
	}{
		{"empty payload", 0, 24000, 1},
		{"odd length", 4801, 24000, 1},
		{"stereo cd", 1 << 20, 44100, 2},
		{"surround", 12, 48000, 6},
		{"riff limit", math.MaxUint32 - 36, 8000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := MakeHeader(tt.pcmLength, tt.sampleRate, tt.channels)
			if err != nil {
				t.Fatalf("MakeHeader: %v", err)
			}
			if len(b) != HeaderSize {
				t.Fatalf("len = %d; want %d", len(b), HeaderSize)
			}

			h, err := ParseHeader(b)
			if err != nil {
				t.Fatalf("ParseHeader: %v", err)
			}

			if int(h.Subchunk2Size) != tt.pcmLength {
				t.Errorf("Subchunk2Size = %d; want %d", h.Subchunk2Size, tt.pcmLength)
			}
			if int(h.ChunkSize) != 36+tt.pcmLength {
				t.Errorf("ChunkSize = %d; want %d", h.ChunkSize, 36+tt.pcmLength)
			}
			if int(h.SampleRate) != tt.sampleRate {
				t.Errorf("SampleRate = %d; want %d", h.SampleRate, tt.sampleRate)
			}
			if int(h.NumChannels) != tt.channels {
				t.Errorf("NumChannels = %d; want %d", h.NumChannels, tt.channels)
			}
			if int(h.ByteRate) != tt.sampleRate*tt.channels*2 {
				t.Errorf("ByteRate = %d; want %d", h.ByteRate, tt.sampleRate*tt.channels*2)
			}
			if int(h.BlockAlign) != tt.channels*2 {
				t.Errorf("BlockAlign = %d; want %d", h.BlockAlign, tt.channels*2)
			}
			if h.Subchunk1Size != 16 || h.AudioFormat != 1 || h.BitsPerSample != 16 {
				t.Errorf("fixed fields = %d/%d/%d; want 16/1/16", h.Subchunk1Size, h.AudioFormat, h.BitsPerSample)
			}
		})
	}
}

func TestMakeHeader_InvalidArgument(t *testing.T) {
	tests := []struct {
		name       string
		pcmLength  int
		sampleRate int
		channels   int
	}{
		{"negative length", -1, 24000, 1},
		{"zero sample rate", 10, 0, 1},
		{"negative sample rate", 10, -24000, 1},
		{"zero channels", 10, 24000, 0},
		{"negative channels", 10, 24000, -2},
		{"length past riff limit", math.MaxUint32 - 35, 24000, 1},
		{"byte rate overflow", 0, math.MaxInt32, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MakeHeader(tt.pcmLength, tt.sampleRate, tt.channels)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("MakeHeader(%d, %d, %d) error = %v; want ErrInvalidArgument",
					tt.pcmLength, tt.sampleRate, tt.channels, err)
			}
		})
	}
}

func TestMustHeader_PanicsOnInvalidArgument(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("panic value = %v; want ErrInvalidArgument", r)
		}
	}()
	MustHeader(-5, 24000, 1)
}

func TestHeader_WriteTo(t *testing.T) {
	h, err := NewHeader(8, 24000, 1)
	if err != nil {
		t.Fatalf("NewHeader: %v", err)
	}

	var buf bytes.Buffer
	n, err := h.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if n != HeaderSize {
		t.Errorf("n = %d; want %d", n, HeaderSize)
	}

	want := MustHeader(8, 24000, 1)
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("WriteTo bytes differ from MakeHeader")
	}
}

func TestParseHeader_Rejects(t *testing.T) {
	valid := MustHeader(4, 24000, 1)

	t.Run("short input", func(t *testing.T) {
		_, err := ParseHeader(valid[:43])
		if !errors.Is(err, ErrInvalidHeader) {
			t.Errorf("error = %v; want ErrInvalidHeader", err)
		}
	})

	for _, off := range []int{0, 8, 12, 36} {
		bad := append([]byte(nil), valid...)
		bad[off] = 'X'
		_, err := ParseHeader(bad)
		if !errors.Is(err, ErrInvalidHeader) {
			t.Errorf("corrupt tag at %d: error = %v; want ErrInvalidHeader", off, err)
		}
	}
}
