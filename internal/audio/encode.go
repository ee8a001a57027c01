package audio

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/cwbudde/wav"
	goaudio "github.com/go-audio/audio"
)

// PCMToWAV wraps raw 16-bit little-endian PCM in a canonical 44-byte header.
func PCMToWAV(pcm []byte, sampleRate, channels int) ([]byte, error) {
	h, err := NewHeader(len(pcm), sampleRate, channels)
	if err != nil {
		return nil, err
	}

	out := make([]byte, HeaderSize+len(pcm))
	head := h.Bytes()
	copy(out, head[:])
	copy(out[HeaderSize:], pcm)
	return out, nil
}

// EncodeWAV encodes interleaved float32 samples in [-1, 1] as a 16-bit PCM
// WAV byte slice.
func EncodeWAV(samples []float32, sampleRate, channels int) ([]byte, error) {
	if err := ValidateFormat(sampleRate, channels); err != nil {
		return nil, err
	}
	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples do not fill %d-channel frames", ErrInvalidArgument, len(samples), channels)
	}

	var buf bytes.Buffer

	// wav.NewEncoder requires an io.WriteSeeker; bytes.Buffer is not one.
	sw := &seekBuffer{buf: &buf}

	enc := wav.NewEncoder(sw, sampleRate, ExpectedBitDepth, channels, formatPCM)

	pcmBuf := &goaudio.Float32Buffer{
		Data:           samples,
		Format:         &goaudio.Format{SampleRate: sampleRate, NumChannels: channels},
		SourceBitDepth: ExpectedBitDepth,
	}

	if err := enc.Write(pcmBuf); err != nil {
		return nil, fmt.Errorf("writing PCM: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing encoder: %w", err)
	}

	return buf.Bytes(), nil
}

// Silence returns d of digital silence as a WAV in the given format.
func Silence(d time.Duration, sampleRate, channels int) ([]byte, error) {
	if d < 0 {
		return nil, fmt.Errorf("%w: negative duration %s", ErrInvalidArgument, d)
	}
	frames := int(d * time.Duration(sampleRate) / time.Second)
	return EncodeWAV(make([]float32, frames*channels), sampleRate, channels)
}

// seekBuffer wraps a bytes.Buffer to satisfy io.WriteSeeker. The encoder
// seeks back to patch chunk sizes once the data length is known.
type seekBuffer struct {
	buf *bytes.Buffer
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	if s.pos == s.buf.Len() {
		n, err := s.buf.Write(p)
		s.pos += n
		return n, err
	}

	data := s.buf.Bytes()
	n := copy(data[s.pos:], p)
	if n < len(p) {
		s.buf.Write(p[n:])
		n = len(p)
	}
	s.pos += n
	return n, nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var newPos int
	switch whence {
	case io.SeekStart:
		newPos = int(offset)
	case io.SeekCurrent:
		newPos = s.pos + int(offset)
	case io.SeekEnd:
		newPos = s.buf.Len() + int(offset)
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("seek before start")
	}
	if newPos > s.buf.Len() {
		s.buf.Write(make([]byte, newPos-s.buf.Len()))
	}
	s.pos = newPos
	return int64(newPos), nil
}
