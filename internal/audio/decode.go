package audio

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cwbudde/wav"
)

// Native format of the upstream speech providers.
const (
	ExpectedSampleRate = 24000
	ExpectedChannels   = 1
	ExpectedBitDepth   = 16
)

// ErrFormatMismatch is returned when a WAV's layout differs from the one requested.
var ErrFormatMismatch = errors.New("WAV format mismatch")

// Info summarises a decoded WAV file.
type Info struct {
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	BitDepth   int           `json:"bit_depth"`
	Frames     int           `json:"frames"`
	PCMBytes   int           `json:"pcm_bytes"`
	Duration   time.Duration `json:"duration"`
}

// Inspect decodes a WAV file of any PCM layout and reports its format and length.
func Inspect(data []byte) (Info, error) {
	dec, err := newDecoder(data)
	if err != nil {
		return Info{}, err
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Info{}, fmt.Errorf("reading PCM data: %w", err)
	}

	info := Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if info.Channels > 0 {
		info.Frames = len(buf.Data) / info.Channels
	}
	info.PCMBytes = len(buf.Data) * info.BitDepth / 8
	if info.SampleRate > 0 {
		info.Duration = time.Duration(info.Frames) * time.Second / time.Duration(info.SampleRate)
	}
	return info, nil
}

// CheckFormat returns ErrFormatMismatch unless info describes 16-bit PCM at
// sampleRate with the given channel count. The combiner relabels payloads
// without resampling, so clips in any other layout would play back wrong.
func (i Info) CheckFormat(sampleRate, channels int) error {
	var problems []string
	if i.SampleRate != sampleRate {
		problems = append(problems, fmt.Sprintf("%d Hz, want %d", i.SampleRate, sampleRate))
	}
	if i.Channels != channels {
		problems = append(problems, fmt.Sprintf("%d channel(s), want %d", i.Channels, channels))
	}
	if i.BitDepth != ExpectedBitDepth {
		problems = append(problems, fmt.Sprintf("%d-bit, want %d", i.BitDepth, ExpectedBitDepth))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrFormatMismatch, strings.Join(problems, ", "))
}

func newDecoder(data []byte) (*wav.Decoder, error) {
	if len(data) == 0 {
		return nil, errors.New("empty WAV input")
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}
	return dec, nil
}
