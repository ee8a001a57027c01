package audio

import (
	"errors"
	"log/slog"
)

// ErrEmptyPayload marks a decoded clip that holds no PCM beyond its header.
var ErrEmptyPayload = errors.New("clip has no PCM payload")

// Result describes one Combine call. Audio is the empty string when no clip
// contributed any PCM.
type Result struct {
	Audio    string `json:"audio"`
	Segments int    `json:"segments"`
	Dropped  int    `json:"dropped"`
	PCMBytes int    `json:"pcm_bytes"`
}

// Empty reports whether the result is the no-audio sentinel.
func (r Result) Empty() bool { return r.Audio == "" }

// Combiner merges independently encoded WAV clips into a single clip.
// A Combiner holds no per-call state and may be shared between goroutines.
type Combiner struct {
	sampleRate int
	channels   int
	codec      Codec
	log        *slog.Logger
}

// Option configures a Combiner.
type Option func(*Combiner)

// WithLogger sets the logger used to report dropped clips.
func WithLogger(l *slog.Logger) Option {
	return func(c *Combiner) { c.log = l }
}

// WithFormat sets the sample rate and channel count written into the
// combined header. Inputs are assumed to already share that format.
func WithFormat(sampleRate, channels int) Option {
	return func(c *Combiner) {
		c.sampleRate = sampleRate
		c.channels = channels
	}
}

// WithCodec replaces the base64 codec.
func WithCodec(codec Codec) Option {
	return func(c *Combiner) { c.codec = codec }
}

// ValidateFormat reports whether sampleRate and channels fit a 16-bit PCM
// header. Use it on user-supplied formats before calling NewCombiner.
func ValidateFormat(sampleRate, channels int) error {
	_, err := NewHeader(0, sampleRate, channels)
	return err
}

// NewCombiner returns a Combiner producing 24 kHz mono output unless
// configured otherwise. It panics if the configured format is invalid.
func NewCombiner(opts ...Option) *Combiner {
	c := &Combiner{
		sampleRate: ExpectedSampleRate,
		channels:   ExpectedChannels,
		codec:      StdCodec{},
	}
	for _, fn := range opts {
		fn(c)
	}
	if err := ValidateFormat(c.sampleRate, c.channels); err != nil {
		panic(err)
	}
	return c
}

// Combine is NewCombiner().Combine(clips).Audio.
func Combine(clips []string) string {
	return NewCombiner().Combine(clips).Audio
}

// Combine strips the 44-byte header from every clip, concatenates the PCM
// payloads in input order and wraps them in one freshly computed header.
//
// Clips that fail to decode are logged and skipped; clips of 44 bytes or less
// are skipped silently. When nothing remains the result is empty.
func (c *Combiner) Combine(clips []string) Result {
	var res Result
	if len(clips) == 0 {
		return res
	}

	fragments := make([][]byte, 0, len(clips))
	total := 0
	for i, clip := range clips {
		pcm, err := c.payload(clip)
		if err != nil {
			res.Dropped++
			if errors.Is(err, ErrInvalidEncoding) {
				c.logger().Warn("failed to decode audio segment",
					slog.Int("segment", i),
					slog.Int("clip_len", len(clip)),
					slog.String("error", err.Error()),
				)
			}
			continue
		}
		fragments = append(fragments, pcm)
		total += len(pcm)
	}

	if total == 0 {
		return res
	}

	// Format was validated in NewCombiner; only the length can fail here.
	hdr, err := NewHeader(total, c.sampleRate, c.channels)
	if err != nil {
		c.logger().Error("combined audio too large",
			slog.Int("pcm_bytes", total),
			slog.String("error", err.Error()),
		)
		res.Dropped += len(fragments)
		return res
	}

	out := make([]byte, HeaderSize+total)
	head := hdr.Bytes()
	copy(out, head[:])
	offset := HeaderSize
	for _, f := range fragments {
		offset += copy(out[offset:], f)
	}

	res.Audio = DataURIPrefix + c.codec.Encode(out)
	res.Segments = len(fragments)
	res.PCMBytes = total
	return res
}

// payload decodes a clip and returns the bytes following its header.
func (c *Combiner) payload(clip string) ([]byte, error) {
	raw, err := decodeClip(c.codec, clip)
	if err != nil {
		return nil, err
	}
	if len(raw) <= HeaderSize {
		return nil, ErrEmptyPayload
	}
	return raw[HeaderSize:], nil
}

func (c *Combiner) logger() *slog.Logger {
	if c.log != nil {
		return c.log
	}
	return slog.Default()
}
