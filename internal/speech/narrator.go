package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/go-narration/internal/audio"
)

var (
	// ErrNoSegments is returned by Narrate for an empty segment list.
	ErrNoSegments = errors.New("no segments to narrate")

	// ErrNoUsableAudio is returned when no segment contributed PCM.
	ErrNoUsableAudio = errors.New("no usable audio was produced")
)

// SegmentError records why one segment was left out of a narration.
type SegmentError struct {
	Index int
	Err   error
}

func (e SegmentError) Error() string {
	return fmt.Sprintf("segment %d: %v", e.Index, e.Err)
}

func (e SegmentError) Unwrap() error { return e.Err }

// Narration is the outcome of one Narrate call.
type Narration struct {
	audio.Result
	Requested   int            `json:"requested"`
	Synthesized int            `json:"synthesized"`
	Failures    []SegmentError `json:"-"`
}

// Narrator synthesizes script segments concurrently and stitches the clips
// into one WAV in segment order.
type Narrator struct {
	synth       Synthesizer
	combiner    *audio.Combiner
	concurrency int
	timeout     time.Duration
	log         *slog.Logger
}

// NarratorOption configures a Narrator.
type NarratorOption func(*Narrator)

// WithConcurrency caps in-flight Synthesize calls. Values below 1 mean 1.
func WithConcurrency(n int) NarratorOption {
	return func(nr *Narrator) { nr.concurrency = n }
}

// WithSegmentTimeout bounds each Synthesize call. Zero disables the bound.
func WithSegmentTimeout(d time.Duration) NarratorOption {
	return func(nr *Narrator) { nr.timeout = d }
}

// WithCombiner sets the combiner that stitches synthesized clips, which also
// fixes the output format.
func WithCombiner(c *audio.Combiner) NarratorOption {
	return func(nr *Narrator) { nr.combiner = c }
}

// WithNarratorLogger sets the logger for segment failures and, unless
// WithCombiner is given, for the default combiner.
func WithNarratorLogger(l *slog.Logger) NarratorOption {
	return func(nr *Narrator) { nr.log = l }
}

// NewNarrator returns a Narrator over synth with four concurrent calls and a
// 24 kHz mono combiner unless configured otherwise.
func NewNarrator(synth Synthesizer, opts ...NarratorOption) *Narrator {
	nr := &Narrator{
		synth:       synth,
		concurrency: 4,
		log:         slog.Default(),
	}
	for _, fn := range opts {
		fn(nr)
	}
	if nr.concurrency < 1 {
		nr.concurrency = 1
	}
	if nr.combiner == nil {
		nr.combiner = audio.NewCombiner(audio.WithLogger(nr.log))
	}
	return nr
}

// Narrate synthesizes every segment with voice and combines the results.
//
// A segment whose synthesis fails is logged, recorded in Failures and left
// out; the remaining segments keep their relative order. Cancellation of ctx
// aborts the whole narration. ErrNoUsableAudio is returned when no segment
// produced PCM.
func (nr *Narrator) Narrate(ctx context.Context, segments []string, voice string) (Narration, error) {
	if len(segments) == 0 {
		return Narration{}, ErrNoSegments
	}

	clips := make([]string, len(segments))
	errs := make([]error, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(nr.concurrency)
	for i, seg := range segments {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			clip, err := nr.synthesize(gctx, seg, voice)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				errs[i] = err
				return nil
			}
			clips[i] = clip
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Narration{}, fmt.Errorf("narration aborted: %w", err)
	}

	n := Narration{Requested: len(segments)}
	ok := make([]string, 0, len(segments))
	for i, err := range errs {
		if err != nil {
			nr.log.Warn("segment synthesis failed",
				slog.Int("segment", i),
				slog.String("error", err.Error()),
			)
			n.Failures = append(n.Failures, SegmentError{Index: i, Err: err})
			continue
		}
		ok = append(ok, clips[i])
	}

	n.Synthesized = len(ok)
	n.Result = nr.combiner.Combine(ok)
	n.Dropped += len(n.Failures)
	if n.Empty() {
		if len(n.Failures) > 0 {
			return n, fmt.Errorf("%w: %w", ErrNoUsableAudio, n.Failures[len(n.Failures)-1])
		}
		return n, ErrNoUsableAudio
	}
	return n, nil
}

func (nr *Narrator) synthesize(ctx context.Context, text, voice string) (string, error) {
	if nr.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, nr.timeout)
		defer cancel()
	}
	return nr.synth.Synthesize(ctx, text, voice)
}
