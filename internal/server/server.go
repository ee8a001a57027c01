package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/example/go-narration/internal/audio"
	"github.com/example/go-narration/internal/config"
	"github.com/example/go-narration/internal/speech"
	"github.com/example/go-narration/internal/text"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Narrator synthesizes and combines an ordered list of segments.
type Narrator interface {
	Narrate(ctx context.Context, segments []string, voice string) (speech.Narration, error)
}

// Combiner merges encoded WAV clips.
type Combiner interface {
	Combine(clips []string) audio.Result
}

// VoiceLister returns the list of available voices.
type VoiceLister interface {
	ListVoices() []speech.Voice
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxBodyBytes   int64
	maxSegments    int
	maxChunkChars  int
	workers        int
	requestTimeout time.Duration
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxBodyBytes:   32 << 20,
		maxSegments:    64,
		maxChunkChars:  text.DefaultMaxChars,
		workers:        2,
		requestTimeout: 120 * time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxBodyBytes caps the size of request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) { o.maxBodyBytes = n }
}

// WithMaxSegments caps the clips of POST /combine and the segments of
// POST /narrate.
func WithMaxSegments(n int) Option {
	return func(o *options) { o.maxSegments = n }
}

// WithMaxChunkChars sets the segment size used when splitting a script.
func WithMaxChunkChars(n int) Option {
	return func(o *options) { o.maxChunkChars = n }
}

// WithWorkers sets the maximum number of concurrent narrations.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request narration deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

type handler struct {
	narrator Narrator
	combiner Combiner
	voices   VoiceLister
	opts     options
	sem      chan struct{}
	log      *slog.Logger
}

// NewHandler returns an http.Handler serving /health, /voices, POST /combine
// and POST /narrate. A nil narrator disables /narrate.
func NewHandler(narrator Narrator, combiner Combiner, voices VoiceLister, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		narrator: narrator,
		combiner: combiner,
		voices:   voices,
		opts:     opts,
		log:      opts.logger,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/voices", h.handleVoices)
	mux.HandleFunc("/combine", h.handleCombine)
	mux.HandleFunc("/narrate", h.handleNarrate)
	return withRequestLog(h.log, mux)
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Health{Status: "ok", Version: buildVersion()})
}

func (h *handler) handleVoices(w http.ResponseWriter, _ *http.Request) {
	var voices []speech.Voice
	if h.voices != nil {
		voices = h.voices.ListVoices()
	}
	if voices == nil {
		voices = []speech.Voice{}
	}
	writeJSON(w, http.StatusOK, voices)
}

type combineRequest struct {
	Clips []string `json:"clips"`
}

func (h *handler) handleCombine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req combineRequest
	if status, err := h.decodeBody(w, r, &req); err != nil {
		writeError(w, status, err.Error())
		return
	}
	if len(req.Clips) > h.opts.maxSegments {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("too many clips: %d (max %d)", len(req.Clips), h.opts.maxSegments))
		return
	}

	start := time.Now()
	res := h.combiner.Combine(req.Clips)
	logger(r.Context(), h.log).InfoContext(r.Context(), "combine complete",
		slog.Int("clips", len(req.Clips)),
		slog.Int("segments", res.Segments),
		slog.Int("dropped", res.Dropped),
		slog.Int("pcm_bytes", res.PCMBytes),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	if wantsWAV(r) {
		h.writeWAV(w, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type narrateRequest struct {
	Script   string   `json:"script"`
	Segments []string `json:"segments"`
	Voice    string   `json:"voice"`
}

type segmentFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type narrateResponse struct {
	speech.Narration
	Failures []segmentFailure `json:"failures"`
}

func (h *handler) handleNarrate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.narrator == nil {
		writeError(w, http.StatusServiceUnavailable, "speech provider not configured")
		return
	}

	var req narrateRequest
	if status, err := h.decodeBody(w, r, &req); err != nil {
		writeError(w, status, err.Error())
		return
	}

	segments := req.Segments
	if len(segments) == 0 {
		var err error
		segments, err = text.SplitScript(req.Script, h.opts.maxChunkChars)
		if err != nil {
			writeError(w, http.StatusBadRequest, "script or segments field is required")
			return
		}
	}
	if len(segments) > h.opts.maxSegments {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("too many segments: %d (max %d)", len(segments), h.opts.maxSegments))
		return
	}

	// Acquire a worker slot, honouring cancellation while waiting.
	if h.sem != nil {
		select {
		case h.sem <- struct{}{}:
		case <-r.Context().Done():
			writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
			return
		}
		defer func() { <-h.sem }()
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	log := logger(r.Context(), h.log)
	start := time.Now()
	n, err := h.narrator.Narrate(ctx, segments, req.Voice)
	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		status, msg := narrateStatus(err)
		level := slog.LevelError
		if status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.Log(r.Context(), level, "narration failed",
			slog.String("voice", req.Voice),
			slog.Int("segments", len(segments)),
			slog.Int("status", status),
			slog.Int64("duration_ms", durationMS),
			slog.String("error", err.Error()),
		)
		writeError(w, status, msg)
		return
	}

	log.InfoContext(r.Context(), "narration complete",
		slog.String("voice", req.Voice),
		slog.Int("segments", len(segments)),
		slog.Int("dropped", n.Dropped),
		slog.Int("pcm_bytes", n.PCMBytes),
		slog.Int64("duration_ms", durationMS),
	)

	if wantsWAV(r) {
		h.writeWAV(w, n.Result)
		return
	}

	resp := narrateResponse{Narration: n, Failures: make([]segmentFailure, 0, len(n.Failures))}
	for _, f := range n.Failures {
		resp.Failures = append(resp.Failures, segmentFailure{Index: f.Index, Error: f.Err.Error()})
	}
	writeJSON(w, http.StatusOK, resp)
}

// narrateStatus maps a narration error onto an HTTP status and client message.
func narrateStatus(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, "narration timed out"
	case errors.Is(err, speech.ErrQuotaExceeded):
		return http.StatusTooManyRequests, speech.ErrQuotaExceeded.Error()
	case errors.Is(err, speech.ErrKeyRestricted):
		return http.StatusBadGateway, speech.ErrKeyRestricted.Error()
	case errors.Is(err, speech.ErrKeyInvalid):
		return http.StatusBadGateway, speech.ErrKeyInvalid.Error()
	case errors.Is(err, speech.ErrNoSegments):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, speech.ErrNoUsableAudio):
		return http.StatusUnprocessableEntity, speech.ErrNoUsableAudio.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// decodeBody reads a size-limited JSON body into v.
func (h *handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) (int, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return http.StatusBadRequest, errors.New("request body is required")
	}
	body := http.MaxBytesReader(w, r.Body, h.opts.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return http.StatusRequestEntityTooLarge,
				fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err)
	}
	return 0, nil
}

func wantsWAV(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "audio/wav")
}

// writeWAV writes the combined clip as raw WAV bytes. The empty sentinel has
// no WAV form and is reported as 422.
func (h *handler) writeWAV(w http.ResponseWriter, res audio.Result) {
	if res.Empty() {
		writeError(w, http.StatusUnprocessableEntity, speech.ErrNoUsableAudio.Error())
		return
	}
	wav, err := audio.DecodeClip(res.Audio)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(wav)))
	w.Header().Set("X-Segments", strconv.Itoa(res.Segments))
	w.Header().Set("X-Dropped", strconv.Itoa(res.Dropped))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(wav)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server wires the handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	synth           speech.Synthesizer
	shutdownTimeout time.Duration
}

// New returns a Server for cfg. A nil synth serves everything except
// POST /narrate.
func New(cfg config.Config, synth speech.Synthesizer) *Server {
	return &Server{
		cfg:             cfg,
		synth:           synth,
		shutdownTimeout: time.Duration(cfg.Server.ShutdownTimeout) * time.Second,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// Handler builds the HTTP handler from the server configuration.
func (s *Server) Handler() (http.Handler, error) {
	provider, err := config.NormalizeProvider(s.cfg.Speech.Provider)
	if err != nil {
		return nil, err
	}

	if err := audio.ValidateFormat(s.cfg.Audio.SampleRate, s.cfg.Audio.Channels); err != nil {
		return nil, fmt.Errorf("audio config: %w", err)
	}

	log := slog.Default()
	combiner := audio.NewCombiner(
		audio.WithFormat(s.cfg.Audio.SampleRate, s.cfg.Audio.Channels),
		audio.WithLogger(log),
	)

	var narrator Narrator
	if s.synth != nil {
		narrator = speech.NewNarrator(s.synth,
			speech.WithCombiner(combiner),
			speech.WithConcurrency(s.cfg.Speech.Concurrency),
			speech.WithSegmentTimeout(time.Duration(s.cfg.Speech.Timeout)*time.Second),
			speech.WithNarratorLogger(log),
		)
	}

	return NewHandler(narrator, combiner, providerVoices(provider),
		WithWorkers(s.cfg.Server.Workers),
		WithMaxBodyBytes(s.cfg.Server.MaxBodyBytes),
		WithMaxSegments(s.cfg.Server.MaxSegments),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout)*time.Second),
		WithLogger(log),
	), nil
}

func (s *Server) Start(ctx context.Context) error {
	h, err := s.Handler()
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

// Health is the body served by GET /health.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// CheckHealth asks the narrator server at addr for its health. addr may be a bare
// listen address such as ":8080", which is probed on the loopback interface.
func CheckHealth(ctx context.Context, addr string) (Health, error) {
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/health", nil)
	if err != nil {
		return Health{}, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Health{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Health{}, fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return Health{}, fmt.Errorf("decode health response: %w", err)
	}
	if h.Status != "ok" {
		return h, fmt.Errorf("server reports status %q", h.Status)
	}
	return h, nil
}

// providerVoices lists the prebuilt voices of one provider.
type providerVoices string

func (p providerVoices) ListVoices() []speech.Voice {
	return speech.Voices(string(p))
}
