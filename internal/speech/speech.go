// Package speech wraps hosted text-to-speech APIs. Every provider returns one
// complete WAV clip per call, encoded as a data:audio/wav;base64 URI, so the
// results can be fed straight into audio.Combiner.
package speech

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/example/go-narration/internal/config"
)

// Synthesizer turns one text segment into one encoded WAV clip.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (string, error)
}

var (
	ErrMissingAPIKey = errors.New("speech API key is missing")
	ErrKeyInvalid    = errors.New("API key invalid or restricted")
	ErrKeyRestricted = errors.New("API key is restricted to a different HTTP referrer")
	ErrQuotaExceeded = errors.New("speech quota exceeded")
	ErrNoAudio       = errors.New("no audio data returned")
	ErrEmptyText     = errors.New("empty segment text")
)

// Voice describes a prebuilt provider voice.
type Voice struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Style    string `json:"style,omitempty"`
}

// Options holds provider-independent client settings.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// New builds the Synthesizer for cfg.Provider. The API key is taken from cfg
// or, failing that, from the provider's conventional environment variable.
func New(ctx context.Context, cfg config.SpeechConfig) (Synthesizer, error) {
	provider, err := config.NormalizeProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}

	key, err := ResolveAPIKey(provider, cfg.APIKey)
	if err != nil {
		return nil, err
	}

	opts := Options{APIKey: key, Model: cfg.Model}
	switch provider {
	case config.ProviderGemini:
		g, err := NewGemini(ctx, opts)
		if err != nil {
			return nil, err
		}
		return g, nil
	case config.ProviderOpenAI:
		o, err := NewOpenAI(opts)
		if err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("unsupported speech provider %q", provider)
	}
}

// apiKeyEnv lists the environment variables consulted per provider, in order.
var apiKeyEnv = map[string][]string{
	config.ProviderGemini: {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	config.ProviderOpenAI: {"OPENAI_API_KEY"},
}

// ResolveAPIKey returns explicit when set, otherwise the first non-empty
// provider environment variable.
func ResolveAPIKey(provider, explicit string) (string, error) {
	if k := strings.TrimSpace(explicit); k != "" {
		return k, nil
	}
	for _, env := range apiKeyEnv[provider] {
		if k := strings.TrimSpace(os.Getenv(env)); k != "" {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w for provider %q; set --speech-api-key or %s",
		ErrMissingAPIKey, provider, strings.Join(apiKeyEnv[provider], "/"))
}

// DefaultVoice returns the voice used when a request names none.
func DefaultVoice(provider string) string {
	if provider == config.ProviderOpenAI {
		return "alloy"
	}
	return "Kore"
}

// Voices lists the prebuilt voices of a provider.
func Voices(provider string) []Voice {
	var names []string
	var styles map[string]string
	switch provider {
	case config.ProviderOpenAI:
		names = openAIVoices
	case config.ProviderGemini:
		names = geminiVoices
		styles = geminiVoiceStyles
	}

	out := make([]Voice, 0, len(names))
	for _, n := range names {
		out = append(out, Voice{ID: n, Provider: provider, Style: styles[n]})
	}
	return out
}

func resolveVoice(provider, voice string) string {
	if v := strings.TrimSpace(voice); v != "" {
		return v
	}
	return DefaultVoice(provider)
}
