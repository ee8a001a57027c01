package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/example/go-narration/internal/audio"
	"github.com/example/go-narration/internal/config"
)

// DefaultOpenAIModel is the OpenAI speech model.
const DefaultOpenAIModel = "tts-1"

var openAIVoices = []string{
	"alloy", "ash", "ballad", "coral", "echo", "fable", "onyx", "nova", "sage", "shimmer",
}

// OpenAI synthesizes speech with the OpenAI audio API in raw PCM mode, which
// is 24 kHz 16-bit mono.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(opts Options) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	cc := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cc.BaseURL = opts.BaseURL
	}
	if opts.HTTPClient != nil {
		cc.HTTPClient = opts.HTTPClient
	}

	model := opts.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cc), model: model}, nil
}

func (o *OpenAI) Synthesize(ctx context.Context, text, voice string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.model),
		Input:          text,
		Voice:          openai.SpeechVoice(resolveVoice(config.ProviderOpenAI, voice)),
		ResponseFormat: openai.SpeechResponseFormat("pcm"),
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	defer func() { _ = resp.Close() }()

	pcm, err := io.ReadAll(resp)
	if err != nil {
		return "", fmt.Errorf("read openai speech: %w", err)
	}
	if len(pcm) == 0 {
		return "", ErrNoAudio
	}

	wav, err := audio.PCMToWAV(pcm, audio.ExpectedSampleRate, audio.ExpectedChannels)
	if err != nil {
		return "", fmt.Errorf("wrap openai PCM: %w", err)
	}
	return audio.EncodeDataURI(wav), nil
}

func classifyOpenAIError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %v", ErrKeyInvalid, err)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	default:
		return fmt.Errorf("openai speech: %w", err)
	}
}
