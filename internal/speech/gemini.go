package speech

import (
	"context"
	"fmt"
	"mime"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"github.com/example/go-narration/internal/audio"
	"github.com/example/go-narration/internal/config"
)

// DefaultGeminiModel is the Gemini speech model.
const DefaultGeminiModel = "gemini-2.5-flash-preview-tts"

var geminiVoices = []string{
	"Zephyr", "Puck", "Charon", "Kore", "Fenrir", "Leda", "Orus", "Aoede",
	"Callirrhoe", "Autonoe", "Enceladus", "Iapetus", "Umbriel", "Algieba",
	"Despina", "Erinome", "Algenib", "Rasalgethi", "Laomedeia", "Achernar",
	"Alnilam", "Schedar", "Gacrux", "Pulcherrima", "Achird", "Zubenelgenubi",
	"Vindemiatrix", "Sadachbia", "Sadaltager", "Sulafat",
}

var geminiVoiceStyles = map[string]string{
	"Puck":   "energetic",
	"Kore":   "calm",
	"Charon": "deep",
	"Zephyr": "bright",
	"Fenrir": "excitable",
}

// Gemini synthesizes speech with the Gemini API. Responses carry raw 16-bit
// PCM which is wrapped in a WAV header before encoding.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, opts Options) (*Gemini, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	cc := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Synthesize(ctx context.Context, text, voice string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(text), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: resolveVoice(config.ProviderGemini, voice),
				},
			},
		},
	})
	if err != nil {
		return "", classifyGeminiError(err)
	}

	blob := firstInlineData(resp)
	if blob == nil || len(blob.Data) == 0 {
		return "", ErrNoAudio
	}

	wav, err := audio.PCMToWAV(blob.Data, pcmRate(blob.MIMEType), audio.ExpectedChannels)
	if err != nil {
		return "", fmt.Errorf("wrap gemini PCM: %w", err)
	}
	return audio.EncodeDataURI(wav), nil
}

func firstInlineData(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return nil
	}
	for _, p := range c.Content.Parts {
		if p != nil && p.InlineData != nil {
			return p.InlineData
		}
	}
	return nil
}

// pcmRate reads the rate parameter of an audio/L16 MIME type, falling back
// to the provider's native 24 kHz.
func pcmRate(mimeType string) int {
	_, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return audio.ExpectedSampleRate
	}
	rate, err := strconv.Atoi(params["rate"])
	if err != nil || rate <= 0 {
		return audio.ExpectedSampleRate
	}
	return rate
}

// classifyGeminiError maps Gemini failures onto the package sentinels. The
// API reports key restrictions only inside the error text.
func classifyGeminiError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "API_KEY_HTTP_REFERRER_BLOCKED"):
		return fmt.Errorf("%w: %v", ErrKeyRestricted, err)
	case strings.Contains(msg, "403") || strings.Contains(msg, "PERMISSION_DENIED"):
		return fmt.Errorf("%w: %v", ErrKeyInvalid, err)
	case strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	default:
		return fmt.Errorf("gemini speech: %w", err)
	}
}
