package config

import (
	"fmt"
	"strings"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

func NormalizeProvider(raw string) (string, error) {
	provider := strings.ToLower(strings.TrimSpace(raw))
	if provider == "" {
		provider = ProviderGemini
	}
	switch provider {
	case ProviderGemini, ProviderOpenAI:
		return provider, nil
	case "google":
		return ProviderGemini, nil
	default:
		return "", fmt.Errorf(
			"invalid speech provider %q (expected %s|%s|google)",
			raw,
			ProviderGemini,
			ProviderOpenAI,
		)
	}
}
