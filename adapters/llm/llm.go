package llm

import (
	"context"
	"fmt"

	"github.com/satriahrh/dsa-assistant/config"
	"github.com/satriahrh/dsa-assistant/domain"
)

// New builds the completion client selected by cfg.LLMProvider.
func New(ctx context.Context, cfg *config.Config) (domain.Completer, error) {
	switch cfg.LLMProvider {
	case config.ProviderGroq:
		return NewGroqClient(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.LLMModel, cfg.UpstreamTimeout), nil
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel, cfg.UpstreamTimeout)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
}
