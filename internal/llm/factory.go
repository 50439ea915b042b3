package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"hoursandfuture.com/nexthours/internal/config"
)

// NewCompleter returns the client for cfg.LLMProvider.
func NewCompleter(ctx context.Context, cfg config.Config, logger *zap.Logger) (Completer, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case config.ProviderGemini, "":
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLMProvider)
	}
}
