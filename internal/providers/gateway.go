package providers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"sp1assist/internal/core"
)

// Gateway implements core.Completer over the registered providers.
type Gateway struct {
	baseURLs map[string]string
	logger   *slog.Logger
}

// NewGateway creates a gateway. baseURLs optionally overrides provider endpoints
// by provider type.
func NewGateway(baseURLs map[string]string, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{baseURLs: baseURLs, logger: logger}
}

// Complete sends one completion request to the named provider. Errors are
// classified *core.Error values so callers can decide on retries.
func (g *Gateway) Complete(ctx context.Context, req core.CompletionRequest) (*core.ChatResponse, error) {
	if req.Credential == "" {
		return nil, core.NewValidationError("an API key is required for model enhancement")
	}

	provider, err := Create(req.Provider, Options{APIKey: req.Credential, BaseURL: g.baseURLs[req.Provider]})
	if err != nil {
		return nil, core.NewProviderError(req.Provider, http.StatusBadRequest, err.Error(), err)
	}

	temperature := req.Temperature
	maxTokens := req.MaxTokens
	chatReq := &core.ChatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}

	start := time.Now()
	resp, err := provider.ChatCompletion(ctx, chatReq)
	if err != nil {
		g.logger.Warn("completion failed",
			"provider", req.Provider,
			"model", req.Model,
			"request_id", core.GetRequestID(ctx),
			"duration", time.Since(start),
			"error", err,
		)
		return nil, err
	}

	resp.Provider = req.Provider
	g.logger.Debug("completion finished",
		"provider", req.Provider,
		"model", req.Model,
		"request_id", core.GetRequestID(ctx),
		"duration", time.Since(start),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return resp, nil
}
