// Package server provides HTTP handlers and server setup for the generation
// service and its completion gateway.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"sp1assist/internal/cache"
	"sp1assist/internal/core"
	"sp1assist/internal/enhance"
	"sp1assist/internal/generator"
	"sp1assist/internal/providers"
	"sp1assist/internal/scenario"
	"sp1assist/internal/usage"
)

// Gateway request headers.
const (
	HeaderAPIKey   = "X-API-Key"
	HeaderProvider = "X-Provider"
)

// Generator produces artifacts for generation requests.
type Generator interface {
	Generate(ctx context.Context, req generator.Request) (*core.Artifact, error)
}

// Deps are the collaborators the handlers serve.
type Deps struct {
	Generator Generator
	Cache     cache.Cache
	CacheTTL  time.Duration
	Completer core.Completer
	Logger    *slog.Logger
}

// Handler holds the HTTP handlers
type Handler struct {
	generator Generator
	cache     cache.Cache
	cacheTTL  time.Duration
	completer core.Completer
	logger    *slog.Logger
	version   string
}

// NewHandler creates a new handler
func NewHandler(deps Deps, version string) *Handler {
	if version == "" {
		version = "dev"
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Handler{
		generator: deps.Generator,
		cache:     deps.Cache,
		cacheTTL:  deps.CacheTTL,
		completer: deps.Completer,
		logger:    deps.Logger,
		version:   version,
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   "sp1assist",
		"version":   h.version,
		"providers": providers.ListRegistered(),
		"timestamp": now(),
	})
}

// ListTemplates handles GET /api/templates
func (h *Handler) ListTemplates(c echo.Context) error {
	return c.JSON(http.StatusOK, scenario.List())
}

type modelInfo struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Provider      string             `json:"provider"`
	Description   string             `json:"description"`
	ContextWindow int                `json:"contextWindow,omitempty"`
	Pricing       *providers.Pricing `json:"pricing,omitempty"`
	RequiresKey   bool               `json:"requiresKey"`
	Recommended   bool               `json:"recommended"`
}

// ListModels handles GET /api/models
func (h *Handler) ListModels(c echo.Context) error {
	out := []modelInfo{{
		ID:          providers.DirectModel,
		Name:        "Direct Generation",
		Provider:    "none",
		Description: "Use template without AI enhancement",
	}}
	for _, m := range providers.Models() {
		pricing := m.Pricing
		out = append(out, modelInfo{
			ID:            m.ID,
			Name:          m.Name,
			Provider:      m.Provider,
			Description:   m.Description,
			ContextWindow: m.ContextWindow,
			Pricing:       &pricing,
			RequiresKey:   true,
			Recommended:   m.Recommended,
		})
	}
	return c.JSON(http.StatusOK, out)
}

type contextSize struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Tokens      string `json:"tokens"`
}

var contextSizes = []contextSize{
	{ID: "pattern", Name: "Pattern-Based (Recommended)", Description: "Optimized SP1 patterns and examples", Tokens: "~8k tokens"},
	{ID: "minimal", Name: "Minimal", Description: "Essential SP1 functions only", Tokens: "~2k tokens"},
	{ID: "full", Name: "Full Documentation", Description: "Complete SP1 reference (if model supports)", Tokens: "~14k tokens"},
}

// ListContextSizes handles GET /api/context-sizes
func (h *Handler) ListContextSizes(c echo.Context) error {
	return c.JSON(http.StatusOK, contextSizes)
}

type generateResponse struct {
	Success   bool           `json:"success"`
	Result    *core.Artifact `json:"result"`
	Timestamp string         `json:"timestamp"`
}

// Generate handles POST /api/generate
func (h *Handler) Generate(c echo.Context) error {
	var req generator.Request
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body"))
	}

	artifact, err := h.generator.Generate(c.Request().Context(), req)
	if err != nil {
		var gwErr *core.Error
		if !errors.As(err, &gwErr) {
			h.logger.Error("generation failed", "template", req.Template, "error", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error":   "Failed to generate SP1 integration",
				"details": err.Error(),
			})
		}
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, generateResponse{Success: true, Result: artifact, Timestamp: now()})
}

type estimateRequest struct {
	Model       string `json:"model"`
	Template    string `json:"template"`
	Code        string `json:"code"`
	ContextSize string `json:"contextSize"`
}

// EstimateCost handles POST /api/estimate-cost
func (h *Handler) EstimateCost(c echo.Context) error {
	var req estimateRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body"))
	}
	if !enhance.ValidContextSize(req.ContextSize) {
		return handleError(c, core.NewValidationError(fmt.Sprintf("Unknown context size %q: expected minimal, pattern or full", req.ContextSize)))
	}
	if req.ContextSize == "" {
		req.ContextSize = enhance.ContextPattern
	}
	est, err := usage.EstimateRequest(req.Model, req.ContextSize, req.Code)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, est)
}

// CacheStats handles GET /api/cache-stats
func (h *Handler) CacheStats(c echo.Context) error {
	size := 0
	if h.cache != nil {
		size = h.cache.Size(c.Request().Context())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"size": size,
		"ttl":  fmt.Sprintf("%d minutes", int(h.cacheTTL.Minutes())),
	})
}

// CacheClear handles POST /api/cache-clear
func (h *Handler) CacheClear(c echo.Context) error {
	if h.cache != nil {
		if err := h.cache.Clear(c.Request().Context()); err != nil {
			h.logger.Error("cache clear failed", "error", err)
			return c.JSON(http.StatusInternalServerError, map[string]any{
				"success": false,
				"error":   "failed to clear cache",
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "Cache cleared"})
}

type completionRequest struct {
	Model       string         `json:"model"`
	Messages    []core.Message `json:"messages"`
	Temperature *float64       `json:"temperature"`
	MaxTokens   *int           `json:"max_tokens"`
}

// Completions handles POST /v1/completions. The credential and provider
// travel in headers, never in the body.
func (h *Handler) Completions(c echo.Context) error {
	apiKey := c.Request().Header.Get(HeaderAPIKey)
	if apiKey == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing X-API-Key header"})
	}
	provider := c.Request().Header.Get(HeaderProvider)
	if provider == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing X-Provider header"})
	}

	var req completionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Model == "" || len(req.Messages) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "model and messages are required"})
	}

	temperature := 0.1
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := 4096
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	resp, err := h.completer.Complete(c.Request().Context(), core.CompletionRequest{
		Provider:    provider,
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Credential:  apiKey,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

type upstreamEstimateRequest struct {
	Model            string `json:"model"`
	PromptTokens     int    `json:"promptTokens"`
	CompletionTokens int    `json:"completionTokens"`
}

// EstimateUpstreamCost handles POST /v1/estimate-cost
func (h *Handler) EstimateUpstreamCost(c echo.Context) error {
	var req upstreamEstimateRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body"))
	}
	est, err := usage.EstimateUpstream(req.Model, req.PromptTokens, req.CompletionTokens)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, est)
}

// handleError converts typed errors to HTTP responses with a user-facing message
func handleError(c echo.Context, err error) error {
	var gwErr *core.Error
	if errors.As(err, &gwErr) {
		return c.JSON(gwErr.HTTPStatusCode(), map[string]string{
			"error": gwErr.UserMessage(),
			"type":  string(gwErr.Type),
		})
	}

	// Fallback for unexpected errors
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": "an unexpected error occurred",
		"type":  "internal_error",
	})
}
