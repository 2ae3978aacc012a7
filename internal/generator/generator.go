// Package generator orchestrates one generation request: validation, feature
// parsing, deterministic synthesis, cache lookup and optional enhancement with
// fallback to the base artifact.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"sp1assist/internal/cache"
	"sp1assist/internal/core"
	"sp1assist/internal/enhance"
	"sp1assist/internal/observability"
	"sp1assist/internal/providers"
	"sp1assist/internal/scenario"
)

// Request is a generation request.
type Request struct {
	Template    string `json:"template"`
	Code        string `json:"code"`
	Model       string `json:"model"`
	APIKey      string `json:"apiKey"`
	ContextSize string `json:"contextSize"`
}

// Enhancer refines a base artifact through an upstream model.
type Enhancer interface {
	Enhance(ctx context.Context, in enhance.Input) (*core.Artifact, error)
}

// Generator turns requests into artifacts.
type Generator struct {
	cache    cache.Cache
	enhancer Enhancer
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates a generator. The cache and metrics may be nil.
func New(c cache.Cache, e Enhancer, m *observability.Metrics, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{cache: c, enhancer: e, metrics: m, logger: logger}
}

// Validate rejects requests that must not reach any generation work.
func Validate(req Request) error {
	if strings.TrimSpace(req.Template) == "" || strings.TrimSpace(req.Code) == "" {
		return core.NewValidationError("Template and code are required")
	}
	if !enhance.ValidContextSize(req.ContextSize) {
		return core.NewValidationError(fmt.Sprintf("Unknown context size %q: expected minimal, pattern or full", req.ContextSize))
	}
	model := modelOrDirect(req.Model)
	if model == providers.DirectModel {
		return nil
	}
	if req.APIKey == "" {
		return core.NewValidationError("API key required for AI-enhanced generation")
	}
	if _, ok := providers.LookupModel(model); !ok {
		return core.NewUnknownModelError(model)
	}
	return nil
}

// Generate produces an artifact. Validation and unknown-template errors are
// returned before any work; enhancement failures degrade to the base artifact
// with Error set.
func (g *Generator) Generate(ctx context.Context, req Request) (*core.Artifact, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	s, ok := scenario.Lookup(req.Template)
	if !ok {
		return nil, core.NewUnknownScenarioError(req.Template)
	}

	model := modelOrDirect(req.Model)
	contextSize := req.ContextSize
	if contextSize == "" {
		contextSize = enhance.ContextPattern
	}

	g.logger.Info("generating program",
		"template", s.ID,
		"model", model,
		"context", contextSize,
		"request_id", core.GetRequestID(ctx),
	)

	key := cache.Key(s.ID, model, req.Code)
	if model != providers.DirectModel && g.cache != nil {
		cached, hit := g.cache.Get(ctx, key)
		g.metrics.CacheLookup(hit)
		if hit {
			g.logger.Debug("returning cached artifact", "key", key)
			g.metrics.Generation(s.ID, observability.OutcomeCached)
			cached.FromCache = true
			return cached, nil
		}
	}

	base := Base(s, req.Code)
	if model == providers.DirectModel {
		g.metrics.Generation(s.ID, observability.OutcomeDirect)
		return base, nil
	}

	enhanced, err := g.enhancer.Enhance(ctx, enhance.Input{
		Scenario:    s.ID,
		UserCode:    req.Code,
		ModelID:     model,
		Credential:  req.APIKey,
		ContextSize: contextSize,
		Base:        base,
		CacheKey:    key,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		g.logger.Warn("enhancement failed, using base template",
			"template", s.ID,
			"model", model,
			"error", err,
		)
		g.metrics.Generation(s.ID, observability.OutcomeFallback)
		base.Error = fmt.Sprintf("Enhancement failed: %s. Using base template.", failureMessage(err))
		return base, nil
	}

	g.metrics.Generation(s.ID, observability.OutcomeEnhanced)
	return enhanced, nil
}

// Base builds the deterministic artifact for a scenario and user text.
func Base(s *scenario.Scenario, code string) *core.Artifact {
	features := s.Parse(code)
	scripts := s.Scripts(features)
	return &core.Artifact{
		Program:      s.Program(features),
		ProveScript:  scripts.Prove,
		VerifyScript: scripts.Verify,
		EnvExample:   scripts.EnvExample,
		TestScript:   scripts.Test,
		Instructions: s.Instructions(),
	}
}

func modelOrDirect(model string) string {
	if model == "" {
		return providers.DirectModel
	}
	return model
}

func failureMessage(err error) string {
	var gwErr *core.Error
	if errors.As(err, &gwErr) {
		return gwErr.UserMessage()
	}
	return err.Error()
}
