// Package enhance refines a generated program through an upstream model:
// prompt construction, overload retry with backoff, program extraction and an
// optional structural check.
package enhance

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"sp1assist/internal/cache"
	"sp1assist/internal/core"
	"sp1assist/internal/observability"
	"sp1assist/internal/providers"
)

// Fixed sampling parameters for enhancement calls.
const (
	Temperature = 0.1
	MaxTokens   = 4096
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Config holds the enhancer's collaborators.
type Config struct {
	Completer  core.Completer
	Cache      cache.Cache // optional
	Docs       Docs
	Validation ValidationMode
	Retry      RetryPolicy
	Metrics    *observability.Metrics // optional
	Logger     *slog.Logger
	Sleep      SleepFunc // defaults to a timer; tests inject a recorder
}

// Input is one enhancement request.
type Input struct {
	Scenario    string
	UserCode    string
	ModelID     string
	Credential  string
	ContextSize string
	// Base is the deterministic artifact; its scripts and instructions are
	// carried into the enhanced artifact unchanged.
	Base *core.Artifact
	// CacheKey overrides the derived (scenario, model, fingerprint) key.
	CacheKey string
}

// Enhancer runs the enhancement pipeline.
type Enhancer struct {
	completer  core.Completer
	cache      cache.Cache
	docs       Docs
	validation ValidationMode
	retry      RetryPolicy
	metrics    *observability.Metrics
	logger     *slog.Logger
	sleep      SleepFunc
	group      singleflight.Group
}

// New creates an enhancer.
func New(cfg Config) *Enhancer {
	e := &Enhancer{
		completer:  cfg.Completer,
		cache:      cfg.Cache,
		docs:       cfg.Docs,
		validation: cfg.Validation,
		retry:      cfg.Retry.withDefaults(),
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		sleep:      cfg.Sleep,
	}
	if e.validation == "" {
		e.validation = ValidationOff
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.sleep == nil {
		e.sleep = sleepContext
	}
	if e.docs == (Docs{}) {
		e.docs = EmbeddedDocs()
	}
	return e
}

// Enhance returns an enhanced artifact or a classified error. Identical
// concurrent requests (same cache key and credential) share one upstream run.
//
// The run is detached from ctx: once started, retries and the cache write
// complete even if the caller goes away. The caller still returns as soon as
// ctx is done.
func (e *Enhancer) Enhance(ctx context.Context, in Input) (*core.Artifact, error) {
	model, ok := providers.LookupModel(in.ModelID)
	if !ok {
		return nil, core.NewUnknownModelError(in.ModelID)
	}
	if in.Base == nil {
		return nil, core.NewValidationError("base artifact is required")
	}

	key := in.CacheKey
	if key == "" {
		key = cache.Key(in.Scenario, in.ModelID, in.UserCode)
	}
	flightKey := key + ":" + cache.Fingerprint(in.Credential)

	detached := context.WithoutCancel(ctx)
	ch := e.group.DoChan(flightKey, func() (any, error) {
		return e.run(detached, model, in, key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			e.logger.Debug("enhancement shared with concurrent request", "key", key)
		}
		return res.Val.(*core.Artifact).Clone(), nil
	}
}

func (e *Enhancer) run(ctx context.Context, model providers.ModelConfig, in Input, key string) (*core.Artifact, error) {
	messages, err := BuildMessages(PromptInput{
		Scenario:    in.Scenario,
		UserCode:    in.UserCode,
		BaseProgram: in.Base.Program,
		Provider:    model.Provider,
		ContextSize: in.ContextSize,
	}, e.docs)
	if err != nil {
		return nil, err
	}

	req := core.CompletionRequest{
		Provider:    model.Provider,
		Model:       model.Model,
		Messages:    messages,
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
		Credential:  in.Credential,
	}

	var lastErr error
	for attempt := 1; attempt <= e.retry.MaxAttempts; attempt++ {
		program, err := e.attempt(ctx, req)
		if err == nil {
			return e.finish(ctx, in, program, key)
		}
		lastErr = err

		e.logger.Warn("enhancement attempt failed",
			"attempt", attempt,
			"max_attempts", e.retry.MaxAttempts,
			"provider", model.Provider,
			"model", in.ModelID,
			"request_id", core.GetRequestID(ctx),
			"error", err,
		)

		if !core.IsType(err, core.ErrorTypeOverloaded) || attempt == e.retry.MaxAttempts {
			break
		}

		delay := e.retry.Backoff(attempt)
		e.metrics.Retry(model.Provider)
		e.logger.Info("upstream overloaded, backing off", "delay", delay, "next_attempt", attempt+1)
		if err := e.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// attempt performs one upstream call and extracts the program.
func (e *Enhancer) attempt(ctx context.Context, req core.CompletionRequest) (string, error) {
	start := time.Now()
	resp, err := e.completer.Complete(ctx, req)
	result := "success"
	if err != nil {
		result = errorLabel(err)
	}
	e.metrics.Attempt(req.Provider, result, time.Since(start))
	if err != nil {
		return "", err
	}

	program, err := Extract(resp.Content())
	if err != nil {
		return "", err
	}

	if e.validation == ValidationEnforce {
		if violations := ValidateStructure(program); len(violations) > 0 {
			return "", core.NewExtractionError("program failed structural validation: " + strings.Join(violations, "; "))
		}
	}
	return program, nil
}

func (e *Enhancer) finish(ctx context.Context, in Input, program, key string) (*core.Artifact, error) {
	artifact := in.Base.Clone()
	artifact.Program = program
	artifact.Model = in.ModelID
	artifact.Enhanced = true
	artifact.Error = ""
	artifact.FromCache = false

	valid := true
	if e.validation == ValidationWarn {
		if violations := ValidateStructure(program); len(violations) > 0 {
			valid = false
			e.logger.Warn("enhanced program failed structural validation",
				"model", in.ModelID,
				"scenario", in.Scenario,
				"violations", violations,
			)
		}
	}
	artifact.StructureValid = &valid

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, artifact); err != nil {
			e.logger.Warn("failed to cache enhanced artifact", "key", key, "error", err)
		}
	}
	return artifact, nil
}

func errorLabel(err error) string {
	var gwErr *core.Error
	if errors.As(err, &gwErr) {
		return string(gwErr.Type)
	}
	return "error"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
