package enhance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sp1assist/internal/cache"
	"sp1assist/internal/core"
	"sp1assist/internal/observability"
)

func newTestEnhancer(t *testing.T, completer core.Completer, mode ValidationMode) (*Enhancer, *sleepRecorder, *cache.MemoryCache) {
	t.Helper()
	c := cache.NewMemoryCache(time.Hour, 0)
	t.Cleanup(func() { _ = c.Close() })
	rec := &sleepRecorder{}
	e := New(Config{
		Completer:  completer,
		Cache:      c,
		Validation: mode,
		Sleep:      rec.sleep,
	})
	return e, rec, c
}

func testInput() Input {
	return Input{
		Scenario:    "game-score",
		UserCode:    "if (score > MAX_SCORE) return false;",
		ModelID:     "claude-4-sonnet",
		Credential:  "sk-test",
		ContextSize: ContextPattern,
		Base:        baseArtifact(),
	}
}

func TestEnhance_Success(t *testing.T) {
	stub := &stubCompleter{results: []stubResult{{content: fenced(validProgram)}}}
	e, rec, c := newTestEnhancer(t, stub, ValidationOff)

	in := testInput()
	got, err := e.Enhance(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, validProgram, got.Program)
	assert.True(t, got.Enhanced)
	assert.Equal(t, "claude-4-sonnet", got.Model)
	require.NotNil(t, got.StructureValid)
	assert.True(t, *got.StructureValid)
	assert.Equal(t, "prove", got.ProveScript)
	assert.Equal(t, "instructions", got.Instructions)
	assert.Empty(t, rec.delays)

	require.Len(t, stub.requests, 1)
	req := stub.requests[0]
	assert.Equal(t, "anthropic", req.Provider)
	assert.Equal(t, "claude-4-sonnet-20250514", req.Model)
	assert.Equal(t, "sk-test", req.Credential)
	assert.InDelta(t, Temperature, req.Temperature, 1e-9)
	assert.Equal(t, MaxTokens, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.NotContains(t, req.Messages[0].Content, "sk-test")
	assert.NotContains(t, req.Messages[1].Content, "sk-test")

	cached, ok := c.Get(context.Background(), cache.Key(in.Scenario, in.ModelID, in.UserCode))
	require.True(t, ok)
	assert.Equal(t, validProgram, cached.Program)

	// the base artifact is not mutated
	assert.Equal(t, "base program", in.Base.Program)
	assert.False(t, in.Base.Enhanced)
}

func TestEnhance_CustomCacheKey(t *testing.T) {
	stub := &stubCompleter{results: []stubResult{{content: fenced(validProgram)}}}
	e, _, c := newTestEnhancer(t, stub, ValidationOff)

	in := testInput()
	in.CacheKey = "custom-key"
	_, err := e.Enhance(context.Background(), in)
	require.NoError(t, err)

	_, ok := c.Get(context.Background(), "custom-key")
	assert.True(t, ok)
}

func TestEnhance_RetriesOverloaded(t *testing.T) {
	overloaded := core.NewOverloadedError("anthropic", "Overloaded")
	stub := &stubCompleter{results: []stubResult{
		{err: overloaded},
		{err: overloaded},
		{content: fenced(validProgram)},
	}}
	e, rec, _ := newTestEnhancer(t, stub, ValidationOff)

	got, err := e.Enhance(context.Background(), testInput())
	require.NoError(t, err)
	assert.True(t, got.Enhanced)
	assert.Equal(t, 3, stub.calls())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.delays)
}

func TestEnhance_OverloadedExhaustsAttempts(t *testing.T) {
	stub := &stubCompleter{results: []stubResult{{err: core.NewOverloadedError("openai", "overloaded")}}}
	e, rec, c := newTestEnhancer(t, stub, ValidationOff)

	in := testInput()
	in.ModelID = "gpt-4o"
	_, err := e.Enhance(context.Background(), in)
	require.Error(t, err)
	assert.True(t, core.IsType(err, core.ErrorTypeOverloaded))
	assert.Equal(t, 3, stub.calls())
	assert.Len(t, rec.delays, 2)
	assert.Equal(t, 0, c.Size(context.Background()))
}

func TestEnhance_NoRetryOnOtherErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		errType core.ErrorType
	}{
		{"authentication", core.NewAuthenticationError("anthropic", "invalid x-api-key"), core.ErrorTypeAuthentication},
		{"rate limit", core.NewRateLimitError("anthropic", "slow down"), core.ErrorTypeRateLimit},
		{"provider", core.NewProviderError("anthropic", 502, "bad gateway", nil), core.ErrorTypeProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCompleter{results: []stubResult{{err: tt.err}}}
			e, rec, _ := newTestEnhancer(t, stub, ValidationOff)

			_, err := e.Enhance(context.Background(), testInput())
			require.Error(t, err)
			assert.True(t, core.IsType(err, tt.errType))
			assert.Equal(t, 1, stub.calls())
			assert.Empty(t, rec.delays)
		})
	}
}

func TestEnhance_ExtractionFailure(t *testing.T) {
	stub := &stubCompleter{results: []stubResult{{content: "I cannot help with that."}}}
	e, _, c := newTestEnhancer(t, stub, ValidationOff)

	_, err := e.Enhance(context.Background(), testInput())
	require.Error(t, err)
	assert.True(t, core.IsType(err, core.ErrorTypeExtraction))
	assert.Equal(t, 1, stub.calls())
	assert.Equal(t, 0, c.Size(context.Background()))
}

func TestEnhance_UnknownModel(t *testing.T) {
	stub := &stubCompleter{results: []stubResult{{content: fenced(validProgram)}}}
	e, _, _ := newTestEnhancer(t, stub, ValidationOff)

	in := testInput()
	in.ModelID = "gpt-9"
	_, err := e.Enhance(context.Background(), in)
	require.Error(t, err)
	assert.True(t, core.IsType(err, core.ErrorTypeUnknownModel))
	assert.Equal(t, 0, stub.calls())
}

func TestEnhance_ValidationModes(t *testing.T) {
	broken := "```rust\n#![no_main]\nsp1_zkvm::entrypoint!(main);\npub fn main() {\n    sp1_zkvm::io::write(&1u32);\n}\n```"

	t.Run("off ignores structure", func(t *testing.T) {
		stub := &stubCompleter{results: []stubResult{{content: broken}}}
		e, _, _ := newTestEnhancer(t, stub, ValidationOff)

		got, err := e.Enhance(context.Background(), testInput())
		require.NoError(t, err)
		require.NotNil(t, got.StructureValid)
		assert.True(t, *got.StructureValid)
	})

	t.Run("warn annotates", func(t *testing.T) {
		stub := &stubCompleter{results: []stubResult{{content: broken}}}
		e, _, _ := newTestEnhancer(t, stub, ValidationWarn)

		got, err := e.Enhance(context.Background(), testInput())
		require.NoError(t, err)
		assert.True(t, got.Enhanced)
		require.NotNil(t, got.StructureValid)
		assert.False(t, *got.StructureValid)
	})

	t.Run("warn passes valid program", func(t *testing.T) {
		stub := &stubCompleter{results: []stubResult{{content: fenced(validProgram)}}}
		e, _, _ := newTestEnhancer(t, stub, ValidationWarn)

		got, err := e.Enhance(context.Background(), testInput())
		require.NoError(t, err)
		require.NotNil(t, got.StructureValid)
		assert.True(t, *got.StructureValid)
	})

	t.Run("enforce rejects", func(t *testing.T) {
		stub := &stubCompleter{results: []stubResult{{content: broken}}}
		e, _, c := newTestEnhancer(t, stub, ValidationEnforce)

		_, err := e.Enhance(context.Background(), testInput())
		require.Error(t, err)
		assert.True(t, core.IsType(err, core.ErrorTypeExtraction))
		assert.Contains(t, err.Error(), "sp1_zkvm::io::write")
		assert.Equal(t, 0, c.Size(context.Background()))
	})
}

func TestEnhance_ConcurrentIdenticalRequestsShareOneCall(t *testing.T) {
	stub := &stubCompleter{
		results: []stubResult{{content: fenced(validProgram)}},
		block:   make(chan struct{}),
	}
	e, _, _ := newTestEnhancer(t, stub, ValidationOff)

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	results := make([]*core.Artifact, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.Enhance(context.Background(), testInput())
		}(i)
	}

	// let every caller join the in-flight run before releasing it
	time.Sleep(50 * time.Millisecond)
	close(stub.block)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, validProgram, results[i].Program)
	}
	assert.Equal(t, 1, stub.calls())

	// callers get independent copies
	results[0].Program = "changed"
	assert.Equal(t, validProgram, results[1].Program)
}

func TestEnhance_DifferentCredentialsDoNotShare(t *testing.T) {
	stub := &stubCompleter{results: []stubResult{{content: fenced(validProgram)}}}
	e, _, _ := newTestEnhancer(t, stub, ValidationOff)

	a := testInput()
	b := testInput()
	b.Credential = "sk-other"

	_, err := e.Enhance(context.Background(), a)
	require.NoError(t, err)
	_, err = e.Enhance(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, 2, stub.calls())
}

func TestEnhance_CallerCancellationDetachesRun(t *testing.T) {
	stub := &stubCompleter{
		results: []stubResult{{content: fenced(validProgram)}},
		block:   make(chan struct{}),
	}
	e, _, c := newTestEnhancer(t, stub, ValidationOff)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := e.Enhance(ctx, testInput())
		done <- err
	}()

	cancel()
	err := <-done
	assert.True(t, errors.Is(err, context.Canceled))

	// the upstream call still completes and populates the cache
	close(stub.block)
	in := testInput()
	require.Eventually(t, func() bool {
		_, ok := c.Get(context.Background(), cache.Key(in.Scenario, in.ModelID, in.UserCode))
		return ok
	}, time.Second, 10*time.Millisecond)
}

func TestEnhance_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	overloaded := core.NewOverloadedError("anthropic", "Overloaded")
	stub := &stubCompleter{results: []stubResult{{err: overloaded}, {content: fenced(validProgram)}}}
	rec := &sleepRecorder{}
	e := New(Config{Completer: stub, Metrics: metrics, Sleep: rec.sleep})

	_, err := e.Enhance(context.Background(), testInput())
	require.NoError(t, err)

	assert.Equal(t, 1, testutil.CollectAndCount(reg, "sp1assist_enhancement_retries_total"))
	assert.Equal(t, 2, testutil.CollectAndCount(reg, "sp1assist_enhancement_attempts_total"))
}

func TestEnhance_SleepErrorStopsRetries(t *testing.T) {
	stub := &stubCompleter{results: []stubResult{{err: core.NewOverloadedError("anthropic", "Overloaded")}}}
	e := New(Config{
		Completer: stub,
		Sleep:     func(context.Context, time.Duration) error { return context.DeadlineExceeded },
	})

	_, err := e.Enhance(context.Background(), testInput())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, stub.calls())
}
