package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sp1assist/internal/core"
)

func ptr[T any](v T) *T { return &v }

func TestFlattenPrompt(t *testing.T) {
	tests := []struct {
		name     string
		messages []core.Message
		want     string
	}{
		{
			name: "system and user",
			messages: []core.Message{
				{Role: core.RoleSystem, Content: "You are an SP1 expert."},
				{Role: core.RoleUser, Content: "Enhance this program."},
			},
			want: "You are an SP1 expert.\n\nEnhance this program.",
		},
		{
			name:     "user only",
			messages: []core.Message{{Role: core.RoleUser, Content: "hello"}},
			want:     "hello",
		},
		{
			name: "last message wins",
			messages: []core.Message{
				{Role: core.RoleSystem, Content: "sys"},
				{Role: core.RoleUser, Content: "first"},
				{Role: core.RoleAssistant, Content: "reply"},
				{Role: core.RoleUser, Content: "second"},
			},
			want: "sys\n\nsecond",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, flattenPrompt(&core.ChatRequest{Messages: tt.messages}))
		})
	}
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, estimateTokens(0))
	assert.Equal(t, 1, estimateTokens(1))
	assert.Equal(t, 1, estimateTokens(4))
	assert.Equal(t, 2, estimateTokens(5))
}

func TestChatCompletion(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "#![no_main]\nsp1_zkvm::entrypoint!(main);"}]},
				"finishReason": "STOP"
			}]
		}`))
	}))
	defer server.Close()

	p := New("gemini-key", server.URL, server.Client())
	resp, err := p.ChatCompletion(context.Background(), &core.ChatRequest{
		Model: "gemini-2.5-flash",
		Messages: []core.Message{
			{Role: core.RoleSystem, Content: "system"},
			{Role: core.RoleUser, Content: "user"},
		},
		Temperature: ptr(0.1),
		MaxTokens:   ptr(4096),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(gotPath, "/models/gemini-2.5-flash:generateContent"), gotPath)
	assert.Equal(t, "gemini-key", gotKey)
	assert.NotContains(t, string(mustJSON(t, gotBody)), "gemini-key", "credential must not be in the prompt")

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "#![no_main]\nsp1_zkvm::entrypoint!(main);", resp.Content())
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
	assert.Equal(t, estimateTokens(len("system\n\nuser")), resp.Usage.PromptTokens)
	assert.Equal(t, resp.Usage.TotalTokens, estimateTokens(len("system\n\nuser")+len(resp.Content())))
}

func TestChatCompletion_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType core.ErrorType
	}{
		{"invalid key", http.StatusUnauthorized, `{"error":{"code":401,"message":"API key not valid","status":"UNAUTHENTICATED"}}`, core.ErrorTypeAuthentication},
		{"quota", http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`, core.ErrorTypeRateLimit},
		{"overloaded", http.StatusServiceUnavailable, `{"error":{"code":503,"message":"The model is overloaded.","status":"UNAVAILABLE"}}`, core.ErrorTypeOverloaded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := New("key", server.URL, server.Client())
			_, err := p.ChatCompletion(context.Background(), &core.ChatRequest{
				Model:    "gemini-2.5-pro",
				Messages: []core.Message{{Role: core.RoleUser, Content: "hi"}},
			})
			require.Error(t, err)
			assert.True(t, core.IsType(err, tt.wantType), "got %v", err)
		})
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
