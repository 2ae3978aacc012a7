package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sp1assist/internal/core"
)

func TestConvertToAnthropicRequest(t *testing.T) {
	temp := 0.1
	maxTokens := 1024

	tests := []struct {
		name    string
		input   *core.ChatRequest
		checkFn func(*testing.T, *anthropicRequest)
	}{
		{
			name: "default max tokens",
			input: &core.ChatRequest{
				Model:    "claude-4-sonnet-20250514",
				Messages: []core.Message{{Role: core.RoleUser, Content: "Hello"}},
			},
			checkFn: func(t *testing.T, req *anthropicRequest) {
				assert.Equal(t, 4096, req.MaxTokens)
				assert.Empty(t, req.System)
				assert.Nil(t, req.Temperature)
			},
		},
		{
			name: "system separated",
			input: &core.ChatRequest{
				Model: "claude-4-opus-20250514",
				Messages: []core.Message{
					{Role: core.RoleSystem, Content: "You are an SP1 expert"},
					{Role: core.RoleUser, Content: "Hello"},
				},
				Temperature: &temp,
				MaxTokens:   &maxTokens,
			},
			checkFn: func(t *testing.T, req *anthropicRequest) {
				assert.Equal(t, "You are an SP1 expert", req.System)
				require.Len(t, req.Messages, 1)
				assert.Equal(t, core.RoleUser, req.Messages[0].Role)
				assert.Equal(t, 1024, req.MaxTokens)
				require.NotNil(t, req.Temperature)
				assert.InDelta(t, 0.1, *req.Temperature, 1e-9)
			},
		},
		{
			name: "multiple system messages joined",
			input: &core.ChatRequest{
				Messages: []core.Message{
					{Role: core.RoleSystem, Content: "one"},
					{Role: core.RoleSystem, Content: "two"},
					{Role: core.RoleUser, Content: "Hello"},
				},
			},
			checkFn: func(t *testing.T, req *anthropicRequest) {
				assert.Equal(t, "one\n\ntwo", req.System)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.checkFn(t, convertToAnthropicRequest(tt.input))
		})
	}
}

func TestConvertFromAnthropicResponse(t *testing.T) {
	resp := convertFromAnthropicResponse(&anthropicResponse{
		ID:    "msg_1",
		Model: "claude-4-sonnet-20250514",
		Content: []anthropicContent{
			{Type: "text", Text: "part one "},
			{Type: "tool_use"},
			{Type: "text", Text: "part two"},
		},
		Usage: anthropicUsage{InputTokens: 100, OutputTokens: 50},
	})

	assert.Equal(t, "msg_1", resp.ID)
	assert.Equal(t, "part one part two", resp.Content())
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
	assert.Equal(t, 150, resp.Usage.TotalTokens)
}

func TestChatCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "system", req.System)

		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"model": "claude-4-sonnet-20250514",
			"content": [{"type": "text", "text": "enhanced"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 3}
		}`))
	}))
	defer server.Close()

	p := NewWithHTTPClient("sk-ant", server.Client())
	p.SetBaseURL(server.URL)

	resp, err := p.ChatCompletion(context.Background(), &core.ChatRequest{
		Model: "claude-4-sonnet-20250514",
		Messages: []core.Message{
			{Role: core.RoleSystem, Content: "system"},
			{Role: core.RoleUser, Content: "user"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "enhanced", resp.Content())
	assert.Equal(t, "end_turn", resp.Choices[0].FinishReason)
}

func TestChatCompletion_Overloaded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(529)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
	}))
	defer server.Close()

	p := NewWithHTTPClient("sk-ant", server.Client())
	p.SetBaseURL(server.URL)

	_, err := p.ChatCompletion(context.Background(), &core.ChatRequest{Model: "claude-4-opus-20250514"})
	require.Error(t, err)
	assert.True(t, core.IsType(err, core.ErrorTypeOverloaded))
}
