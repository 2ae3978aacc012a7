// Package google provides the Gemini provider through the genai SDK.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"sp1assist/internal/core"
	"sp1assist/internal/httpclient"
	"sp1assist/internal/providers"
)

// charsPerToken is the estimation ratio used because the single-prompt call
// does not report exact usage in the normalized shape.
const charsPerToken = 4

func init() {
	providers.Register("google", func(opts providers.Options) (core.Provider, error) {
		return New(opts.APIKey, opts.BaseURL, nil), nil
	})
}

// Provider implements core.Provider for Gemini. The conversation is flattened
// into a single prompt: the system prompt, a blank line, then the last message.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates a Gemini provider. An empty baseURL keeps the SDK default and a
// nil httpClient uses the shared client.
func New(apiKey, baseURL string, httpClient *http.Client) *Provider {
	if httpClient == nil {
		httpClient = httpclient.Shared()
	}
	return &Provider{apiKey: apiKey, baseURL: baseURL, httpClient: httpClient}
}

func (p *Provider) newClient(ctx context.Context) (*genai.Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:     p.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.httpClient,
	}
	if p.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, core.NewProviderError("google", http.StatusBadGateway, "failed to create Gemini client: "+err.Error(), err)
	}
	return client, nil
}

// flattenPrompt joins the system prompt and the last non-system message.
func flattenPrompt(req *core.ChatRequest) string {
	system := req.SystemPrompt()

	last := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role != core.RoleSystem {
			last = req.Messages[i].Content
			break
		}
	}

	if system == "" {
		return last
	}
	return system + "\n\n" + last
}

func estimateTokens(chars int) int {
	return (chars + charsPerToken - 1) / charsPerToken
}

// ChatCompletion sends the flattened prompt to Gemini
func (p *Provider) ChatCompletion(ctx context.Context, req *core.ChatRequest) (*core.ChatResponse, error) {
	client, err := p.newClient(ctx)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{}
	if req.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	if req.MaxTokens != nil {
		config.MaxOutputTokens = int32(*req.MaxTokens)
	}

	prompt := flattenPrompt(req)
	resp, err := client.Models.GenerateContent(ctx, req.Model, genai.Text(prompt), config)
	if err != nil {
		return nil, classifyError(err)
	}

	text := resp.Text()
	finishReason := "stop"
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		finishReason = "length"
	}

	promptTokens := estimateTokens(len(prompt))
	completionTokens := estimateTokens(len(text))
	return &core.ChatResponse{
		ID:      uuid.NewString(),
		Object:  "chat.completion",
		Model:   req.Model,
		Created: time.Now().Unix(),
		Choices: []core.Choice{
			{
				Index:        0,
				Message:      core.Message{Role: core.RoleAssistant, Content: text},
				FinishReason: finishReason,
			},
		},
		Usage: core.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      estimateTokens(len(prompt) + len(text)),
		},
	}, nil
}

// classifyError maps SDK errors onto the shared taxonomy.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return core.ClassifyStatus("google", apiErr.Code, apiErr.Message, apiErr.Status, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return core.ClassifyStatus("google", apiErrPtr.Code, apiErrPtr.Message, apiErrPtr.Status, err)
	}
	return core.NewProviderError("google", http.StatusBadGateway, fmt.Sprintf("generate content failed: %v", err), err)
}
