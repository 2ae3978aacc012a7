package providers

import "sort"

// DirectModel selects the deterministic template with no enhancement.
const DirectModel = "direct"

// Pricing is the price in USD per 1K tokens.
type Pricing struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
}

// ModelConfig maps a logical model id to its upstream provider and model.
type ModelConfig struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Provider      string  `json:"provider"`
	Model         string  `json:"model"`
	ContextWindow int     `json:"contextWindow"`
	Pricing       Pricing `json:"pricing"`
	Description   string  `json:"description"`
	Recommended   bool    `json:"recommended"`
}

// models is read-only after package init.
var models = map[string]ModelConfig{
	"claude-4-opus": {
		ID: "claude-4-opus", Name: "Claude 4 Opus", Provider: "anthropic", Model: "claude-4-opus-20250514",
		ContextWindow: 200_000, Pricing: Pricing{Input: 0.015, Output: 0.075},
		Description: "Most capable model, best for complex code", Recommended: true,
	},
	"claude-4-sonnet": {
		ID: "claude-4-sonnet", Name: "Claude 4 Sonnet", Provider: "anthropic", Model: "claude-4-sonnet-20250514",
		ContextWindow: 200_000, Pricing: Pricing{Input: 0.003, Output: 0.015},
		Description: "Balanced performance and cost", Recommended: true,
	},
	"claude-3.7-sonnet": {
		ID: "claude-3.7-sonnet", Name: "Claude 3.7 Sonnet", Provider: "anthropic", Model: "claude-3-7-sonnet-20250219",
		ContextWindow: 200_000, Pricing: Pricing{Input: 0.003, Output: 0.015},
		Description: "Extended thinking capabilities",
	},
	"gpt-4.1": {
		ID: "gpt-4.1", Name: "GPT-4.1 Turbo", Provider: "openai", Model: "gpt-4-turbo-preview",
		ContextWindow: 128_000, Pricing: Pricing{Input: 0.01, Output: 0.03},
		Description: "Latest GPT-4 with improved reasoning", Recommended: true,
	},
	"gpt-4-turbo": {
		ID: "gpt-4-turbo", Name: "GPT-4 Turbo", Provider: "openai", Model: "gpt-4-turbo-preview",
		ContextWindow: 128_000, Pricing: Pricing{Input: 0.01, Output: 0.03},
		Description: "Fast and capable",
	},
	"gpt-4o": {
		ID: "gpt-4o", Name: "GPT-4o", Provider: "openai", Model: "gpt-4o",
		ContextWindow: 128_000, Pricing: Pricing{Input: 0.0025, Output: 0.01},
		Description: "Multimodal GPT-4",
	},
	"gemini-2.5-pro": {
		ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Provider: "google", Model: "gemini-2.5-pro",
		ContextWindow: 1_000_000, Pricing: Pricing{Input: 0.00125, Output: 0.01},
		Description: "Best value, huge context window", Recommended: true,
	},
	"gemini-2.5-flash": {
		ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Provider: "google", Model: "gemini-2.5-flash",
		ContextWindow: 1_000_000, Pricing: Pricing{Input: 0.00015, Output: 0.0006},
		Description: "Fast and affordable",
	},
}

// upstreamPricing prices raw upstream model names for the passthrough
// estimate endpoint.
var upstreamPricing = map[string]Pricing{
	"claude-4-opus-20250514":     {Input: 0.015, Output: 0.075},
	"claude-4-sonnet-20250514":   {Input: 0.003, Output: 0.015},
	"claude-3-7-sonnet-20250219": {Input: 0.003, Output: 0.015},
	"gpt-4-turbo-preview":        {Input: 0.01, Output: 0.03},
	"gpt-4o":                     {Input: 0.0025, Output: 0.01},
	"gpt-4o-mini":                {Input: 0.00015, Output: 0.0006},
	"gemini-2.5-pro":             {Input: 0.00125, Output: 0.01},
	"gemini-2.5-flash":           {Input: 0.00015, Output: 0.0006},
}

// LookupModel returns the configuration for a logical model id.
func LookupModel(id string) (ModelConfig, bool) {
	m, ok := models[id]
	return m, ok
}

// LookupUpstreamPricing returns the price for an upstream model name.
func LookupUpstreamPricing(model string) (Pricing, bool) {
	p, ok := upstreamPricing[model]
	return p, ok
}

// Models returns all model configurations grouped by provider, then id.
func Models() []ModelConfig {
	out := make([]ModelConfig, 0, len(models))
	for _, m := range models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].ID < out[j].ID
	})
	return out
}
