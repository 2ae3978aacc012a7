// Package usage estimates token usage and cost for enhancement requests.
package usage

import (
	"fmt"

	"sp1assist/internal/core"
	"sp1assist/internal/providers"
)

// Prompt token budget of each documentation tier.
var contextTokens = map[string]int{
	"minimal": 2000,
	"pattern": 8000,
	"full":    14000,
}

// CompletionTokens is the expected size of a generated program.
const CompletionTokens = 2000

// CostEstimate is the priced token estimate for one request.
type CostEstimate struct {
	Model            string            `json:"model"`
	PromptTokens     int               `json:"promptTokens"`
	CompletionTokens int               `json:"completionTokens"`
	EstimatedCost    string            `json:"estimatedCost"`
	Pricing          providers.Pricing `json:"pricing"`
}

// PromptTokens estimates the prompt size: the tier budget plus one token per
// four characters of user code. Unknown tiers count as pattern.
func PromptTokens(contextSize, code string) int {
	budget, ok := contextTokens[contextSize]
	if !ok {
		budget = contextTokens["pattern"]
	}
	return budget + (len(code)+3)/4
}

// Cost prices prompt and completion tokens at per-1K rates.
func Cost(promptTokens, completionTokens int, p providers.Pricing) float64 {
	return float64(promptTokens)/1000*p.Input + float64(completionTokens)/1000*p.Output
}

// EstimateUpstream prices a token count for a raw upstream model name.
func EstimateUpstream(model string, promptTokens, completionTokens int) (*CostEstimate, error) {
	if promptTokens < 0 || completionTokens < 0 {
		return nil, core.NewValidationError("token counts must not be negative")
	}
	pricing, ok := providers.LookupUpstreamPricing(model)
	if !ok {
		return nil, core.NewValidationError("Unknown model")
	}
	return &CostEstimate{
		Model:            model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		EstimatedCost:    formatCost(Cost(promptTokens, completionTokens, pricing)),
		Pricing:          pricing,
	}, nil
}

// EstimateRequest prices a generation request for a logical model id. The
// direct model costs nothing.
func EstimateRequest(modelID, contextSize, code string) (*CostEstimate, error) {
	if modelID == providers.DirectModel || modelID == "" {
		return &CostEstimate{Model: providers.DirectModel, EstimatedCost: formatCost(0)}, nil
	}
	model, ok := providers.LookupModel(modelID)
	if !ok {
		return nil, core.NewUnknownModelError(modelID)
	}
	return EstimateUpstream(model.Model, PromptTokens(contextSize, code), CompletionTokens)
}

func formatCost(c float64) string {
	return fmt.Sprintf("%.4f", c)
}
