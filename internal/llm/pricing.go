package llm

import (
	"sort"

	"github.com/knowgraph/knowgraph/internal/store"
)

// ModelCost is USD per million tokens.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost returns the USD cost of one request.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*c.InputPerMTok/1_000_000 +
		float64(outputTokens)*c.OutputPerMTok/1_000_000
}

// LookupCost returns the pricing for a model ID, or nil if unknown.
func LookupCost(modelID string) *ModelCost {
	if c, ok := modelCosts[modelID]; ok {
		return &c
	}
	return nil
}

// modelCosts covers the models the short names resolve to, plus the
// dated IDs the APIs echo back.
var modelCosts = map[string]ModelCost{
	"claude-haiku-4-5":           {1, 5},
	"claude-haiku-4-5-20251001":  {1, 5},
	"claude-sonnet-4-5":          {3, 15},
	"claude-sonnet-4-5-20250929": {3, 15},

	"gpt-4o":                 {2.5, 10},
	"gpt-4o-mini":            {0.15, 0.6},
	"gpt-4o-mini-2024-07-18": {0.15, 0.6},

	"gemini-2.0-flash": {0.1, 0.4},
	"gemini-2.5-flash": {0.3, 2.5},
	"gemini-2.5-pro":   {1.25, 10},

	"google/gemini-2.0-flash-001": {0.1, 0.4},
}

// UsageLine aggregates recorded requests for one provider/model pair.
type UsageLine struct {
	Provider     string
	Model        string
	Requests     int
	Failures     int
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Priced       bool
}

// SummarizeUsage groups LLM request events by provider and model, pricing
// those with a known model. Lines are sorted by request count.
func SummarizeUsage(events []store.LLMRequestEvent) []UsageLine {
	type key struct{ provider, model string }
	byKey := make(map[key]*UsageLine)
	for _, e := range events {
		k := key{e.Provider, e.Model}
		line, ok := byKey[k]
		if !ok {
			line = &UsageLine{Provider: e.Provider, Model: e.Model}
			byKey[k] = line
		}
		line.Requests++
		if !e.Success {
			line.Failures++
		}
		line.InputTokens += e.InputTokens
		line.OutputTokens += e.OutputTokens
	}

	out := make([]UsageLine, 0, len(byKey))
	for _, line := range byKey {
		if c := LookupCost(line.Model); c != nil {
			line.CostUSD = c.Cost(line.InputTokens, line.OutputTokens)
			line.Priced = true
		}
		out = append(out, *line)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Requests != out[j].Requests {
			return out[i].Requests > out[j].Requests
		}
		return out[i].Provider+out[i].Model < out[j].Provider+out[j].Model
	})
	return out
}
