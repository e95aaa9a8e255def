package domain

import "strings"

// DefaultPricingModel is used when a model is unknown to the pricing table.
const DefaultPricingModel = "claude-sonnet-4-5"

// ModelPricing represents pricing per million tokens for a model.
type ModelPricing struct {
	ID               string
	InputPerMillion  float64
	OutputPerMillion float64
}

func (p ModelPricing) CalculateCost(input, output int64) float64 {
	return (float64(input)*p.InputPerMillion + float64(output)*p.OutputPerMillion) / 1_000_000
}

// PricingTable maps model ids to their pricing.
type PricingTable map[string]ModelPricing

// DefaultPricingTable returns a fresh copy of the built-in pricing catalog.
func DefaultPricingTable() PricingTable {
	table := PricingTable{}
	for _, p := range []ModelPricing{
		// Claude 4.x
		{ID: "claude-opus-4-5", InputPerMillion: 5.00, OutputPerMillion: 25.00},
		{ID: "claude-sonnet-4-5", InputPerMillion: 3.00, OutputPerMillion: 15.00},
		{ID: "claude-haiku-4-5", InputPerMillion: 1.00, OutputPerMillion: 5.00},
		{ID: "claude-opus-4-1", InputPerMillion: 15.00, OutputPerMillion: 75.00},
		{ID: "claude-sonnet-4", InputPerMillion: 3.00, OutputPerMillion: 15.00},
		{ID: "claude-opus-4", InputPerMillion: 15.00, OutputPerMillion: 75.00},
		// Claude 3.x
		{ID: "claude-3-5-sonnet-20241022", InputPerMillion: 3.00, OutputPerMillion: 15.00},
		{ID: "claude-3-5-sonnet-20240620", InputPerMillion: 3.00, OutputPerMillion: 15.00},
		{ID: "claude-3-5-haiku", InputPerMillion: 0.80, OutputPerMillion: 4.00},
		{ID: "claude-3-opus-20240229", InputPerMillion: 15.00, OutputPerMillion: 75.00},
		{ID: "claude-3-sonnet-20240229", InputPerMillion: 3.00, OutputPerMillion: 15.00},
		{ID: "claude-3-haiku-20240307", InputPerMillion: 0.25, OutputPerMillion: 1.25},
		// OpenAI
		{ID: "gpt-4-turbo", InputPerMillion: 10.00, OutputPerMillion: 30.00},
		{ID: "gpt-4", InputPerMillion: 30.00, OutputPerMillion: 60.00},
		{ID: "gpt-4o", InputPerMillion: 2.50, OutputPerMillion: 10.00},
		{ID: "gpt-4o-mini", InputPerMillion: 0.15, OutputPerMillion: 0.60},
		{ID: "gpt-3.5-turbo", InputPerMillion: 0.50, OutputPerMillion: 1.50},
	} {
		table[p.ID] = p
	}
	return table
}

// Lookup finds pricing for a model: exact match first, then the longest
// table key the model id starts with (e.g. "claude-opus-4-20250514" -> "claude-opus-4").
func (t PricingTable) Lookup(model string) (ModelPricing, bool) {
	if model == "" {
		return ModelPricing{}, false
	}
	if pricing, ok := t[model]; ok {
		return pricing, true
	}

	var best ModelPricing
	found := false
	for key, pricing := range t {
		if !strings.HasPrefix(model, key) {
			continue
		}
		if !found || len(key) > len(best.ID) || (len(key) == len(best.ID) && key < best.ID) {
			best = pricing
			best.ID = key
			found = true
		}
	}
	return best, found
}
