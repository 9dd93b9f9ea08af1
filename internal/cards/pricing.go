package cards

import (
	"encoding/json"
	"math"

	"github.com/jpdavalos423/pokecollect/internal/provider"
)

// pricingShape tags which of the two known provider pricing formats a card
// payload carries. The shape is resolved once here, at the adapter boundary.
type pricingShape int

const (
	pricingUnknown pricingShape = iota
	pricingLegacy
	pricingNested
)

func resolvePricingShape(card provider.Card) pricingShape {
	if card.TCGPlayer != nil && len(card.TCGPlayer.Prices) > 0 {
		return pricingLegacy
	}
	if len(card.Pricing) > 0 {
		return pricingNested
	}
	return pricingUnknown
}

// DeriveMarketPrice computes the stored market price for a provider card.
// Legacy pricing-by-channel payloads yield the maximum of the per-channel
// market values. Nested payloads yield the maximum strictly-positive finite
// number found at any depth. When neither produces a value the price is nil,
// explicitly absent rather than zero.
func DeriveMarketPrice(card provider.Card) *float64 {
	switch resolvePricingShape(card) {
	case pricingLegacy:
		if price, ok := legacyMarketPrice(card.TCGPlayer); ok {
			return &price
		}
		// Legacy shape with no market values falls through to nested data.
		if price, ok := nestedMarketPrice(card.Pricing); ok {
			return &price
		}
	case pricingNested:
		if price, ok := nestedMarketPrice(card.Pricing); ok {
			return &price
		}
	}
	return nil
}

func legacyMarketPrice(pricing *provider.LegacyPricing) (float64, bool) {
	best := math.Inf(-1)
	found := false
	for _, entry := range pricing.Prices {
		if entry.Market == nil || !isFinite(*entry.Market) {
			continue
		}
		found = true
		if *entry.Market > best {
			best = *entry.Market
		}
	}
	return best, found
}

func nestedMarketPrice(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return 0, false
	}

	values := collectNumericValues(decoded, nil)
	best := math.Inf(-1)
	found := false
	for _, value := range values {
		if !isFinite(value) || value <= 0 {
			continue
		}
		found = true
		if value > best {
			best = value
		}
	}
	return best, found
}

// collectNumericValues walks arbitrarily nested objects and arrays, gathering
// every number encountered.
func collectNumericValues(value any, output []float64) []float64 {
	switch typed := value.(type) {
	case float64:
		output = append(output, typed)
	case []any:
		for _, item := range typed {
			output = collectNumericValues(item, output)
		}
	case map[string]any:
		for _, item := range typed {
			output = collectNumericValues(item, output)
		}
	}
	return output
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
