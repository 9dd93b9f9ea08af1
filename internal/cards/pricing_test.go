package cards

import (
	"encoding/json"
	"testing"

	"github.com/jpdavalos423/pokecollect/internal/provider"
)

func floatPtr(value float64) *float64 {
	return &value
}

func TestDeriveMarketPriceLegacyShape(t *testing.T) {
	card := provider.Card{
		ID: "base1-17",
		TCGPlayer: &provider.LegacyPricing{
			Prices: map[string]provider.LegacyPriceEntry{
				"normal":     {Market: floatPtr(1.25)},
				"holofoil":   {Market: floatPtr(2.50)},
				"1stEdition": {Market: nil},
			},
		},
	}

	price := DeriveMarketPrice(card)
	if price == nil || *price != 2.50 {
		t.Fatalf("expected legacy maximum 2.50, got %v", price)
	}
}

func TestDeriveMarketPriceLegacyWithoutMarketFallsToNested(t *testing.T) {
	card := provider.Card{
		ID: "base1-17",
		TCGPlayer: &provider.LegacyPricing{
			Prices: map[string]provider.LegacyPriceEntry{
				"normal": {Market: nil},
			},
		},
		Pricing: json.RawMessage(`{"cardmarket":{"trend":3.4}}`),
	}

	price := DeriveMarketPrice(card)
	if price == nil || *price != 3.4 {
		t.Fatalf("expected nested fallback 3.4, got %v", price)
	}
}

func TestDeriveMarketPriceNestedShape(t *testing.T) {
	cases := []struct {
		name    string
		pricing string
		want    *float64
	}{
		{
			name:    "flat object",
			pricing: `{"cardmarket":{"low":1.1,"trend":3.4}}`,
			want:    floatPtr(3.4),
		},
		{
			name:    "zero excluded",
			pricing: `{"cardmarket":{"low":0}}`,
			want:    nil,
		},
		{
			name:    "negative excluded",
			pricing: `{"cardmarket":{"low":-2.5,"avg":1.5}}`,
			want:    floatPtr(1.5),
		},
		{
			name:    "deep nesting",
			pricing: `{"a":[{"b":[0.5,{"c":7.25}]},2]}`,
			want:    floatPtr(7.25),
		},
		{
			name:    "strings ignored",
			pricing: `{"updated":"2024-01-01","usd":{"market":4.2}}`,
			want:    floatPtr(4.2),
		},
		{
			name:    "empty object",
			pricing: `{}`,
			want:    nil,
		},
		{
			name:    "malformed payload",
			pricing: `{"broken"`,
			want:    nil,
		},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			card := provider.Card{ID: "swsh3-136", Pricing: json.RawMessage(testCase.pricing)}
			got := DeriveMarketPrice(card)
			if testCase.want == nil {
				if got != nil {
					t.Fatalf("expected nil price, got %v", *got)
				}
				return
			}
			if got == nil || *got != *testCase.want {
				t.Fatalf("expected %v, got %v", *testCase.want, got)
			}
		})
	}
}

func TestDeriveMarketPriceNoPricingData(t *testing.T) {
	if price := DeriveMarketPrice(provider.Card{ID: "base1-1"}); price != nil {
		t.Fatalf("expected nil price for missing pricing, got %v", *price)
	}
}
