package finder

import (
	"testing"

	"github.com/workprice/workprice/models"
	"github.com/workprice/workprice/pkg/pattern"
)

func TestMightContainPrice(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"symbol present", "Price is $10.00", true},
		{"iso code present", "about 20 USD shipped", true},
		{"lowercase code", "about 20 usd shipped", true},
		{"euro symbol", "nur 9,99 € heute", true},
		{"money shaped decimal", "only 19.99 each", true},
		{"grouped integer", "population fell below 1,234 last year", true},
		{"bare year", "Year 2024", false},
		{"phone number", "Call 555-1234", false},
		{"long digit run", "order 91234567890123 shipped", false},
		{"decimal inside long run", "id 1234567890.12", false},
		{"no digits", "completely free of charge", false},
		{"empty", "", false},
		{"plain word number", "chapter 12 of 30", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MightContainPrice(tt.text); got != tt.want {
				t.Errorf("MightContainPrice(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestFindPrices(t *testing.T) {
	cache := pattern.NewCache()
	config := models.CurrencyFormatConfig{
		Symbol:    "$",
		ISOCode:   "USD",
		Thousands: models.SeparatorCommas,
		Decimal:   models.SeparatorDots,
		Direction: models.DirectionForward,
	}

	result, err := FindPrices("$1,234.56", config, cache)
	if err != nil {
		t.Fatalf("FindPrices() error = %v", err)
	}

	if !result.HasPotentialPrice {
		t.Error("HasPotentialPrice = false for obvious price text")
	}
	if result.ThousandsToken != "," || result.DecimalToken != "." {
		t.Errorf("separator tokens = (%q, %q), want (\",\", \".\")",
			result.ThousandsToken, result.DecimalToken)
	}
	if got := result.Pattern.Regexp.FindString("$1,234.56"); got != "$1,234.56" {
		t.Errorf("pattern matched %q, want full %q", got, "$1,234.56")
	}

	// The pattern comes from the shared cache: a second call yields the
	// same compiled instance.
	again, err := FindPrices("no price here", config, cache)
	if err != nil {
		t.Fatalf("FindPrices() error = %v", err)
	}
	if again.HasPotentialPrice {
		t.Error("HasPotentialPrice = true for price-free text")
	}
	if again.Pattern != result.Pattern {
		t.Error("cache returned a different compiled pattern for equal config")
	}
}
