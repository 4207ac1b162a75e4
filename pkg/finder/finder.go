// Package finder provides the cheap text pre-filter and pattern retrieval
// used before any per-node extraction work. Most text on a page contains no
// price, so MightContainPrice exists to keep that common case fast.
package finder

import (
	"regexp"
	"strings"

	"github.com/workprice/workprice/models"
	"github.com/workprice/workprice/pkg/pattern"
)

// currencyTokens are the symbols and ISO codes whose mere presence qualifies
// text for pattern work. Best-effort by design; the configured format decides
// what actually matches.
var currencyTokens = []string{
	"$", "€", "£", "¥", "₹", "₩", "₽", "¢", "₫", "₪", "₱",
	"USD", "EUR", "GBP", "JPY", "CAD", "AUD", "CHF", "CNY", "INR", "KRW",
	"SEK", "NOK", "DKK", "PLN", "BRL", "MXN", "RUB",
}

// moneyShapeRe matches digit shapes that look like amounts rather than
// arbitrary numbers: grouped integers ("1,234" / "1.234" / "12 500") or a
// short decimal fraction ("19.99" / "19,99").
var moneyShapeRe = regexp.MustCompile(
	`\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d{1,3}(?:\.\d{3})+(?:,\d{1,2})?|\d{1,3}(?: \d{3})+|\d+[.,]\d{1,2}`,
)

// digitRunRe finds maximal digit runs for the false-positive checks.
var digitRunRe = regexp.MustCompile(`\d+`)

// MightContainPrice reports whether text is worth running a compiled pattern
// over. True when a currency token is present, or when a money-shaped number
// appears that is not an obvious false positive (bare 4-digit years,
// phone-style digit groups, 10+-digit runs).
func MightContainPrice(text string) bool {
	if text == "" {
		return false
	}
	upper := strings.ToUpper(text)
	for _, token := range currencyTokens {
		if strings.Contains(upper, token) {
			return true
		}
	}

	if !strings.ContainsAny(text, "0123456789") {
		return false
	}

	for _, loc := range moneyShapeRe.FindAllStringIndex(text, -1) {
		if plausibleAmount(text, loc[0], loc[1]) {
			return true
		}
	}
	return false
}

// plausibleAmount rejects money-shaped matches embedded in longer digit runs
// (IDs, serial numbers) so a shape like "12,345" inside "912,3456789" does
// not qualify.
func plausibleAmount(text string, start, end int) bool {
	if start > 0 && isDigit(text[start-1]) {
		return false
	}
	if end < len(text) && isDigit(text[end]) {
		return false
	}
	// A surrounding digit run of 10+ characters is never an amount.
	for _, run := range digitRunRe.FindAllStringIndex(text, -1) {
		if run[0] >= start && run[0] < end && run[1]-run[0] >= 10 {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Result is the outcome of FindPrices. The finder does not enumerate matches
// itself; callers apply Pattern to the text they care about.
type Result struct {
	HasPotentialPrice bool
	Pattern           *pattern.Compiled
	ThousandsToken    string
	DecimalToken      string
}

// FindPrices retrieves the compiled pattern for the config via the cache and
// mirrors MightContainPrice for the given text.
func FindPrices(text string, config models.CurrencyFormatConfig, cache *pattern.Cache) (Result, error) {
	compiled, err := cache.Get(config)
	if err != nil {
		return Result{}, err
	}
	return Result{
		HasPotentialPrice: MightContainPrice(text),
		Pattern:           compiled,
		ThousandsToken:    compiled.Thousands,
		DecimalToken:      compiled.Decimal,
	}, nil
}
