// Package pattern builds and caches compiled price matchers for
// currency-format configurations.
package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/workprice/workprice/models"
)

// Compiled is a matcher derived from one CurrencyFormatConfig. Instances are
// cached by serialized config and never mutated after construction.
type Compiled struct {
	Regexp    *regexp.Regexp
	Thousands string // literal grouping separator, "" when none
	Decimal   string // literal decimal separator
	Key       string
}

// Build compiles the price pattern for a config. The pattern matches both
// amount-before-unit and unit-before-amount forms. In reverse mode it
// additionally requires a trailing parenthesized time annotation, so prices
// that were already annotated are the only ones matched.
func Build(config models.CurrencyFormatConfig) (*Compiled, error) {
	unit := unitAlternation(config)
	if unit == "" {
		return nil, fmt.Errorf("currency format has neither symbol nor ISO code")
	}

	amount := amountExpr(config)
	expr := fmt.Sprintf(`(?i)(?:%s[ \x{00A0}]{0,3}%s|%s[ \x{00A0}]{0,3}%s)`, unit, amount, amount, unit)
	if config.Direction == models.DirectionReverse {
		expr += `[ \x{00A0}]?\(\d+h \d{1,2}m\)`
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to compile price pattern: %w", err)
	}

	return &Compiled{
		Regexp:    re,
		Thousands: config.ThousandsLiteral(),
		Decimal:   config.DecimalLiteral(),
		Key:       config.CacheKey(),
	}, nil
}

// unitAlternation escapes the symbol and ISO code into one safe alternation.
func unitAlternation(config models.CurrencyFormatConfig) string {
	var parts []string
	if config.Symbol != "" {
		parts = append(parts, regexp.QuoteMeta(config.Symbol))
	}
	if config.ISOCode != "" {
		parts = append(parts, regexp.QuoteMeta(config.ISOCode))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(?:" + strings.Join(parts, "|") + ")"
}

// amountExpr interpolates the thousands and decimal tokens into the numeric
// part of the pattern.
func amountExpr(config models.CurrencyFormatConfig) string {
	integer := `\d+`
	if sep := separatorExpr(config.Thousands); sep != "" {
		integer = fmt.Sprintf(`(?:\d{1,3}(?:%s\d{3})+|\d+)`, sep)
	}

	decimal := `\.`
	if config.DecimalLiteral() == "," {
		decimal = `,`
	}

	return fmt.Sprintf(`%s(?:%s\d{1,2})?`, integer, decimal)
}

func separatorExpr(token models.SeparatorToken) string {
	switch token {
	case models.SeparatorDots:
		return `\.`
	case models.SeparatorSpaces:
		return `[ \x{00A0}]`
	case models.SeparatorApostrophes:
		return `'`
	case models.SeparatorNone:
		return ""
	default:
		return `,`
	}
}
