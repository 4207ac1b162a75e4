// Package models defines data structures shared by the pattern, finder,
// extraction and scanner packages.
package models

import "strings"

// SeparatorToken names a digit-grouping or decimal separator convention.
type SeparatorToken string

const (
	SeparatorCommas      SeparatorToken = "commas"
	SeparatorDots        SeparatorToken = "dots"
	SeparatorSpaces      SeparatorToken = "spaces"
	SeparatorApostrophes SeparatorToken = "apostrophes"
	SeparatorNone        SeparatorToken = "none"
)

// Direction selects which way a compiled pattern matches.
type Direction string

const (
	// DirectionForward matches plain prices that have not been annotated yet.
	DirectionForward Direction = "forward"
	// DirectionReverse matches only prices that already carry a trailing
	// parenthesized time annotation, so they are never re-matched as fresh.
	DirectionReverse Direction = "reverse"
)

// CurrencyFormatConfig describes how prices are written for one currency and
// locale. It is immutable and doubles as the pattern-cache key.
type CurrencyFormatConfig struct {
	Symbol    string         `yaml:"symbol"`
	ISOCode   string         `yaml:"code"`
	Thousands SeparatorToken `yaml:"thousands"`
	Decimal   SeparatorToken `yaml:"decimal"`
	Direction Direction      `yaml:"-"`
}

// CacheKey serializes the config into the pattern-cache key.
func (c CurrencyFormatConfig) CacheKey() string {
	return strings.Join([]string{
		c.Symbol,
		c.ISOCode,
		string(c.Thousands),
		string(c.Decimal),
		string(c.Direction),
	}, "|")
}

// ThousandsLiteral returns the literal separator character for the configured
// grouping convention. Spaces cover both ASCII space and NBSP when stripping;
// the literal here is the canonical form.
func (c CurrencyFormatConfig) ThousandsLiteral() string {
	switch c.Thousands {
	case SeparatorDots:
		return "."
	case SeparatorSpaces:
		return " "
	case SeparatorApostrophes:
		return "'"
	case SeparatorNone:
		return ""
	default:
		return ","
	}
}

// DecimalLiteral returns the literal decimal separator character. Both the
// plural token ("commas") and the singular form ("comma") are accepted, since
// configs commonly use the singular for the decimal side.
func (c CurrencyFormatConfig) DecimalLiteral() string {
	if c.Decimal == SeparatorCommas || c.Decimal == "comma" {
		return ","
	}
	return "."
}
