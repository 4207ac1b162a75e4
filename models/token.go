package models

import (
	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
)

// PriceToken is the transient record of one successful price match. It is
// created per extraction attempt, handed to the converter and the annotation
// callback, and never persisted. SourceNode is a back-reference only; the
// token does not own the node.
type PriceToken struct {
	RawText      string
	Value        decimal.Decimal
	CurrencyUnit string
	SourceNode   *html.Node
	StrategyUsed string
}
