// Package convert turns monetary amounts into equivalent work time.
package convert

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/workprice/workprice/models"
)

// Typed conversion failures. These are reported to the caller, never fatal:
// a failed conversion simply means no annotation for that price.
var (
	// ErrZeroWage is returned when the configured wage amount is zero.
	ErrZeroWage = errors.New("wage amount is zero")
	// ErrIncommensurableCurrency is returned when the price and wage use
	// different currencies and no exchange rate covers them.
	ErrIncommensurableCurrency = errors.New("price and wage currencies differ and no exchange rate is available")
)

var sixty = decimal.NewFromInt(60)

// Converter computes time breakdowns for a wage, optionally across
// currencies via a rate table. Rates map currency codes to their value in a
// common base unit; a price in currency A is worth amount*Rates[A]/Rates[B]
// in currency B.
type Converter struct {
	Wage  models.WageConfig
	Rates map[string]decimal.Decimal
}

func New(wage models.WageConfig, rates map[string]decimal.Decimal) *Converter {
	return &Converter{Wage: wage, Rates: rates}
}

// Convert computes how long the wage earner works to afford amount.
// currency may be empty when the price carried no recognizable unit, in
// which case the wage currency is assumed.
//
// totalHours = amount / hourlyWage; hours = floor(totalHours);
// minutes = round(fraction * 60); minutes of 60 carry into hours.
func (c *Converter) Convert(amount decimal.Decimal, currency string) (models.TimeBreakdown, error) {
	hourly := c.Wage.HourlyRate()
	if hourly.IsZero() {
		return models.TimeBreakdown{}, ErrZeroWage
	}

	amount, err := c.inWageCurrency(amount, currency)
	if err != nil {
		return models.TimeBreakdown{}, err
	}

	totalHours := amount.Abs().Div(hourly.Abs())
	hours := totalHours.Floor()
	minutes := totalHours.Sub(hours).Mul(sixty).Round(0)

	breakdown := models.TimeBreakdown{
		Hours:   hours.IntPart(),
		Minutes: minutes.IntPart(),
	}
	if breakdown.Minutes == 60 {
		breakdown.Hours++
		breakdown.Minutes = 0
	}
	return breakdown, nil
}

// inWageCurrency converts the amount into the wage currency, or fails with
// ErrIncommensurableCurrency when no rate table covers the pair.
func (c *Converter) inWageCurrency(amount decimal.Decimal, currency string) (decimal.Decimal, error) {
	if currency == "" || strings.EqualFold(currency, c.Wage.Currency) {
		return amount, nil
	}

	from, okFrom := c.rate(currency)
	to, okTo := c.rate(c.Wage.Currency)
	if !okFrom || !okTo || to.IsZero() {
		return decimal.Decimal{}, ErrIncommensurableCurrency
	}
	return amount.Mul(from).Div(to), nil
}

func (c *Converter) rate(currency string) (decimal.Decimal, bool) {
	for code, rate := range c.Rates {
		if strings.EqualFold(code, currency) {
			return rate, true
		}
	}
	return decimal.Decimal{}, false
}
