package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// WagePeriod is the interval a configured wage amount covers.
type WagePeriod string

const (
	PeriodHourly WagePeriod = "hourly"
	PeriodYearly WagePeriod = "yearly"
)

// hoursPerYear assumes a 40-hour week over 52 weeks.
var hoursPerYear = decimal.NewFromInt(2080)

// WageConfig is the user's wage, owned by the settings collaborator and
// treated as a read-only snapshot here.
type WageConfig struct {
	Amount   decimal.Decimal `yaml:"amount"`
	Currency string          `yaml:"currency"`
	Period   WagePeriod      `yaml:"period"`
}

// HourlyRate normalizes the wage to an hourly amount.
func (w WageConfig) HourlyRate() decimal.Decimal {
	if w.Period == PeriodYearly {
		return w.Amount.Div(hoursPerYear)
	}
	return w.Amount
}

// Validate checks the wage for a usable period and non-negative amount.
func (w WageConfig) Validate() error {
	switch w.Period {
	case PeriodHourly, PeriodYearly, "":
	default:
		return fmt.Errorf("unsupported wage period: %q", w.Period)
	}
	if w.Amount.IsNegative() {
		return fmt.Errorf("wage amount must not be negative: %s", w.Amount)
	}
	return nil
}
