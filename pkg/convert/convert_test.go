package convert

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/workprice/workprice/models"
)

func hourlyWage(amount string) models.WageConfig {
	return models.WageConfig{
		Amount:   decimal.RequireFromString(amount),
		Currency: "USD",
		Period:   models.PeriodHourly,
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		wage   models.WageConfig
		want   models.TimeBreakdown
	}{
		{
			name:   "amount equals wage",
			amount: "25",
			wage:   hourlyWage("25"),
			want:   models.TimeBreakdown{Hours: 1, Minutes: 0},
		},
		{
			name:   "fraction rounds up",
			amount: "10",
			wage:   hourlyWage("7"),
			want:   models.TimeBreakdown{Hours: 1, Minutes: 26},
		},
		{
			name:   "rounded minutes of 60 carry into hours",
			amount: "20",
			wage:   hourlyWage("10.01"),
			want:   models.TimeBreakdown{Hours: 2, Minutes: 0},
		},
		{
			name:   "sub hour amount",
			amount: "5",
			wage:   hourlyWage("20"),
			want:   models.TimeBreakdown{Hours: 0, Minutes: 15},
		},
		{
			name:   "zero amount",
			amount: "0",
			wage:   hourlyWage("20"),
			want:   models.TimeBreakdown{Hours: 0, Minutes: 0},
		},
		{
			name:   "yearly wage normalizes to hourly",
			amount: "52",
			wage: models.WageConfig{
				Amount:   decimal.RequireFromString("108160"), // 52/h over 2080h
				Currency: "USD",
				Period:   models.PeriodYearly,
			},
			want: models.TimeBreakdown{Hours: 1, Minutes: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			converter := New(tt.wage, nil)
			got, err := converter.Convert(decimal.RequireFromString(tt.amount), "USD")
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Convert(%s) = %v, want %v", tt.amount, got, tt.want)
			}
		})
	}
}

func TestConvertZeroWage(t *testing.T) {
	converter := New(hourlyWage("0"), nil)

	_, err := converter.Convert(decimal.RequireFromString("10"), "USD")
	if !errors.Is(err, ErrZeroWage) {
		t.Fatalf("Convert() error = %v, want ErrZeroWage", err)
	}
}

func TestConvertCurrencyMismatch(t *testing.T) {
	t.Run("no rate table", func(t *testing.T) {
		converter := New(hourlyWage("10"), nil)
		_, err := converter.Convert(decimal.RequireFromString("10"), "EUR")
		if !errors.Is(err, ErrIncommensurableCurrency) {
			t.Fatalf("Convert() error = %v, want ErrIncommensurableCurrency", err)
		}
	})

	t.Run("rate table covers the pair", func(t *testing.T) {
		converter := New(hourlyWage("10"), map[string]decimal.Decimal{
			"USD": decimal.NewFromInt(1),
			"EUR": decimal.RequireFromString("2"), // 1 EUR = 2 USD for easy math
		})
		got, err := converter.Convert(decimal.RequireFromString("10"), "EUR")
		if err != nil {
			t.Fatalf("Convert() error = %v", err)
		}
		want := models.TimeBreakdown{Hours: 2, Minutes: 0}
		if got != want {
			t.Errorf("Convert(10 EUR) = %v, want %v", got, want)
		}
	})

	t.Run("empty unit assumes wage currency", func(t *testing.T) {
		converter := New(hourlyWage("10"), nil)
		got, err := converter.Convert(decimal.RequireFromString("10"), "")
		if err != nil {
			t.Fatalf("Convert() error = %v", err)
		}
		want := models.TimeBreakdown{Hours: 1, Minutes: 0}
		if got != want {
			t.Errorf("Convert(10) = %v, want %v", got, want)
		}
	})
}
