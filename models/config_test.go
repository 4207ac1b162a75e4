package models

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func writeConfig(t *testing.T, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workprice.yaml")
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	raw := `wage:
  amount: "30"
  currency: EUR
  period: yearly
format:
  symbol: "€"
  code: EUR
  thousands: dots
  decimal: commas
rates:
  USD: "0.92"
scanner:
  debounce: 100ms
  max_pending_nodes: 50
`
	config, err := LoadConfig(writeConfig(t, raw))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if !config.Wage.Amount.Equal(decimal.NewFromInt(30)) {
		t.Errorf("Wage.Amount = %s, want 30", config.Wage.Amount)
	}
	if config.Wage.Period != PeriodYearly {
		t.Errorf("Wage.Period = %q, want yearly", config.Wage.Period)
	}
	if config.Format.Thousands != SeparatorDots || config.Format.Decimal != SeparatorCommas {
		t.Errorf("separators = %q/%q, want dots/commas", config.Format.Thousands, config.Format.Decimal)
	}
	if got := time.Duration(config.Scanner.Debounce); got != 100*time.Millisecond {
		t.Errorf("Scanner.Debounce = %v, want 100ms", got)
	}
	if config.Scanner.MaxPendingNodes != 50 {
		t.Errorf("Scanner.MaxPendingNodes = %d, want 50", config.Scanner.MaxPendingNodes)
	}
	rate, ok := config.Rates["USD"]
	if !ok || !rate.Equal(decimal.RequireFromString("0.92")) {
		t.Errorf("Rates[USD] = %s (present %v), want 0.92", rate, ok)
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	raw := `wage:
  amount: "15"
  currency: USD
format:
  symbol: "$"
`
	config, err := LoadConfig(writeConfig(t, raw))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Wage.Period != PeriodHourly {
		t.Errorf("Wage.Period = %q, want hourly default", config.Wage.Period)
	}
	if config.Format.Thousands != SeparatorCommas || config.Format.Decimal != SeparatorDots {
		t.Errorf("separators = %q/%q, want commas/dots defaults", config.Format.Thousands, config.Format.Decimal)
	}
	if config.Format.Direction != DirectionForward {
		t.Errorf("Direction = %q, want forward default", config.Format.Direction)
	}
	if got := time.Duration(config.Scanner.Debounce); got != 200*time.Millisecond {
		t.Errorf("Scanner.Debounce = %v, want 200ms default", got)
	}
}

func TestLoadConfigNormalizesSingularSeparators(t *testing.T) {
	raw := `wage:
  amount: "15"
  currency: USD
format:
  symbol: "$"
  thousands: comma
  decimal: dot
`
	config, err := LoadConfig(writeConfig(t, raw))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if config.Format.Thousands != SeparatorCommas {
		t.Errorf("Thousands = %q, want commas", config.Format.Thousands)
	}
	if config.Format.Decimal != SeparatorDots {
		t.Errorf("Decimal = %q, want dots", config.Format.Decimal)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "equal separators",
			mutate: func(c *Config) { c.Format.Thousands = SeparatorDots },
		},
		{
			name:   "no symbol or code",
			mutate: func(c *Config) { c.Format.Symbol = ""; c.Format.ISOCode = "" },
		},
		{
			name:   "negative wage",
			mutate: func(c *Config) { c.Wage.Amount = decimal.NewFromInt(-5) },
		},
		{
			name:   "unknown wage period",
			mutate: func(c *Config) { c.Wage.Period = "weekly" },
		},
		{
			name: "non-positive rate",
			mutate: func(c *Config) {
				c.Rates = map[string]decimal.Decimal{"EUR": decimal.Zero}
			},
		},
		{
			name:   "unknown decimal separator",
			mutate: func(c *Config) { c.Format.Decimal = SeparatorSpaces },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			if err := config.Validate(); err == nil {
				t.Error("Validate() accepted an invalid config")
			}
		})
	}
}
