package models

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config files can use "200ms" style values.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// ScannerConfig tunes the incremental scanner's debounce and backpressure.
type ScannerConfig struct {
	Debounce        Duration `yaml:"debounce"`
	MaxPendingNodes int      `yaml:"max_pending_nodes"`
}

// Config holds runtime configuration for scanning. Values come from a YAML
// file, with CLI flags able to override individual fields.
type Config struct {
	Wage    WageConfig                 `yaml:"wage"`
	Format  CurrencyFormatConfig       `yaml:"format"`
	Rates   map[string]decimal.Decimal `yaml:"rates,omitempty"`
	Scanner ScannerConfig              `yaml:"scanner"`
}

// DefaultConfig returns a config usable without any file: USD at a $25/h wage.
func DefaultConfig() *Config {
	return &Config{
		Wage: WageConfig{
			Amount:   decimal.NewFromInt(25),
			Currency: "USD",
			Period:   PeriodHourly,
		},
		Format: CurrencyFormatConfig{
			Symbol:    "$",
			ISOCode:   "USD",
			Thousands: SeparatorCommas,
			Decimal:   SeparatorDots,
			Direction: DirectionForward,
		},
		Scanner: ScannerConfig{
			Debounce:        Duration(200 * time.Millisecond),
			MaxPendingNodes: 2000,
		},
	}
}

// LoadConfig reads a YAML config file, applies defaults for unset fields and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Wage.Period == "" {
		c.Wage.Period = PeriodHourly
	}
	if c.Format.Thousands == "" {
		c.Format.Thousands = SeparatorCommas
	}
	if c.Format.Decimal == "" {
		c.Format.Decimal = SeparatorDots
	}
	if c.Format.Direction == "" {
		c.Format.Direction = DirectionForward
	}
	if c.Scanner.Debounce <= 0 {
		c.Scanner.Debounce = Duration(200 * time.Millisecond)
	}
	if c.Scanner.MaxPendingNodes <= 0 {
		c.Scanner.MaxPendingNodes = 2000
	}

	// Tolerate singular separator tokens from hand-written configs.
	c.Format.Thousands = normalizeSeparator(c.Format.Thousands)
	c.Format.Decimal = normalizeSeparator(c.Format.Decimal)
}

func normalizeSeparator(token SeparatorToken) SeparatorToken {
	switch token {
	case "comma":
		return SeparatorCommas
	case "dot":
		return SeparatorDots
	case "space":
		return SeparatorSpaces
	case "apostrophe":
		return SeparatorApostrophes
	default:
		return token
	}
}

// Validate rejects configs the scanner cannot run with.
func (c *Config) Validate() error {
	if err := c.Wage.Validate(); err != nil {
		return err
	}
	if c.Format.Symbol == "" && c.Format.ISOCode == "" {
		return fmt.Errorf("currency format needs at least a symbol or an ISO code")
	}
	switch c.Format.Thousands {
	case SeparatorCommas, SeparatorDots, SeparatorSpaces, SeparatorApostrophes, SeparatorNone:
	default:
		return fmt.Errorf("unknown thousands separator token: %q", c.Format.Thousands)
	}
	switch c.Format.Decimal {
	case SeparatorCommas, SeparatorDots:
	default:
		return fmt.Errorf("unknown decimal separator token: %q", c.Format.Decimal)
	}
	if c.Format.Thousands == c.Format.Decimal {
		return fmt.Errorf("thousands and decimal separators must differ")
	}
	for code, rate := range c.Rates {
		if !rate.IsPositive() {
			return fmt.Errorf("exchange rate for %s must be positive, got %s", code, rate)
		}
	}
	return nil
}
