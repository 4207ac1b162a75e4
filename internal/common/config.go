// Package common holds helpers shared by the CLI commands.
package common

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/workprice/workprice/models"
)

// NewLogger builds the JSON logger every command uses. --quiet keeps only
// errors.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// ResolveConfig loads the YAML config (if present) and applies CLI overrides.
// An explicit --config path must exist; the default path is optional.
func ResolveConfig(c *cli.Context) (*models.Config, error) {
	path := c.String("config")
	config, err := models.LoadConfig(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) || c.IsSet("config") {
			return nil, err
		}
		config = models.DefaultConfig()
	}

	if c.IsSet("wage") {
		amount, parseErr := decimal.NewFromString(c.String("wage"))
		if parseErr != nil {
			return nil, fmt.Errorf("invalid wage %q: %w", c.String("wage"), parseErr)
		}
		config.Wage.Amount = amount
	}
	if c.IsSet("wage-currency") {
		config.Wage.Currency = strings.ToUpper(c.String("wage-currency"))
	}
	if c.IsSet("wage-period") {
		config.Wage.Period = models.WagePeriod(c.String("wage-period"))
	}
	if c.IsSet("symbol") {
		config.Format.Symbol = c.String("symbol")
	}
	if c.IsSet("code") {
		config.Format.ISOCode = strings.ToUpper(c.String("code"))
	}
	if c.IsSet("thousands") {
		config.Format.Thousands = models.SeparatorToken(c.String("thousands"))
	}
	if c.IsSet("decimal") {
		config.Format.Decimal = models.SeparatorToken(c.String("decimal"))
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
