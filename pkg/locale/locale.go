// Package locale guesses sensible currency-format defaults from document
// language when the user has not pinned a format. Detection is best-effort;
// a pinned config always wins.
package locale

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"

	"github.com/workprice/workprice/models"
)

// supported is the detection universe. Kept small: every language added
// grows the detector's model footprint.
var supported = []lingua.Language{
	lingua.English,
	lingua.German,
	lingua.French,
	lingua.Spanish,
	lingua.Italian,
	lingua.Portuguese,
	lingua.Dutch,
	lingua.Japanese,
}

// formatDefaults maps detected languages to separator/symbol conventions.
var formatDefaults = map[lingua.Language]models.CurrencyFormatConfig{
	lingua.English: {
		Symbol: "$", ISOCode: "USD",
		Thousands: models.SeparatorCommas, Decimal: models.SeparatorDots,
	},
	lingua.German: {
		Symbol: "€", ISOCode: "EUR",
		Thousands: models.SeparatorDots, Decimal: models.SeparatorCommas,
	},
	lingua.French: {
		Symbol: "€", ISOCode: "EUR",
		Thousands: models.SeparatorSpaces, Decimal: models.SeparatorCommas,
	},
	lingua.Spanish: {
		Symbol: "€", ISOCode: "EUR",
		Thousands: models.SeparatorDots, Decimal: models.SeparatorCommas,
	},
	lingua.Italian: {
		Symbol: "€", ISOCode: "EUR",
		Thousands: models.SeparatorDots, Decimal: models.SeparatorCommas,
	},
	lingua.Portuguese: {
		Symbol: "€", ISOCode: "EUR",
		Thousands: models.SeparatorDots, Decimal: models.SeparatorCommas,
	},
	lingua.Dutch: {
		Symbol: "€", ISOCode: "EUR",
		Thousands: models.SeparatorDots, Decimal: models.SeparatorCommas,
	},
	lingua.Japanese: {
		Symbol: "¥", ISOCode: "JPY",
		Thousands: models.SeparatorCommas, Decimal: models.SeparatorDots,
	},
}

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// buildDetector is deferred until first use: the language models are the
// expensive part and most runs pin a format explicitly.
func buildDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(supported...).
			Build()
	})
	return detector
}

// DetectFormat detects the dominant language of text and returns the
// matching format defaults. The boolean is false when detection fails or
// the language has no defaults; callers then keep their configured format.
func DetectFormat(text string) (models.CurrencyFormatConfig, string, bool) {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return models.CurrencyFormatConfig{}, "", false
	}
	// A few kilobytes is plenty for language identification.
	if len(sample) > 4096 {
		cut := 4096
		for cut > 0 && sample[cut]&0xC0 == 0x80 {
			cut--
		}
		sample = sample[:cut]
	}

	language, exists := buildDetector().DetectLanguageOf(sample)
	if !exists {
		return models.CurrencyFormatConfig{}, "", false
	}

	config, ok := formatDefaults[language]
	if !ok {
		return models.CurrencyFormatConfig{}, language.String(), false
	}
	config.Direction = models.DirectionForward
	return config, language.String(), true
}
