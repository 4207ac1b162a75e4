package extract

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/workprice/workprice/models"
	"github.com/workprice/workprice/pkg/annotate"
	"github.com/workprice/workprice/pkg/pattern"
)

func usdConfig() models.CurrencyFormatConfig {
	return models.CurrencyFormatConfig{
		Symbol:    "$",
		ISOCode:   "USD",
		Thousands: models.SeparatorCommas,
		Decimal:   models.SeparatorDots,
		Direction: models.DirectionForward,
	}
}

// parseBody parses a fragment and returns its body element.
func parseBody(t *testing.T, fragment string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader("<html><body>" + fragment + "</body></html>"))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	var body *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if body == nil {
		t.Fatal("fixture has no body")
	}
	return body
}

func newExtractor(handlers []SiteHandler) *Extractor {
	return New(usdConfig(), pattern.NewCache(), handlers, nil)
}

func TestExtractTextNode(t *testing.T) {
	body := parseBody(t, "<p>Price is $1,234.56 today</p>")
	text := body.FirstChild.FirstChild

	token, ok := newExtractor(nil).Extract(text)
	if !ok {
		t.Fatal("Extract() found no price in text node")
	}
	if token.RawText != "$1,234.56" {
		t.Errorf("RawText = %q, want %q", token.RawText, "$1,234.56")
	}
	if token.Value.String() != "1234.56" {
		t.Errorf("Value = %s, want 1234.56", token.Value)
	}
	if token.StrategyUsed != StrategyText {
		t.Errorf("StrategyUsed = %q, want %q", token.StrategyUsed, StrategyText)
	}
	if token.SourceNode != text {
		t.Error("SourceNode is not the matched text node")
	}
}

func TestExtractNoMatchIsCheapAndQuiet(t *testing.T) {
	body := parseBody(t, "<p>Nothing for sale here, established 2024.</p>")
	text := body.FirstChild.FirstChild

	if token, ok := newExtractor(nil).Extract(text); ok {
		t.Fatalf("Extract() = %+v, want no match", token)
	}
}

func TestExtractAttributeStrategies(t *testing.T) {
	t.Run("aria label", func(t *testing.T) {
		body := parseBody(t, `<span aria-label="$49.99">49<sup>99</sup></span>`)
		span := body.FirstChild

		token, ok := newExtractor(nil).Extract(span)
		if !ok {
			t.Fatal("Extract() found no price via aria-label")
		}
		if token.StrategyUsed != StrategyAttribute {
			t.Errorf("StrategyUsed = %q, want %q", token.StrategyUsed, StrategyAttribute)
		}
		if token.Value.String() != "49.99" {
			t.Errorf("Value = %s, want 49.99", token.Value)
		}
	})

	t.Run("generic split layout", func(t *testing.T) {
		body := parseBody(t, `<span><b>$12</b><sup>99</sup></span>`)
		span := body.FirstChild

		token, ok := newExtractor(nil).Extract(span)
		if !ok {
			t.Fatal("Extract() found no price in split layout")
		}
		if token.StrategyUsed != StrategyAttribute {
			t.Errorf("StrategyUsed = %q, want %q", token.StrategyUsed, StrategyAttribute)
		}
		if token.Value.String() != "12.99" {
			t.Errorf("Value = %s, want 12.99", token.Value)
		}
	})

	t.Run("prose children are not a split layout", func(t *testing.T) {
		body := parseBody(t, `<ul><li>Item worth $5.00</li><li>Item two</li></ul>`)
		ul := body.FirstChild

		extractor := newExtractor(nil)
		if raw, ok := extractor.joinSplitChildren(ul); ok {
			t.Errorf("joinSplitChildren() = %q, want no join for prose children", raw)
		}
	})
}

func TestExtractSiteHandlers(t *testing.T) {
	t.Run("offscreen price", func(t *testing.T) {
		fragment := `<span class="price"><span class="sr-only">$1,234.56</span>` +
			`<span aria-hidden="true">1,234</span></span>`
		body := parseBody(t, fragment)
		span := body.FirstChild

		token, ok := newExtractor(DefaultHandlers()).Extract(span)
		if !ok {
			t.Fatal("Extract() found no price via offscreen handler")
		}
		if token.StrategyUsed != StrategySite {
			t.Errorf("StrategyUsed = %q, want %q", token.StrategyUsed, StrategySite)
		}
		if token.RawText != "$1,234.56" {
			t.Errorf("RawText = %q, want %q", token.RawText, "$1,234.56")
		}
	})

	t.Run("classed split price", func(t *testing.T) {
		fragment := `<span class="price"><span class="price-symbol">$</span>` +
			`<span class="price-whole">1,234</span><span class="price-fraction">56</span></span>`
		body := parseBody(t, fragment)
		span := body.FirstChild

		token, ok := newExtractor(DefaultHandlers()).Extract(span)
		if !ok {
			t.Fatal("Extract() found no price via split handler")
		}
		if token.StrategyUsed != StrategySite {
			t.Errorf("StrategyUsed = %q, want %q", token.StrategyUsed, StrategySite)
		}
		if token.Value.String() != "1234.56" {
			t.Errorf("Value = %s, want 1234.56", token.Value)
		}
	})

	t.Run("site handler outranks text match", func(t *testing.T) {
		// The element text itself also matches the plain pattern, but the
		// site handler runs first.
		fragment := `<div class="price" aria-label="$3.50">` +
			`<span class="sr-only">$2.00</span>$3.50</div>`
		body := parseBody(t, fragment)
		div := body.FirstChild

		token, ok := newExtractor(DefaultHandlers()).Extract(div)
		if !ok {
			t.Fatal("Extract() found no price")
		}
		if token.StrategyUsed != StrategySite {
			t.Errorf("StrategyUsed = %q, want site to win over attribute/text", token.StrategyUsed)
		}
		if token.RawText != "$2.00" {
			t.Errorf("RawText = %q, want the handler's %q", token.RawText, "$2.00")
		}
	})
}

func TestExtractUnparseableHandlerTextIsNoMatch(t *testing.T) {
	// A handler can hand back junk; it must degrade to a quiet no-match
	// rather than an error.
	extractor := newExtractor([]SiteHandler{{
		Name:     "broken",
		IsTarget: func(n *html.Node) bool { return true },
		Extract:  func(n *html.Node) (string, bool) { return "$,,", true },
	}})

	body := parseBody(t, "<p>no price</p>")
	if token, ok := extractor.Extract(body.FirstChild); ok {
		t.Fatalf("Extract() = %+v, want no match", token)
	}
}

func TestWalkEmitsPerChildAndSkipsMarked(t *testing.T) {
	fragment := `<div><p>First $10.00</p><p>Second $20.00</p>` +
		`<p data-workprice="1">Done $30.00</p><script>var a = "$40.00";</script></div>`
	body := parseBody(t, fragment)

	var tokens []*models.PriceToken
	newExtractor(nil).Walk(body, annotate.HasMarker, func(token *models.PriceToken) {
		tokens = append(tokens, token)
	})

	if len(tokens) != 2 {
		t.Fatalf("Walk() emitted %d tokens, want 2", len(tokens))
	}
	if tokens[0].RawText != "$10.00" || tokens[1].RawText != "$20.00" {
		t.Errorf("tokens = %q, %q; want $10.00, $20.00", tokens[0].RawText, tokens[1].RawText)
	}
}

func TestWalkReverseDirectionIgnoresFreshPrices(t *testing.T) {
	config := usdConfig()
	config.Direction = models.DirectionReverse
	extractor := New(config, pattern.NewCache(), nil, nil)

	body := parseBody(t, "<p>fresh $10.00 and annotated $20.00 (2h 0m)</p>")

	var tokens []*models.PriceToken
	extractor.Walk(body, nil, func(token *models.PriceToken) {
		tokens = append(tokens, token)
	})

	if len(tokens) != 1 {
		t.Fatalf("Walk() emitted %d tokens, want 1", len(tokens))
	}
	if tokens[0].RawText != "$20.00 (2h 0m)" {
		t.Errorf("RawText = %q, want the annotated price", tokens[0].RawText)
	}
	if tokens[0].Value.String() != "20.00" && tokens[0].Value.String() != "20" {
		t.Errorf("Value = %s, want 20.00", tokens[0].Value)
	}
}
