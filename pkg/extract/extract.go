// Package extract locates prices in document nodes by trying a fixed
// priority order of strategies: site-specific handlers first, then the
// structural/attribute analyzer, then a plain-text pattern match. The first
// strategy to succeed wins; all of them failing is the common case and stays
// cheap.
package extract

import (
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"

	"github.com/workprice/workprice/models"
	"github.com/workprice/workprice/pkg/finder"
	"github.com/workprice/workprice/pkg/pattern"
)

// Strategy names recorded on PriceToken.StrategyUsed.
const (
	StrategySite      = "site"
	StrategyAttribute = "attribute"
	StrategyText      = "text"
)

// labelAttrs are the accessible-label attributes the structural analyzer
// inspects before falling back to flattened text.
var labelAttrs = []string{"aria-label", "title", "content"}

// skipElements never contain user-visible prices.
var skipElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
}

// SiteHandler encodes layout knowledge for one site or widget family that
// the generic strategies cannot recover, such as a price split across
// sibling nodes. Handlers run before every other strategy.
type SiteHandler struct {
	Name     string
	IsTarget func(n *html.Node) bool
	Extract  func(n *html.Node) (string, bool)
}

// Extractor orchestrates the strategies over document nodes. It owns no
// global state; the pattern cache is injected so independent extractors do
// not share unrelated cached patterns.
type Extractor struct {
	config   models.CurrencyFormatConfig
	cache    *pattern.Cache
	handlers []SiteHandler
	logger   *slog.Logger
}

func New(config models.CurrencyFormatConfig, cache *pattern.Cache, handlers []SiteHandler, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = pattern.NewCache()
	}
	return &Extractor{
		config:   config,
		cache:    cache,
		handlers: handlers,
		logger:   logger,
	}
}

// Extract runs the strategy chain against a single node. For text nodes only
// the plain-text strategy applies. A false return is not an error; it just
// means this node holds no recognizable price.
func (e *Extractor) Extract(n *html.Node) (*models.PriceToken, bool) {
	if n == nil {
		return nil, false
	}

	switch n.Type {
	case html.TextNode:
		return e.extractText(n, n.Data)
	case html.ElementNode:
		if token, ok := e.extractSite(n); ok {
			return token, true
		}
		if token, ok := e.extractAttribute(n); ok {
			return token, true
		}
		return e.extractText(n, textContent(n))
	default:
		return nil, false
	}
}

// Walk visits an element subtree emitting a token per matched node. Elements
// for which marked returns true are skipped whole, as are script-like
// elements. Site and attribute strategies run per element; the text strategy
// runs on text nodes, so a container with several priced children yields one
// token per child rather than one for the container.
func (e *Extractor) Walk(root *html.Node, marked func(*html.Node) bool, emit func(*models.PriceToken)) {
	if root == nil {
		return
	}
	if root.Type == html.TextNode {
		if token, ok := e.extractText(root, root.Data); ok {
			emit(token)
		}
		return
	}
	if root.Type == html.DocumentNode {
		for c := root.FirstChild; c != nil; c = c.NextSibling {
			e.Walk(c, marked, emit)
		}
		return
	}
	if root.Type != html.ElementNode {
		return
	}
	if _, skip := skipElements[root.Data]; skip {
		return
	}
	if marked != nil && marked(root) {
		return
	}

	if token, ok := e.extractSite(root); ok {
		emit(token)
		return
	}
	if token, ok := e.extractAttribute(root); ok {
		emit(token)
		return
	}

	for c := root.FirstChild; c != nil; c = c.NextSibling {
		e.Walk(c, marked, emit)
	}
}

// extractSite tries the registered handlers in order.
func (e *Extractor) extractSite(n *html.Node) (*models.PriceToken, bool) {
	for _, handler := range e.handlers {
		if handler.IsTarget == nil || !handler.IsTarget(n) {
			continue
		}
		raw, ok := handler.Extract(n)
		if !ok {
			continue
		}
		if token, ok := e.match(raw, n, StrategySite); ok {
			return token, true
		}
	}
	return nil, false
}

// extractAttribute is the structural analyzer: accessible-label attributes
// first, then the generic split-price layout where symbol, integer and
// fraction live in sibling child elements.
func (e *Extractor) extractAttribute(n *html.Node) (*models.PriceToken, bool) {
	for _, key := range labelAttrs {
		value := attrVal(n, key)
		if value == "" || !finder.MightContainPrice(value) {
			continue
		}
		if token, ok := e.match(value, n, StrategyAttribute); ok {
			return token, true
		}
	}

	if raw, ok := e.joinSplitChildren(n); ok {
		if token, ok := e.match(raw, n, StrategyAttribute); ok {
			return token, true
		}
	}
	return nil, false
}

// joinSplitChildren reassembles a price spread across direct child elements.
// When the last fragment looks like a 1-2 digit fraction it is glued on with
// the configured decimal separator, covering the sup/sub cents layout.
func (e *Extractor) joinSplitChildren(n *html.Node) (string, bool) {
	var parts []string
	elementChildren := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		elementChildren++
		if text := strings.TrimSpace(textContent(c)); text != "" {
			parts = append(parts, text)
		}
	}
	if elementChildren < 2 || len(parts) < 2 {
		return "", false
	}

	// Every fragment must be pure price material (unit, digits, separators).
	// Containers whose children carry prose are left to the per-child text
	// strategy instead of being swallowed whole here.
	hasDigit := false
	for _, part := range parts {
		if !e.isPriceFragment(part) {
			return "", false
		}
		if strings.ContainsAny(part, "0123456789") {
			hasDigit = true
		}
	}
	if !hasDigit {
		return "", false
	}

	// A trailing 1-2 digit fragment is a cents part; glue it on with the
	// decimal separator so "$12" + "99" does not read as $1299.
	if last := parts[len(parts)-1]; isFraction(last) {
		head := strings.Join(parts[:len(parts)-1], "")
		return head + e.config.DecimalLiteral() + last, true
	}
	return strings.Join(parts, ""), true
}

// isPriceFragment reports whether a split-layout fragment contains nothing
// but the currency unit, digits and separator characters.
func (e *Extractor) isPriceFragment(s string) bool {
	if e.config.Symbol != "" {
		s = strings.ReplaceAll(s, e.config.Symbol, "")
	}
	if e.config.ISOCode != "" {
		s = replaceFold(s, e.config.ISOCode)
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' || r == ',' || r == '\'' || r == ' ' || r == '\u00A0':
		default:
			return false
		}
	}
	return true
}

func isFraction(s string) bool {
	if len(s) == 0 || len(s) > 2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// extractText applies the compiled pattern to flattened text, gated by the
// cheap pre-filter so price-free text costs almost nothing.
func (e *Extractor) extractText(n *html.Node, text string) (*models.PriceToken, bool) {
	if text == "" || !finder.MightContainPrice(text) {
		return nil, false
	}
	return e.match(text, n, StrategyText)
}

// match applies the pattern to candidate text and normalizes the numeric
// part. Matched text that still fails to parse is treated as a non-match,
// never an error.
func (e *Extractor) match(text string, n *html.Node, strategy string) (*models.PriceToken, bool) {
	compiled, err := e.cache.Get(e.config)
	if err != nil {
		e.logger.Warn("failed to build price pattern", "error", err)
		return nil, false
	}

	raw := compiled.Regexp.FindString(text)
	if raw == "" {
		return nil, false
	}

	value, err := e.parseAmount(raw, compiled)
	if err != nil {
		e.logger.Debug("matched text failed numeric parse",
			"raw", raw,
			"error", err,
		)
		return nil, false
	}

	return &models.PriceToken{
		RawText:      raw,
		Value:        value,
		CurrencyUnit: e.config.ISOCode,
		SourceNode:   n,
		StrategyUsed: strategy,
	}, true
}

// parseAmount strips the currency unit and any trailing annotation, removes
// thousands tokens and normalizes the decimal token to a canonical point
// before parsing.
func (e *Extractor) parseAmount(raw string, compiled *pattern.Compiled) (decimal.Decimal, error) {
	numeric := raw
	if idx := strings.Index(numeric, "("); idx >= 0 {
		numeric = numeric[:idx]
	}
	if e.config.Symbol != "" {
		numeric = strings.ReplaceAll(numeric, e.config.Symbol, "")
	}
	if e.config.ISOCode != "" {
		numeric = replaceFold(numeric, e.config.ISOCode)
	}
	numeric = strings.ReplaceAll(numeric, "\u00A0", "")
	numeric = strings.ReplaceAll(numeric, " ", "")
	if compiled.Thousands != "" && compiled.Thousands != " " {
		numeric = strings.ReplaceAll(numeric, compiled.Thousands, "")
	}
	if compiled.Decimal != "." {
		numeric = strings.Replace(numeric, compiled.Decimal, ".", 1)
	}
	return decimal.NewFromString(strings.TrimSpace(numeric))
}

// replaceFold removes every case-insensitive occurrence of token.
func replaceFold(s, token string) string {
	upper := strings.ToUpper(s)
	upperToken := strings.ToUpper(token)
	var b strings.Builder
	for i := 0; i < len(s); {
		if strings.HasPrefix(upper[i:], upperToken) {
			i += len(upperToken)
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// textContent flattens the visible text of a subtree.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
			return
		}
		if cur.Type == html.ElementNode {
			if _, skip := skipElements[cur.Data]; skip {
				return
			}
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// attrVal returns an attribute value, or "" when absent.
func attrVal(n *html.Node, key string) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
