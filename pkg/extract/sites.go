package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// DefaultHandlers returns the built-in site handler registry: the offscreen
// full-price layout and the classed whole/fraction split common on
// storefronts. Callers supply their own registry to replace or extend these;
// order is priority order.
func DefaultHandlers() []SiteHandler {
	return []SiteHandler{offscreenPriceHandler(), classedSplitPriceHandler()}
}

// offscreenPriceHandler targets widgets that render a decorative split price
// alongside a visually hidden full price for screen readers. The hidden copy
// is the authoritative one.
func offscreenPriceHandler() SiteHandler {
	hidden := func(n *html.Node) bool {
		return classContains(n, "offscreen") ||
			classContains(n, "sr-only") ||
			classContains(n, "visually-hidden")
	}
	return SiteHandler{
		Name: "offscreen-price",
		// The widget element itself must be price-classed; otherwise any
		// ancestor up to body would claim the whole subtree.
		IsTarget: func(n *html.Node) bool {
			return classContains(n, "price") && findChild(n, hidden) != nil
		},
		Extract: func(n *html.Node) (string, bool) {
			child := findChild(n, hidden)
			if child == nil {
				return "", false
			}
			text := strings.TrimSpace(textContent(child))
			return text, text != ""
		},
	}
}

// classedSplitPriceHandler targets the symbol/whole/fraction class triple,
// reassembling the price with a decimal point between whole and fraction.
func classedSplitPriceHandler() SiteHandler {
	whole := func(n *html.Node) bool { return classContains(n, "whole") }
	fraction := func(n *html.Node) bool { return classContains(n, "fraction") }
	symbol := func(n *html.Node) bool { return classContains(n, "symbol") }

	return SiteHandler{
		Name: "classed-split-price",
		IsTarget: func(n *html.Node) bool {
			return classContains(n, "price") &&
				findChild(n, whole) != nil && findChild(n, fraction) != nil
		},
		Extract: func(n *html.Node) (string, bool) {
			wholeText := childText(n, whole)
			fracText := childText(n, fraction)
			if wholeText == "" || fracText == "" {
				return "", false
			}
			return childText(n, symbol) + wholeText + "." + fracText, true
		},
	}
}

func childText(n *html.Node, pred func(*html.Node) bool) string {
	child := findChild(n, pred)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(textContent(child))
}

// findChild returns the first descendant element satisfying pred.
func findChild(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			if pred(c) {
				return c
			}
			if found := findChild(c, pred); found != nil {
				return found
			}
		}
	}
	return nil
}

func classContains(n *html.Node, substr string) bool {
	return strings.Contains(attrVal(n, "class"), substr)
}
