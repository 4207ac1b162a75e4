// Package annotate applies work-time annotations to document nodes and owns
// the marker that keeps annotated content from being processed again.
package annotate

import (
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"github.com/workprice/workprice/models"
)

// MarkerAttr is the attribute applied to annotated elements. The scanner
// never re-admits an element carrying it unless some external actor removes
// the attribute.
const MarkerAttr = "data-workprice"

// HasMarker reports whether the element itself carries the marker.
func HasMarker(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Key == MarkerAttr {
			return true
		}
	}
	return false
}

// InsideMarked reports whether the node or any of its ancestors carries the
// marker.
func InsideMarked(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if HasMarker(cur) {
			return true
		}
	}
	return false
}

// SetMarker marks an element as annotated. No-op on non-elements and on
// elements already marked.
func SetMarker(el *html.Node) {
	if el == nil || el.Type != html.ElementNode || HasMarker(el) {
		return
	}
	el.Attr = append(el.Attr, html.Attribute{Key: MarkerAttr, Val: "1"})
}

// Annotator is the default annotation callback: it rewrites the matched text
// in place with the time suffix and marks the surrounding element.
type Annotator struct {
	logger *slog.Logger
}

func NewAnnotator(logger *slog.Logger) *Annotator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Annotator{logger: logger}
}

// Annotate appends the breakdown after the original price text. For text
// nodes the node data is rewritten; for elements a text child is appended.
// The marker lands on the nearest element so later mutation batches skip the
// whole annotated region.
func (a *Annotator) Annotate(originalText string, breakdown models.TimeBreakdown, node *html.Node) {
	if node == nil {
		return
	}
	suffix := " (" + breakdown.String() + ")"

	switch node.Type {
	case html.TextNode:
		if strings.Contains(node.Data, originalText) {
			node.Data = strings.Replace(node.Data, originalText, originalText+suffix, 1)
		} else {
			node.Data += suffix
		}
		SetMarker(node.Parent)
	case html.ElementNode:
		node.AppendChild(&html.Node{Type: html.TextNode, Data: suffix})
		SetMarker(node)
	default:
		return
	}

	a.logger.Debug("annotated price",
		"price", originalText,
		"work_time", breakdown.String(),
	)
}
