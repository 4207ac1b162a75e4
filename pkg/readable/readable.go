// Package readable wraps go-readability as an optional pre-pass that strips
// navigation, ads and boilerplate before price extraction. Cleaner input
// means fewer false positives from footer phone numbers and tracking params.
package readable

import (
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// Distill extracts the main content of a document. Source is used only to
// resolve relative links; non-URL sources get a file scheme placeholder.
func Distill(source string, rawHTML []byte) ([]byte, error) {
	pageURL, err := url.Parse(source)
	if err != nil || pageURL.Scheme == "" {
		pageURL = &url.URL{Scheme: "file", Path: "/" + source}
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(string(rawHTML)), pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to distill content: %w", err)
	}
	if strings.TrimSpace(article.Content) == "" {
		return nil, fmt.Errorf("distillation produced no content")
	}
	return []byte(article.Content), nil
}
