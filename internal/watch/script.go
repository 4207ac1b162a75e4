package watch

import (
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"gopkg.in/yaml.v3"

	"github.com/workprice/workprice/models"
	"github.com/workprice/workprice/pkg/scanner"
)

// Step op names.
const (
	OpAppend  = "append"
	OpSetText = "set_text"
)

// Step is one scripted mutation. After is the delay before the step fires,
// relative to the previous step.
type Step struct {
	After  models.Duration `yaml:"after"`
	Op     string          `yaml:"op"`
	Parent string          `yaml:"parent,omitempty"`
	Target string          `yaml:"target,omitempty"`
	HTML   string          `yaml:"html,omitempty"`
	Text   string          `yaml:"text,omitempty"`
}

// Script is a replayable mutation sequence: an initial document plus timed
// steps that append fragments or rewrite text, standing in for a live page.
type Script struct {
	Document string `yaml:"document"`
	Steps    []Step `yaml:"steps"`
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	script := &Script{}
	if err := yaml.Unmarshal(data, script); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if err := script.Validate(); err != nil {
		return nil, err
	}
	return script, nil
}

func (s *Script) Validate() error {
	if strings.TrimSpace(s.Document) == "" {
		return fmt.Errorf("script has no initial document")
	}
	for i, step := range s.Steps {
		switch step.Op {
		case OpAppend:
			if step.Parent == "" {
				return fmt.Errorf("step %d: append needs a parent selector", i+1)
			}
			if strings.TrimSpace(step.HTML) == "" {
				return fmt.Errorf("step %d: append needs an html fragment", i+1)
			}
		case OpSetText:
			if step.Target == "" {
				return fmt.Errorf("step %d: set_text needs a target selector", i+1)
			}
		default:
			return fmt.Errorf("step %d: unknown op %q", i+1, step.Op)
		}
	}
	return nil
}

// Apply mutates the document and returns the change records an observer of
// the tree would have seen for this step.
func (s *Step) Apply(doc *html.Node) ([]scanner.Record, error) {
	switch s.Op {
	case OpAppend:
		return s.applyAppend(doc)
	case OpSetText:
		return s.applySetText(doc)
	}
	return nil, fmt.Errorf("unknown op %q", s.Op)
}

func (s *Step) applyAppend(doc *html.Node) ([]scanner.Record, error) {
	parent, err := selectOne(doc, s.Parent)
	if err != nil {
		return nil, err
	}

	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	fragments, err := html.ParseFragment(strings.NewReader(s.HTML), context)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}
	if len(fragments) == 0 {
		return nil, fmt.Errorf("fragment %q parsed to nothing", s.HTML)
	}

	added := make([]*html.Node, 0, len(fragments))
	for _, fragment := range fragments {
		parent.AppendChild(fragment)
		added = append(added, fragment)
	}
	return []scanner.Record{{Type: scanner.RecordNodeAdded, Added: added}}, nil
}

func (s *Step) applySetText(doc *html.Node) ([]scanner.Record, error) {
	target, err := selectOne(doc, s.Target)
	if err != nil {
		return nil, err
	}

	// Rewrite the element's first text child, creating one if needed.
	var text *html.Node
	for c := target.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			text = c
			break
		}
	}
	if text == nil {
		text = &html.Node{Type: html.TextNode}
		target.AppendChild(text)
	}
	text.Data = s.Text
	return []scanner.Record{{Type: scanner.RecordTextChanged, Target: text}}, nil
}

// selectOne resolves a CSS selector to exactly the first matching element.
func selectOne(doc *html.Node, selector string) (*html.Node, error) {
	selection := goquery.NewDocumentFromNode(doc).Find(selector)
	if len(selection.Nodes) == 0 {
		return nil, fmt.Errorf("selector %q matched nothing", selector)
	}
	return selection.Nodes[0], nil
}
