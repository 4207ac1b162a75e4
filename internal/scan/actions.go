package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"

	"github.com/workprice/workprice/internal/common"
	"github.com/workprice/workprice/models"
	"github.com/workprice/workprice/pkg/annotate"
	"github.com/workprice/workprice/pkg/convert"
	"github.com/workprice/workprice/pkg/extract"
	"github.com/workprice/workprice/pkg/fetcher"
	"github.com/workprice/workprice/pkg/locale"
	"github.com/workprice/workprice/pkg/pattern"
	"github.com/workprice/workprice/pkg/readable"
)

// Options collects the scan tunables resolved from CLI flags.
type Options struct {
	Workers     int
	OutputDir   string
	Readability bool
	AutoLocale  bool
}

// pipeline bundles the shared dependencies workers need per job.
type pipeline struct {
	logger    *slog.Logger
	config    *models.Config
	cache     *pattern.Cache
	converter *convert.Converter
	annotator *annotate.Annotator
	fetcher   *fetcher.Fetcher
	options   Options
}

func ScanAction(c *cli.Context) error {
	logger := common.NewLogger(c)
	startTime := time.Now()

	config, err := common.ResolveConfig(c)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	sources := c.Args().Slice()
	if len(sources) == 0 {
		fmt.Fprintln(os.Stderr, "Error: No inputs provided")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, `  workprice scan page.html`)
		fmt.Fprintln(os.Stderr, `  workprice scan https://example.com/product --wage 30`)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Need help? Run: workprice scan --help")
		os.Exit(1)
	}

	options := Options{
		Workers:     c.Int("workers"),
		OutputDir:   c.String("output-dir"),
		Readability: c.Bool("readability"),
		AutoLocale:  c.Bool("auto-locale"),
	}
	if options.Workers <= 0 {
		options.Workers = 4
	}
	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		logger.Error("failed to create output directory", "dir", options.OutputDir, "error", err)
		os.Exit(2)
	}

	allResults := run(logger, config, sources, options)

	stats := Stats{
		TotalDocuments:   len(sources),
		TotalTimeSeconds: time.Since(startTime).Seconds(),
	}
	total := models.TimeBreakdown{}
	documents := make([]DocumentReport, 0, len(allResults))
	for _, result := range allResults {
		documents = append(documents, BuildDocumentReport(result))
		if result.Error != nil {
			stats.Failed++
			continue
		}
		stats.Successful++
		stats.PricesFound += len(result.Prices)
		total = total.Add(result.Total)
	}
	stats.TotalWorkTime = total.String()

	finalOutput := FinalOutput{Documents: documents, Stats: stats}
	if stats.Failed > 0 {
		finalOutput.Status = "partial_failure"
	} else {
		finalOutput.Status = "success"
	}

	var outputData []byte
	var marshalErr error
	if strings.ToLower(c.String("format")) == "yaml" {
		outputData, marshalErr = yaml.Marshal(finalOutput)
	} else {
		outputData, marshalErr = json.MarshalIndent(finalOutput, "", "  ")
	}
	if marshalErr != nil {
		logger.Error("failed to marshal final output", "error", marshalErr)
		os.Exit(2)
	}
	fmt.Println(string(outputData))

	if stats.Failed == stats.TotalDocuments {
		os.Exit(2)
	}
	if stats.Failed > 0 {
		os.Exit(1)
	}
	return nil
}

func run(logger *slog.Logger, config *models.Config, sources []string, options Options) []Result {
	p := &pipeline{
		logger:    logger,
		config:    config,
		cache:     pattern.NewCache(),
		converter: convert.New(config.Wage, config.Rates),
		annotator: annotate.NewAnnotator(logger),
		fetcher:   fetcher.New(0),
		options:   options,
	}

	logger.Info("Starting concurrent scan phase",
		"document_count", len(sources),
		"workers", options.Workers,
		"readability", options.Readability,
		"auto_locale", options.AutoLocale,
	)
	var wg sync.WaitGroup
	jobs := make(chan Job, len(sources))
	results := make(chan Result, len(sources))

	for w := 1; w <= options.Workers; w++ {
		wg.Add(1)
		go worker(w, p, &wg, jobs, results)
	}

	for _, source := range sources {
		jobs <- Job{Source: source}
	}
	close(jobs)

	wg.Wait()
	close(results)
	logger.Info("All scan workers finished")

	allResults := make([]Result, 0, len(sources))
	for result := range results {
		allResults = append(allResults, result)
	}
	return allResults
}

func worker(id int, p *pipeline, wg *sync.WaitGroup, jobs <-chan Job, results chan<- Result) {
	defer wg.Done()
	for job := range jobs {
		p.logger.Info("Worker started job", "worker_id", id, "source", job.Source)
		results <- p.process(id, job)
		p.logger.Info("Worker finished job", "worker_id", id, "source", job.Source)
	}
}

// process runs the full pipeline for one document: load, optional content
// distillation, optional locale detection, extraction, conversion, annotation
// and rendering of the annotated HTML.
func (p *pipeline) process(id int, job Job) Result {
	result := Result{Source: job.Source}

	rawHTML, err := p.load(job.Source)
	if err != nil {
		p.logger.Error("Error loading document", "worker_id", id, "source", job.Source, "error", err)
		result.Error = err
		result.ErrorType = "load_error"
		return result
	}

	if p.options.Readability {
		distilled, distillErr := readable.Distill(job.Source, rawHTML)
		if distillErr != nil {
			p.logger.Warn("Content distillation failed, scanning full document",
				"worker_id", id, "source", job.Source, "error", distillErr)
		} else {
			rawHTML = distilled
		}
	}

	doc, err := html.Parse(bytes.NewReader(rawHTML))
	if err != nil {
		p.logger.Error("Error parsing HTML", "worker_id", id, "source", job.Source, "error", err)
		result.Error = fmt.Errorf("failed to parse HTML: %w", err)
		result.ErrorType = "parse_error"
		return result
	}

	format := p.config.Format
	if p.options.AutoLocale {
		if detected, language, ok := locale.DetectFormat(documentText(doc)); ok {
			p.logger.Info("Detected document language",
				"worker_id", id, "source", job.Source, "language", language)
			format = detected
			result.Language = language
		}
	}

	extractor := extract.New(format, p.cache, extract.DefaultHandlers(), p.logger)
	total := models.TimeBreakdown{}
	extractor.Walk(doc, annotate.HasMarker, func(token *models.PriceToken) {
		breakdown, convErr := p.converter.Convert(token.Value, token.CurrencyUnit)
		if convErr != nil {
			p.logger.Debug("Skipping unconvertible price",
				"worker_id", id, "source", job.Source, "price", token.RawText, "error", convErr)
			return
		}
		p.annotator.Annotate(token.RawText, breakdown, token.SourceNode)
		result.Prices = append(result.Prices, PriceEntry{
			Raw:      token.RawText,
			Amount:   token.Value.String(),
			Currency: token.CurrencyUnit,
			Strategy: token.StrategyUsed,
			WorkTime: breakdown.String(),
		})
		total = total.Add(breakdown)
	})
	result.Total = total

	var rendered bytes.Buffer
	if err := html.Render(&rendered, doc); err != nil {
		result.Error = fmt.Errorf("failed to render annotated HTML: %w", err)
		result.ErrorType = "render_error"
		return result
	}

	outputPath := savePath(p.options.OutputDir, job.Source)
	if err := os.WriteFile(outputPath, rendered.Bytes(), 0644); err != nil {
		p.logger.Error("Error saving file", "worker_id", id, "path", outputPath, "error", err)
		result.Error = err
		result.ErrorType = "save_error"
		return result
	}
	result.OutputPath = outputPath
	result.FileSizeBytes = int64(rendered.Len())
	return result
}

// load reads a document from disk or fetches it over HTTP.
func (p *pipeline) load(source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.fetcher.Get(context.Background(), source)
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// documentText flattens a parsed document to plain text for language
// detection, skipping non-content elements.
func documentText(doc *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String()
}

// savePath generates a filesystem-friendly output path from a source.
func savePath(outputDir, source string) string {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		parsedURL, err := url.Parse(source)
		if err == nil {
			host := strings.ReplaceAll(parsedURL.Host, ".", "_")
			path := strings.Trim(parsedURL.Path, "/")
			path = strings.ReplaceAll(path, "/", "-")
			path = strings.ReplaceAll(path, ".", "_")
			base := host
			if path != "" {
				base = fmt.Sprintf("%s-%s", host, path)
			}
			return filepath.Join(outputDir, base+".html")
		}
	}
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(outputDir, base+".annotated.html")
}
