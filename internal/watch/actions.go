package watch

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"

	"github.com/workprice/workprice/internal/common"
	"github.com/workprice/workprice/models"
	"github.com/workprice/workprice/pkg/annotate"
	"github.com/workprice/workprice/pkg/convert"
	"github.com/workprice/workprice/pkg/extract"
	"github.com/workprice/workprice/pkg/pattern"
	"github.com/workprice/workprice/pkg/scanner"
)

// FinalOutput is the replay summary printed to stdout.
type FinalOutput struct {
	Status     string `json:"status" yaml:"status"`
	Steps      int    `json:"steps" yaml:"steps"`
	Passes     int    `json:"passes" yaml:"passes"`
	Admitted   int    `json:"admitted" yaml:"admitted"`
	Annotated  int    `json:"annotated" yaml:"annotated"`
	Dropped    int    `json:"dropped" yaml:"dropped"`
	Failures   int    `json:"failures" yaml:"failures"`
	OutputPath string `json:"output_path" yaml:"output_path"`
}

// WatchAction replays a scripted mutation sequence against the incremental
// scanner, standing in for a live mutating page.
func WatchAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	config, err := common.ResolveConfig(c)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	if c.Args().Len() == 0 {
		fmt.Fprintln(os.Stderr, "Error: No script provided")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, `  workprice watch mutations.yaml`)
		fmt.Fprintln(os.Stderr, `  workprice watch mutations.yaml --scan-existing --output annotated.html`)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Need help? Run: workprice watch --help")
		os.Exit(1)
	}

	script, err := LoadScript(c.Args().First())
	if err != nil {
		logger.Error("failed to load mutation script", "error", err)
		os.Exit(2)
	}

	doc, err := html.Parse(strings.NewReader(script.Document))
	if err != nil {
		logger.Error("failed to parse initial document", "error", err)
		os.Exit(2)
	}

	cache := pattern.NewCache()
	extractor := extract.New(config.Format, cache, extract.DefaultHandlers(), logger)
	converter := convert.New(config.Wage, config.Rates)
	annotator := annotate.NewAnnotator(logger)

	callback := func(original string, breakdown models.TimeBreakdown, node *html.Node) {
		logger.Info("Annotated price", "price", original, "work_time", breakdown.String())
		annotator.Annotate(original, breakdown, node)
	}

	options := scanner.Options{
		Debounce:        time.Duration(config.Scanner.Debounce),
		MaxPendingNodes: config.Scanner.MaxPendingNodes,
		ScanExisting:    c.Bool("scan-existing"),
	}
	notifier := scanner.NewManualNotifier()
	sc := scanner.New(notifier, extractor, converter, callback, options, logger)

	if err := sc.Start(doc); err != nil {
		logger.Error("failed to start scanner", "error", err)
		os.Exit(2)
	}

	logger.Info("Replaying mutation script",
		"steps", len(script.Steps),
		"debounce", options.Debounce,
		"scan_existing", options.ScanExisting,
	)
	failedSteps := 0
	for i, step := range script.Steps {
		time.Sleep(time.Duration(step.After))
		// Steps mutate the same tree the scanner's debounce passes walk,
		// so each application is serialized through the scanner.
		var records []scanner.Record
		var applyErr error
		sc.Sync(func() {
			records, applyErr = step.Apply(doc)
		})
		if applyErr != nil {
			logger.Error("Step failed", "step", i+1, "op", step.Op, "error", applyErr)
			failedSteps++
			continue
		}
		logger.Info("Applied step", "step", i+1, "op", step.Op)
		notifier.Emit(records)
	}

	// Let the trailing debounce window fire before stopping.
	settle := 2*options.Debounce + 50*time.Millisecond
	time.Sleep(settle)
	for i := 0; i < 10 && sc.PendingNodes() > 0; i++ {
		time.Sleep(settle)
	}
	sc.Stop()
	stats := sc.Stats()

	// Stop does not interrupt an in-flight pass; render under the same
	// serialization so the output never captures a half-annotated tree.
	outputPath := c.String("output")
	var writeErr error
	sc.Sync(func() {
		writeErr = writeAnnotated(doc, outputPath)
	})
	if writeErr != nil {
		logger.Error("failed to write annotated document", "path", outputPath, "error", writeErr)
		os.Exit(2)
	}

	finalOutput := FinalOutput{
		Steps:      len(script.Steps),
		Passes:     stats.Passes,
		Admitted:   stats.Admitted,
		Annotated:  stats.Annotated,
		Dropped:    stats.Dropped,
		Failures:   stats.Failures,
		OutputPath: outputPath,
	}
	if failedSteps > 0 || stats.Failures > 0 {
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

	if failedSteps == len(script.Steps) && len(script.Steps) > 0 {
		os.Exit(2)
	}
	if failedSteps > 0 {
		os.Exit(1)
	}
	return nil
}

func writeAnnotated(doc *html.Node, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := html.Render(file, doc); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}
	return nil
}
