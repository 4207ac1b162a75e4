package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/workprice/workprice/internal/scan"
	"github.com/workprice/workprice/internal/watch"
)

// configFlags are shared by every command: config file location plus
// per-field overrides for wage and currency format.
func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Value: "workprice.yaml", Usage: "path to YAML config file"},
		&cli.StringFlag{Name: "wage", Usage: "wage amount, overrides config (e.g. 28.50)"},
		&cli.StringFlag{Name: "wage-currency", Usage: "wage currency code, overrides config (e.g. USD)"},
		&cli.StringFlag{Name: "wage-period", Usage: "wage period: hourly or yearly"},
		&cli.StringFlag{Name: "symbol", Usage: "currency symbol to match (e.g. $)"},
		&cli.StringFlag{Name: "code", Usage: "currency ISO code to match (e.g. USD)"},
		&cli.StringFlag{Name: "thousands", Usage: "thousands separator: commas, dots, spaces, apostrophes, none"},
		&cli.StringFlag{Name: "decimal", Usage: "decimal separator: dots or commas"},
		&cli.StringFlag{Name: "format", Value: "json", Usage: "report format: json or yaml"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
		&cli.BoolFlag{Name: "verbose", Usage: "log debug details"},
	}
}

func main() {
	app := &cli.App{
		Name:  "workprice",
		Usage: "Annotate prices in HTML with the work time they cost at your wage",
		Commands: []*cli.Command{
			{
				Name:      "scan",
				Usage:     "One-shot scan of HTML files or URLs",
				ArgsUsage: "<file|url> [<file|url>...]",
				Flags: append(configFlags(),
					&cli.IntFlag{Name: "workers", Value: 4, Usage: "concurrent documents"},
					&cli.StringFlag{Name: "output-dir", Value: "annotated", Usage: "directory for annotated HTML"},
					&cli.BoolFlag{Name: "readability", Usage: "distill main content before scanning"},
					&cli.BoolFlag{Name: "auto-locale", Usage: "detect document language and pick format defaults"},
				),
				Action: scan.ScanAction,
			},
			{
				Name:      "watch",
				Usage:     "Replay a scripted mutation sequence through the incremental scanner",
				ArgsUsage: "<script.yaml>",
				Flags: append(configFlags(),
					&cli.StringFlag{Name: "output", Value: "annotated.html", Usage: "path for the final annotated document"},
					&cli.BoolFlag{Name: "scan-existing", Usage: "annotate content present before the first mutation"},
				),
				Action: watch.WatchAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
