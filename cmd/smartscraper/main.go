package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/amcodin/SmartScraper/internal/config"
	"github.com/amcodin/SmartScraper/internal/logging"
)

func main() {
	config.Load()
	logging.InitFromEnv()

	if err := newApp().Run(os.Args); err != nil {
		logging.Fatalf("smartscraper: %v", err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "smartscraper",
		Usage: "verify advertised NBN plan prices on provider websites",
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "validate raw model output against the plan extraction schema",
				ArgsUsage: "[file]",
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: "speed", Usage: "target download speed in Mbps", Required: true},
					&cli.BoolFlag{Name: "report", Usage: "include the corrections that were applied"},
					&cli.StringFlag{Name: "url", Usage: "page the output was extracted from, named in errors"},
				},
				Action: validateAction,
			},
			{
				Name:  "verify",
				Usage: "verify a single plan end to end",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Usage: "provider page URL", Required: true},
					&cli.StringFlag{Name: "plan", Usage: "plan name as last recorded", Required: true},
					&cli.Float64Flag{Name: "speed", Usage: "target download speed in Mbps", Required: true},
					&cli.Float64Flag{Name: "upload", Usage: "upload speed in Mbps"},
					&cli.Float64Flag{Name: "price", Usage: "last known monthly price"},
					&cli.StringFlag{Name: "provider", Usage: "provider name"},
					&cli.StringFlag{Name: "html-file", Usage: "use saved HTML instead of fetching the page"},
					&cli.BoolFlag{Name: "no-fetch", Usage: "let the model open the URL itself"},
					&cli.BoolFlag{Name: "no-cache", Usage: "skip the Redis cache"},
					&cli.BoolFlag{Name: "record", Usage: "store the outcome in SQLite"},
				},
				Action: verifyAction,
			},
			{
				Name:  "plans",
				Usage: "manage tracked plans",
				Subcommands: []*cli.Command{
					{
						Name:      "import",
						Usage:     "import plans from a YAML file",
						ArgsUsage: "<plans.yaml>",
						Action:    importPlansAction,
					},
					{
						Name:  "list",
						Usage: "list tracked plans",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "provider", Usage: "only this provider"},
							&cli.BoolFlag{Name: "latest", Usage: "show the latest verification of each plan"},
						},
						Action: listPlansAction,
					},
				},
			},
			{
				Name:  "enqueue",
				Usage: "publish verification requests for tracked plans",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "provider", Usage: "only this provider"},
					&cli.StringFlag{Name: "correlation", Usage: "correlation id for the batch"},
				},
				Action: enqueueAction,
			},
		},
	}
}
