package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/amcodin/SmartScraper/internal/app"
	"github.com/amcodin/SmartScraper/internal/kafka"
	"github.com/amcodin/SmartScraper/internal/models"
	"github.com/amcodin/SmartScraper/internal/queue"
	"github.com/amcodin/SmartScraper/internal/storage/sqlite"
	"github.com/amcodin/SmartScraper/internal/validator"
	"github.com/amcodin/SmartScraper/internal/verifier"
)

func validateAction(c *cli.Context) error {
	in := io.Reader(os.Stdin)
	if path := c.Args().First(); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read model output: %w", err)
	}

	req := validator.Request{URL: c.String("url"), TargetSpeed: c.Float64("speed")}
	rep, err := req.ValidateReport(string(raw))
	if err != nil {
		return cli.Exit(fmt.Sprintf("%s: %v", req.Source(), err), exitCode(err))
	}
	if c.Bool("report") {
		return printJSON(c.App.Writer, rep)
	}
	return printJSON(c.App.Writer, rep.Result)
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, validator.ErrMalformedOutput):
		return 2
	case errors.Is(err, validator.ErrSchemaViolation):
		return 3
	}
	return 1
}

func verifyAction(c *cli.Context) error {
	ctx := c.Context
	plan := models.Plan{
		Provider:      c.String("provider"),
		URL:           c.String("url"),
		PlanName:      c.String("plan"),
		DownloadSpeed: c.Float64("speed"),
		UploadSpeed:   c.Float64("upload"),
	}
	if c.IsSet("price") {
		p := c.Float64("price")
		plan.Price = &p
	}
	req := verifier.Request{Plan: plan}
	if path := c.String("html-file"); path != "" {
		html, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		req.HTML = string(html)
	}

	opts := app.Options{NoCache: c.Bool("no-cache"), NoFetch: c.Bool("no-fetch")}
	if c.Bool("record") {
		store, err := app.OpenStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		id, err := store.UpsertPlan(ctx, plan)
		if err != nil {
			return err
		}
		stored, err := store.GetPlan(ctx, id)
		if err != nil {
			return err
		}
		if plan.Price == nil {
			plan.Price = stored.Price
		}
		plan.ID = id
		req.Plan = plan
		opts.Store = store
	}

	v, err := app.NewVerifier(ctx, opts)
	if err != nil {
		return err
	}
	defer v.Close()

	out, err := v.Service.Verify(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, out)
}

func importPlansAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("plans import: missing <plans.yaml>", 1)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	plans, err := loadPlans(f)
	if err != nil {
		return err
	}

	store, err := app.OpenStore(c.Context)
	if err != nil {
		return err
	}
	defer store.Close()
	ids, err := store.UpsertPlans(c.Context, plans)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Imported %d plans into %s\n", len(ids), store.Path())
	return nil
}

func listPlansAction(c *cli.Context) error {
	store, err := app.OpenStore(c.Context)
	if err != nil {
		return err
	}
	defer store.Close()

	plans, err := store.ListPlans(c.Context, c.String("provider"))
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		fmt.Fprintln(c.App.Writer, "No plans found")
		return nil
	}

	w := c.App.Writer
	fmt.Fprintf(w, "%-5s %-16s %-24s %-10s %-10s %-20s\n", "ID", "Provider", "Plan", "Speed", "Price", "Updated")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, p := range plans {
		fmt.Fprintf(w, "%-5d %-16s %-24s %-10s %-10s %-20s\n",
			p.ID, truncate(p.Provider, 16), truncate(p.PlanName, 24),
			fmt.Sprintf("%g/%g", p.DownloadSpeed, p.UploadSpeed), formatPrice(p.Price),
			p.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
		if c.Bool("latest") {
			printLatest(c.Context, w, store, p.ID)
		}
	}
	fmt.Fprintf(w, "\nTotal: %d plans\n", len(plans))
	return nil
}

func printLatest(ctx context.Context, w io.Writer, store *sqlite.Store, id int64) {
	v, err := store.LatestVerification(ctx, id)
	if errors.Is(err, sqlite.ErrNotFound) {
		fmt.Fprintln(w, "      never verified")
		return
	}
	if err != nil {
		fmt.Fprintf(w, "      error: %v\n", err)
		return
	}
	status := "verified"
	if !v.Verified {
		status = "unverified"
		if v.ErrorType != "" {
			status += " (" + v.ErrorType + ")"
		}
	}
	fmt.Fprintf(w, "      %s %s confidence=%.2f price=%s\n",
		v.VerificationDate.Local().Format("2006-01-02 15:04"), status, v.ConfidenceScore, formatPrice(v.CurrentPrice))
}

func enqueueAction(c *cli.Context) error {
	ctx := c.Context
	store, err := app.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	plans, err := store.ListPlans(ctx, c.String("provider"))
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		fmt.Fprintln(c.App.Writer, "No plans to enqueue")
		return nil
	}

	brokers := kafka.Brokers()
	topics := kafka.TopicsFromEnv()
	topic := topics.Requests
	if err := kafka.Connect(ctx, brokers, 30*time.Second, topics.Partitions, topic); err != nil {
		return err
	}
	writer := kafka.NewWriter(brokers, topic)
	defer writer.Close()

	reqs := queue.NewRequests(plans, c.String("correlation"), time.Now())
	if err := queue.PublishRequests(ctx, writer, reqs); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Enqueued %d plans on %s (correlation %s)\n", len(reqs), topic, reqs[0].CorrelationID)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("$%.2f", *p)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
