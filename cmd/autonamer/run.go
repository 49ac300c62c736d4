package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kirillkom/ad-autonamer/internal/bootstrap"
	"github.com/kirillkom/ad-autonamer/internal/config"
	"github.com/kirillkom/ad-autonamer/internal/core/domain"
	"github.com/kirillkom/ad-autonamer/internal/core/export"
	"github.com/kirillkom/ad-autonamer/internal/core/namer"
	"github.com/kirillkom/ad-autonamer/internal/core/ports"
	"github.com/kirillkom/ad-autonamer/internal/infrastructure/manifest"
	"github.com/kirillkom/ad-autonamer/internal/infrastructure/queue/nats"
	"github.com/kirillkom/ad-autonamer/internal/infrastructure/tabular"
	"github.com/kirillkom/ad-autonamer/internal/observability/logging"
)

type options struct {
	manifest      string
	start         int
	campaign      string
	date          string
	monthCampaign bool
	format        string
	out           string
	rules         string
	publish       bool
	sessionID     string

	set map[string]bool
}

func parseOptions(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("autonamer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.manifest, "manifest", "", "Path to the analyzed asset manifest (YAML or JSON)")
	fs.IntVar(&opts.start, "start", 1, "Ad number given to the first group")
	fs.StringVar(&opts.campaign, "campaign", "", "Campaign name applied to every group")
	fs.StringVar(&opts.date, "date", "", "Date token applied to every group")
	fs.BoolVar(&opts.monthCampaign, "month-campaign", false, "Use the current month token when campaign is empty")
	fs.StringVar(&opts.format, "format", "csv", "Output format: csv, xlsx or json")
	fs.StringVar(&opts.out, "out", "-", "Output file, - for stdout")
	fs.StringVar(&opts.rules, "rules", "", "Inference rules YAML (overrides INFERENCE_RULES_FILE)")
	fs.BoolVar(&opts.publish, "publish", false, "Send the batch to the grouping workers over NATS instead of grouping locally")
	fs.StringVar(&opts.sessionID, "session", "", "Session id to use with -publish")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.manifest == "" {
		return options{}, errors.New("-manifest is required")
	}
	if opts.start < 0 {
		return options{}, errors.New("-start must not be negative")
	}
	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		return err
	}

	cfg := config.Load()
	if opts.rules != "" {
		cfg.RulesFile = opts.rules
	}
	logger := logging.New(stderr, "autonamer-cli", cfg.LogLevel)

	doc, err := loadManifest(ctx, opts.manifest)
	if err != nil {
		return err
	}
	runOpts := doc.Options()
	if opts.set["start"] || runOpts.StartNumber == 0 {
		runOpts.StartNumber = opts.start
	}
	if opts.set["campaign"] {
		runOpts.Campaign = opts.campaign
	}
	if opts.set["date"] {
		runOpts.Date = opts.date
	}
	runOpts.MonthCampaign = opts.monthCampaign || cfg.MonthCampaign

	if opts.publish {
		return publishBatch(ctx, cfg, logger, domain.AnalysisRequest{
			SessionID:     opts.sessionID,
			Assets:        doc.Assets,
			StartNumber:   runOpts.StartNumber,
			Campaign:      runOpts.Campaign,
			Date:          runOpts.Date,
			MonthCampaign: runOpts.MonthCampaign,
			RequestedAt:   time.Now().UTC(),
		})
	}

	engine, err := bootstrap.NewEngine(cfg)
	if err != nil {
		return err
	}
	snapshot := engine.Grouper.Group(doc.Assets, runOpts)

	enc, err := encoderFor(opts.format)
	if err != nil {
		return err
	}
	rows := export.Rows(snapshot, engine.Model)
	duplicates := namer.Duplicates(snapshot)

	if err := writeOutput(opts.out, stdout, func(w io.Writer) error {
		return enc.Encode(w, rows, duplicates)
	}); err != nil {
		return err
	}

	logger.Info("grouping_completed",
		"assets", len(doc.Assets),
		"groups", len(snapshot.Groups),
		"ungrouped", len(snapshot.Ungrouped),
		"format", enc.Format(),
		"out", opts.out,
	)
	if len(duplicates) > 0 {
		logger.Warn("duplicate_filenames", "count", len(duplicates), "names", strings.Join(duplicates, ", "))
	}
	return nil
}

func loadManifest(ctx context.Context, path string) (manifest.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return manifest.Document{}, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	return manifest.NewLoader().LoadDocument(ctx, f)
}

func encoderFor(format string) (ports.ExportEncoder, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv", "":
		return tabular.NewCSVEncoder(), nil
	case "xlsx":
		return tabular.NewXLSXEncoder(), nil
	case "json":
		return tabular.NewJSONEncoder(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// writeOutput writes to stdout for "-" and otherwise to a temp file renamed
// into place, so a failed encode never leaves a truncated sheet behind.
func writeOutput(path string, stdout io.Writer, encode func(io.Writer) error) error {
	if path == "-" || path == "" {
		return encode(stdout)
	}
	tmp, err := os.CreateTemp(dirOf(path), ".autonamer-*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := encode(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("move output into place: %w", err)
	}
	return nil
}

func dirOf(path string) string {
	if idx := strings.LastIndexAny(path, `/\`); idx >= 0 {
		return path[:idx+1]
	}
	return "."
}

func publishBatch(ctx context.Context, cfg config.Config, logger *slog.Logger, req domain.AnalysisRequest) error {
	queue, err := nats.New(cfg.NATSURL, nats.Subjects{
		Analysis: cfg.NATSAnalysisSubject,
		Updates:  cfg.NATSUpdatesSubject,
	})
	if err != nil {
		return fmt.Errorf("connect queue: %w", err)
	}
	defer queue.Close()

	if err := queue.PublishAnalysisRequested(ctx, req); err != nil {
		return fmt.Errorf("publish batch: %w", err)
	}
	logger.Info("batch_published",
		"subject", cfg.NATSAnalysisSubject,
		"session_id", req.SessionID,
		"assets", len(req.Assets),
	)
	return nil
}
