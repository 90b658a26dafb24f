package app

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/reddit-matchbot/internal/config"
	"github.com/nimasrn/reddit-matchbot/internal/matcher"
	"github.com/nimasrn/reddit-matchbot/internal/model"
	"github.com/nimasrn/reddit-matchbot/internal/reddit"
	"github.com/nimasrn/reddit-matchbot/internal/sheets"
	"github.com/nimasrn/reddit-matchbot/pkg/logger"
	"github.com/nimasrn/reddit-matchbot/pkg/prom"
	"github.com/pkg/errors"
)

// Platform is everything the processor needs from the social platform.
type Platform interface {
	matcher.AccountDirectory
	matcher.Messenger
}

// Options maps the configuration and variant onto processor options.
func Options(cfg *config.Config, v Variant) matcher.Options {
	opts := matcher.DefaultOptions()
	opts.FoldHeaders = v.FoldHeaders
	opts.Templates = v.Templates
	opts.MinAccountAgeDays = cfg.MinAccountAgeDays
	opts.MaxDMRetries = cfg.MaxDMRetries
	opts.RetryDelay = cfg.DMRetryDelay
	return opts
}

// NewProcessor assembles the row processor around already connected
// collaborators.
func NewProcessor(cfg *config.Config, v Variant, sheet matcher.Sheet, platform Platform) *matcher.Processor {
	eligibility := matcher.NewEligibilityChecker(platform, cfg.MinAccountAgeDays)
	courier := matcher.NewCourier(platform, cfg.DMSendDelay)
	return matcher.NewProcessor(sheet, eligibility, courier, Options(cfg, v))
}

// Run connects to Reddit and the spreadsheet and processes the sheet once.
// Any error returned is fatal to the run.
func Run(ctx context.Context, cfg *config.Config, v Variant) (*model.RunSummary, error) {
	if err := cfg.Validate(v.CredentialSource); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	runID := uuid.New().String()
	logger.Info("Run starting", "run_id", runID, "variant", v.Name, "env", cfg.AppEnv)
	setupMetrics(cfg)

	summary, err := run(ctx, cfg, v, runID)
	if summary != nil {
		prom.ObserveRunDuration(summary.Duration().Seconds())
		logSummary(summary)
	}
	prom.MarkRunCompleted(err == nil, time.Now())
	pushMetrics(cfg)
	return summary, err
}

func run(ctx context.Context, cfg *config.Config, v Variant, runID string) (*model.RunSummary, error) {
	userAgent := v.UserAgent
	if cfg.RedditUserAgent != "" {
		userAgent = cfg.RedditUserAgent
	}
	client, err := reddit.NewClient(&reddit.Config{
		AuthURL:      cfg.RedditAuthURL,
		APIURL:       cfg.RedditAPIURL,
		ClientID:     cfg.RedditClientID,
		ClientSecret: cfg.RedditClientSecret,
		Username:     cfg.RedditUsername,
		Password:     cfg.RedditPassword,
		UserAgent:    userAgent,
		Timeout:      cfg.HTTPTimeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create reddit client")
	}
	if err := client.Authenticate(ctx); err != nil {
		return nil, errors.Wrap(err, "reddit authentication failed")
	}

	creds, err := cfg.GoogleCredentials(v.CredentialSource)
	if err != nil {
		return nil, err
	}
	ws, err := sheets.Open(ctx, sheets.Config{
		Credentials:   creds,
		SpreadsheetID: cfg.SheetID,
		Title:         cfg.SheetName,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open spreadsheet")
	}

	return NewProcessor(cfg, v, ws, client).Run(ctx, runID)
}

func setupMetrics(cfg *config.Config) {
	if cfg.PromPushgatewayURL == "" {
		return
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err := prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace); err != nil {
		logger.Warn("failed to create prometheus metrics", "error", err)
	}
}

func pushMetrics(cfg *config.Config) {
	if cfg.PromPushgatewayURL == "" {
		return
	}
	if err := prom.Push(cfg.PromPushgatewayURL, cfg.AppName); err != nil {
		logger.Warn("failed to push metrics", "error", err)
	}
}

func logSummary(s *model.RunSummary) {
	values := []any{"run_id", s.RunID, "duration", s.Duration(), "rows", s.Rows, "skipped", s.Skipped}
	for _, status := range model.Statuses {
		if n := s.ByStatus[status]; n > 0 {
			values = append(values, string(status), n)
		}
	}
	logger.Info("Run summary", values...)
}
