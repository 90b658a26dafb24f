package matcher

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/nimasrn/reddit-matchbot/internal/model"
	"github.com/nimasrn/reddit-matchbot/pkg/logger"
)

const DefaultMaxDMRetries = 3

// DefaultAcceptedPreferences are the sign-up form answers that consent to a DM.
var DefaultAcceptedPreferences = []string{
	"Yes, I want to receive a DM with my match's username, code, and the scientific reason why we were paired.",
	"Maybe, but only if my match is cool.",
}

type Options struct {
	Columns             model.ColumnSpec
	FoldHeaders         bool
	AcceptedPreferences []string
	MinAccountAgeDays   int
	MaxDMRetries        int
	RetryDelay          time.Duration
	Templates           Templates
}

func DefaultOptions() Options {
	return Options{
		Columns:             model.DefaultColumnSpec(),
		AcceptedPreferences: DefaultAcceptedPreferences,
		MinAccountAgeDays:   DefaultMinAccountAgeDays,
		MaxDMRetries:        DefaultMaxDMRetries,
		RetryDelay:          DefaultRetryDelay,
		Templates:           ScheduledTemplates(),
	}
}

// Processor walks the sheet top to bottom and moves every row that is not
// already settled to a final status.
type Processor struct {
	sheet       Sheet
	eligibility *EligibilityChecker
	courier     *Courier
	opts        Options
	metrics     *RunMetrics

	now   func() time.Time
	pick  Picker
	sleep SleepFunc
}

func NewProcessor(sheet Sheet, eligibility *EligibilityChecker, courier *Courier, opts Options) *Processor {
	if opts.MaxDMRetries < 1 {
		opts.MaxDMRetries = 1
	}
	return &Processor{
		sheet:       sheet,
		eligibility: eligibility,
		courier:     courier,
		opts:        opts,
		now:         time.Now,
		pick:        rand.Intn,
		sleep:       sleepContext,
	}
}

// Run resolves the columns and processes every row. Errors returned from Run
// are run-level: no row has been touched when column setup or the initial
// read fails. A failing row is marked Error and the run moves on.
func (p *Processor) Run(ctx context.Context, runID string) (*model.RunSummary, error) {
	summary := model.NewRunSummary(runID, p.now())
	p.metrics = NewRunMetrics()
	p.courier.metrics = p.metrics
	logger.Info("Starting processing", "run_id", runID, "at", summary.StartedAt)

	cols, err := ResolveColumns(ctx, p.sheet, p.opts.Columns, p.opts.FoldHeaders)
	if err != nil {
		return nil, fmt.Errorf("sheet setup failed: %w", err)
	}

	rows, err := p.sheet.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	// Row writes must land even after cancellation, otherwise a delivered DM
	// goes unrecorded and is sent again on the next run.
	store := context.WithoutCancel(ctx)

	for i, values := range rows {
		if ctx.Err() != nil {
			break
		}

		participant := model.Participant{
			Index:        i + 1,
			Handle:       strings.TrimSpace(cellAt(values, cols[model.ColumnUsername])),
			DMPreference: strings.TrimSpace(cellAt(values, cols[model.ColumnDMPref])),
			Status:       model.Status(strings.TrimSpace(cellAt(values, cols[model.ColumnStatus]))),
		}

		status, skipped, err := p.processRow(ctx, store, cols, &participant)
		switch {
		case err != nil:
			logger.Error("Error processing row", "row", participant.SheetRow(), "handle", participant.Handle, "error", err)
			if uerr := p.sheet.UpdateCell(store, participant.SheetRow(), cols[model.ColumnStatus], string(model.StatusError)); uerr != nil {
				logger.Error("Failed to mark row as error", "row", participant.SheetRow(), "error", uerr)
			}
			p.metrics.RecordRow(model.StatusError)
		case skipped:
			logger.Debug("Skipping settled row", "row", participant.SheetRow(), "status", status)
			p.metrics.RecordSkip()
		default:
			logger.Info("Row processed", "row", participant.SheetRow(), "handle", participant.Handle, "status", status)
			p.metrics.RecordRow(status)
		}
	}

	if err := ctx.Err(); err != nil {
		summary = p.finish(summary)
		logger.Warn("Run interrupted", "run_id", runID, "rows", summary.Rows, "of", len(rows), "error", err)
		return summary, err
	}

	summary = p.finish(summary)
	logger.Info("Completed processing",
		"run_id", runID,
		"at", summary.FinishedAt,
		"rows", summary.Rows,
		"skipped", summary.Skipped,
		"dm_attempts", summary.DMAttempts,
		"dm_sent", summary.DMSent)
	return summary, nil
}

func (p *Processor) finish(summary *model.RunSummary) *model.RunSummary {
	summary.FinishedAt = p.now()
	p.metrics.Fill(summary)
	return summary
}

// processRow applies the row state machine. The first matching rule decides
// the status. Platform calls use ctx; sheet access uses store, which is never
// cancelled.
func (p *Processor) processRow(ctx, store context.Context, cols model.ColumnMap, participant *model.Participant) (status model.Status, skipped bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if participant.Status.Skippable() {
		return participant.Status, true, nil
	}

	if !p.acceptsDM(participant.DMPreference) {
		return p.settle(store, cols, participant, model.StatusOptedOut)
	}

	if !participant.HasHandlePrefix() {
		return p.settle(store, cols, participant, model.StatusInvalidFormat)
	}

	if !p.eligibility.IsEligible(ctx, participant.Handle) {
		// A lookup cut short by cancellation says nothing about the account.
		if err := ctx.Err(); err != nil {
			return "", false, fmt.Errorf("eligibility check interrupted: %w", err)
		}
		rejection := p.opts.Templates.Rejection(p.opts.MinAccountAgeDays, p.pick)
		p.courier.Send(ctx, participant.Handle, rejection, false)
		return p.settle(store, cols, participant, model.StatusRejected)
	}

	code, err := p.ensureCode(store, cols, participant)
	if err != nil {
		return "", false, err
	}

	message := p.opts.Templates.Acceptance(code, p.pick)
	if p.deliver(ctx, participant.Handle, message) {
		participant.DMStatus = model.DeliverySent
		status = model.StatusProcessed
	} else {
		participant.DMStatus = model.DeliveryFailed
		status = model.StatusFailed
	}

	if _, _, err := p.settle(store, cols, participant, status); err != nil {
		return "", false, err
	}
	if err := p.sheet.UpdateCell(store, participant.SheetRow(), cols[model.ColumnDMStatus], string(participant.DMStatus)); err != nil {
		return "", false, fmt.Errorf("failed to write dm status: %w", err)
	}
	return status, false, nil
}

// ensureCode returns the code already stored for the row, or generates and
// stores a new one when the cell is empty.
func (p *Processor) ensureCode(ctx context.Context, cols model.ColumnMap, participant *model.Participant) (string, error) {
	row := participant.SheetRow()
	existing, err := p.sheet.Cell(ctx, row, cols[model.ColumnCode])
	if err != nil {
		return "", fmt.Errorf("failed to read code: %w", err)
	}
	if code := strings.TrimSpace(existing); code != "" {
		participant.Code = code
		return code, nil
	}

	code := GenerateCode(participant.Handle, p.now())
	if err := p.sheet.UpdateCell(ctx, row, cols[model.ColumnCode], code); err != nil {
		return "", fmt.Errorf("failed to write code: %w", err)
	}
	participant.Code = code
	return code, nil
}

// deliver makes up to MaxDMRetries attempts, waiting RetryDelay between
// them, and stops at the first success.
func (p *Processor) deliver(ctx context.Context, handle, message string) bool {
	for attempt := 0; attempt < p.opts.MaxDMRetries; attempt++ {
		if attempt > 0 {
			logger.Warn("Retrying DM", "handle", handle, "attempt", attempt+1, "delay", p.opts.RetryDelay)
			if err := p.sleep(ctx, p.opts.RetryDelay); err != nil {
				return false
			}
		}
		if p.courier.Send(ctx, handle, message, attempt > 0) {
			return true
		}
	}
	return false
}

func (p *Processor) settle(ctx context.Context, cols model.ColumnMap, participant *model.Participant, status model.Status) (model.Status, bool, error) {
	if err := p.sheet.UpdateCell(ctx, participant.SheetRow(), cols[model.ColumnStatus], string(status)); err != nil {
		return "", false, fmt.Errorf("failed to write status %q: %w", status, err)
	}
	participant.Status = status
	return status, false, nil
}

func (p *Processor) acceptsDM(preference string) bool {
	for _, accepted := range p.opts.AcceptedPreferences {
		if preference == accepted {
			return true
		}
	}
	return false
}

func cellAt(values []string, col int) string {
	if col < 1 || col > len(values) {
		return ""
	}
	return values[col-1]
}
