package model

import "time"

// RunSummary is what a single pass over the sheet did.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Rows       int
	Skipped    int
	ByStatus   map[Status]int
	DMAttempts int
	DMSent     int
}

func NewRunSummary(runID string, startedAt time.Time) *RunSummary {
	return &RunSummary{
		RunID:     runID,
		StartedAt: startedAt,
		ByStatus:  make(map[Status]int, len(Statuses)),
	}
}

func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
