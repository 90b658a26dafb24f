package matcher

import (
	"sync/atomic"
	"time"

	"github.com/nimasrn/reddit-matchbot/internal/model"
	"github.com/nimasrn/reddit-matchbot/pkg/prom"
)

type RunMetrics struct {
	rows       int64
	skipped    int64
	dmAttempts int64
	dmSent     int64
	byStatus   map[model.Status]*int64
}

func NewRunMetrics() *RunMetrics {
	m := &RunMetrics{
		byStatus: make(map[model.Status]*int64, len(model.Statuses)),
	}
	for _, s := range model.Statuses {
		m.byStatus[s] = new(int64)
	}
	return m
}

func (m *RunMetrics) RecordRow(status model.Status) {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.rows, 1)
	if c, ok := m.byStatus[status]; ok {
		atomic.AddInt64(c, 1)
	}
	prom.IncRow(string(status))
}

func (m *RunMetrics) RecordSkip() {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.rows, 1)
	atomic.AddInt64(&m.skipped, 1)
	prom.IncRow("skipped")
}

func (m *RunMetrics) RecordDM(retry, ok bool, took time.Duration) {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.dmAttempts, 1)
	if ok {
		atomic.AddInt64(&m.dmSent, 1)
	}
	prom.IncDM(retry, ok)
	prom.ObserveDMSend(retry, took.Seconds())
}

// Fill copies the counters into s.
func (m *RunMetrics) Fill(s *model.RunSummary) {
	s.Rows = int(atomic.LoadInt64(&m.rows))
	s.Skipped = int(atomic.LoadInt64(&m.skipped))
	s.DMAttempts = int(atomic.LoadInt64(&m.dmAttempts))
	s.DMSent = int(atomic.LoadInt64(&m.dmSent))
	for status, c := range m.byStatus {
		if n := atomic.LoadInt64(c); n > 0 {
			s.ByStatus[status] = int(n)
		}
	}
}
