package matcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

// memorySheet is an in-memory worksheet. grid[0] is the header.
type memorySheet struct {
	mu   sync.Mutex
	grid [][]string

	headerReads int
	appends     [][]string
	writes      []cellWrite

	failHeader   error
	failRows     error
	failAppend   error
	failCellRead map[int]error // keyed by sheet row
	failWrite    map[int]error // keyed by sheet row
	ignoreAppend bool
}

type cellWrite struct {
	Row, Col int
	Value    string
}

func newMemorySheet(header []string, rows ...[]string) *memorySheet {
	grid := [][]string{append([]string(nil), header...)}
	for _, r := range rows {
		grid = append(grid, append([]string(nil), r...))
	}
	return &memorySheet{grid: grid}
}

func (s *memorySheet) Header(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headerReads++
	if s.failHeader != nil {
		return nil, s.failHeader
	}
	return append([]string(nil), s.grid[0]...), nil
}

func (s *memorySheet) Rows(ctx context.Context) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRows != nil {
		return nil, s.failRows
	}
	rows := make([][]string, 0, len(s.grid)-1)
	for _, r := range s.grid[1:] {
		rows = append(rows, append([]string(nil), r...))
	}
	return rows, nil
}

func (s *memorySheet) Cell(ctx context.Context, row, col int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failCellRead[row]; err != nil {
		return "", err
	}
	if row < 1 || row > len(s.grid) {
		return "", nil
	}
	r := s.grid[row-1]
	if col < 1 || col > len(r) {
		return "", nil
	}
	return r[col-1], nil
}

func (s *memorySheet) UpdateCell(ctx context.Context, row, col int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failWrite[row]; err != nil {
		return err
	}
	if row < 1 || col < 1 {
		return fmt.Errorf("invalid cell %d,%d", row, col)
	}
	for len(s.grid) < row {
		s.grid = append(s.grid, nil)
	}
	for len(s.grid[row-1]) < col {
		s.grid[row-1] = append(s.grid[row-1], "")
	}
	s.grid[row-1][col-1] = value
	s.writes = append(s.writes, cellWrite{Row: row, Col: col, Value: value})
	return nil
}

func (s *memorySheet) AppendColumns(ctx context.Context, startCol int, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAppend != nil {
		return s.failAppend
	}
	s.appends = append(s.appends, append([]string(nil), names...))
	if s.ignoreAppend {
		return nil
	}
	for len(s.grid[0]) < startCol-1 {
		s.grid[0] = append(s.grid[0], "")
	}
	s.grid[0] = append(s.grid[0][:startCol-1], names...)
	return nil
}

// value returns the stored cell at (row, col) or "" when out of range. It
// bypasses the injected read failures.
func (s *memorySheet) value(row, col int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row < 1 || row > len(s.grid) {
		return ""
	}
	r := s.grid[row-1]
	if col < 1 || col > len(r) {
		return ""
	}
	return r[col-1]
}

// ctxSheet fails every call made with a done context, as the Sheets client
// does.
type ctxSheet struct {
	*memorySheet
}

func (s *ctxSheet) Cell(ctx context.Context, row, col int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.memorySheet.Cell(ctx, row, col)
}

func (s *ctxSheet) UpdateCell(ctx context.Context, row, col int, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.memorySheet.UpdateCell(ctx, row, col, value)
}

func (s *memorySheet) writesTo(row int) []cellWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []cellWrite
	for _, w := range s.writes {
		if w.Row == row {
			out = append(out, w)
		}
	}
	return out
}

var errNotFound = errors.New("account not found")

// fakeDirectory returns creation times by account name; unknown names fail.
type fakeDirectory struct {
	created map[string]time.Time
	lookups []string
	err     error
}

func (d *fakeDirectory) AccountCreatedAt(ctx context.Context, name string) (time.Time, error) {
	d.lookups = append(d.lookups, name)
	if d.err != nil {
		return time.Time{}, d.err
	}
	t, ok := d.created[strings.ToLower(name)]
	if !ok {
		return time.Time{}, errNotFound
	}
	return t, nil
}

type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) SendMessage(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

// recordingMessenger records every send and fails the first failures calls.
type recordingMessenger struct {
	sent     []sentMessage
	failures int
	failAll  bool
}

type sentMessage struct {
	To, Subject, Body string
}

func (m *recordingMessenger) SendMessage(ctx context.Context, to, subject, body string) error {
	m.sent = append(m.sent, sentMessage{To: to, Subject: subject, Body: body})
	if m.failAll || len(m.sent) <= m.failures {
		return errors.New("RATELIMIT: you are doing that too much")
	}
	return nil
}

func (m *recordingMessenger) countTo(handle string) int {
	n := 0
	for _, s := range m.sent {
		if s.To == handle {
			n++
		}
	}
	return n
}

// recordingSleep collects requested durations without blocking.
type recordingSleep struct {
	calls []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return ctx.Err()
}
