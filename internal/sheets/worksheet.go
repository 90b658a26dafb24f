package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nimasrn/reddit-matchbot/pkg/logger"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var (
	ErrSpreadsheetNotFound = errors.New("spreadsheet not found")
	ErrNoWorksheet         = errors.New("spreadsheet has no worksheets")
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

type Config struct {
	// Credentials is the service account key JSON.
	Credentials []byte
	// SpreadsheetID opens the spreadsheet directly; otherwise it is looked
	// up by Title through Drive.
	SpreadsheetID string
	Title         string
}

// Worksheet is the first tab of a spreadsheet.
type Worksheet struct {
	svc           *sheets.Service
	spreadsheetID string
	title         string
	sheetID       int64
	columnCount   int64
}

// Open connects to the spreadsheet described by cfg. Extra options are
// applied after the credentials.
func Open(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Worksheet, error) {
	if len(cfg.Credentials) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, cfg.Credentials, sheets.SpreadsheetsScope, drive.DriveReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
		}
		opts = append([]option.ClientOption{option.WithCredentials(creds)}, opts...)
	}

	id := cfg.SpreadsheetID
	if id == "" {
		driveSvc, err := drive.NewService(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create drive client: %w", err)
		}
		id, err = FindSpreadsheet(ctx, driveSvc, cfg.Title)
		if err != nil {
			return nil, err
		}
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return openWorksheet(ctx, svc, id)
}

// FindSpreadsheet returns the id of the first spreadsheet named title that
// the service account can see.
func FindSpreadsheet(ctx context.Context, svc *drive.Service, title string) (string, error) {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(title)
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escaped, spreadsheetMimeType)

	list, err := svc.Files.List().Q(q).Fields("files(id, name)").PageSize(10).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to search spreadsheet %q: %w", title, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("%w: %q", ErrSpreadsheetNotFound, title)
	}
	if len(list.Files) > 1 {
		logger.Warn("Several spreadsheets share the title, using the first", "title", title, "count", len(list.Files))
	}
	return list.Files[0].Id, nil
}

func openWorksheet(ctx context.Context, svc *sheets.Service, spreadsheetID string) (*Worksheet, error) {
	ss, err := svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet %s: %w", spreadsheetID, err)
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return nil, ErrNoWorksheet
	}

	props := ss.Sheets[0].Properties
	w := &Worksheet{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		title:         props.Title,
		sheetID:       props.SheetId,
	}
	if props.GridProperties != nil {
		w.columnCount = props.GridProperties.ColumnCount
	}

	logger.Info("Worksheet opened", "spreadsheet_id", spreadsheetID, "worksheet", w.title, "columns", w.columnCount)
	return w, nil
}

func (w *Worksheet) Title() string {
	return w.title
}

func (w *Worksheet) Header(ctx context.Context) ([]string, error) {
	rows, err := w.values(ctx, rowRange(w.title, 1))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (w *Worksheet) Rows(ctx context.Context) ([][]string, error) {
	rows, err := w.values(ctx, quoteTitle(w.title))
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

func (w *Worksheet) Cell(ctx context.Context, row, col int) (string, error) {
	rows, err := w.values(ctx, cellRange(w.title, row, col))
	if err != nil {
		return "", err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return "", nil
	}
	return rows[0][0], nil
}

// UpdateCell writes value as-is. RAW input keeps codes such as "12E45678"
// from being parsed as numbers.
func (w *Worksheet) UpdateCell(ctx context.Context, row, col int, value string) error {
	rng := cellRange(w.title, row, col)
	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err := w.svc.Spreadsheets.Values.Update(w.spreadsheetID, rng, vr).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", rng, err)
	}
	return nil
}

// AppendColumns grows the grid when needed and writes names into the header
// row from startCol on.
func (w *Worksheet) AppendColumns(ctx context.Context, startCol int, names []string) error {
	if len(names) == 0 {
		return nil
	}

	lastCol := int64(startCol + len(names) - 1)
	if lastCol > w.columnCount {
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AppendDimension: &sheets.AppendDimensionRequest{
					SheetId:   w.sheetID,
					Dimension: "COLUMNS",
					Length:    lastCol - w.columnCount,
				},
			}},
		}
		if _, err := w.svc.Spreadsheets.BatchUpdate(w.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to add %d columns: %w", lastCol-w.columnCount, err)
		}
		w.columnCount = lastCol
	}

	header := make([]interface{}, len(names))
	for i, n := range names {
		header[i] = n
	}
	rng := rowSpanRange(w.title, 1, startCol, int(lastCol))
	vr := &sheets.ValueRange{Values: [][]interface{}{header}}
	_, err := w.svc.Spreadsheets.Values.Update(w.spreadsheetID, rng, vr).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write header %s: %w", rng, err)
	}
	return nil
}

func (w *Worksheet) values(ctx context.Context, rng string) ([][]string, error) {
	vr, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rng, err)
	}
	out := make([][]string, len(vr.Values))
	for i, row := range vr.Values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			if v != nil {
				out[i][j] = fmt.Sprint(v)
			}
		}
	}
	return out, nil
}
