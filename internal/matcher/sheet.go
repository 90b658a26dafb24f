package matcher

import "context"

// Sheet is the worksheet holding the sign-up rows. Rows and columns are
// 1-based; row 1 is the header.
type Sheet interface {
	Header(ctx context.Context) ([]string, error)
	// Rows returns every data row below the header, top to bottom.
	Rows(ctx context.Context) ([][]string, error)
	Cell(ctx context.Context, row, col int) (string, error)
	UpdateCell(ctx context.Context, row, col int, value string) error
	// AppendColumns writes names into the header starting at startCol,
	// growing the sheet if needed.
	AppendColumns(ctx context.Context, startCol int, names []string) error
}
