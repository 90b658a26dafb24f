package matcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/nimasrn/reddit-matchbot/internal/model"
	"github.com/nimasrn/reddit-matchbot/pkg/logger"
)

// ResolveColumns maps every column of spec to its position in the sheet
// header, appending the ones that are missing. Header names are compared
// after trimming whitespace, and case-insensitively when foldCase is set.
func ResolveColumns(ctx context.Context, sheet Sheet, spec model.ColumnSpec, foldCase bool) (model.ColumnMap, error) {
	header, err := sheet.Header(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols, missing := matchColumns(header, spec, foldCase)
	if len(missing) > 0 {
		logger.Info("Adding missing columns", "columns", missing, "start_col", len(header)+1)
		if err := sheet.AppendColumns(ctx, len(header)+1, missing); err != nil {
			return nil, fmt.Errorf("failed to add columns: %w", err)
		}

		header, err = sheet.Header(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read header: %w", err)
		}
		cols, _ = matchColumns(header, spec, foldCase)
	}

	if err := cols.Validate(spec); err != nil {
		return nil, err
	}
	return cols, nil
}

// matchColumns returns the positions found in header and the display names
// of the columns in spec that are absent, in the order spec lists them.
func matchColumns(header []string, spec model.ColumnSpec, foldCase bool) (model.ColumnMap, []string) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		name := normalizeHeader(h, foldCase)
		if _, seen := positions[name]; !seen {
			positions[name] = i + 1
		}
	}

	cols := make(model.ColumnMap, len(spec))
	var missing []string
	for _, c := range spec {
		if pos, ok := positions[normalizeHeader(c.Name, foldCase)]; ok {
			cols[c.Key] = pos
			continue
		}
		missing = append(missing, c.Name)
	}
	return cols, missing
}

func normalizeHeader(name string, foldCase bool) string {
	name = strings.TrimSpace(name)
	if foldCase {
		name = strings.ToLower(name)
	}
	return name
}
