package sheets

import (
	"fmt"
	"strings"
)

// columnLetter converts a 1-based column index to its A1 letters (1 → A,
// 27 → AA).
func columnLetter(col int) string {
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func cellRange(title string, row, col int) string {
	return fmt.Sprintf("%s!%s%d", quoteTitle(title), columnLetter(col), row)
}

func rowSpanRange(title string, row, fromCol, toCol int) string {
	return fmt.Sprintf("%s!%s%d:%s%d", quoteTitle(title), columnLetter(fromCol), row, columnLetter(toCol), row)
}

func rowRange(title string, row int) string {
	return fmt.Sprintf("%s!%d:%d", quoteTitle(title), row, row)
}
