package sheets

import (
	"fmt"
	"strconv"
)

// colLetter converts a 1-based column number to its A1 letter form.
func colLetter(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+n%26)) + s
		n /= 26
	}
	return s
}

// cellRef returns the A1 reference for a 1-based row and column.
func cellRef(row, col int) string {
	return colLetter(col) + strconv.Itoa(row)
}

// rangeRef returns a sheet-qualified A1 range. Titles are quoted so names
// with spaces or punctuation stay valid.
func rangeRef(title string, startRow, startCol, endRow, endCol int) string {
	return fmt.Sprintf("'%s'!%s:%s", title, cellRef(startRow, startCol), cellRef(endRow, endCol))
}
