package ingest

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadWorkbook opens an xlsx export and returns the cell grid of its
// first sheet as a rectangle. excelize trims trailing blank cells from
// each row, but a blank roster cell means "same as the row above", so
// every row is padded back out to the sheet's width before mapping.
func ReadWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return padGrid(rows), nil
}

// padGrid widens every row to the widest row in the sheet so that a
// follow-on row whose inherited cells were trimmed still lines up with
// the column binding.
func padGrid(rows [][]string) [][]string {
	width := 0
	for _, cells := range rows {
		if len(cells) > width {
			width = len(cells)
		}
	}
	for i, cells := range rows {
		if len(cells) < width {
			padded := make([]string, width)
			copy(padded, cells)
			rows[i] = padded
		}
	}
	return rows
}
