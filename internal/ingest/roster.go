// Package ingest converts the raw grids of the roster and invoicing
// exports into typed rows. The roster template carries a fixed title
// block and summary block, merged cells that leave follow-on rows blank,
// and decorative headers, so mapping is positional and stateful.
package ingest

import (
	"strings"
	"time"

	"github.com/corecapital/autoreports-api/internal/dates"
	"github.com/corecapital/autoreports-api/internal/models"
)

// Roster column positions in the export template. Headers in the sheet
// are decorative and never consulted.
const (
	colShiftGroup = 0
	colShift      = 1
	colTeacher    = 2
	colStart      = 3
	colEnd        = 4

	rosterColumns = 5
)

// RosterLayout describes the fixed framing of the roster export: the
// first HeaderRows rows are a title block and the last FooterRows rows
// are a summary block, both excluded from mapping.
type RosterLayout struct {
	HeaderRows int
	FooterRows int
}

// DefaultRosterLayout matches the current export template.
var DefaultRosterLayout = RosterLayout{HeaderRows: 10, FooterRows: 3}

// RosterResult carries mapped rows plus exclusion counts.
type RosterResult struct {
	Rows    []models.RosterRow
	Skipped models.IngestSummary
}

// carried holds the last non-blank value per inherited column. A blank
// cell in one of these columns means "same as the previous row", which
// is how merged cells arrive from the sheet. State lives only in the
// fold accumulator and resets with each sheet.
type carried struct {
	shiftGroup string
	shift      string
	teacher    string
	start      string
	end        string
}

// MapRoster folds the trimmed cell grid into typed roster rows. Rows
// shorter than the column binding are counted and skipped, as are rows
// whose date fragments fail to parse, since an unparseable date cannot
// be bucketed to a reporting day.
func MapRoster(grid [][]string, layout RosterLayout) RosterResult {
	result := RosterResult{Rows: make([]models.RosterRow, 0, len(grid))}

	if layout.HeaderRows < 0 {
		layout.HeaderRows = 0
	}
	if layout.FooterRows < 0 {
		layout.FooterRows = 0
	}
	if len(grid) <= layout.HeaderRows+layout.FooterRows {
		return result
	}
	body := grid[layout.HeaderRows : len(grid)-layout.FooterRows]

	var last carried
	for _, cells := range body {
		row, next, ok := mapRosterRow(cells, last, &result.Skipped)
		last = next
		if ok {
			result.Rows = append(result.Rows, row)
		}
	}
	return result
}

func mapRosterRow(cells []string, last carried, skipped *models.IngestSummary) (models.RosterRow, carried, bool) {
	if len(cells) < rosterColumns {
		skipped.SkippedShortRows++
		return models.RosterRow{}, last, false
	}

	next := carried{
		shiftGroup: inherit(cells[colShiftGroup], last.shiftGroup),
		shift:      inherit(cells[colShift], last.shift),
		teacher:    inherit(cells[colTeacher], last.teacher),
		start:      inherit(cells[colStart], last.start),
		end:        inherit(cells[colEnd], last.end),
	}

	start, err := dates.Parse(next.start, dates.Clock12)
	if err != nil {
		skipped.SkippedMalformedDate++
		return models.RosterRow{}, next, false
	}
	end, err := dates.Parse(next.end, dates.Clock12)
	if err != nil {
		skipped.SkippedMalformedDate++
		return models.RosterRow{}, next, false
	}

	return models.RosterRow{
		ShiftGroup:  next.shiftGroup,
		Shift:       next.shift,
		TeacherName: next.teacher,
		StartText:   next.start,
		EndText:     next.end,
		Start:       start,
		End:         end,
	}, next, true
}

func inherit(cell, previous string) string {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return previous
	}
	return trimmed
}

// FilterSnapshot keeps the rows whose start or end instant falls on the
// reporting date. Reconciliation applies a stricter start-date-only
// filter after classification.
func FilterSnapshot(rows []models.RosterRow, reportingDate time.Time) []models.RosterRow {
	kept := make([]models.RosterRow, 0, len(rows))
	for _, row := range rows {
		if dates.SameCalendarDay(row.Start, reportingDate) || dates.SameCalendarDay(row.End, reportingDate) {
			kept = append(kept, row)
		}
	}
	return kept
}
