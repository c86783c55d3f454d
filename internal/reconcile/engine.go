// Package reconcile diffs two roster snapshots for one reporting date
// and classifies every shift by how it changed between them. It is a
// pure function over its inputs and holds no shared state.
package reconcile

import (
	"sort"
	"time"

	"github.com/corecapital/autoreports-api/internal/dates"
	"github.com/corecapital/autoreports-api/internal/models"
)

// Reconcile compares before and after snapshots grouped by shift group.
// A group must appear in both snapshots to be reconciled; a group absent
// from the after snapshot is treated as out of scope for the reporting
// date rather than fully dropped. A reassigned shift yields two output
// rows: the old holder's Dropped & Picked Up row and the new holder's
// Internal Pickup row. The result is sorted by shift group, teacher
// name, then start instant, and finally filtered to rows whose start
// date falls on the reporting day.
func Reconcile(before, after []models.RosterRow, reportingDate time.Time) []models.ReconciledShift {
	beforeGroups := partition(before)
	afterGroups := partition(after)

	var out []models.ReconciledShift
	for group, beforeRows := range beforeGroups {
		afterRows, ok := afterGroups[group]
		if !ok {
			continue
		}
		out = append(out, reconcileGroup(beforeRows, afterRows)...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ShiftGroup != out[j].ShiftGroup {
			return out[i].ShiftGroup < out[j].ShiftGroup
		}
		if out[i].TeacherName != out[j].TeacherName {
			return out[i].TeacherName < out[j].TeacherName
		}
		return out[i].Start.Before(out[j].Start)
	})

	kept := make([]models.ReconciledShift, 0, len(out))
	for _, shift := range out {
		if dates.SameCalendarDay(shift.Start, reportingDate) {
			kept = append(kept, shift)
		}
	}
	return kept
}

func partition(rows []models.RosterRow) map[string][]models.RosterRow {
	groups := make(map[string][]models.RosterRow)
	for _, row := range rows {
		groups[row.ShiftGroup] = append(groups[row.ShiftGroup], row)
	}
	return groups
}

// reconcileGroup classifies one shift group's rows by shift value. A
// shift value reused by different teachers within the same snapshot is
// not supported; the index keeps the last row seen for the value.
func reconcileGroup(before, after []models.RosterRow) []models.ReconciledShift {
	beforeByShift := indexByShift(before)
	afterByShift := indexByShift(after)

	var out []models.ReconciledShift

	for shift, beforeRow := range beforeByShift {
		afterRow, stillPresent := afterByShift[shift]
		switch {
		case !stillPresent:
			out = append(out, tag(beforeRow, models.ChangeDropped))
		case beforeRow.TeacherName != afterRow.TeacherName:
			out = append(out, tag(beforeRow, models.ChangeDroppedAndPickedUp))
			out = append(out, tag(afterRow, models.ChangeInternalPickup))
		default:
			out = append(out, tag(afterRow, models.ChangeUnchanged))
		}
	}

	for shift, afterRow := range afterByShift {
		if _, existed := beforeByShift[shift]; !existed {
			out = append(out, tag(afterRow, models.ChangePickup))
		}
	}

	return out
}

func indexByShift(rows []models.RosterRow) map[string]models.RosterRow {
	index := make(map[string]models.RosterRow, len(rows))
	for _, row := range rows {
		index[row.Shift] = row
	}
	return index
}

func tag(row models.RosterRow, change models.ChangeKind) models.ReconciledShift {
	return models.ReconciledShift{RosterRow: row, Change: change}
}
