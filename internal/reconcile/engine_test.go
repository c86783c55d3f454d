package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corecapital/autoreports-api/internal/models"
)

var reportingDate = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

func row(group, shift, teacher string, hour int) models.RosterRow {
	return models.RosterRow{
		ShiftGroup:  group,
		Shift:       shift,
		TeacherName: teacher,
		Start:       time.Date(2024, 3, 5, hour, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 3, 5, hour+2, 0, 0, 0, time.UTC),
	}
}

func changesByShift(shifts []models.ReconciledShift) map[string][]models.ChangeKind {
	out := make(map[string][]models.ChangeKind)
	for _, s := range shifts {
		out[s.Shift] = append(out[s.Shift], s.Change)
	}
	return out
}

func TestReconcileClassifiesEveryKind(t *testing.T) {
	before := []models.RosterRow{
		row("Morning", "Shift A", "Alice", 9),
		row("Morning", "Shift B", "Bob", 11),
		row("Morning", "Shift C", "Cara", 13),
	}
	after := []models.RosterRow{
		row("Morning", "Shift A", "Alice", 9),
		row("Morning", "Shift B", "Dana", 11),
		row("Morning", "Shift D", "Eve", 15),
	}

	got := Reconcile(before, after, reportingDate)
	require.Len(t, got, 5)

	changes := changesByShift(got)
	assert.Equal(t, []models.ChangeKind{models.ChangeUnchanged}, changes["Shift A"])
	assert.ElementsMatch(t, []models.ChangeKind{models.ChangeDroppedAndPickedUp, models.ChangeInternalPickup}, changes["Shift B"])
	assert.Equal(t, []models.ChangeKind{models.ChangeDropped}, changes["Shift C"])
	assert.Equal(t, []models.ChangeKind{models.ChangePickup}, changes["Shift D"])
}

func TestReconcileReassignmentEmitsBothHolders(t *testing.T) {
	before := []models.RosterRow{row("Morning", "Shift B", "Bob", 11)}
	after := []models.RosterRow{row("Morning", "Shift B", "Dana", 11)}

	got := Reconcile(before, after, reportingDate)
	require.Len(t, got, 2)

	// Sorted by teacher name within the group.
	assert.Equal(t, "Bob", got[0].TeacherName)
	assert.Equal(t, models.ChangeDroppedAndPickedUp, got[0].Change)
	assert.Equal(t, "Dana", got[1].TeacherName)
	assert.Equal(t, models.ChangeInternalPickup, got[1].Change)
}

func TestReconcileSkipsGroupAbsentFromAfter(t *testing.T) {
	before := []models.RosterRow{
		row("Morning", "Shift A", "Alice", 9),
		row("Evening", "Shift E", "Eve", 18),
	}
	after := []models.RosterRow{
		row("Morning", "Shift A", "Alice", 9),
	}

	got := Reconcile(before, after, reportingDate)
	require.Len(t, got, 1)
	assert.Equal(t, "Morning", got[0].ShiftGroup)
	assert.Equal(t, models.ChangeUnchanged, got[0].Change)
}

func TestReconcileFiltersByStartDate(t *testing.T) {
	crossesMidnight := models.RosterRow{
		ShiftGroup:  "Night",
		Shift:       "Shift N",
		TeacherName: "Noor",
		Start:       time.Date(2024, 3, 4, 23, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC),
	}
	onDay := row("Night", "Shift M", "Mia", 9)

	before := []models.RosterRow{crossesMidnight, onDay}
	after := []models.RosterRow{crossesMidnight, onDay}

	got := Reconcile(before, after, reportingDate)
	require.Len(t, got, 1)
	assert.Equal(t, "Mia", got[0].TeacherName)
}

func TestReconcileSortsByGroupTeacherStart(t *testing.T) {
	before := []models.RosterRow{
		row("Evening", "Shift Z", "Zed", 18),
		row("Morning", "Shift B", "Bob", 11),
		row("Morning", "Shift A", "Bob", 9),
		row("Morning", "Shift C", "Alice", 13),
	}
	got := Reconcile(before, before, reportingDate)
	require.Len(t, got, 4)

	assert.Equal(t, "Evening", got[0].ShiftGroup)
	assert.Equal(t, "Alice", got[1].TeacherName)
	assert.Equal(t, "Bob", got[2].TeacherName)
	assert.Equal(t, "Shift A", got[2].Shift)
	assert.Equal(t, "Shift B", got[3].Shift)
}

func TestReconcileIdenticalSnapshotsAllUnchanged(t *testing.T) {
	snapshot := []models.RosterRow{
		row("Morning", "Shift A", "Alice", 9),
		row("Morning", "Shift B", "Bob", 11),
	}
	got := Reconcile(snapshot, snapshot, reportingDate)
	require.Len(t, got, 2)
	for _, s := range got {
		assert.Equal(t, models.ChangeUnchanged, s.Change)
	}
}
