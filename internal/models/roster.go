package models

import "time"

// ChangeKind classifies how a shift moved between two roster snapshots.
type ChangeKind string

const (
	ChangePickup             ChangeKind = "Pickup"
	ChangeInternalPickup     ChangeKind = "Internal Pickup"
	ChangeDropped            ChangeKind = "Dropped"
	ChangeDroppedAndPickedUp ChangeKind = "Dropped & Picked Up"
	ChangeUnchanged          ChangeKind = "Unchanged"
)

// RosterRow is one shift assignment as it appears in a single snapshot.
// Text fragments are kept verbatim from the sheet; Start and End are the
// normalized instants derived from them.
type RosterRow struct {
	ShiftGroup  string    `json:"shift_group"`
	Shift       string    `json:"shift"`
	TeacherName string    `json:"teacher_name"`
	StartText   string    `json:"start_text"`
	EndText     string    `json:"end_text"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// ReconciledShift is a roster row tagged with its change classification.
type ReconciledShift struct {
	RosterRow
	Change ChangeKind `json:"change"`
}

// BillingRow is one activity record from the invoicing export.
type BillingRow struct {
	TeacherName   string    `json:"teacher_name"`
	Shift         string    `json:"shift"`
	Eligible      bool      `json:"eligible"`
	ActivityStart time.Time `json:"activity_start"`
	ActivityEnd   time.Time `json:"activity_end"`
}
