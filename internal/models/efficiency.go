package models

import "time"

// EfficiencyDay holds one teacher's efficiency figures for one calendar
// day: scheduled counts each schedule row twice (two billable
// half-sessions per shift), taught and no-shows come from eligible and
// ineligible invoice matches, variance = taught - scheduled - no_shows.
type EfficiencyDay struct {
	Date        time.Time `json:"date"`
	TeacherName string    `json:"teacher_name"`
	Scheduled   int       `json:"scheduled"`
	Taught      int       `json:"taught"`
	NoShows     int       `json:"no_shows"`
	Variance    int       `json:"variance"`
}

// EfficiencySummary accumulates a teacher's figures across the window.
// PercentageVariance is 0 when the teacher had nothing scheduled.
type EfficiencySummary struct {
	TeacherName        string  `json:"teacher_name"`
	Scheduled          int     `json:"scheduled"`
	Taught             int     `json:"taught"`
	NoShows            int     `json:"no_shows"`
	Variance           int     `json:"variance"`
	PercentageVariance float64 `json:"percentage_variance"`
}

// EfficiencyTable is the aggregated report for one shift group. Both the
// JSON and CSV renderings are derived from this structure without
// re-querying storage.
type EfficiencyTable struct {
	ShiftGroup string              `json:"shift_group"`
	Teachers   []string            `json:"teachers"`
	Days       []string            `json:"days"`
	Daily      []EfficiencyDay     `json:"daily"`
	Summary    []EfficiencySummary `json:"summary"`
}
