package models

import "time"

// Invoice is a persisted billing activity record. The tuple
// (teacher_name, shift, activity_start, activity_end) is the dedup key;
// on a key match only the eligible flag is refreshed, so re-uploading a
// corrected billing export flips eligibility without duplicating rows.
type Invoice struct {
	ID            int64     `db:"id" json:"id"`
	TeacherName   string    `db:"teacher_name" json:"teacher_name"`
	Shift         string    `db:"shift" json:"shift"`
	Eligible      bool      `db:"eligible" json:"eligible"`
	ActivityStart time.Time `db:"activity_start" json:"activity_start"`
	ActivityEnd   time.Time `db:"activity_end" json:"activity_end"`
}
