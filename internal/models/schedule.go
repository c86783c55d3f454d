package models

import "time"

// Schedule is the persisted form of a reconciled shift. The tuple
// (teacher_id, start_date, end_date, shift, shift_type, shift_group)
// uniquely identifies a row; re-inserting an existing tuple is a no-op.
type Schedule struct {
	ID         int64     `db:"id" json:"id"`
	TeacherID  int64     `db:"teacher_id" json:"teacher_id"`
	StartDate  time.Time `db:"start_date" json:"start_date"`
	EndDate    time.Time `db:"end_date" json:"end_date"`
	Shift      string    `db:"shift" json:"shift"`
	ShiftType  string    `db:"shift_type" json:"shift_type"`
	ShiftGroup string    `db:"shift_group" json:"shift_group"`
}

// ScheduleWithTeacher joins a schedule with its teacher's display name.
type ScheduleWithTeacher struct {
	ID          int64     `db:"id" json:"id"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	EndDate     time.Time `db:"end_date" json:"end_date"`
	TeacherName string    `db:"teacher_name" json:"teacher_name"`
	ShiftGroup  string    `db:"shift_group" json:"shift_group"`
	Shift       string    `db:"shift" json:"shift"`
	ShiftType   string    `db:"shift_type" json:"shift_type"`
}

// ScheduleRange bounds a reporting window for one shift group.
type ScheduleRange struct {
	ShiftGroup string
	From       time.Time
	To         time.Time
}
