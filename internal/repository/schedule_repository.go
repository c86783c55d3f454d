package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/corecapital/autoreports-api/internal/models"
)

// ScheduleRepository manages persistence for reconciled schedule rows.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Exists reports whether a schedule with the full composite dedup key is
// already persisted.
func (r *ScheduleRepository) Exists(ctx context.Context, record models.Schedule) (bool, error) {
	const query = `SELECT 1 FROM schedules
		WHERE teacher_id = $1 AND start_date = $2 AND end_date = $3
		AND shift = $4 AND shift_type = $5 AND shift_group = $6 LIMIT 1`
	var found int
	err := r.db.GetContext(ctx, &found, query,
		record.TeacherID, record.StartDate, record.EndDate,
		record.Shift, record.ShiftType, record.ShiftGroup)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, wrapStorage(err, "check schedule")
	}
	return true, nil
}

// Insert persists a new schedule row.
func (r *ScheduleRepository) Insert(ctx context.Context, record models.Schedule) error {
	const query = `INSERT INTO schedules (teacher_id, start_date, end_date, shift, shift_type, shift_group)
		VALUES (:teacher_id, :start_date, :end_date, :shift, :shift_type, :shift_group)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return wrapStorage(err, "insert schedule")
	}
	return nil
}

// ListRange returns schedules joined with teacher names for one shift
// group within an inclusive window.
func (r *ScheduleRepository) ListRange(ctx context.Context, rng models.ScheduleRange) ([]models.ScheduleWithTeacher, error) {
	const query = `SELECT
			schedules.id AS id,
			schedules.start_date AS start_date,
			schedules.end_date AS end_date,
			teachers.name AS teacher_name,
			schedules.shift_group AS shift_group,
			schedules.shift AS shift,
			schedules.shift_type AS shift_type
		FROM schedules
		LEFT JOIN teachers ON schedules.teacher_id = teachers.id
		WHERE schedules.start_date >= $1 AND schedules.end_date <= $2 AND schedules.shift_group = $3`
	var schedules []models.ScheduleWithTeacher
	if err := r.db.SelectContext(ctx, &schedules, query, rng.From, rng.To, rng.ShiftGroup); err != nil {
		return nil, wrapStorage(err, "list schedules for range")
	}
	return schedules, nil
}

// DistinctGroups returns every shift group present in storage.
func (r *ScheduleRepository) DistinctGroups(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT shift_group FROM schedules ORDER BY shift_group`
	var groups []string
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, wrapStorage(err, "list shift groups")
	}
	return groups, nil
}
