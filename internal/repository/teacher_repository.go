package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/corecapital/autoreports-api/internal/models"
)

// TeacherRepository manages persistence for teacher identities.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByName fetches a teacher by exact, case-sensitive name. Returns
// nil without error when no such teacher exists.
func (r *TeacherRepository) FindByName(ctx context.Context, name string) (*models.Teacher, error) {
	const query = `SELECT id, name FROM teachers WHERE name = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapStorage(err, "find teacher by name")
	}
	return &teacher, nil
}

// Upsert looks a teacher up by exact name and inserts it when absent.
// An existing teacher is never updated. The second return value reports
// whether a new row was created.
func (r *TeacherRepository) Upsert(ctx context.Context, name string) (int64, bool, error) {
	existing, err := r.FindByName(ctx, name)
	if err != nil {
		return 0, false, err
	}
	if existing != nil {
		return existing.ID, false, nil
	}

	const query = `INSERT INTO teachers (name) VALUES ($1) RETURNING id`
	var id int64
	if err := r.db.GetContext(ctx, &id, query, name); err != nil {
		return 0, false, wrapStorage(err, "insert teacher")
	}
	return id, true, nil
}
