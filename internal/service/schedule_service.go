package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/corecapital/autoreports-api/internal/dates"
	"github.com/corecapital/autoreports-api/internal/models"
)

// ScheduleService exposes read access to the persisted schedule history.
type ScheduleService struct {
	schedules scheduleReader
	logger    *zap.Logger
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(schedules scheduleReader, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{schedules: schedules, logger: logger}
}

// List returns schedules for one shift group within an inclusive window.
func (s *ScheduleService) List(ctx context.Context, shiftGroup string, from, to time.Time) ([]models.ScheduleWithTeacher, error) {
	rng := models.ScheduleRange{
		ShiftGroup: shiftGroup,
		From:       dates.Day(from),
		To:         endOfDay(to),
	}
	return s.schedules.ListRange(ctx, rng)
}

// ShiftGroups returns every shift group seen in storage.
func (s *ScheduleService) ShiftGroups(ctx context.Context) ([]string, error) {
	return s.schedules.DistinctGroups(ctx)
}
