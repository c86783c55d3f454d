package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/corecapital/autoreports-api/internal/models"
)

type rangeRecorder struct {
	scheduleReaderStub
	lastRange models.ScheduleRange
}

func (s *rangeRecorder) ListRange(ctx context.Context, rng models.ScheduleRange) ([]models.ScheduleWithTeacher, error) {
	s.lastRange = rng
	return s.rows, s.err
}

func TestScheduleListWidensWindowToFullDays(t *testing.T) {
	recorder := &rangeRecorder{}
	svc := NewScheduleService(recorder, zap.NewNop())

	from := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)
	to := time.Date(2024, 3, 6, 8, 15, 0, 0, time.UTC)
	_, err := svc.List(context.Background(), "Morning", from, to)
	require.NoError(t, err)

	assert.Equal(t, "Morning", recorder.lastRange.ShiftGroup)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), recorder.lastRange.From)
	assert.Equal(t, time.Date(2024, 3, 6, 23, 59, 59, 0, time.UTC), recorder.lastRange.To)
}

func TestShiftGroupsPassesThrough(t *testing.T) {
	svc := NewScheduleService(&scheduleReaderStub{groups: []string{"Evening", "Morning"}}, zap.NewNop())

	groups, err := svc.ShiftGroups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Evening", "Morning"}, groups)
}
