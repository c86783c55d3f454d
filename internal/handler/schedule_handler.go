package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/corecapital/autoreports-api/internal/models"
	"github.com/corecapital/autoreports-api/pkg/response"
)

type scheduleService interface {
	List(ctx context.Context, shiftGroup string, from, to time.Time) ([]models.ScheduleWithTeacher, error)
	ShiftGroups(ctx context.Context) ([]string, error)
}

// ScheduleHandler exposes read access to the persisted schedule history.
type ScheduleHandler struct {
	schedules scheduleService
}

// NewScheduleHandler constructs a ScheduleHandler.
func NewScheduleHandler(schedules scheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// List godoc
// @Summary List schedules for a shift group within a window
// @Tags Schedules
// @Produce json
// @Param shift_group query string true "Shift group"
// @Param start_date query string true "Window start (YYYY-MM-DD)"
// @Param end_date query string true "Window end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	shiftGroup, from, to, err := reportWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	schedules, err := h.schedules.List(c.Request.Context(), shiftGroup, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules)
}

// ShiftGroups godoc
// @Summary List every shift group present in storage
// @Tags Schedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /shift-groups [get]
func (h *ScheduleHandler) ShiftGroups(c *gin.Context) {
	groups, err := h.schedules.ShiftGroups(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups)
}
