package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/corecapital/autoreports-api/internal/models"
	appErrors "github.com/corecapital/autoreports-api/pkg/errors"
	"github.com/corecapital/autoreports-api/pkg/response"
)

type reportService interface {
	Aggregate(ctx context.Context, shiftGroup string, from, to time.Time) (*models.EfficiencyTable, error)
	EfficiencyJSON(ctx context.Context, shiftGroup string, from, to time.Time) ([]byte, error)
	EfficiencyCSV(table *models.EfficiencyTable) ([]byte, error)
	EfficiencyPDF(table *models.EfficiencyTable, from, to time.Time) ([]byte, error)
	ConsolidatedCSV(ctx context.Context, shiftGroup string, from, to time.Time) ([]byte, error)
}

// ReportHandler exposes the efficiency and consolidated reports.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Efficiency godoc
// @Summary Per-teacher efficiency report for a shift group and window
// @Tags Reports
// @Produce json
// @Param shift_group query string true "Shift group"
// @Param start_date query string true "Window start (YYYY-MM-DD)"
// @Param end_date query string true "Window end (YYYY-MM-DD)"
// @Param format query string false "json (default), csv, or pdf"
// @Success 200 {object} response.Envelope
// @Router /reports/efficiency [get]
func (h *ReportHandler) Efficiency(c *gin.Context) {
	shiftGroup, from, to, err := reportWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "json":
		payload, err := h.reports.EfficiencyJSON(c.Request.Context(), shiftGroup, from, to)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Data(http.StatusOK, "application/json", payload)
	case "csv":
		table, err := h.reports.Aggregate(c.Request.Context(), shiftGroup, from, to)
		if err != nil {
			response.Error(c, err)
			return
		}
		data, err := h.reports.EfficiencyCSV(table)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.File(c, "text/csv", "efficiency-report.csv", data)
	case "pdf":
		table, err := h.reports.Aggregate(c.Request.Context(), shiftGroup, from, to)
		if err != nil {
			response.Error(c, err)
			return
		}
		data, err := h.reports.EfficiencyPDF(table, from, to)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.File(c, "application/pdf", "efficiency-report.pdf", data)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be json, csv, or pdf"))
	}
}

// Consolidated godoc
// @Summary Consolidated schedule listing with per-teacher tallies
// @Tags Reports
// @Produce text/csv
// @Param shift_group query string true "Shift group"
// @Param start_date query string true "Window start (YYYY-MM-DD)"
// @Param end_date query string true "Window end (YYYY-MM-DD)"
// @Success 200 {string} string "CSV payload"
// @Router /reports/consolidated [get]
func (h *ReportHandler) Consolidated(c *gin.Context) {
	shiftGroup, from, to, err := reportWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	data, err := h.reports.ConsolidatedCSV(c.Request.Context(), shiftGroup, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, "text/csv", "consolidated-report.csv", data)
}

func reportWindow(c *gin.Context) (shiftGroup string, from, to time.Time, err error) {
	shiftGroup = c.Query("shift_group")
	if shiftGroup == "" {
		return "", time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "shift_group required")
	}
	from, err = time.Parse("2006-01-02", c.Query("start_date"))
	if err != nil {
		return "", time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
	}
	to, err = time.Parse("2006-01-02", c.Query("end_date"))
	if err != nil {
		return "", time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end_date must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return "", time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end_date precedes start_date")
	}
	return shiftGroup, from, to, nil
}
