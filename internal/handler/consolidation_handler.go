package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corecapital/autoreports-api/internal/models"
	appErrors "github.com/corecapital/autoreports-api/pkg/errors"
	"github.com/corecapital/autoreports-api/pkg/response"
)

type consolidationService interface {
	StageUpload(date, name string, src io.Reader) error
	Trigger(ctx context.Context, date string) (models.ConsolidationRun, error)
	Run(date string) (models.ConsolidationRun, bool)
}

// ConsolidationHandler receives the three report exports for a date and
// exposes the state of the background consolidation run.
type ConsolidationHandler struct {
	consolidations consolidationService
	maxUploadBytes int64
}

// NewConsolidationHandler constructs a ConsolidationHandler.
func NewConsolidationHandler(consolidations consolidationService, maxUploadBytes int64) *ConsolidationHandler {
	return &ConsolidationHandler{consolidations: consolidations, maxUploadBytes: maxUploadBytes}
}

// UploadAndProcess godoc
// @Summary Upload roster and invoicing exports and start consolidation
// @Tags Consolidations
// @Accept multipart/form-data
// @Produce json
// @Param date query string true "Reporting date (YYYY-MM-DD)"
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /consolidations [post]
func (h *ConsolidationHandler) UploadAndProcess(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter required"))
		return
	}

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart payload"))
		return
	}

	for name, files := range form.File {
		for _, file := range files {
			src, err := file.Open()
			if err != nil {
				response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "cannot read uploaded file"))
				return
			}
			stageErr := h.consolidations.StageUpload(date, name, src)
			_ = src.Close()
			if stageErr != nil {
				response.Error(c, stageErr)
				return
			}
		}
	}

	run, err := h.consolidations.Trigger(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, run)
}

// Status godoc
// @Summary Poll the consolidation run for a reporting date
// @Tags Consolidations
// @Produce json
// @Param date path string true "Reporting date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /consolidations/{date} [get]
func (h *ConsolidationHandler) Status(c *gin.Context) {
	run, ok := h.consolidations.Run(c.Param("date"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "no consolidation run for that date"))
		return
	}
	response.JSON(c, http.StatusOK, run)
}
