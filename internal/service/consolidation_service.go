package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corecapital/autoreports-api/internal/ingest"
	"github.com/corecapital/autoreports-api/internal/models"
	"github.com/corecapital/autoreports-api/internal/reconcile"
	appErrors "github.com/corecapital/autoreports-api/pkg/errors"
	"github.com/corecapital/autoreports-api/pkg/jobs"
	"github.com/corecapital/autoreports-api/pkg/storage"
)

// Staged file names expected for every reporting date. The uploader must
// provide exactly these three exports.
const (
	FirstRosterFile  = "dialogue-1.xlsx"
	SecondRosterFile = "dialogue-2.xlsx"
	InvoicingFile    = "invoicing-report.csv"

	reportingDateLayout = "2006-01-02"
)

type teacherStore interface {
	Upsert(ctx context.Context, name string) (int64, bool, error)
}

type scheduleStore interface {
	Exists(ctx context.Context, record models.Schedule) (bool, error)
	Insert(ctx context.Context, record models.Schedule) error
}

type invoiceStore interface {
	FindByKey(ctx context.Context, row models.BillingRow) (*models.Invoice, error)
	Insert(ctx context.Context, row models.BillingRow) error
	UpdateEligible(ctx context.Context, id int64, eligible bool) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type runObserver interface {
	ObserveRun(outcome string)
	ObserveRows(kind, outcome string, count int)
}

// ConsolidationService turns a reporting date's staged exports into
// persisted schedule history. Triggering returns immediately; the work
// itself runs on the job queue and its outcome is pollable.
type ConsolidationService struct {
	teachers  teacherStore
	schedules scheduleStore
	invoices  invoiceStore
	staging   *storage.Staging
	queue     jobDispatcher
	layout    ingest.RosterLayout
	validate  *validator.Validate
	logger    *zap.Logger

	readWorkbook func(path string) ([][]string, error)
	readFile     func(path string) ([]byte, error)

	// invalidateCache, when set, is called after a finished run so
	// cached reports do not serve stale aggregates.
	invalidateCache func(ctx context.Context)
	metrics         runObserver

	mu   sync.Mutex
	runs map[string]*models.ConsolidationRun
}

// NewConsolidationService constructs the service.
func NewConsolidationService(
	teachers teacherStore,
	schedules scheduleStore,
	invoices invoiceStore,
	staging *storage.Staging,
	layout ingest.RosterLayout,
	logger *zap.Logger,
) *ConsolidationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsolidationService{
		teachers:     teachers,
		schedules:    schedules,
		invoices:     invoices,
		staging:      staging,
		layout:       layout,
		validate:     validator.New(),
		logger:       logger,
		readWorkbook: ingest.ReadWorkbook,
		readFile:     os.ReadFile,
		runs:         make(map[string]*models.ConsolidationRun),
	}
}

// SetQueue attaches the job dispatcher. Wired after construction because
// the queue's handler is this service's HandleJob.
func (s *ConsolidationService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// SetCacheInvalidator registers a hook run after each finished run.
func (s *ConsolidationService) SetCacheInvalidator(fn func(ctx context.Context)) {
	s.invalidateCache = fn
}

// SetMetrics attaches the run/row metrics recorder.
func (s *ConsolidationService) SetMetrics(metrics runObserver) {
	s.metrics = metrics
}

// StageUpload stores one uploaded export under the date's staging
// directory. The file is synced to disk before this returns, so a
// subsequent Trigger always reads a consistent snapshot.
func (s *ConsolidationService) StageUpload(date, name string, src io.Reader) error {
	if err := s.validateDate(date); err != nil {
		return err
	}
	switch name {
	case FirstRosterFile, SecondRosterFile, InvoicingFile:
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unexpected upload %q", name))
	}
	if _, err := s.staging.Save(date, name, src); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stage upload")
	}
	return nil
}

// Trigger enqueues a consolidation run for a date whose three exports
// are already staged, and returns the pollable run state. A date whose
// run is still queued or processing cannot be triggered again.
func (s *ConsolidationService) Trigger(ctx context.Context, date string) (models.ConsolidationRun, error) {
	if err := s.validateDate(date); err != nil {
		return models.ConsolidationRun{}, err
	}
	for _, name := range []string{FirstRosterFile, SecondRosterFile, InvoicingFile} {
		if !s.staging.Exists(date, name) {
			return models.ConsolidationRun{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing staged file %s for %s", name, date))
		}
	}
	if s.queue == nil {
		return models.ConsolidationRun{}, appErrors.Clone(appErrors.ErrInternal, "consolidation queue not configured")
	}

	run := &models.ConsolidationRun{
		JobID:     uuid.NewString(),
		Date:      date,
		Status:    models.RunStatusQueued,
		StartedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	if existing, ok := s.runs[date]; ok && existing.FinishedAt == nil {
		s.mu.Unlock()
		return models.ConsolidationRun{}, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("consolidation for %s is already %s", date, existing.Status))
	}
	s.runs[date] = run
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: run.JobID, Date: date}); err != nil {
		s.finishRun(date, nil, nil, err)
		return models.ConsolidationRun{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue consolidation")
	}
	return *run, nil
}

// Run returns the current state of a date's consolidation run.
func (s *ConsolidationService) Run(date string) (models.ConsolidationRun, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[date]
	if !ok {
		return models.ConsolidationRun{}, false
	}
	return *run, true
}

// HandleJob is the queue handler for consolidation runs.
func (s *ConsolidationService) HandleJob(ctx context.Context, job jobs.Job) error {
	date := job.Date
	if date == "" {
		return fmt.Errorf("consolidation job %s has no reporting date", job.ID)
	}

	s.setStatus(date, models.RunStatusProcessing)
	summary, ingestSummary, err := s.process(ctx, date)
	s.finishRun(date, summary, ingestSummary, err)

	if err != nil {
		if s.metrics != nil {
			s.metrics.ObserveRun("failed")
		}
		s.logger.Sugar().Errorw("consolidation failed", "date", date, "error", err)
		return err
	}
	if s.metrics != nil {
		s.metrics.ObserveRun("finished")
		s.metrics.ObserveRows("teacher", "inserted", summary.InsertedTeachers)
		s.metrics.ObserveRows("schedule", "inserted", summary.InsertedShifts)
		s.metrics.ObserveRows("schedule", "skipped", summary.SkippedShifts)
		s.metrics.ObserveRows("invoice", "inserted", summary.InsertedInvoices)
		s.metrics.ObserveRows("invoice", "updated", summary.UpdatedInvoices)
		s.metrics.ObserveRows("row", "failed", summary.FailedRows)
	}
	if s.invalidateCache != nil {
		s.invalidateCache(ctx)
	}
	// Failed runs keep their staged exports so a retry can reread them.
	if err := s.staging.Cleanup(date); err != nil {
		s.logger.Sugar().Warnw("failed to remove staged exports", "date", date, "error", err)
	}
	s.logger.Sugar().Infow("consolidation finished",
		"date", date,
		"inserted_teachers", summary.InsertedTeachers,
		"inserted_shifts", summary.InsertedShifts,
		"skipped_shifts", summary.SkippedShifts,
		"inserted_invoices", summary.InsertedInvoices,
		"updated_invoices", summary.UpdatedInvoices,
		"failed_rows", summary.FailedRows,
	)
	return nil
}

// process reads the staged exports, reconciles the two roster snapshots,
// and persists the classified result with the billing rows.
func (s *ConsolidationService) process(ctx context.Context, date string) (*models.PersistSummary, *models.IngestSummary, error) {
	reportingDate, err := time.Parse(reportingDateLayout, date)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid reporting date %q", date))
	}

	beforeGrid, err := s.readWorkbook(s.staging.Path(date, FirstRosterFile))
	if err != nil {
		return nil, nil, fmt.Errorf("read first roster snapshot: %w", err)
	}
	afterGrid, err := s.readWorkbook(s.staging.Path(date, SecondRosterFile))
	if err != nil {
		return nil, nil, fmt.Errorf("read second roster snapshot: %w", err)
	}

	before := ingest.MapRoster(beforeGrid, s.layout)
	after := ingest.MapRoster(afterGrid, s.layout)

	shifts := reconcile.Reconcile(
		ingest.FilterSnapshot(before.Rows, reportingDate),
		ingest.FilterSnapshot(after.Rows, reportingDate),
		reportingDate,
	)

	rawBilling, err := s.readFile(s.staging.Path(date, InvoicingFile))
	if err != nil {
		return nil, nil, fmt.Errorf("read invoicing export: %w", err)
	}
	billing, err := ingest.ParseBilling(rawBilling)
	if err != nil {
		return nil, nil, err
	}

	ingestSummary := models.IngestSummary{
		SkippedShortRows: before.Skipped.SkippedShortRows +
			after.Skipped.SkippedShortRows + billing.Skipped.SkippedShortRows,
		SkippedMalformedDate: before.Skipped.SkippedMalformedDate +
			after.Skipped.SkippedMalformedDate + billing.Skipped.SkippedMalformedDate,
	}

	summary, err := s.Persist(ctx, shifts, billing.Rows)
	return &summary, &ingestSummary, err
}

// Persist upserts teachers, schedules, and invoices with idempotent
// semantics. A row-level failure is counted and the batch continues; a
// storage connectivity failure aborts the remaining batch, returning the
// partial counters accumulated so far. Rows committed before the abort
// stay committed.
func (s *ConsolidationService) Persist(ctx context.Context, shifts []models.ReconciledShift, billing []models.BillingRow) (models.PersistSummary, error) {
	var summary models.PersistSummary
	teacherIDs := make(map[string]int64)

	for _, shift := range shifts {
		teacherID, known := teacherIDs[shift.TeacherName]
		if !known {
			id, created, err := s.teachers.Upsert(ctx, shift.TeacherName)
			if err != nil {
				if appErrors.Is(err, appErrors.ErrStorageUnavailable) {
					return summary, err
				}
				summary.FailedRows++
				s.logger.Sugar().Warnw("teacher upsert failed", "teacher", shift.TeacherName, "error", err)
				continue
			}
			if created {
				summary.InsertedTeachers++
			} else {
				summary.SkippedTeachers++
			}
			teacherIDs[shift.TeacherName] = id
			teacherID = id
		}

		record := models.Schedule{
			TeacherID:  teacherID,
			StartDate:  shift.Start,
			EndDate:    shift.End,
			Shift:      shift.Shift,
			ShiftType:  string(shift.Change),
			ShiftGroup: shift.ShiftGroup,
		}
		exists, err := s.schedules.Exists(ctx, record)
		if err != nil {
			if appErrors.Is(err, appErrors.ErrStorageUnavailable) {
				return summary, err
			}
			summary.FailedRows++
			s.logger.Sugar().Warnw("schedule lookup failed", "shift", shift.Shift, "error", err)
			continue
		}
		if exists {
			summary.SkippedShifts++
			continue
		}
		if err := s.schedules.Insert(ctx, record); err != nil {
			if appErrors.Is(err, appErrors.ErrStorageUnavailable) {
				return summary, err
			}
			summary.FailedRows++
			s.logger.Sugar().Warnw("schedule insert failed", "shift", shift.Shift, "error", err)
			continue
		}
		summary.InsertedShifts++
	}

	for _, row := range billing {
		existing, err := s.invoices.FindByKey(ctx, row)
		if err != nil {
			if appErrors.Is(err, appErrors.ErrStorageUnavailable) {
				return summary, err
			}
			summary.FailedRows++
			s.logger.Sugar().Warnw("invoice lookup failed", "shift", row.Shift, "error", err)
			continue
		}
		if existing != nil {
			if err := s.invoices.UpdateEligible(ctx, existing.ID, row.Eligible); err != nil {
				if appErrors.Is(err, appErrors.ErrStorageUnavailable) {
					return summary, err
				}
				summary.FailedRows++
				s.logger.Sugar().Warnw("invoice update failed", "shift", row.Shift, "error", err)
				continue
			}
			summary.UpdatedInvoices++
			continue
		}
		if err := s.invoices.Insert(ctx, row); err != nil {
			if appErrors.Is(err, appErrors.ErrStorageUnavailable) {
				return summary, err
			}
			summary.FailedRows++
			s.logger.Sugar().Warnw("invoice insert failed", "shift", row.Shift, "error", err)
			continue
		}
		summary.InsertedInvoices++
	}

	return summary, nil
}

func (s *ConsolidationService) validateDate(date string) error {
	if err := s.validate.Var(date, "required,datetime=2006-01-02"); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("date %q must be YYYY-MM-DD", date))
	}
	return nil
}

func (s *ConsolidationService) setStatus(date string, status models.RunStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[date]; ok {
		run.Status = status
	}
}

func (s *ConsolidationService) finishRun(date string, summary *models.PersistSummary, ingestSummary *models.IngestSummary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[date]
	if !ok {
		return
	}
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Summary = summary
	run.Ingest = ingestSummary
	if err != nil {
		run.Status = models.RunStatusFailed
		run.Error = err.Error()
		return
	}
	run.Status = models.RunStatusFinished
	run.Error = ""
}
