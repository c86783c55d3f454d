package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/corecapital/autoreports-api/internal/ingest"
	"github.com/corecapital/autoreports-api/internal/models"
	appErrors "github.com/corecapital/autoreports-api/pkg/errors"
	"github.com/corecapital/autoreports-api/pkg/jobs"
	"github.com/corecapital/autoreports-api/pkg/storage"
)

type teacherStoreStub struct {
	ids    map[string]int64
	nextID int64
	err    error
}

func newTeacherStoreStub() *teacherStoreStub {
	return &teacherStoreStub{ids: map[string]int64{}}
}

func (s *teacherStoreStub) Upsert(ctx context.Context, name string) (int64, bool, error) {
	if s.err != nil {
		return 0, false, s.err
	}
	if id, ok := s.ids[name]; ok {
		return id, false, nil
	}
	s.nextID++
	s.ids[name] = s.nextID
	return s.nextID, true, nil
}

type scheduleStoreStub struct {
	records   map[string]models.Schedule
	existsErr error
	insertErr error
}

func newScheduleStoreStub() *scheduleStoreStub {
	return &scheduleStoreStub{records: map[string]models.Schedule{}}
}

func scheduleKey(r models.Schedule) string {
	return fmt.Sprintf("%d|%s|%s|%s|%s|%s",
		r.TeacherID, r.StartDate, r.EndDate, r.Shift, r.ShiftType, r.ShiftGroup)
}

func (s *scheduleStoreStub) Exists(ctx context.Context, record models.Schedule) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.records[scheduleKey(record)]
	return ok, nil
}

func (s *scheduleStoreStub) Insert(ctx context.Context, record models.Schedule) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.records[scheduleKey(record)] = record
	return nil
}

type invoiceStoreStub struct {
	invoices []models.Invoice
	updates  int
}

func (s *invoiceStoreStub) FindByKey(ctx context.Context, row models.BillingRow) (*models.Invoice, error) {
	for i, invoice := range s.invoices {
		if invoice.TeacherName == row.TeacherName && invoice.Shift == row.Shift &&
			invoice.ActivityStart.Equal(row.ActivityStart) && invoice.ActivityEnd.Equal(row.ActivityEnd) {
			return &s.invoices[i], nil
		}
	}
	return nil, nil
}

func (s *invoiceStoreStub) Insert(ctx context.Context, row models.BillingRow) error {
	s.invoices = append(s.invoices, models.Invoice{
		ID:            int64(len(s.invoices) + 1),
		TeacherName:   row.TeacherName,
		Shift:         row.Shift,
		Eligible:      row.Eligible,
		ActivityStart: row.ActivityStart,
		ActivityEnd:   row.ActivityEnd,
	})
	return nil
}

func (s *invoiceStoreStub) UpdateEligible(ctx context.Context, id int64, eligible bool) error {
	for i := range s.invoices {
		if s.invoices[i].ID == id {
			s.invoices[i].Eligible = eligible
			s.updates++
			return nil
		}
	}
	return errors.New("invoice not found")
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type metricsStub struct {
	runs []string
	rows map[string]int
}

func (m *metricsStub) ObserveRun(outcome string) { m.runs = append(m.runs, outcome) }
func (m *metricsStub) ObserveRows(kind, outcome string, count int) {
	if m.rows == nil {
		m.rows = map[string]int{}
	}
	m.rows[kind+"/"+outcome] += count
}

func testShifts() []models.ReconciledShift {
	base := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	return []models.ReconciledShift{
		{RosterRow: models.RosterRow{ShiftGroup: "Morning", Shift: "Shift A", TeacherName: "Alice", Start: base, End: base.Add(2 * time.Hour)}, Change: models.ChangeUnchanged},
		{RosterRow: models.RosterRow{ShiftGroup: "Morning", Shift: "Shift B", TeacherName: "Bob", Start: base.Add(2 * time.Hour), End: base.Add(4 * time.Hour)}, Change: models.ChangePickup},
	}
}

func testBilling() []models.BillingRow {
	return []models.BillingRow{
		{TeacherName: "Alice", Shift: "Shift A", Eligible: true,
			ActivityStart: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC),
			ActivityEnd:   time.Date(2024, 3, 5, 11, 0, 0, 0, time.UTC)},
	}
}

func newServiceUnderTest(t *testing.T) (*ConsolidationService, *teacherStoreStub, *scheduleStoreStub, *invoiceStoreStub) {
	t.Helper()
	staging, err := storage.NewStaging(t.TempDir())
	require.NoError(t, err)

	teachers := newTeacherStoreStub()
	schedules := newScheduleStoreStub()
	invoices := &invoiceStoreStub{}
	svc := NewConsolidationService(teachers, schedules, invoices, staging, ingest.RosterLayout{}, zap.NewNop())
	return svc, teachers, schedules, invoices
}

func TestPersistFirstRunInsertsEverything(t *testing.T) {
	svc, _, _, _ := newServiceUnderTest(t)

	summary, err := svc.Persist(context.Background(), testShifts(), testBilling())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.InsertedTeachers)
	assert.Equal(t, 2, summary.InsertedShifts)
	assert.Equal(t, 1, summary.InsertedInvoices)
	assert.Zero(t, summary.SkippedShifts)
	assert.Zero(t, summary.FailedRows)
}

func TestPersistRerunIsIdempotent(t *testing.T) {
	svc, _, _, invoices := newServiceUnderTest(t)

	_, err := svc.Persist(context.Background(), testShifts(), testBilling())
	require.NoError(t, err)

	summary, err := svc.Persist(context.Background(), testShifts(), testBilling())
	require.NoError(t, err)

	assert.Zero(t, summary.InsertedTeachers)
	assert.Equal(t, 2, summary.SkippedTeachers)
	assert.Zero(t, summary.InsertedShifts)
	assert.Equal(t, 2, summary.SkippedShifts)
	assert.Zero(t, summary.InsertedInvoices)
	assert.Equal(t, 1, summary.UpdatedInvoices)
	assert.Equal(t, 1, invoices.updates)
	assert.Len(t, invoices.invoices, 1)
}

func TestPersistEligibilityFlipUpdatesInPlace(t *testing.T) {
	svc, _, _, invoices := newServiceUnderTest(t)

	_, err := svc.Persist(context.Background(), nil, testBilling())
	require.NoError(t, err)
	require.True(t, invoices.invoices[0].Eligible)

	corrected := testBilling()
	corrected[0].Eligible = false
	summary, err := svc.Persist(context.Background(), nil, corrected)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.UpdatedInvoices)
	assert.Len(t, invoices.invoices, 1)
	assert.False(t, invoices.invoices[0].Eligible)
}

func TestPersistRowFailureCountsAndContinues(t *testing.T) {
	svc, teachers, _, _ := newServiceUnderTest(t)
	teachers.err = errors.New("constraint violation")

	summary, err := svc.Persist(context.Background(), testShifts(), testBilling())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.FailedRows)
	assert.Equal(t, 1, summary.InsertedInvoices)
}

func TestPersistStorageOutageAbortsWithPartialCounters(t *testing.T) {
	svc, _, schedules, _ := newServiceUnderTest(t)
	schedules.existsErr = appErrors.Clone(appErrors.ErrStorageUnavailable, "connection refused")

	summary, err := svc.Persist(context.Background(), testShifts(), testBilling())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrStorageUnavailable))

	// The first teacher upsert landed before the outage surfaced.
	assert.Equal(t, 1, summary.InsertedTeachers)
	assert.Zero(t, summary.InsertedShifts)
	assert.Zero(t, summary.InsertedInvoices)
}

func TestStageUploadRejectsUnknownFileName(t *testing.T) {
	svc, _, _, _ := newServiceUnderTest(t)

	err := svc.StageUpload("2024-03-05", "notes.txt", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestStageUploadRejectsBadDate(t *testing.T) {
	svc, _, _, _ := newServiceUnderTest(t)

	err := svc.StageUpload("05/03/2024", FirstRosterFile, strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestTriggerRequiresAllThreeStagedFiles(t *testing.T) {
	svc, _, _, _ := newServiceUnderTest(t)
	svc.SetQueue(&queueStub{})

	require.NoError(t, svc.StageUpload("2024-03-05", FirstRosterFile, strings.NewReader("x")))
	require.NoError(t, svc.StageUpload("2024-03-05", SecondRosterFile, strings.NewReader("x")))

	_, err := svc.Trigger(context.Background(), "2024-03-05")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Contains(t, err.Error(), InvoicingFile)
}

func TestTriggerEnqueuesAndExposesRun(t *testing.T) {
	svc, _, _, _ := newServiceUnderTest(t)
	queue := &queueStub{}
	svc.SetQueue(queue)

	for _, name := range []string{FirstRosterFile, SecondRosterFile, InvoicingFile} {
		require.NoError(t, svc.StageUpload("2024-03-05", name, strings.NewReader("x")))
	}

	run, err := svc.Trigger(context.Background(), "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusQueued, run.Status)
	assert.NotEmpty(t, run.JobID)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "2024-03-05", queue.jobs[0].Date)

	polled, ok := svc.Run("2024-03-05")
	require.True(t, ok)
	assert.Equal(t, run.JobID, polled.JobID)

	_, ok = svc.Run("2024-03-06")
	assert.False(t, ok)
}

func TestTriggerRejectsInFlightRun(t *testing.T) {
	svc, _, _, _ := newServiceUnderTest(t)
	svc.SetQueue(&queueStub{})

	for _, name := range []string{FirstRosterFile, SecondRosterFile, InvoicingFile} {
		require.NoError(t, svc.StageUpload("2024-03-05", name, strings.NewReader("staged")))
	}

	_, err := svc.Trigger(context.Background(), "2024-03-05")
	require.NoError(t, err)

	_, err = svc.Trigger(context.Background(), "2024-03-05")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	// A failed run releases the date so it can be triggered again.
	svc.readWorkbook = func(path string) ([][]string, error) {
		return nil, errors.New("corrupt workbook")
	}
	require.Error(t, svc.HandleJob(context.Background(), jobs.Job{ID: "run-1", Date: "2024-03-05"}))

	_, err = svc.Trigger(context.Background(), "2024-03-05")
	require.NoError(t, err)
}

func TestHandleJobProcessesStagedExports(t *testing.T) {
	svc, _, schedules, invoices := newServiceUnderTest(t)
	queue := &queueStub{}
	svc.SetQueue(queue)
	metrics := &metricsStub{}
	svc.SetMetrics(metrics)
	invalidated := false
	svc.SetCacheInvalidator(func(ctx context.Context) { invalidated = true })

	for _, name := range []string{FirstRosterFile, SecondRosterFile, InvoicingFile} {
		require.NoError(t, svc.StageUpload("2024-03-05", name, strings.NewReader("staged")))
	}

	beforeGrid := [][]string{
		{"Morning", "Shift A", "Alice", "05/03/2024 9:00 AM", "05/03/2024 11:00 AM"},
		{"Morning", "Shift B", "Bob", "05/03/2024 11:00 AM", "05/03/2024 1:00 PM"},
	}
	afterGrid := [][]string{
		{"Morning", "Shift A", "Alice", "05/03/2024 9:00 AM", "05/03/2024 11:00 AM"},
		{"Morning", "Shift B", "Dana", "05/03/2024 11:00 AM", "05/03/2024 1:00 PM"},
	}
	svc.readWorkbook = func(path string) ([][]string, error) {
		if strings.HasSuffix(path, FirstRosterFile) {
			return beforeGrid, nil
		}
		return afterGrid, nil
	}
	svc.readFile = func(path string) ([]byte, error) {
		return []byte("Teacher\tShift\tEligible\tStart\tEnd\n" +
			"Alice\tShift A\ttrue\t05/03/2024 09:00\t05/03/2024 11:00\n"), nil
	}

	run, err := svc.Trigger(context.Background(), "2024-03-05")
	require.NoError(t, err)

	err = svc.HandleJob(context.Background(), jobs.Job{ID: run.JobID, Date: "2024-03-05"})
	require.NoError(t, err)

	finished, ok := svc.Run("2024-03-05")
	require.True(t, ok)
	assert.Equal(t, models.RunStatusFinished, finished.Status)
	require.NotNil(t, finished.Summary)

	// Shift A unchanged, Shift B reassigned: Bob's dropped-and-picked-up
	// row plus Dana's internal pickup, three schedule rows in total.
	assert.Equal(t, 3, finished.Summary.InsertedTeachers)
	assert.Equal(t, 3, finished.Summary.InsertedShifts)
	assert.Equal(t, 1, finished.Summary.InsertedInvoices)
	assert.Len(t, schedules.records, 3)
	assert.Len(t, invoices.invoices, 1)

	assert.True(t, invalidated)
	assert.Equal(t, []string{"finished"}, metrics.runs)
	assert.NotNil(t, finished.FinishedAt)

	// A finished run releases its staged exports.
	for _, name := range []string{FirstRosterFile, SecondRosterFile, InvoicingFile} {
		assert.False(t, svc.staging.Exists("2024-03-05", name), name)
	}
}

func TestHandleJobMarksRunFailed(t *testing.T) {
	svc, _, _, _ := newServiceUnderTest(t)
	queue := &queueStub{}
	svc.SetQueue(queue)

	for _, name := range []string{FirstRosterFile, SecondRosterFile, InvoicingFile} {
		require.NoError(t, svc.StageUpload("2024-03-05", name, strings.NewReader("staged")))
	}
	svc.readWorkbook = func(path string) ([][]string, error) {
		return nil, errors.New("corrupt workbook")
	}

	run, err := svc.Trigger(context.Background(), "2024-03-05")
	require.NoError(t, err)

	err = svc.HandleJob(context.Background(), jobs.Job{ID: run.JobID, Date: "2024-03-05"})
	require.Error(t, err)

	failed, ok := svc.Run("2024-03-05")
	require.True(t, ok)
	assert.Equal(t, models.RunStatusFailed, failed.Status)
	assert.Contains(t, failed.Error, "corrupt workbook")

	// Staged exports survive a failed run for the retry to reread.
	assert.True(t, svc.staging.Exists("2024-03-05", FirstRosterFile))
}
