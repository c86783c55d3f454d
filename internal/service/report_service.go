package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/corecapital/autoreports-api/internal/dates"
	"github.com/corecapital/autoreports-api/internal/models"
	"github.com/corecapital/autoreports-api/pkg/export"
)

const (
	// Each schedule row stands for two billable half-sessions.
	sessionsPerShift = 2

	reportCachePrefix = "reports:"
	dayLayout         = "2006-01-02"
	stampLayout       = "2006-01-02 15:04:05"
)

type scheduleReader interface {
	ListRange(ctx context.Context, rng models.ScheduleRange) ([]models.ScheduleWithTeacher, error)
	DistinctGroups(ctx context.Context) ([]string, error)
}

type invoiceReader interface {
	ListByShift(ctx context.Context, shift string) ([]models.Invoice, error)
}

// ReportService aggregates persisted schedules against invoices into
// per-teacher efficiency figures and renders the consolidated and
// efficiency reports. Aggregation is read-only; all durable state lives
// behind the repositories.
type ReportService struct {
	schedules scheduleReader
	invoices  invoiceReader
	cache     *redis.Client
	cacheTTL  time.Duration
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewReportService constructs the report service. cache may be nil, in
// which case every report is computed from storage.
func NewReportService(schedules scheduleReader, invoices invoiceReader, cache *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &ReportService{
		schedules: schedules,
		invoices:  invoices,
		cache:     cache,
		cacheTTL:  cacheTTL,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// Aggregate computes the efficiency table for one shift group over an
// inclusive day range. For every teacher and calendar day: scheduled
// counts that day's schedule rows times two, each invoice matching a
// schedule's shift label adds a taught or no-show depending on
// eligibility, and variance = taught - scheduled - no_shows. Counters
// are threaded through return values; nothing is accumulated outside
// this call.
func (s *ReportService) Aggregate(ctx context.Context, shiftGroup string, from, to time.Time) (*models.EfficiencyTable, error) {
	rng := models.ScheduleRange{
		ShiftGroup: shiftGroup,
		From:       dates.Day(from),
		To:         endOfDay(to),
	}
	schedules, err := s.schedules.ListRange(ctx, rng)
	if err != nil {
		return nil, err
	}

	table := &models.EfficiencyTable{ShiftGroup: shiftGroup}
	for _, schedule := range schedules {
		if !contains(table.Teachers, schedule.TeacherName) {
			table.Teachers = append(table.Teachers, schedule.TeacherName)
		}
	}
	for day := dates.Day(from); !day.After(dates.Day(to)); day = day.AddDate(0, 0, 1) {
		table.Days = append(table.Days, day.Format(dayLayout))
	}

	// Invoice lookups are memoized per shift label; a label may be
	// shared by many schedule rows.
	invoicesByShift := make(map[string][]models.Invoice)

	for _, teacher := range table.Teachers {
		var totals models.EfficiencySummary
		totals.TeacherName = teacher

		for day := dates.Day(from); !day.After(dates.Day(to)); day = day.AddDate(0, 0, 1) {
			scheduled, taught, noShows, err := s.aggregateDay(ctx, schedules, invoicesByShift, teacher, day)
			if err != nil {
				return nil, err
			}
			variance := taught - scheduled - noShows

			table.Daily = append(table.Daily, models.EfficiencyDay{
				Date:        day,
				TeacherName: teacher,
				Scheduled:   scheduled,
				Taught:      taught,
				NoShows:     noShows,
				Variance:    variance,
			})

			totals.Scheduled += scheduled
			totals.Taught += taught
			totals.NoShows += noShows
			totals.Variance += variance
		}

		if totals.Scheduled != 0 {
			totals.PercentageVariance = float64(totals.Taught-totals.Scheduled) / float64(totals.Scheduled) * 100
		}
		table.Summary = append(table.Summary, totals)
	}

	return table, nil
}

func (s *ReportService) aggregateDay(
	ctx context.Context,
	schedules []models.ScheduleWithTeacher,
	invoicesByShift map[string][]models.Invoice,
	teacher string,
	day time.Time,
) (scheduled, taught, noShows int, err error) {
	for _, schedule := range schedules {
		if schedule.TeacherName != teacher || !dates.SameCalendarDay(schedule.StartDate, day) {
			continue
		}
		scheduled += sessionsPerShift

		invoices, ok := invoicesByShift[schedule.Shift]
		if !ok {
			invoices, err = s.invoices.ListByShift(ctx, schedule.Shift)
			if err != nil {
				return 0, 0, 0, err
			}
			invoicesByShift[schedule.Shift] = invoices
		}
		for _, invoice := range invoices {
			if invoice.Eligible {
				taught++
			} else {
				noShows++
			}
		}
	}
	return scheduled, taught, noShows, nil
}

// EfficiencyJSON returns the aggregated table as JSON, served from the
// report cache when available.
func (s *ReportService) EfficiencyJSON(ctx context.Context, shiftGroup string, from, to time.Time) ([]byte, error) {
	key := fmt.Sprintf("%sefficiency:%s:%s:%s", reportCachePrefix, shiftGroup, from.Format(dayLayout), to.Format(dayLayout))
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			return cached, nil
		}
	}

	table, err := s.Aggregate(ctx, shiftGroup, from, to)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("marshal efficiency table: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
			s.logger.Sugar().Warnw("report cache write failed", "key", key, "error", err)
		}
	}
	return payload, nil
}

// InvalidateCache drops every cached report. Called after a finished
// consolidation run so aggregates never go stale.
func (s *ReportService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	iter := s.cache.Scan(ctx, 0, reportCachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.cache.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Sugar().Warnw("report cache invalidation failed", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Sugar().Warnw("report cache scan failed", "error", err)
	}
}

// EfficiencyCSV renders the table for spreadsheet consumers: one header
// block per calendar day, one row per teacher with a trailing summary
// block, then a totals row closed by the grand summary.
func (s *ReportService) EfficiencyCSV(table *models.EfficiencyTable) ([]byte, error) {
	headers := []string{"teacher"}
	for _, day := range table.Days {
		headers = append(headers, day, "scheduled", "taught", "no_shows", "variance")
	}
	headers = append(headers, "total", "scheduled", "taught", "no_shows", "variance", "percentage_variance")

	teachers := append([]string(nil), table.Teachers...)
	sort.Strings(teachers)

	rows := make([][]string, 0, len(teachers)+1)
	for _, teacher := range teachers {
		row := []string{teacher}
		for _, daily := range table.Daily {
			if daily.TeacherName != teacher {
				continue
			}
			row = append(row, "", itoa(daily.Scheduled), itoa(daily.Taught), itoa(daily.NoShows), itoa(daily.Variance))
		}
		for _, summary := range table.Summary {
			if summary.TeacherName != teacher {
				continue
			}
			row = append(row, "", itoa(summary.Scheduled), itoa(summary.Taught), itoa(summary.NoShows), itoa(summary.Variance), ftoa(summary.PercentageVariance))
			break
		}
		rows = append(rows, row)
	}

	totals := []string{"total"}
	for _, day := range table.Days {
		var scheduled, taught, noShows, variance int
		for _, daily := range table.Daily {
			if daily.Date.Format(dayLayout) != day {
				continue
			}
			scheduled += daily.Scheduled
			taught += daily.Taught
			noShows += daily.NoShows
			variance += daily.Variance
		}
		totals = append(totals, "", itoa(scheduled), itoa(taught), itoa(noShows), itoa(variance))
	}
	var grand models.EfficiencySummary
	for _, summary := range table.Summary {
		grand.Scheduled += summary.Scheduled
		grand.Taught += summary.Taught
		grand.NoShows += summary.NoShows
		grand.Variance += summary.Variance
		grand.PercentageVariance += summary.PercentageVariance
	}
	totals = append(totals, "", itoa(grand.Scheduled), itoa(grand.Taught), itoa(grand.NoShows), itoa(grand.Variance), ftoa(grand.PercentageVariance))
	rows = append(rows, totals)

	return s.csv.Render(export.Dataset{Headers: headers, Rows: rows})
}

// EfficiencyPDF renders the per-teacher summary block as a PDF table.
func (s *ReportService) EfficiencyPDF(table *models.EfficiencyTable, from, to time.Time) ([]byte, error) {
	data := export.Dataset{
		Headers: []string{"Teacher", "Scheduled", "Taught", "No Shows", "Variance", "Variance %"},
	}
	summaries := append([]models.EfficiencySummary(nil), table.Summary...)
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].TeacherName < summaries[j].TeacherName })
	for _, summary := range summaries {
		data.Rows = append(data.Rows, []string{
			summary.TeacherName,
			itoa(summary.Scheduled),
			itoa(summary.Taught),
			itoa(summary.NoShows),
			itoa(summary.Variance),
			ftoa(summary.PercentageVariance),
		})
	}
	title := fmt.Sprintf("Efficiency %s %s to %s", table.ShiftGroup, from.Format(dayLayout), to.Format(dayLayout))
	return s.pdf.Render(data, title)
}

// ConsolidatedCSV lists every schedule in range for the group alongside
// per-teacher scheduled/picked up/dropped tallies and a trailing total.
func (s *ReportService) ConsolidatedCSV(ctx context.Context, shiftGroup string, from, to time.Time) ([]byte, error) {
	rng := models.ScheduleRange{
		ShiftGroup: shiftGroup,
		From:       dates.Day(from),
		To:         endOfDay(to),
	}
	schedules, err := s.schedules.ListRange(ctx, rng)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(schedules, func(i, j int) bool {
		return consolidatedSortKey(schedules[i]) < consolidatedSortKey(schedules[j])
	})

	var teachers []string
	rows := make([][]string, 0, len(schedules))
	for _, schedule := range schedules {
		if !contains(teachers, schedule.TeacherName) {
			teachers = append(teachers, schedule.TeacherName)
		}
		rows = append(rows, []string{
			schedule.TeacherName,
			schedule.Shift,
			schedule.ShiftType,
			schedule.StartDate.Format(stampLayout),
			schedule.EndDate.Format(stampLayout),
			"", "", "",
		})
	}
	sort.Strings(teachers)

	var totalScheduled, totalPickedUp, totalDropped int
	for i, teacher := range teachers {
		var scheduled, pickedUp, dropped int
		for _, schedule := range schedules {
			if schedule.TeacherName != teacher {
				continue
			}
			scheduled++
			switch models.ChangeKind(schedule.ShiftType) {
			case models.ChangePickup, models.ChangeInternalPickup, models.ChangeDroppedAndPickedUp:
				pickedUp++
			case models.ChangeDropped:
				dropped++
			}
		}
		rows = padSummaryColumn(rows, i)
		rows[i] = append(rows[i], teacher, itoa(scheduled), itoa(pickedUp), itoa(dropped))

		totalScheduled += scheduled
		totalPickedUp += pickedUp
		totalDropped += dropped
	}

	rows = padSummaryColumn(rows, len(teachers))
	rows[len(teachers)] = append(rows[len(teachers)], "Total", itoa(totalScheduled), itoa(totalPickedUp), itoa(totalDropped))

	return s.csv.Render(export.Dataset{
		Headers: []string{"Teacher", "Shift", "Shift Type", "Start Date", "End Date", "", "", "", "Teacher", "Scheduled", "Picked Up", "Dropped"},
		Rows:    rows,
	})
}

// padSummaryColumn guarantees a row exists at the given index so the
// summary column can extend past the schedule listing.
func padSummaryColumn(rows [][]string, index int) [][]string {
	for len(rows) <= index {
		rows = append(rows, []string{"", "", "", "", "", "", "", ""})
	}
	return rows
}

func consolidatedSortKey(s models.ScheduleWithTeacher) string {
	key := fmt.Sprintf("%s-%s-%s", s.StartDate.Format(dayLayout), s.TeacherName, s.StartDate.Format("15:04:05"))
	return strings.ToLower(key)
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, time.UTC)
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
