package models

import "time"

// RunStatus captures the lifecycle of a background consolidation run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "QUEUED"
	RunStatusProcessing RunStatus = "PROCESSING"
	RunStatusFinished   RunStatus = "FINISHED"
	RunStatusFailed     RunStatus = "FAILED"
)

// PersistSummary reports per-row upsert outcomes for one consolidation
// batch. Counters from two concurrent runs for the same date are each
// internally consistent but do not reflect a single serialized view.
type PersistSummary struct {
	InsertedTeachers int `json:"inserted_teachers"`
	SkippedTeachers  int `json:"skipped_teachers"`
	InsertedShifts   int `json:"inserted_shifts"`
	SkippedShifts    int `json:"skipped_shifts"`
	InsertedInvoices int `json:"inserted_invoices"`
	UpdatedInvoices  int `json:"updated_invoices"`
	SkippedInvoices  int `json:"skipped_invoices"`
	FailedRows       int `json:"failed_rows"`
}

// IngestSummary counts rows excluded while mapping the source exports.
type IngestSummary struct {
	SkippedShortRows     int `json:"skipped_short_rows"`
	SkippedMalformedDate int `json:"skipped_malformed_date"`
}

// ConsolidationRun is the pollable state of one reporting date's run.
type ConsolidationRun struct {
	JobID      string          `json:"job_id"`
	Date       string          `json:"date"`
	Status     RunStatus       `json:"status"`
	Summary    *PersistSummary `json:"summary,omitempty"`
	Ingest     *IngestSummary  `json:"ingest,omitempty"`
	Error      string          `json:"error,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}
