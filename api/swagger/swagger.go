package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Automatic Reports Consolidation API",
        "description": "Roster reconciliation, schedule history, and teacher efficiency reporting",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Consolidations", "description": "Roster upload and reconciliation runs"},
        {"name": "Reports", "description": "Efficiency and consolidated report downloads"},
        {"name": "Schedules", "description": "Persisted schedule history"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/consolidations": {
            "post": {
                "tags": ["Consolidations"],
                "summary": "Upload roster snapshots and the invoicing report, then queue a reconciliation run",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "required": true, "description": "Reporting date, YYYY-MM-DD"},
                    {"name": "dialogue-1.xlsx", "in": "formData", "type": "file", "required": true},
                    {"name": "dialogue-2.xlsx", "in": "formData", "type": "file", "required": true},
                    {"name": "invoicing-report.csv", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "202": {"description": "Run queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing date or files", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "A run for the date is already in flight", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/consolidations/{date}": {
            "get": {
                "tags": ["Consolidations"],
                "summary": "Poll the status of a reconciliation run",
                "parameters": [
                    {"name": "date", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Run status", "schema": {"$ref": "#/definitions/ConsolidationRun"}},
                    "404": {"description": "No run for that date", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/efficiency": {
            "get": {
                "tags": ["Reports"],
                "summary": "Teacher efficiency report for a shift group over a date range",
                "parameters": [
                    {"name": "shift_group", "in": "query", "type": "string", "required": true},
                    {"name": "start_date", "in": "query", "type": "string", "required": true, "description": "YYYY-MM-DD"},
                    {"name": "end_date", "in": "query", "type": "string", "required": true, "description": "YYYY-MM-DD"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "csv", "pdf"], "default": "json"}
                ],
                "responses": {
                    "200": {"description": "Report payload or file download"},
                    "400": {"description": "Invalid window", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/consolidated": {
            "get": {
                "tags": ["Reports"],
                "summary": "Consolidated schedule report as CSV",
                "parameters": [
                    {"name": "shift_group", "in": "query", "type": "string", "required": true},
                    {"name": "start_date", "in": "query", "type": "string", "required": true},
                    {"name": "end_date", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "CSV download"},
                    "400": {"description": "Invalid window", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List persisted schedules for a shift group over a date range",
                "parameters": [
                    {"name": "shift_group", "in": "query", "type": "string", "required": true},
                    {"name": "start_date", "in": "query", "type": "string", "required": true},
                    {"name": "end_date", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/shift-groups": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Distinct shift groups present in the schedule history",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ConsolidationRun": {
            "type": "object",
            "properties": {
                "job_id": {"type": "string"},
                "reporting_date": {"type": "string"},
                "status": {"type": "string", "enum": ["QUEUED", "PROCESSING", "FINISHED", "FAILED"]},
                "summary": {"$ref": "#/definitions/PersistSummary"},
                "error": {"type": "string"}
            }
        },
        "PersistSummary": {
            "type": "object",
            "properties": {
                "inserted_teachers": {"type": "integer"},
                "skipped_teachers": {"type": "integer"},
                "inserted_schedules": {"type": "integer"},
                "skipped_schedules": {"type": "integer"},
                "inserted_invoices": {"type": "integer"},
                "updated_invoices": {"type": "integer"},
                "skipped_invoices": {"type": "integer"},
                "failed_rows": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
