package service

import "context"

// QueryLogEntry records one pipeline invocation for audit and evaluation.
type QueryLogEntry struct {
	TenantID       string
	Question       string
	DetectedDomain string
	Outcome        string
	SQL            string
	Message        string
	Model          string
	DurationMs     int
}

// QueryLogRepository persists pipeline invocation logs.
type QueryLogRepository interface {
	CreateQueryLog(ctx context.Context, entry QueryLogEntry) (string, error)
}
