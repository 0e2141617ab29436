package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medika-labs/medquery/internal/service"
)

// QueryLogRepository stores one row per pipeline invocation for audit and
// evaluation. Blocked and failed attempts keep their SQL so operators can
// inspect what the model produced.
type QueryLogRepository struct {
	pool *pgxpool.Pool
}

func NewQueryLogRepository(pool *pgxpool.Pool) *QueryLogRepository {
	return &QueryLogRepository{pool: pool}
}

func (r *QueryLogRepository) CreateQueryLog(ctx context.Context, entry service.QueryLogEntry) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO query_logs (tenant_id, question, detected_domain, outcome, sql_text, message, model, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		entry.TenantID,
		entry.Question,
		nullableString(entry.DetectedDomain),
		entry.Outcome,
		nullableString(entry.SQL),
		entry.Message,
		entry.Model,
		entry.DurationMs,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}
