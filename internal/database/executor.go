package database

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Executor is a scoped, tenant-bound query capability backed by one checked
// out connection. Release is idempotent so deferred and explicit releases
// on the same path stay safe.
type Executor struct {
	conn    *pgxpool.Conn
	release sync.Once
}

// Query runs read-only SQL and returns rows as column-name → value maps,
// preserving result order.
func (e *Executor) Query(ctx context.Context, sql string) ([]map[string]any, error) {
	rows, err := e.conn.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	results := make([]map[string]any, 0)

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(fields))
		for i, field := range fields {
			row[field.Name] = values[i]
		}
		results = append(results, row)
	}

	return results, rows.Err()
}

// Release returns the connection to its pool.
func (e *Executor) Release() {
	e.release.Do(func() {
		e.conn.Release()
	})
}
