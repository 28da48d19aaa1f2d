// Package warehouse writes normalized records into the destination database.
package warehouse

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crownpoint-data/pos-sync/common/logging"
)

// InsertError describes one rejected row. A non-empty list from InsertRows
// means partial or total rejection of the batch.
type InsertError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// Sink is the destination for normalized records.
type Sink interface {
	InsertRows(ctx context.Context, tableName string, rows []map[string]any) ([]InsertError, error)
	Close()
}

// Postgres is a Sink backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
	log  *logging.Logger
}

// NewPostgres connects to the warehouse and verifies the connection.
func NewPostgres(ctx context.Context, databaseURL string, log *logging.Logger) (*Postgres, error) {
	if log == nil {
		log = logging.Default()
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create warehouse pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping warehouse: %w", err)
	}
	return &Postgres{pool: pool, log: log}, nil
}

// InsertRows inserts each row into tableName. Column sets may differ between
// rows, so every row is its own statement; rows succeed or fail
// independently. Row-level rejections come back as InsertErrors; the error
// return is reserved for failures that doom the whole batch.
func (p *Postgres) InsertRows(ctx context.Context, tableName string, rows []map[string]any) ([]InsertError, error) {
	var insertErrs []InsertError
	for i, row := range rows {
		sql, args, err := buildInsert(tableName, row)
		if err != nil {
			return nil, err
		}
		if _, err := p.pool.Exec(ctx, sql, args...); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			insertErrs = append(insertErrs, InsertError{Index: i, Message: err.Error()})
		}
	}
	if len(insertErrs) == 0 && len(rows) > 0 {
		p.log.Debug("inserted rows", "table", tableName, "count", len(rows))
	}
	return insertErrs, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// buildInsert renders one parameterized INSERT for a dynamic column set.
// Identifiers are sanitized through pgx; values always travel as parameters.
func buildInsert(tableName string, row map[string]any) (string, []any, error) {
	if len(row) == 0 {
		return "", nil, fmt.Errorf("empty row for table %s", tableName)
	}

	columns := make([]string, 0, len(row))
	for column := range row {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, column := range columns {
		quoted[i] = pgx.Identifier{column}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = row[column]
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{tableName}.Sanitize(),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)
	return sql, args, nil
}
