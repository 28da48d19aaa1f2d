//go:build integration

package warehouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) (context.Context, string) {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("warehouse"),
		postgres.WithUsername("possync"),
		postgres.WithPassword("possync"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return ctx, url
}

func TestPostgresInsertRows(t *testing.T) {
	ctx, url := startPostgres(t)

	require.NoError(t, Migrate(url, "../../../migrations"))

	sink, err := NewPostgres(ctx, url, nil)
	require.NoError(t, err)
	defer sink.Close()

	insertErrs, err := sink.InsertRows(ctx, "pos_paidouts", []map[string]any{
		{"id": int64(1), "object_id": "36b492b3-d80e-4b5f-9ac6-35125a19fa0e", "business_date": "2025-06-30", "amount": 25.0},
		{"id": int64(2), "business_date": "2025-06-30", "amount": 10.5, "reason": "supplies"},
	})
	require.NoError(t, err)
	assert.Empty(t, insertErrs)
}

func TestPostgresInsertRowsReportsRejections(t *testing.T) {
	ctx, url := startPostgres(t)

	require.NoError(t, Migrate(url, "../../../migrations"))

	sink, err := NewPostgres(ctx, url, nil)
	require.NoError(t, err)
	defer sink.Close()

	insertErrs, err := sink.InsertRows(ctx, "pos_paidouts", []map[string]any{
		{"id": int64(1), "amount": 25.0},
		{"id": int64(2), "no_such_column": true},
	})
	require.NoError(t, err)
	require.Len(t, insertErrs, 1)
	assert.Equal(t, 1, insertErrs[0].Index)
}
