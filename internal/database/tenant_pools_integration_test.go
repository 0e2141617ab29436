//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medika-labs/medquery/internal/testutil"
)

func TestTenantPools_AcquireAndQuery(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pools := NewTenantPools(Config{URLTemplate: pc.URLTemplate()})
	go pools.StartReaper(ctx, time.Second)
	defer pools.Stop()

	exec, err := pools.Acquire(ctx, pc.Database)
	require.NoError(t, err)
	defer exec.Release()

	rows, err := exec.Query(ctx, "SELECT 1 AS one, 'a' AS letter")
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.EqualValues(t, 1, rows[0]["one"])
	assert.Equal(t, "a", rows[0]["letter"])
}

func TestTenantPools_AcquireUnknownDatabase(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pools := NewTenantPools(Config{URLTemplate: pc.URLTemplate()})
	go pools.StartReaper(ctx, time.Second)
	defer pools.Stop()

	_, err := pools.Acquire(ctx, "does_not_exist")
	assert.Error(t, err)

	// a failed build is not cached; the same key can be retried
	_, err = pools.Acquire(ctx, "does_not_exist")
	assert.Error(t, err)
}

func TestTenantPools_ListDatabases(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pools := NewTenantPools(Config{URLTemplate: pc.URLTemplate()})
	go pools.StartReaper(ctx, time.Second)
	defer pools.Stop()

	names, err := pools.ListDatabases(ctx, pc.Database)
	require.NoError(t, err)
	assert.Contains(t, names, pc.Database)
}

func TestExecutor_ReleaseIdempotent(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pools := NewTenantPools(Config{URLTemplate: pc.URLTemplate()})
	go pools.StartReaper(ctx, time.Second)
	defer pools.Stop()

	exec, err := pools.Acquire(ctx, pc.Database)
	require.NoError(t, err)

	exec.Release()
	exec.Release() // second release must be a no-op
}
