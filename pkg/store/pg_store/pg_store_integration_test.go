//go:build integration
// +build integration

package pg_store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fromafrica/nscache/pkg/idgen"
	"github.com/fromafrica/nscache/pkg/store"
	"github.com/fromafrica/nscache/pkg/store/pg_store/migrations"
)

func setupTestStore(t *testing.T) *PgStore {
	t.Helper()
	ctx := context.Background()

	url := os.Getenv("NSCACHE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("NSCACHE_TEST_DATABASE_URL is not set")
	}
	pool, err := NewConnectionPool(ctx, url, 4)
	require.NoError(t, err)

	_, err = migrations.RunMigrationsUp(pool, zap.NewNop())
	require.NoError(t, err)

	s, err := NewPgStore(PgStoreOpts{DB: pool, Pool: pool})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPgStore_Integration_LatestWins(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	gen := idgen.NewULIDGenerator()
	domain := "it-" + gen.Make(time.Now()) + ".example"

	_, err := s.LookupLatest(ctx, domain)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Insert(ctx, gen.Make(time.Now()), domain, `{"type":"A","value":"1.1.1.1"}`))
	require.NoError(t, s.Insert(ctx, gen.Make(time.Now()), domain, `{"type":"A","value":"2.2.2.2"}`))

	v, err := s.LookupLatest(ctx, domain)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"A","value":"2.2.2.2"}`, v)
}

func TestPgStore_Integration_NullRecord(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	gen := idgen.NewULIDGenerator()
	domain := "it-null-" + gen.Make(time.Now()) + ".example"

	_, err := s.opts.DB.Exec(ctx, `INSERT INTO dns_records (id, domain, record) VALUES ($1, $2, NULL)`, gen.Make(time.Now()), domain)
	require.NoError(t, err)

	_, err = s.LookupLatest(ctx, domain)
	assert.ErrorIs(t, err, store.ErrMalformedRow)
}
