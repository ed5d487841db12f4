//go:build integration

// Integration tests for the verification repository.  They run against a
// real PostgreSQL pointed at by CITEGUARD_TEST_DATABASE_URL and are gated
// behind the "integration" build tag.
package repositories_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CiteGuard/internal/domain/citation"
	"github.com/turtacn/CiteGuard/internal/infrastructure/database/postgres"
	"github.com/turtacn/CiteGuard/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/CiteGuard/pkg/errors"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("CITEGUARD_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CITEGUARD_TEST_DATABASE_URL not set")
	}
	require.NoError(t, postgres.RunMigrations(dsn, "file://../../../../../migrations"))

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Exec(context.Background(), "TRUNCATE citation_verifications")
		pool.Close()
	})
	return pool
}

func TestVerificationRepository_SaveAndGet(t *testing.T) {
	pool := testPool(t)
	repo := repositories.NewVerificationRepository(pool, nil)
	ctx := context.Background()

	rec := &citation.VerificationRecord{
		Citation:  "142 Wn.2d 450",
		Outcome:   citation.OutcomeVerified,
		CaseName:  "Smith v. Jones",
		Date:      "2000-11-22",
		URL:       "https://www.courtlistener.com/opinion/1/",
		Court:     "wash",
		Source:    "courtlistener",
		CheckedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Save(ctx, rec))

	// Lookup is normalization-insensitive.
	got, err := repo.Get(ctx, "142 WN.2D 450")
	require.NoError(t, err)
	assert.Equal(t, citation.OutcomeVerified, got.Outcome)
	assert.Equal(t, "Smith v. Jones", got.CaseName)
}

func TestVerificationRepository_SaveOverwrites(t *testing.T) {
	pool := testPool(t)
	repo := repositories.NewVerificationRepository(pool, nil)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &citation.VerificationRecord{
		Citation: "999 Wn.2d 999",
		Outcome:  citation.OutcomeUnavailable,
	}))
	require.NoError(t, repo.Save(ctx, &citation.VerificationRecord{
		Citation: "999 Wn.2d 999",
		Outcome:  citation.OutcomeNotFound,
		Source:   "courtlistener",
	}))

	got, err := repo.Get(ctx, "999 Wn.2d 999")
	require.NoError(t, err)
	assert.Equal(t, citation.OutcomeNotFound, got.Outcome)

	recent, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1, "upsert must not create duplicate rows")
}

func TestVerificationRepository_GetMissing(t *testing.T) {
	pool := testPool(t)
	repo := repositories.NewVerificationRepository(pool, nil)

	_, err := repo.Get(context.Background(), "1 Nowhere 1")
	assert.True(t, errors.IsNotFound(err))
}

func TestVerificationRepository_ListRecentNewestFirst(t *testing.T) {
	pool := testPool(t)
	repo := repositories.NewVerificationRepository(pool, nil)
	ctx := context.Background()

	old := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.Save(ctx, &citation.VerificationRecord{
		Citation: "100 Wn.2d 1", Outcome: citation.OutcomeVerified, CheckedAt: old,
	}))
	require.NoError(t, repo.Save(ctx, &citation.VerificationRecord{
		Citation: "200 Wn.2d 2", Outcome: citation.OutcomeVerified, CheckedAt: time.Now().UTC(),
	}))

	recent, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "200 wn.2d 2", recent[0].Citation)
}

func TestVerificationRepository_SaveRejectsEmptyCitation(t *testing.T) {
	repo := repositories.NewVerificationRepository(nil, nil)
	assert.Error(t, repo.Save(context.Background(), &citation.VerificationRecord{}))
	assert.Error(t, repo.Save(context.Background(), nil))
}
