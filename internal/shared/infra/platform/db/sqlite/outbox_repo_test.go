package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	sharedDB "github.com/davicafu/todolab/internal/shared/infra/platform/db"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sharedDB.Open(context.Background(), sharedDB.SQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, InitSchema(context.Background(), db))
	t.Cleanup(func() { db.Close() })
	return db
}

func msgAt(base time.Time, offset time.Duration, typ string) sharedDomain.OutboxMessage {
	return sharedDomain.OutboxMessage{
		ID:         uuid.New(),
		OccurredAt: base.Add(offset),
		Type:       typ,
		Content:    `{"n":1}`,
	}
}

func TestOutbox_FetchDue_OrderLimitAndPredicate(t *testing.T) {
	ctx := context.Background()
	repo := NewOutboxRepoSQLite(newTestDB(t))
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	third := msgAt(base, 3*time.Millisecond, "C")
	first := msgAt(base, 1*time.Millisecond, "A")
	second := msgAt(base, 2*time.Millisecond, "B")
	dead := msgAt(base, 0, "DEAD")
	dead.Attempt = 10
	done := msgAt(base, 0, "DONE")
	done.MarkPublished(base)

	require.NoError(t, repo.Add(ctx, []sharedDomain.OutboxMessage{third, first, second, dead, done}))

	due, err := repo.FetchDue(ctx, 50, 10)
	require.NoError(t, err)
	require.Len(t, due, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{due[0].Type, due[1].Type, due[2].Type})

	limited, err := repo.FetchDue(ctx, 2, 10)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	stats, err := repo.Stats(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, sharedDomain.OutboxStats{Pending: 3, Dead: 1, Processed: 1}, stats)
}

func TestOutbox_SaveResults(t *testing.T) {
	ctx := context.Background()
	repo := NewOutboxRepoSQLite(newTestDB(t))
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	a, b := msgAt(base, 0, "A"), msgAt(base, time.Second, "B")
	require.NoError(t, repo.Add(ctx, []sharedDomain.OutboxMessage{a, b}))

	a.MarkPublished(base.Add(time.Minute))
	b.MarkFailed(errors.New("broker down"))
	require.NoError(t, repo.SaveResults(ctx, []sharedDomain.OutboxMessage{a, b}))

	gotA, err := repo.Get(ctx, a.ID.String())
	require.NoError(t, err)
	require.NotNil(t, gotA.ProcessedAt)
	assert.True(t, base.Add(time.Minute).Equal(*gotA.ProcessedAt))
	assert.Nil(t, gotA.Error)

	gotB, err := repo.Get(ctx, b.ID.String())
	require.NoError(t, err)
	assert.Nil(t, gotB.ProcessedAt)
	assert.Equal(t, 1, gotB.Attempt)
	assert.Equal(t, "broker down", *gotB.Error)

	due, err := repo.FetchDue(ctx, 50, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, b.ID, due[0].ID)
}

func TestOutbox_AddInsideRolledBackTx(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewOutboxRepoSQLite(db)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Add(sharedDB.WithTx(ctx, tx), []sharedDomain.OutboxMessage{msgAt(time.Now(), 0, "A")}))
	require.NoError(t, tx.Rollback())

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOutbox_GetMissing(t *testing.T) {
	_, err := NewOutboxRepoSQLite(newTestDB(t)).Get(context.Background(), uuid.NewString())
	assert.ErrorContains(t, err, "not found")
}
