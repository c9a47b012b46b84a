package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDB implements store.DBTX and fails the test if any query reaches
// the database. Used to verify that invalid input is rejected before a
// round trip.
type stubDB struct {
	t *testing.T
}

func (s *stubDB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	s.t.Fatalf("unexpected ExecContext: %s", query)
	return nil, nil
}

func (s *stubDB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	s.t.Fatalf("unexpected QueryContext: %s", query)
	return nil, nil
}

func (s *stubDB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	s.t.Fatalf("unexpected QueryRowContext: %s", query)
	return nil
}

func (s *stubDB) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	s.t.Fatalf("unexpected PrepareContext: %s", query)
	return nil, nil
}

func TestNewStoresRequireDB(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewPostgresCardStore(nil, nil) })
	assert.Panics(t, func() { NewPostgresProgressStore(nil, nil) })
	assert.Panics(t, func() { NewPostgresAttemptStore(nil, nil) })
	assert.Panics(t, func() { NewPostgresQuotaStore(nil, nil) })
}

func TestProgressStoreRejectsInvalidBeforeQuery(t *testing.T) {
	t.Parallel()

	s := NewPostgresProgressStore(&stubDB{t: t}, nil)

	invalid := &domain.CardProgress{
		UserID:     uuid.New(),
		CardID:     uuid.New(),
		State:      domain.CardState("bogus"),
		EaseFactor: domain.DefaultEaseFactor,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	err := s.Create(context.Background(), invalid)
	require.Error(t, err)

	err = s.Update(context.Background(), invalid)
	require.Error(t, err)
}

func TestAttemptStoreRejectsInvalidBeforeQuery(t *testing.T) {
	t.Parallel()

	s := NewPostgresAttemptStore(&stubDB{t: t}, nil)

	attempt := &domain.SessionAttempt{
		ID:          uuid.New(),
		CardID:      uuid.New(),
		AttemptedAt: time.Now().UTC(),
	}

	err := s.Record(context.Background(), attempt)
	assert.ErrorIs(t, err, domain.ErrEmptyAttemptUserID)
}

func TestProgressStoreGetMapEmptyInput(t *testing.T) {
	t.Parallel()

	s := NewPostgresProgressStore(&stubDB{t: t}, nil)

	result, err := s.GetMap(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestQuotaStoreRejectsBadArguments(t *testing.T) {
	t.Parallel()

	s := NewPostgresQuotaStore(&stubDB{t: t}, nil)

	_, err := s.CheckAndReserve(context.Background(), uuid.New(), "2025-06", 0, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")

	_, err = s.CheckAndReserve(context.Background(), uuid.New(), "2025-06", -3, 10)
	require.Error(t, err)

	_, err = s.CheckAndReserve(context.Background(), uuid.New(), "2025-06", 1, -1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be negative")
}
