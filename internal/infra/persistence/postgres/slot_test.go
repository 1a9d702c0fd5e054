package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	createStmt = "CREATE TABLE IF NOT EXISTS state"
	upsertStmt = "INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload"
	selectStmt = "SELECT payload FROM state WHERE bucket = $1"
)

func newMockSlot(t *testing.T) (*Slot, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	mock.ExpectExec(createStmt).WillReturnResult(sqlmock.NewResult(0, 0))
	slot, err := NewSlotWithDB(context.Background(), db)
	require.NoError(t, err)
	return slot, mock
}

func TestSaveUpsertsPayload(t *testing.T) {
	slot, mock := newMockSlot(t)
	mock.ExpectExec(regexp.QuoteMeta(upsertStmt)).
		WithArgs("chv_offline_data", []byte(`{"households":[]}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, slot.Save(context.Background(), "chv_offline_data", []byte(`{"households":[]}`)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveWrapsDriverError(t *testing.T) {
	slot, mock := newMockSlot(t)
	mock.ExpectExec(regexp.QuoteMeta(upsertStmt)).WillReturnError(errors.New("connection reset"))

	err := slot.Save(context.Background(), "k", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert k")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestLoadReturnsStoredPayload(t *testing.T) {
	slot, mock := newMockSlot(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectStmt)).
		WithArgs("k").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte("blob")))

	got, err := slot.Load(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "blob", string(got))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadMissingKeyReturnsNil(t *testing.T) {
	slot, mock := newMockSlot(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectStmt)).
		WithArgs("absent").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	got, err := slot.Load(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewSlotFailsWhenTableCannotBeCreated(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectExec(createStmt).WillReturnError(errors.New("permission denied"))

	_, err = NewSlotWithDB(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ensure state table")
}

func TestNewSlotUsesOverriddenOpener(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing()
	mock.ExpectExec(createStmt).WillReturnResult(sqlmock.NewResult(0, 0))

	var gotDriver, gotDSN string
	restore := OverrideSQLOpen(func(driver, dsn string) (*sql.DB, error) {
		gotDriver, gotDSN = driver, dsn
		return db, nil
	})
	defer restore()

	slot, err := NewSlot(context.Background(), "")
	require.NoError(t, err)
	assert.Same(t, db, slot.DB())
	assert.Equal(t, "pgx", gotDriver)
	assert.Equal(t, defaultDSN, gotDSN)
	require.NoError(t, mock.ExpectationsWereMet())
}
