package recordstore

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresStoreMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return NewPostgresStore(sqlxDB), mock, cleanup
}

func TestPostgresStoreGet(t *testing.T) {
	store, mock, cleanup := newPostgresStoreMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT body FROM records WHERE collection = $1 AND partition_key = $2 AND id = $3`)).
		WithArgs("invoices", "client-1", "2025-03").
		WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow(`{"clientId":"client-1","kind":"x"}`))

	var got visit
	require.NoError(t, store.Get(context.Background(), "invoices", "2025-03", "client-1", &got))
	assert.Equal(t, "client-1", got.ClientID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGetNotFound(t *testing.T) {
	store, mock, cleanup := newPostgresStoreMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT body FROM records")).
		WithArgs("invoices", "client-1", "2025-03").
		WillReturnError(sql.ErrNoRows)

	var got visit
	assert.ErrorIs(t, store.Get(context.Background(), "invoices", "2025-03", "client-1", &got), ErrNotFound)
}

func TestPostgresStoreCreateConflict(t *testing.T) {
	store, mock, cleanup := newPostgresStoreMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO records")).
		WithArgs("invoice_numbers", "202503-AnLe", "202503-AnLe", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO records")).
		WithArgs("invoice_numbers", "202503-AnLe", "202503-AnLe", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	require.NoError(t, store.Create(ctx, "invoice_numbers", "202503-AnLe", "202503-AnLe", visit{ClientID: "c-1"}))
	assert.ErrorIs(t, store.Create(ctx, "invoice_numbers", "202503-AnLe", "202503-AnLe", visit{ClientID: "c-2"}), ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreReplaceAndDeleteMissing(t *testing.T) {
	store, mock, cleanup := newPostgresStoreMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE records SET body = $4")).
		WithArgs("attendance", "2025-03-03", "c-1_2025-03-03", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM records")).
		WithArgs("attendance", "2025-03-03", "c-1_2025-03-03").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	assert.ErrorIs(t, store.Replace(ctx, "attendance", "c-1_2025-03-03", "2025-03-03", visit{}), ErrNotFound)
	require.NoError(t, store.Delete(ctx, "attendance", "c-1_2025-03-03", "2025-03-03"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreQuery(t *testing.T) {
	store, mock, cleanup := newPostgresStoreMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT body FROM records WHERE collection = $1 AND body->>'date' >= $2 AND body->>'date' <= $3 AND (body->>'hours')::numeric >= $4 ORDER BY body->>'date' ASC, partition_key, id`)).
		WithArgs("visits", "2025-03-01T00:00:00Z", "2025-03-31T00:00:00Z", float64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"body"}).
			AddRow(`{"clientId":"c-1","date":"2025-03-05T00:00:00Z","hours":2}`).
			AddRow(`{"clientId":"c-2","date":"2025-03-09T00:00:00Z","hours":3}`))

	var got []visit
	err := store.Query(context.Background(), "visits", Query{
		Conditions: []Condition{
			Where("date", OpGte, day(1)),
			Where("date", OpLte, day(31)),
			Where("hours", OpGte, 2),
		},
		OrderBy: "date",
	}, &got)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c-2", got[1].ClientID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildPostgresQueryBooleanAndDescending(t *testing.T) {
	query, args, err := buildPostgresQuery("clients", Query{
		Conditions: []Condition{Where("active", OpEq, true)},
		OrderBy:    "surname",
		Descending: true,
	})
	require.NoError(t, err)
	assert.Equal(t, `SELECT body FROM records WHERE collection = $1 AND (body->>'active')::boolean = $2 ORDER BY body->>'surname' DESC, partition_key, id`, query)
	assert.Equal(t, []interface{}{"clients", true}, args)
}
