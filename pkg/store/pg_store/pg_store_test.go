package pg_store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fromafrica/nscache/pkg/store"
)

type fakeRow struct {
	record *string
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(**string)) = r.record
	return nil
}

type fakeDB struct {
	execSQL  string
	execArgs []any
	execErr  error

	querySQL  string
	queryArgs []any
	row       fakeRow
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL, f.execArgs = sql, args
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.querySQL, f.queryArgs = sql, args
	return f.row
}

func strPtr(s string) *string { return &s }

func TestPgStore_InsertIsParameterized(t *testing.T) {
	db := &fakeDB{}
	s, err := NewPgStore(PgStoreOpts{DB: db})
	require.NoError(t, err)

	domain := `evil.com'); DROP TABLE dns_records; --`
	require.NoError(t, s.Insert(context.Background(), "01ARZ3NDEKTSV4RRFFQ69G5FAV", domain, `{"type":"A"}`))
	assert.Equal(t, insertRecord, db.execSQL)
	assert.NotContains(t, db.execSQL, "evil")
	assert.Equal(t, []any{"01ARZ3NDEKTSV4RRFFQ69G5FAV", domain, `{"type":"A"}`}, db.execArgs)
}

func TestPgStore_InsertError(t *testing.T) {
	db := &fakeDB{execErr: errors.New("conn reset")}
	s, _ := NewPgStore(PgStoreOpts{DB: db})
	assert.Error(t, s.Insert(context.Background(), "id", "a", "{}"))
}

func TestPgStore_LookupLatest(t *testing.T) {
	tests := []struct {
		name    string
		row     fakeRow
		want    string
		wantErr error
	}{
		{"found", fakeRow{record: strPtr(`{"type":"A"}`)}, `{"type":"A"}`, nil},
		{"no rows", fakeRow{err: pgx.ErrNoRows}, "", store.ErrNotFound},
		{"null record", fakeRow{}, "", store.ErrMalformedRow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakeDB{row: tt.row}
			s, _ := NewPgStore(PgStoreOpts{DB: db})
			got, err := s.LookupLatest(context.Background(), "example.com")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []any{"example.com"}, db.queryArgs)
		})
	}
}

func TestPgStore_LookupIOError(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: errors.New("timeout")}}
	s, _ := NewPgStore(PgStoreOpts{DB: db})
	_, err := s.LookupLatest(context.Background(), "example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)
	assert.NotErrorIs(t, err, store.ErrMalformedRow)
}

func TestNewPgStore_NilDB(t *testing.T) {
	_, err := NewPgStore(PgStoreOpts{})
	assert.Error(t, err)
}
