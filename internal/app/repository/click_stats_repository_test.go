package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sifan077/PowerLink/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRows struct {
	data [][]any
	pos  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.data[r.pos-1], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	*dest[0].(*int64) = row[0].(int64)
	*dest[1].(*int64) = row[1].(int64)
	*dest[2].(*time.Time) = row[2].(time.Time)
	return nil
}

type fakeQuerier struct {
	rows    *fakeRows
	err     error
	gotSQL  string
	gotArgs []any
}

func (q *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.gotSQL = sql
	q.gotArgs = args
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

func TestClickStatsRepository_CountByUser(t *testing.T) {
	last := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	q := &fakeQuerier{rows: &fakeRows{data: [][]any{
		{int64(1), int64(12), last},
		{int64(4), int64(3), last.Add(-time.Hour)},
	}}}

	stats, err := NewClickStatsRepository(q).CountByUser(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, []any{"ana"}, q.gotArgs)
	assert.Equal(t, []model.LinkClicks{
		{LinkID: 1, Clicks: 12, LastAt: last},
		{LinkID: 4, Clicks: 3, LastAt: last.Add(-time.Hour)},
	}, stats)
}

func TestClickStatsRepository_QueryError(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := NewClickStatsRepository(&fakeQuerier{err: boom}).CountByUser(context.Background(), "ana")
	assert.ErrorIs(t, err, boom)
}

func TestClickStatsRepository_RowsError(t *testing.T) {
	boom := errors.New("conn reset")
	_, err := NewClickStatsRepository(&fakeQuerier{rows: &fakeRows{err: boom}}).CountByUser(context.Background(), "ana")
	assert.ErrorIs(t, err, boom)
}
