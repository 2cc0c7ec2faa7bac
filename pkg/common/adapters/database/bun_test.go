package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"pustaka/pkg/common"
)

func newMockAdapter(t *testing.T) (*BunAdapter, sqlmock.Sqlmock) {
	t.Helper()

	sqldb, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	db := bun.NewDB(sqldb, pgdialect.New())
	return NewBunAdapter(db), mock
}

func TestDriverNamePostgres(t *testing.T) {
	adapter, _ := newMockAdapter(t)
	assert.Equal(t, "postgres", adapter.DriverName())
}

func TestSelectBuildsBoundWhere(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT .+ FROM "member" WHERE \(member_id = 'M001'\) LIMIT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"member_id", "member_name"}).
			AddRow("M001", "Ada Lovelace"))

	var rows []map[string]interface{}
	err := adapter.NewSelect().
		Table("member").
		Where("member_id = ?", "M001").
		Limit(1).
		Scan(context.Background(), &rows)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ada Lovelace", rows[0]["member_name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWhereGroupParenthesizes(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`WHERE \(\(title = 'a'\) OR \(title = 'b'\)\) AND \(publish_year = '2019'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"biblio_id"}))

	var rows []map[string]interface{}
	err := adapter.NewSelect().
		Table("biblio").
		WhereGroup(func(q common.SelectQuery) common.SelectQuery {
			return q.Where("title = ?", "a").WhereOr("title = ?", "b")
		}).
		Where("publish_year = ?", "2019").
		Scan(context.Background(), &rows)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSetMapTargetsRow(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectExec(`UPDATE "loan" SET .*is_return.* WHERE \(loan_id = 7\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := adapter.NewUpdate().
		Table("loan").
		SetMap(map[string]interface{}{"is_return": 1}).
		Where("loan_id = ?", 7).
		Exec(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(1), result.RowsAffected())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReportsRowsAffected(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectExec(`DELETE FROM "visitor_count" .*WHERE \(visitor_id = 9\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	result, err := adapter.NewDelete().
		Table("visitor_count").
		Where("visitor_id = ?", 9).
		Exec(context.Background())

	require.NoError(t, err)
	assert.Zero(t, result.RowsAffected())
	assert.NoError(t, mock.ExpectationsWereMet())
}
