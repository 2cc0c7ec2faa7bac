package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"pustaka/pkg/common"
	"pustaka/pkg/logger"
)

// BunAdapter adapts a *bun.DB (or *bun.Tx) to the common.Database interface
type BunAdapter struct {
	db bun.IDB
}

// NewBunAdapter creates a new bun adapter
func NewBunAdapter(db *bun.DB) *BunAdapter {
	return &BunAdapter{db: db}
}

func (b *BunAdapter) NewSelect() common.SelectQuery {
	return &BunSelectQuery{query: b.db.NewSelect()}
}

func (b *BunAdapter) NewInsert() common.InsertQuery {
	return &BunInsertQuery{query: b.db.NewInsert()}
}

func (b *BunAdapter) NewUpdate() common.UpdateQuery {
	return &BunUpdateQuery{query: b.db.NewUpdate()}
}

func (b *BunAdapter) NewDelete() common.DeleteQuery {
	return &BunDeleteQuery{query: b.db.NewDelete()}
}

func (b *BunAdapter) Exec(ctx context.Context, query string, args ...interface{}) (res common.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = logger.HandlePanic("BunAdapter.Exec", r)
		}
	}()
	result, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &BunResult{result: result}, nil
}

func (b *BunAdapter) Query(ctx context.Context, dest interface{}, query string, args ...interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = logger.HandlePanic("BunAdapter.Query", r)
		}
	}()
	return b.db.NewRaw(query, args...).Scan(ctx, dest)
}

// RunInTransaction runs fn inside a transaction; the callback receives an
// adapter bound to the transaction.
func (b *BunAdapter) RunInTransaction(ctx context.Context, fn func(common.Database) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = logger.HandlePanic("BunAdapter.RunInTransaction", r)
		}
	}()

	db, ok := b.db.(*bun.DB)
	if !ok {
		// Already inside a transaction; run directly
		return fn(b)
	}

	return db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(&BunAdapter{db: tx})
	})
}

// GetUnderlyingDB returns the underlying bun handle
func (b *BunAdapter) GetUnderlyingDB() interface{} {
	return b.db
}

// DriverName returns the canonical driver name
func (b *BunAdapter) DriverName() string {
	db, ok := b.db.(*bun.DB)
	if !ok {
		return "unknown"
	}
	name := db.Dialect().Name().String()
	switch {
	case strings.Contains(name, "pg"):
		return "postgres"
	case strings.Contains(name, "sqlite"):
		return "sqlite"
	default:
		return name
	}
}

// BunSelectQuery implements common.SelectQuery
type BunSelectQuery struct {
	query *bun.SelectQuery
}

func (b *BunSelectQuery) Model(model interface{}) common.SelectQuery {
	b.query = b.query.Model(model)
	return b
}

func (b *BunSelectQuery) Table(table string) common.SelectQuery {
	b.query = b.query.Table(table)
	return b
}

func (b *BunSelectQuery) Column(columns ...string) common.SelectQuery {
	b.query = b.query.Column(columns...)
	return b
}

func (b *BunSelectQuery) ColumnExpr(query string, args ...interface{}) common.SelectQuery {
	b.query = b.query.ColumnExpr(query, args...)
	return b
}

func (b *BunSelectQuery) Where(query string, args ...interface{}) common.SelectQuery {
	b.query = b.query.Where(query, args...)
	return b
}

func (b *BunSelectQuery) WhereOr(query string, args ...interface{}) common.SelectQuery {
	b.query = b.query.WhereOr(query, args...)
	return b
}

// WhereGroup adds a parenthesised group of conditions joined to the
// preceding conditions with AND.
func (b *BunSelectQuery) WhereGroup(fn func(common.SelectQuery) common.SelectQuery) common.SelectQuery {
	b.query = b.query.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
		wrapped := &BunSelectQuery{query: q}
		fn(wrapped)
		return wrapped.query
	})
	return b
}

func (b *BunSelectQuery) Join(query string, args ...interface{}) common.SelectQuery {
	b.query = b.query.Join(query, args...)
	return b
}

func (b *BunSelectQuery) Order(order string) common.SelectQuery {
	b.query = b.query.Order(order)
	return b
}

func (b *BunSelectQuery) OrderExpr(order string, args ...interface{}) common.SelectQuery {
	b.query = b.query.OrderExpr(order, args...)
	return b
}

func (b *BunSelectQuery) Limit(n int) common.SelectQuery {
	b.query = b.query.Limit(n)
	return b
}

func (b *BunSelectQuery) Offset(n int) common.SelectQuery {
	b.query = b.query.Offset(n)
	return b
}

func (b *BunSelectQuery) Scan(ctx context.Context, dest interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = logger.HandlePanic("BunSelectQuery.Scan", r)
		}
	}()
	return b.query.Scan(ctx, dest)
}

func (b *BunSelectQuery) Count(ctx context.Context) (count int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = logger.HandlePanic("BunSelectQuery.Count", r)
		}
	}()
	return b.query.Count(ctx)
}

func (b *BunSelectQuery) Exists(ctx context.Context) (exists bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = logger.HandlePanic("BunSelectQuery.Exists", r)
		}
	}()
	return b.query.Exists(ctx)
}

// BunInsertQuery implements common.InsertQuery
type BunInsertQuery struct {
	query *bun.InsertQuery
}

func (b *BunInsertQuery) Model(model interface{}) common.InsertQuery {
	b.query = b.query.Model(model)
	return b
}

func (b *BunInsertQuery) Table(table string) common.InsertQuery {
	b.query = b.query.Table(table)
	return b
}

func (b *BunInsertQuery) Returning(columns ...string) common.InsertQuery {
	b.query = b.query.Returning(strings.Join(columns, ", "))
	return b
}

func (b *BunInsertQuery) Exec(ctx context.Context) (res common.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = logger.HandlePanic("BunInsertQuery.Exec", r)
		}
	}()
	result, err := b.query.Exec(ctx)
	if err != nil {
		return nil, err
	}
	return &BunResult{result: result}, nil
}

// BunUpdateQuery implements common.UpdateQuery
type BunUpdateQuery struct {
	query *bun.UpdateQuery
}

func (b *BunUpdateQuery) Model(model interface{}) common.UpdateQuery {
	b.query = b.query.Model(model)
	return b
}

func (b *BunUpdateQuery) Table(table string) common.UpdateQuery {
	b.query = b.query.Table(table)
	return b
}

func (b *BunUpdateQuery) Set(column string, value interface{}) common.UpdateQuery {
	b.query = b.query.Set("? = ?", bun.Ident(column), value)
	return b
}

func (b *BunUpdateQuery) SetMap(values map[string]interface{}) common.UpdateQuery {
	for column, value := range values {
		b.query = b.query.Set("? = ?", bun.Ident(column), value)
	}
	return b
}

func (b *BunUpdateQuery) Where(query string, args ...interface{}) common.UpdateQuery {
	b.query = b.query.Where(query, args...)
	return b
}

func (b *BunUpdateQuery) Returning(columns ...string) common.UpdateQuery {
	b.query = b.query.Returning(strings.Join(columns, ", "))
	return b
}

func (b *BunUpdateQuery) Exec(ctx context.Context) (res common.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = logger.HandlePanic("BunUpdateQuery.Exec", r)
		}
	}()
	result, err := b.query.Exec(ctx)
	if err != nil {
		return nil, err
	}
	return &BunResult{result: result}, nil
}

// BunDeleteQuery implements common.DeleteQuery
type BunDeleteQuery struct {
	query *bun.DeleteQuery
}

func (b *BunDeleteQuery) Model(model interface{}) common.DeleteQuery {
	b.query = b.query.Model(model)
	return b
}

func (b *BunDeleteQuery) Table(table string) common.DeleteQuery {
	b.query = b.query.Table(table)
	return b
}

func (b *BunDeleteQuery) Where(query string, args ...interface{}) common.DeleteQuery {
	b.query = b.query.Where(query, args...)
	return b
}

func (b *BunDeleteQuery) Exec(ctx context.Context) (res common.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = logger.HandlePanic("BunDeleteQuery.Exec", r)
		}
	}()
	result, err := b.query.Exec(ctx)
	if err != nil {
		return nil, err
	}
	return &BunResult{result: result}, nil
}

// BunResult implements common.Result
type BunResult struct {
	result sql.Result
}

func (b *BunResult) RowsAffected() int64 {
	n, err := b.result.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

func (b *BunResult) LastInsertId() (int64, error) {
	if b.result == nil {
		return 0, fmt.Errorf("no result available")
	}
	return b.result.LastInsertId()
}
