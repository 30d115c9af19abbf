package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/01moynul/resell-golang/internal/apperr"
	"github.com/go-sql-driver/mysql"
)

// MySQL error numbers we translate.
const (
	mysqlDuplicateEntry = 1062
)

type txKey struct{}

// SQLTx is the TxManager for *sql.DB. The transaction rides in the context
// so the repositories below pick it up through querier().
type SQLTx struct {
	db *sql.DB
}

func NewSQLTx(db *sql.DB) *SQLTx { return &SQLTx{db: db} }

// WithTransaction runs fn at READ COMMITTED. Row locks taken with
// SELECT ... FOR UPDATE inside fn are held until commit or rollback.
func (t *SQLTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		// Already inside a transaction: join it.
		return fn(ctx)
	}

	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return apperr.Persistence("start transaction", err)
	}
	defer tx.Rollback() // Safety net

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperr.Persistence("commit transaction", err)
	}
	return nil
}

// querier returns the transaction carried by ctx, or db.
func querier(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// isDuplicate reports a unique-key violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// translate maps driver errors onto the apperr taxonomy.
func translate(op, entity string, id int64, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return apperr.NotFound(entity, id)
	case isDuplicate(err):
		return fmt.Errorf("%s: %w", op, apperr.ErrDuplicate)
	}
	return apperr.Persistence(op, err)
}

// expectOneRow turns "0 rows affected" into ErrNotFound.
func expectOneRow(res sql.Result, op, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Persistence(op, err)
	}
	if n == 0 {
		return apperr.NotFound(entity, id)
	}
	return nil
}

// NewMySQL wires every repository onto one connection pool.
func NewMySQL(db *sql.DB) *Repositories {
	return &Repositories{
		Units:   &UnitStore{db: db},
		Sales:   &SaleStore{db: db},
		Quotes:  &QuoteStore{db: db},
		Tickets: &TicketStore{db: db},
		Audit:   &AuditStore{db: db},
		Tx:      NewSQLTx(db),
	}
}
