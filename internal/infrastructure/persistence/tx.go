package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Код PostgreSQL для нарушения уникальности
const uniqueViolation = "23505"

// executor — общий интерфейс *sqlx.DB и *sqlx.Tx.
type executor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

type txKey struct{}

// Transactor открывает транзакцию и кладёт её в контекст, репозитории берут её оттуда.
type Transactor struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewTransactor(db *sqlx.DB, timeout time.Duration) *Transactor {
	return &Transactor{db: db, timeout: timeout}
}

// WithinTransaction выполняет fn внутри транзакции с откатом при ошибке или панике.
// Вложенный вызов переиспользует уже открытую транзакцию.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.Store(err, "не удалось начать транзакцию")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperror.Store(err, "не удалось зафиксировать транзакцию")
	}
	return nil
}

// conn возвращает транзакцию из контекста или пул.
func conn(ctx context.Context, db *sqlx.DB) executor {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

// withTimeout ограничивает время одного обращения к хранилищу.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
