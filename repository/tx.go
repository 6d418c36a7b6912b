package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"loyaltystay/errors"

	"gorm.io/gorm"
)

type txKey struct{}

// TxManager runs a function inside a database transaction carried by the
// context. Repositories called with that context join the transaction.
type TxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// WithTx reuses an enclosing transaction when there is one.
func (m *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func txFromContext(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(txKey{}).(*gorm.DB)
	return tx
}

// conn returns the transaction in ctx or the base handle.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := txFromContext(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// dbError maps gorm errors onto the application taxonomy.
func dbError(err error, op, notFound string) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		return errors.NotFound(notFound)
	case stderrors.Is(err, gorm.ErrDuplicatedKey):
		return errors.NewAppError(errors.ErrCodeDuplicate, op+": already exists", err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
