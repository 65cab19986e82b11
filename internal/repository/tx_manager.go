package repository

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"
)

type contextKey string

const (
	txKey    contextKey = "gorm_tx"
	hooksKey contextKey = "commit_hooks"
)

// ErrDuplicate is returned when a unique index rejects a write
var ErrDuplicate = errors.New("duplicate record")

// TransactionManager manages database transactions via context injection.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type transactionManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &transactionManager{db: db}
}

// RunInTx opens a transaction, or joins the one already carried by ctx so that
// services can compose each other's transactional steps.
func (t *transactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}
	ctx, commit := TrackCommit(ctx)
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txKey, tx)
		return fn(txCtx)
	})
	if err != nil {
		return err
	}
	commit()
	return nil
}

type commitHooks struct {
	base context.Context
	mu   sync.Mutex
	fns  []func(ctx context.Context)
}

// TrackCommit prepares ctx for a new outermost transaction. The returned
// function runs the hooks registered through AfterCommit and must only be
// called once the transaction has committed.
func TrackCommit(ctx context.Context) (context.Context, func()) {
	hooks := &commitHooks{base: ctx}
	return context.WithValue(ctx, hooksKey, hooks), func() {
		hooks.mu.Lock()
		fns := hooks.fns
		hooks.fns = nil
		hooks.mu.Unlock()
		for _, fn := range fns {
			fn(hooks.base)
		}
	}
}

// AfterCommit defers fn until the transaction carried by ctx commits, then
// calls it with the context the transaction was started from. Outside a
// transaction fn runs immediately. A rolled back transaction drops fn.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	hooks, ok := ctx.Value(hooksKey).(*commitHooks)
	if !ok {
		fn(ctx)
		return
	}
	hooks.mu.Lock()
	hooks.fns = append(hooks.fns, fn)
	hooks.mu.Unlock()
}

// GetDB extracts the transaction DB from context if present, otherwise returns root DB.
func GetDB(ctx context.Context, rootDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return rootDB.WithContext(ctx)
}

// translate maps driver-level unique violations onto ErrDuplicate.
// Requires gorm.Config{TranslateError: true}.
func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}
