// Package repokit holds the seams sql repos are written against
package repokit

import (
	"context"

	"worlddex/internal/platform/store"
)

type (
	// Queryer is the read and write surface a repo method needs
	Queryer = store.RowQuerier

	// TxRunner adds transactions on top of Queryer
	TxRunner = store.TxRunner

	// Row is a single scanned row
	Row = store.Row
)

// Binder binds a repo's query set to a Queryer, either the pool or an open tx
type Binder[T any] interface {
	Bind(Queryer) T
}

// InTx binds b inside one transaction on db and hands the result to fn
func InTx[T any](ctx context.Context, db TxRunner, b Binder[T], fn func(T) error) error {
	return db.Tx(ctx, func(q Queryer) error { return fn(b.Bind(q)) })
}
