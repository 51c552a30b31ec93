package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// contextKey is a private type for context keys defined in this package.
type contextKey string

const (
	// DBConnKey is the context key holding an acquired pool connection.
	DBConnKey contextKey = "db_conn"
	// DBTxKey is the context key holding an open transaction.
	DBTxKey contextKey = "db_tx"
)

// WithConn returns a derived context carrying the acquired connection.
// Repositories prefer this connection over the shared pool, which lets a
// caller pin a sequence of queries to a single session.
func WithConn(ctx context.Context, conn *pgxpool.Conn) context.Context {
	return context.WithValue(ctx, DBConnKey, conn)
}

// ConnFromContext retrieves the pinned connection from the context.
// Returns nil if no connection is present.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, ok := ctx.Value(DBConnKey).(*pgxpool.Conn)
	if !ok {
		return nil
	}
	return conn
}

// TxFromContext retrieves the open transaction from the context. Returns nil
// if no transaction is present.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, ok := ctx.Value(DBTxKey).(pgx.Tx)
	if !ok {
		return nil
	}
	return tx
}

// WithTx begins a transaction on the connection carried by ctx and returns a
// derived context carrying the transaction. Repository methods called with
// the returned context join the transaction. The caller owns the transaction
// and must commit or roll it back.
func WithTx(ctx context.Context) (context.Context, pgx.Tx, error) {
	conn := ConnFromContext(ctx)
	if conn == nil {
		return ctx, nil, errors.New("no database connection in context")
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return ctx, nil, fmt.Errorf("begin transaction: %w", err)
	}

	return context.WithValue(ctx, DBTxKey, tx), tx, nil
}
