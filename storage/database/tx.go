package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/aissist/aissist/core"
)

// TxDB adapts a *sqlx.DB to core.DB so services can open transactions
// without depending on database/sql concretions.
type TxDB struct {
	*sqlx.DB
}

var _ core.DB = (*TxDB)(nil)

func NewTxDB(db *sqlx.DB) *TxDB {
	return &TxDB{DB: db}
}

func (db *TxDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (core.DBTransactor, error) {
	return db.DB.BeginTxx(ctx, opts)
}
