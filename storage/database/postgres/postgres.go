// Package pgrepos provides PostgreSQL-backed repositories built on
// squirrel query building and sqlx row scanning.
package pgrepos

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/aissist/aissist/core"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// selectAll runs sb on exec and scans every row into dest (a pointer to a
// slice of db-tagged structs).
func selectAll(ctx context.Context, exec core.DBExecutor, dest interface{}, sb squirrel.SelectBuilder) error {
	q, args, err := sb.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	rows, err := exec.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	return sqlx.StructScan(rows, dest)
}

func execQuery(ctx context.Context, exec core.DBExecutor, sq squirrel.Sqlizer) (int64, error) {
	q, args, err := sq.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := exec.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
