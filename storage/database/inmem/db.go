// Package inmemdb provides map-backed repositories used by tests and local
// development. The exec overrides accepted by the repositories are ignored:
// the whole store is guarded by a single lock instead.
package inmemdb

import (
	"context"
	"database/sql"
	"sync"

	"github.com/aissist/aissist/core"
	"github.com/aissist/aissist/core/room"
	"github.com/aissist/aissist/core/settings"
	"github.com/aissist/aissist/core/task"
	"github.com/aissist/aissist/core/user"
)

type DB struct {
	mu sync.RWMutex

	users       map[string]*user.User
	calendars   map[string]*user.Calendar
	rooms       map[string]*room.Room
	members     map[string]map[string]*room.Member     // roomID -> userID
	tasks       map[string]*task.Task
	completions map[string]map[string]*task.Completion // taskID -> userID
	settings    map[string]*settings.Settings
}

var _ core.DB = (*DB)(nil)

func Open() *DB {
	return &DB{
		users:       make(map[string]*user.User),
		calendars:   make(map[string]*user.Calendar),
		rooms:       make(map[string]*room.Room),
		members:     make(map[string]map[string]*room.Member),
		tasks:       make(map[string]*task.Task),
		completions: make(map[string]map[string]*task.Completion),
		settings:    make(map[string]*settings.Settings),
	}
}

// core.DB implementation; repositories never run SQL against this store so
// the executor methods are inert.

func (db *DB) Exec(string, ...interface{}) (sql.Result, error)                          { return nil, nil }
func (db *DB) ExecContext(context.Context, string, ...interface{}) (sql.Result, error)  { return nil, nil }
func (db *DB) Query(string, ...interface{}) (*sql.Rows, error)                          { return nil, nil }
func (db *DB) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)  { return nil, nil }
func (db *DB) QueryRow(string, ...interface{}) *sql.Row                                 { return nil }
func (db *DB) QueryRowContext(context.Context, string, ...interface{}) *sql.Row         { return nil }

func (db *DB) BeginTx(context.Context, *sql.TxOptions) (core.DBTransactor, error) {
	return noopTx{db}, nil
}

// noopTx satisfies core.DBTransactor; commit and rollback are no-ops since
// every repository write applies immediately under the store lock.
type noopTx struct {
	*DB
}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }
