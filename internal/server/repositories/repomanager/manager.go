package repomanager

import (
	"context"
	"database/sql"

	"accountd/internal/dbx"
	"accountd/internal/server/repositories/roles"
	"accountd/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a specific handle (either the
// pool or a transaction) and exposes a schema migration hook.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Roles(db dbx.DBTX) roles.Repository
}
