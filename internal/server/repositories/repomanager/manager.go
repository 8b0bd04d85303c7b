package repomanager

import (
	"context"
	"database/sql"

	"github.com/corpopadel/padel-auth/internal/dbx"
	"github.com/corpopadel/padel-auth/internal/server/repositories/loginattempts"
	"github.com/corpopadel/padel-auth/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	LoginAttempts(db dbx.DBTX) loginattempts.Repository
}
