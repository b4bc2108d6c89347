package pgsql

import (
	portsrepo "github.com/SscSPs/issue_tracker/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		IssueRepo:   newPgxIssueRepository(dbPool),
		ProfileRepo: newPgxProfileRepository(dbPool),
	}
}
