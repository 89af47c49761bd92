package repomanager

import (
	"context"
	"database/sql"

	"github.com/opengovsg/FormSG-sub011/internal/dbx"
	"github.com/opengovsg/FormSG-sub011/internal/server/repositories/autofillhashes"
	"github.com/opengovsg/FormSG-sub011/internal/server/repositories/forms"
	"github.com/opengovsg/FormSG-sub011/internal/server/repositories/submissions"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Forms(db dbx.DBTX) forms.Repository
	Submissions(db dbx.DBTX) submissions.Repository
	AutofillHashes(db dbx.DBTX) autofillhashes.Repository
}
