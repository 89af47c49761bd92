package submissions

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/opengovsg/FormSG-sub011/internal/common"
	"github.com/opengovsg/FormSG-sub011/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

var columns = []string{"id", "form_id", "auth_type", "encrypted_content", "verified_content",
	"attachment_metadata", "autofill_fields", "version", "created_at"}

var created = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^\s*INSERT\s+INTO\s+submissions\b`).
		WithArgs("s1", "f1", "NIL", "enc", "", []byte(`{"a":"f1/x/y"}`), []byte(`[]`), 1, created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.Submission{
		ID: "s1", FormID: "f1", AuthType: models.AuthTypeNil, EncryptedContent: "enc",
		AttachmentMetadata: map[string]string{"a": "f1/x/y"}, Version: 1, CreatedAt: created,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO submissions`).WillReturnError(errors.New("boom"))

	err := repo.Create(context.Background(), &models.Submission{ID: "s1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

func TestGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM submissions WHERE id=\$1 AND form_id=\$2$`).
		WithArgs("s1", "f1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"s1", "f1", "SP", "enc", "ver", []byte(`{"a":"k"}`), []byte(`["sex"]`), 1, created))

	got, err := repo.GetByID(context.Background(), "f1", "s1")
	require.NoError(t, err)

	want := &models.Submission{
		ID: "s1", FormID: "f1", AuthType: models.AuthTypeSP, EncryptedContent: "enc", VerifiedContent: "ver",
		AttachmentMetadata: map[string]string{"a": "k"}, AutofillFields: []string{"sex"}, Version: 1, CreatedAt: created,
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM submissions`).WithArgs("s1", "f1").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "f1", "s1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestOpenCursor_IteratesAndCloses(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	start := created
	end := created.Add(24 * time.Hour)
	mock.ExpectQuery(`WHERE form_id=\$1 AND created_at >= \$2 AND created_at < \$3 ORDER BY created_at$`).
		WithArgs("f1", start, end).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("s1", "f1", "NIL", "e1", "", []byte(`{}`), []byte(`[]`), 1, created).
			AddRow("s2", "f1", "NIL", "e2", "", []byte(`{}`), []byte(`[]`), 1, created.Add(time.Hour))).
		RowsWillBeClosed()

	cur, err := repo.OpenCursor(context.Background(), models.SubmissionQuery{FormID: "f1", Start: start, End: end})
	require.NoError(t, err)

	ctx := context.Background()
	s, err := cur.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s1", s.ID)
	s, err = cur.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s2", s.ID)
	_, err = cur.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, cur.Close())
	require.NoError(t, cur.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenCursor_NoBounds(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`WHERE form_id=\$1 ORDER BY created_at$`).
		WithArgs("f1").
		WillReturnRows(sqlmock.NewRows(columns))

	cur, err := repo.OpenCursor(context.Background(), models.SubmissionQuery{FormID: "f1"})
	require.NoError(t, err)
	defer cur.Close()

	_, err = cur.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpenCursor_CancelledContext(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM submissions`).WithArgs("f1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("s1", "f1", "NIL", "e1", "", []byte(`{}`), []byte(`[]`), 1, created))

	cur, err := repo.OpenCursor(context.Background(), models.SubmissionQuery{FormID: "f1"})
	require.NoError(t, err)
	defer cur.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = cur.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenCursor_RowError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM submissions`).WithArgs("f1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("s1", "f1", "NIL", "e1", "", []byte(`{}`), []byte(`[]`), 1, created).
			RowError(0, errors.New("broken")))

	cur, err := repo.OpenCursor(context.Background(), models.SubmissionQuery{FormID: "f1"})
	require.NoError(t, err)
	defer cur.Close()

	_, err = cur.Next(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}

func TestOpenCursor_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM submissions`).WillReturnError(errors.New("boom"))

	_, err := repo.OpenCursor(context.Background(), models.SubmissionQuery{FormID: "f1"})
	require.Error(t, err)
}
