package files

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/studynest/internal/common"
	"github.com/dmitrijs2005/studynest/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

var (
	insertQ       = regexp.QuoteMeta(`INSERT INTO files (id, page_name, name, backend, storage_key, file_data, content_type, size)`)
	getQ          = regexp.QuoteMeta(`FROM files WHERE page_name = $1 AND name = $2`)
	listQ         = regexp.QuoteMeta(`FROM files WHERE page_name = $1 ORDER BY uploaded_at, name`)
	deleteQ       = regexp.QuoteMeta(`DELETE FROM files WHERE page_name = $1 AND name = $2 RETURNING`)
	deleteByPageQ = regexp.QuoteMeta(`DELETE FROM files WHERE page_name = $1`)
	orphansQ      = regexp.QuoteMeta(`SELECT DISTINCT f.page_name FROM files f`)
	keysQ         = regexp.QuoteMeta(`SELECT storage_key FROM files WHERE backend = $1`)
	cols          = []string{"id", "page_name", "name", "backend", "storage_key", "file_data", "content_type", "size", "uploaded_at"}
)

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(insertQ).
		WithArgs(sqlmock.AnyArg(), "Math101", "notes.pdf", "inline", "", "JVBERi0=", "application/pdf", int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"uploaded_at"}).AddRow(now))

	f := &models.File{
		PageName: "Math101", Name: "notes.pdf", Backend: "inline",
		FileData: "JVBERi0=", ContentType: "application/pdf", Size: 5,
	}
	require.NoError(t, repo.Create(context.Background(), f))
	assert.NotEmpty(t, f.ID)
	assert.Equal(t, now, f.UploadedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Errors(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(&pgconn.PgError{Code: "23505"})
	err := repo.Create(context.Background(), &models.File{PageName: "Math101", Name: "a"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("conn reset"))
	err = repo.Create(context.Background(), &models.File{PageName: "Math101", Name: "a"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorAlreadyExists)
	assert.Contains(t, err.Error(), "conn reset")
}

func TestGet(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(getQ).WithArgs("Math101", "notes.pdf").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("f1", "Math101", "notes.pdf", "disk", "Math101/x_notes.pdf", "", "application/pdf", int64(5), now))

	f, err := repo.Get(context.Background(), "Math101", "notes.pdf")
	require.NoError(t, err)
	assert.Equal(t, &models.File{
		ID: "f1", PageName: "Math101", Name: "notes.pdf", Backend: "disk",
		StorageKey: "Math101/x_notes.pdf", ContentType: "application/pdf", Size: 5, UploadedAt: now,
	}, f)

	mock.ExpectQuery(getQ).WithArgs("Math101", "nope").WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), "Math101", "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	mock.ExpectQuery(getQ).WithArgs("Math101", "boom").WillReturnError(errors.New("db err"))
	_, err = repo.Get(context.Background(), "Math101", "boom")
	assert.Regexp(t, `failed to select file: .*db err`, err.Error())
}

func TestListByPage(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(listQ).WithArgs("Math101").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("f1", "Math101", "a.pdf", "inline", "", "QQ==", "application/pdf", int64(1), now).
			AddRow("f2", "Math101", "b.png", "s3", "pages/Math101/u_b.png", "", "image/png", int64(9), now))

	got, err := repo.ListByPage(context.Background(), "Math101")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a.pdf", got[0].Name)
	assert.Equal(t, "pages/Math101/u_b.png", got[1].StorageKey)

	mock.ExpectQuery(listQ).WithArgs("Empty").WillReturnRows(sqlmock.NewRows(cols))
	got, err = repo.ListByPage(context.Background(), "Empty")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListByPage_Errors(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(listQ).WillReturnError(errors.New("db err"))
	_, err := repo.ListByPage(context.Background(), "Math101")
	assert.Regexp(t, `failed to select files: .*db err`, err.Error())

	mock.ExpectQuery(listQ).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("f1", "Math101", "a.pdf", "inline", "", "QQ==", "application/pdf", "not-int", time.Now()))
	_, err = repo.ListByPage(context.Background(), "Math101")
	assert.Error(t, err)

	mock.ExpectQuery(listQ).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("f1", "Math101", "a.pdf", "inline", "", "QQ==", "application/pdf", int64(1), time.Now()).
			RowError(0, errors.New("row-err")))
	_, err = repo.ListByPage(context.Background(), "Math101")
	assert.EqualError(t, err, "row-err")
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(deleteQ).WithArgs("Math101", "a.pdf").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("f1", "Math101", "a.pdf", "disk", "Math101/u_a.pdf", "", "application/pdf", int64(1), now))

	f, err := repo.Delete(context.Background(), "Math101", "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Math101/u_a.pdf", f.StorageKey)

	mock.ExpectQuery(deleteQ).WithArgs("Math101", "a.pdf").WillReturnError(sql.ErrNoRows)
	_, err = repo.Delete(context.Background(), "Math101", "a.pdf")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	mock.ExpectQuery(deleteQ).WithArgs("Math101", "b.pdf").WillReturnError(errors.New("db err"))
	_, err = repo.Delete(context.Background(), "Math101", "b.pdf")
	assert.Regexp(t, `failed to delete file: .*db err`, err.Error())
}

func TestDeleteByPage(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteByPageQ).WithArgs("Math101").WillReturnResult(sqlmock.NewResult(0, 3))
	n, err := repo.DeleteByPage(context.Background(), "Math101")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	mock.ExpectExec(deleteByPageQ).WithArgs("Empty").WillReturnResult(sqlmock.NewResult(0, 0))
	n, err = repo.DeleteByPage(context.Background(), "Empty")
	require.NoError(t, err)
	assert.Zero(t, n)

	mock.ExpectExec(deleteByPageQ).WithArgs("Boom").WillReturnError(errors.New("db err"))
	_, err = repo.DeleteByPage(context.Background(), "Boom")
	assert.Regexp(t, `failed to delete files: .*db err`, err.Error())

	mock.ExpectExec(deleteByPageQ).WithArgs("Bad").WillReturnResult(sqlmock.NewErrorResult(errors.New("ra")))
	_, err = repo.DeleteByPage(context.Background(), "Bad")
	assert.Regexp(t, `failed to get rows affected: .*ra`, err.Error())
}

func TestOrphanedPageNames(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(orphansQ).
		WillReturnRows(sqlmock.NewRows([]string{"page_name"}).AddRow("Gone1").AddRow("Gone2"))

	got, err := repo.OrphanedPageNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Gone1", "Gone2"}, got)
}

func TestStorageKeys(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(keysQ).WithArgs("disk").
		WillReturnRows(sqlmock.NewRows([]string{"storage_key"}).AddRow("Math101/u_a.pdf"))

	got, err := repo.StorageKeys(context.Background(), "disk")
	require.NoError(t, err)
	assert.Equal(t, []string{"Math101/u_a.pdf"}, got)

	mock.ExpectQuery(keysQ).WithArgs("s3").WillReturnError(errors.New("db err"))
	_, err = repo.StorageKeys(context.Background(), "s3")
	assert.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}
