package memory

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/studynest/internal/common"
	"github.com/dmitrijs2005/studynest/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Users()

	u, err := repo.Create(ctx, &models.User{UserName: "alice", Password: "pw", Role: "teacher", RollNo: "R1"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)

	_, err = repo.Create(ctx, &models.User{UserName: "alice"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	got, err := repo.GetUserByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "teacher", got.Role)

	_, err = repo.GetUserByLogin(ctx, "bob")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, repo.UpdatePassword(ctx, u.ID, "hash"))
	got, _ = repo.GetUserByLogin(ctx, "alice")
	assert.Equal(t, "hash", got.Password)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, "missing", "x"), common.ErrorNotFound)
}

func TestPages(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Pages()

	require.NoError(t, repo.Create(ctx, &models.Page{Name: "Physics", Semester: 2}))
	require.NoError(t, repo.Create(ctx, &models.Page{Name: "Math101", Semester: 2}))
	require.NoError(t, repo.Create(ctx, &models.Page{Name: "Intro", Semester: 1}))
	assert.ErrorIs(t, repo.Create(ctx, &models.Page{Name: "Intro", Semester: 5}), common.ErrorAlreadyExists)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	var names []string
	for _, p := range list {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Intro", "Math101", "Physics"}, names)

	p, err := repo.DeleteByName(ctx, "Intro")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Semester)

	_, err = repo.GetByName(ctx, "Intro")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = repo.DeleteByName(ctx, "Intro")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFiles(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Files()

	require.NoError(t, repo.Create(ctx, &models.File{PageName: "Math101", Name: "a.pdf", Backend: "disk", StorageKey: "k1"}))
	time.Sleep(time.Millisecond)
	require.NoError(t, repo.Create(ctx, &models.File{PageName: "Math101", Name: "b.pdf", Backend: "inline", FileData: "QQ=="}))
	require.NoError(t, repo.Create(ctx, &models.File{PageName: "Physics", Name: "a.pdf", Backend: "disk", StorageKey: "k2"}))

	err := repo.Create(ctx, &models.File{PageName: "Math101", Name: "a.pdf"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	list, err := repo.ListByPage(ctx, "Math101")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a.pdf", list[0].Name)
	assert.Equal(t, "b.pdf", list[1].Name)

	keys, err := repo.StorageKeys(ctx, "disk")
	require.NoError(t, err)
	assert.Equal(t, []string{"k1", "k2"}, keys)

	require.NoError(t, s.Pages().Create(ctx, &models.Page{Name: "Physics", Semester: 1}))
	orphans, err := repo.OrphanedPageNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Math101"}, orphans)

	f, err := repo.Delete(ctx, "Physics", "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "k2", f.StorageKey)
	_, err = repo.Get(ctx, "Physics", "a.pdf")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	n, err := repo.DeleteByPage(ctx, "Math101")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.DeleteByPage(ctx, "Math101")
	require.NoError(t, err)
	assert.Zero(t, n)

	list, err = repo.ListByPage(ctx, "Math101")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFiles_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Files()

	require.NoError(t, repo.Create(ctx, &models.File{PageName: "P", Name: "a", ContentType: "text/plain"}))
	f, err := repo.Get(ctx, "P", "a")
	require.NoError(t, err)
	f.ContentType = "changed"

	f, err = repo.Get(ctx, "P", "a")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", f.ContentType)
}

func TestCareerPaths(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().CareerPaths()

	require.NoError(t, repo.Create(ctx, &models.CareerPath{CareerPath: "Web", PdfData: "QQ=="}))
	require.NoError(t, repo.Create(ctx, &models.CareerPath{CareerPath: "AI", PdfData: "Qg=="}))
	assert.ErrorIs(t, repo.Create(ctx, &models.CareerPath{CareerPath: "AI"}), common.ErrorAlreadyExists)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "AI", list[0].CareerPath)

	cp, err := repo.GetByLabel(ctx, "Web")
	require.NoError(t, err)
	assert.Equal(t, "QQ==", cp.PdfData)

	_, err = repo.GetByLabel(ctx, "None")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
