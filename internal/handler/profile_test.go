package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawloan/accounts/internal/ctxkeys"
	"github.com/pawloan/accounts/internal/db"
	"github.com/pawloan/accounts/internal/model"
	"github.com/pawloan/accounts/internal/repository"
	"github.com/pawloan/accounts/internal/service"
)

type profileTestEnv struct {
	handler *profileHandler
	alice   *model.User
	bob     *model.User
	admin   *model.User
}

func newProfileTestEnv(t *testing.T) *profileTestEnv {
	t.Helper()

	database, err := db.Init("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	userRepo := repository.NewUserRepository(database)
	fileRepo := repository.NewFileRepository(database)
	activity := service.NewActivityLogger(repository.NewActivityRepository(database))
	email := service.NewEmailService("", "noreply@pawloan.test", "http://localhost:8090", "Pawloan", true)
	users := service.NewUserService(userRepo, email, activity)
	photos := service.NewPhotoService(fileRepo, users, nil, 8<<20)

	env := &profileTestEnv{handler: NewProfileHandler(users, photos)}
	for _, u := range []struct {
		email   string
		first   string
		isAdmin bool
		dst     **model.User
	}{
		{"alice@example.com", "Alice", false, &env.alice},
		{"bob@example.com", "Bob", false, &env.bob},
		{"admin@example.com", "Admin", true, &env.admin},
	} {
		user := &model.User{Email: u.email, FirstName: u.first, LastName: "User", IsAdmin: u.isAdmin}
		require.NoError(t, userRepo.Create(user))
		*u.dst = user
	}
	return env
}

func (e *profileTestEnv) view(t *testing.T, viewer *model.User, targetID int64) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest("GET", fmt.Sprintf("/profile?user_id=%d", targetID), nil)
	req = req.WithContext(ctxkeys.WithUser(req.Context(), viewer))
	rec := httptest.NewRecorder()
	e.handler.ProfilePage(rec, req)
	return rec
}

func TestProfilePageSelfView(t *testing.T) {
	env := newProfileTestEnv(t)

	rec := env.view(t, env.alice, env.alice.ID)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alice User")
}

func TestProfilePageForbiddenForOtherUsers(t *testing.T) {
	env := newProfileTestEnv(t)

	rec := env.view(t, env.bob, env.alice.ID)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Alice")
}

func TestProfilePageAdminViewsAnyone(t *testing.T) {
	env := newProfileTestEnv(t)

	rec := env.view(t, env.admin, env.alice.ID)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alice User")
}
