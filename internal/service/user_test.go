package service

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawloan/accounts/internal/authz"
	"github.com/pawloan/accounts/internal/db"
	"github.com/pawloan/accounts/internal/model"
	"github.com/pawloan/accounts/internal/repository"
)

type testEnv struct {
	db       *sqlx.DB
	userRepo repository.UserRepository
	fileRepo repository.FileRepository
	users    *UserService
	password *PasswordService
	email    *EmailService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.Init("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	userRepo := repository.NewUserRepository(database)
	fileRepo := repository.NewFileRepository(database)
	activity := NewActivityLogger(repository.NewActivityRepository(database))
	email := NewEmailService("", "noreply@pawloan.test", "http://localhost:8090", "Pawloan", true)

	users := NewUserService(userRepo, email, activity)
	password := NewPasswordService(userRepo, email, activity, testResetExpiry)

	return &testEnv{
		db:       database,
		userRepo: userRepo,
		fileRepo: fileRepo,
		users:    users,
		password: password,
		email:    email,
	}
}

// seedUser inserts a user directly through the repository, bypassing the
// provisioning flows.
func (e *testEnv) seedUser(t *testing.T, email string, isAdmin bool) *model.User {
	t.Helper()

	user := &model.User{
		Email:     email,
		FirstName: "Test",
		LastName:  "User",
		IsAdmin:   isAdmin,
	}
	require.NoError(t, e.userRepo.Create(user))
	return user
}

func asCaller(u *model.User) authz.Caller {
	return authz.Caller{ID: u.ID, IsAdmin: u.IsAdmin}
}

func TestUpdateProfileCorePersistsExactlyThreeFields(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "core@example.com", false)

	phone := "555-0100"
	_, err := env.userRepo.UpdateFields(user.ID, repository.UserFields{Phone: &phone})
	require.NoError(t, err)

	err = env.users.UpdateProfileCore(asCaller(user), user.ID, "Nora", "Banks", "Nora.Banks@Example.com")
	require.NoError(t, err)

	got, err := env.users.ByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nora", got.FirstName)
	assert.Equal(t, "Banks", got.LastName)
	assert.Equal(t, "nora.banks@example.com", got.Email)
	// Nothing else changes
	require.NotNil(t, got.Phone)
	assert.Equal(t, "555-0100", *got.Phone)
	assert.False(t, got.IsAdmin)
}

func TestUpdateProfileCoreValidation(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "valid@example.com", false)
	caller := asCaller(user)

	tests := []struct {
		name               string
		first, last, email string
	}{
		{"blank first name", "", "Banks", "x@example.com"},
		{"blank last name", "Nora", "   ", "x@example.com"},
		{"blank email", "Nora", "Banks", ""},
		{"malformed email", "Nora", "Banks", "not-an-email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.users.UpdateProfileCore(caller, user.ID, tt.first, tt.last, tt.email)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	// Storage unchanged after every rejection
	got, err := env.users.ByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test", got.FirstName)
	assert.Equal(t, "valid@example.com", got.Email)
}

func TestUpdateProfileCoreAuthorization(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice@example.com", false)
	bob := env.seedUser(t, "bob@example.com", false)
	admin := env.seedUser(t, "admin@example.com", true)

	err := env.users.UpdateProfileCore(asCaller(alice), bob.ID, "New", "Name", "new@example.com")
	assert.ErrorIs(t, err, authz.ErrForbidden)

	err = env.users.UpdateProfileCore(authz.Caller{}, bob.ID, "New", "Name", "new@example.com")
	assert.ErrorIs(t, err, authz.ErrLoginRequired)

	err = env.users.UpdateProfileCore(asCaller(admin), bob.ID, "New", "Name", "new@example.com")
	assert.NoError(t, err)
}

func TestUpdateExtendedFieldsTriState(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "tri@example.com", false)
	caller := asCaller(user)

	err := env.users.UpdateExtendedFields(caller, user.ID, ExtendedFieldsInput{
		PreferredName:     "Nobby",
		Phone:             "  555-0101  ",
		HasOwnedDog:       "1",
		HasChildrenAtHome: "0",
		HasOutdoorSpace:   "bogus",
	})
	require.NoError(t, err)

	got, err := env.users.ByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PreferredName)
	assert.Equal(t, "Nobby", *got.PreferredName)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "555-0101", *got.Phone)
	assert.Equal(t, model.TriStateTrue, got.HasOwnedDog)
	assert.Equal(t, model.TriStateFalse, got.HasChildrenAtHome)
	// Unrecognized input normalizes to unset
	assert.Equal(t, model.TriStateUnset, got.HasOutdoorSpace)

	// Blank strings clear previously set optional fields
	err = env.users.UpdateExtendedFields(caller, user.ID, ExtendedFieldsInput{})
	require.NoError(t, err)

	got, err = env.users.ByID(user.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PreferredName)
	assert.Nil(t, got.Phone)
	assert.Equal(t, model.TriStateUnset, got.HasOwnedDog)
}

func TestUpdateFeatureFlags(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "flags@example.com", false)
	caller := asCaller(user)

	require.NoError(t, env.users.UpdateFeatureFlags(caller, user.ID, true, true))

	got, err := env.users.ByID(user.ID)
	require.NoError(t, err)
	assert.True(t, got.OwnerEnabled)
	assert.True(t, got.BorrowerEnabled)

	// Checkbox absence unconditionally clears
	require.NoError(t, env.users.UpdateFeatureFlags(caller, user.ID, false, true))

	got, err = env.users.ByID(user.ID)
	require.NoError(t, err)
	assert.False(t, got.OwnerEnabled)
	assert.True(t, got.BorrowerEnabled)
}

func TestCreateUserModes(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "admin@example.com", true)
	adminCaller := asCaller(admin)

	t.Run("admin with password", func(t *testing.T) {
		user, err := env.users.CreateUser(adminCaller, CreateUserInput{
			FirstName: "Pat",
			LastName:  "Silva",
			Email:     "Pat@Example.com",
			Password:  "hunter2hunter2",
		}, CreateModeAdminPassword)
		require.NoError(t, err)
		assert.Equal(t, "pat@example.com", user.Email)
		assert.True(t, user.HasPassword())
		assert.NotNil(t, user.EmailVerifiedAt)
		assert.Nil(t, user.EmailVerifyToken)
	})

	t.Run("admin setup flow", func(t *testing.T) {
		user, err := env.users.CreateUser(adminCaller, CreateUserInput{
			FirstName: "Sam",
			LastName:  "Reed",
			Email:     "sam@example.com",
		}, CreateModeAdminSetup)
		require.NoError(t, err)
		assert.False(t, user.HasPassword())
		assert.Nil(t, user.EmailVerifiedAt)
		require.NotNil(t, user.EmailVerifyToken)
	})

	t.Run("self signup", func(t *testing.T) {
		user, err := env.users.CreateUser(authz.Caller{}, CreateUserInput{
			FirstName: "New",
			LastName:  "Member",
			Email:     "member@example.com",
			Password:  "longenough",
		}, CreateModeSelfSignup)
		require.NoError(t, err)
		assert.True(t, user.HasPassword())
		assert.Nil(t, user.EmailVerifiedAt)
		require.NotNil(t, user.EmailVerifyToken)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := env.users.CreateUser(adminCaller, CreateUserInput{
			FirstName: "Other",
			LastName:  "Pat",
			Email:     "pat@example.com",
			Password:  "hunter2hunter2",
		}, CreateModeAdminPassword)
		assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
	})

	t.Run("admin mode requires admin", func(t *testing.T) {
		plain := env.seedUser(t, "plain@example.com", false)
		_, err := env.users.CreateUser(asCaller(plain), CreateUserInput{
			FirstName: "No",
			LastName:  "Way",
			Email:     "noway@example.com",
		}, CreateModeAdminSetup)
		assert.ErrorIs(t, err, authz.ErrForbidden)
	})
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "admin@example.com", true)
	victim := env.seedUser(t, "victim@example.com", false)

	// Admins cannot delete themselves
	err := env.users.DeleteUser(asCaller(admin), admin.ID)
	assert.ErrorIs(t, err, ErrSelfDelete)

	// Non-admins cannot delete at all
	err = env.users.DeleteUser(asCaller(victim), admin.ID)
	assert.ErrorIs(t, err, authz.ErrForbidden)

	require.NoError(t, env.users.DeleteUser(asCaller(admin), victim.ID))
	_, err = env.users.ByID(victim.ID)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestSetAdminFlag(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "admin@example.com", true)
	user := env.seedUser(t, "user@example.com", false)

	assert.ErrorIs(t, env.users.SetAdminFlag(asCaller(user), user.ID, true), authz.ErrForbidden)

	require.NoError(t, env.users.SetAdminFlag(asCaller(admin), user.ID, true))
	got, err := env.users.ByID(user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)
}

func TestListUsersRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "admin@example.com", true)
	user := env.seedUser(t, "user@example.com", false)

	_, err := env.users.ListUsers(asCaller(user), "")
	assert.ErrorIs(t, err, authz.ErrForbidden)

	users, err := env.users.ListUsers(asCaller(admin), "")
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestVerifyAndSetPassword(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "admin@example.com", true)

	user, err := env.users.CreateUser(asCaller(admin), CreateUserInput{
		FirstName: "Setup",
		LastName:  "Flow",
		Email:     "setup@example.com",
	}, CreateModeAdminSetup)
	require.NoError(t, err)
	require.NotNil(t, user.EmailVerifyToken)
	token := *user.EmailVerifyToken

	found, err := env.users.UserByVerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	assert.ErrorIs(t, env.users.VerifyAndSetPassword(token, "short"), ErrValidation)

	require.NoError(t, env.users.VerifyAndSetPassword(token, "longenough"))

	got, err := env.users.ByID(user.ID)
	require.NoError(t, err)
	assert.True(t, got.HasPassword())
	assert.NotNil(t, got.EmailVerifiedAt)
	assert.Nil(t, got.EmailVerifyToken)

	// The token is consumed and cannot be replayed
	err = env.users.VerifyAndSetPassword(token, "anotherpassword")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestResendVerificationRotatesToken(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "admin@example.com", true)

	user, err := env.users.CreateUser(asCaller(admin), CreateUserInput{
		FirstName: "Re",
		LastName:  "Send",
		Email:     "resend@example.com",
	}, CreateModeAdminSetup)
	require.NoError(t, err)
	oldToken := *user.EmailVerifyToken

	require.NoError(t, env.users.ResendVerification(asCaller(admin), user.ID))

	got, err := env.users.ByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EmailVerifyToken)
	assert.NotEqual(t, oldToken, *got.EmailVerifyToken)

	_, err = env.users.UserByVerifyToken(oldToken)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
