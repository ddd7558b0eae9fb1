package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pawloan/accounts/internal/model"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrRequiredFieldBlank = errors.New("required field cannot be blank")
)

// UserFields is the enumerated set of updatable profile columns. A nil
// pointer leaves the column untouched. Required fields (first name,
// last name, email) reject blank values; optional fields normalize
// blank input to NULL; a nil TriState pointer is untouched while
// TriStateUnset stores NULL.
type UserFields struct {
	FirstName *string
	LastName  *string
	Email     *string

	PreferredName *string
	Phone         *string
	Description   *string
	Street1       *string
	Street2       *string
	City          *string
	State         *string
	Zip           *string

	HasOwnedDog       *model.TriState
	HasChildrenAtHome *model.TriState
	HasOutdoorSpace   *model.TriState
}

type UserRepository interface {
	Create(user *model.User) error
	ByID(id int64) (*model.User, error)
	ByEmail(email string) (*model.User, error)
	EmailExists(email string) (bool, error)
	UpdateFields(id int64, fields UserFields) ([]string, error)
	UpdatePhoto(id int64, fileID *string) error
	SetPassword(id int64, hash string) error
	SetAdmin(id int64, isAdmin bool) error
	SetProfileTypeFlags(id int64, ownerEnabled, borrowerEnabled bool) error
	Delete(id int64) error
	List(search string) ([]*model.User, error)

	SetResetToken(id int64, tokenHash string, expiresAt time.Time) error
	ByResetTokenHash(tokenHash string, now time.Time) (*model.User, error)
	ConsumeResetToken(tokenHash, passwordHash string, now time.Time) (int64, error)

	SetVerifyToken(id int64, token string) error
	ByVerifyToken(token string) (*model.User, error)
	ConsumeVerifyToken(token, passwordHash string, now time.Time) (int64, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO users (
		email, password_hash, first_name, last_name, is_admin,
		owner_enabled, borrower_enabled, email_verify_token, email_verified_at, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`

	err := r.db.Get(&user.ID, query,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.IsAdmin,
		user.OwnerEnabled,
		user.BorrowerEnabled,
		user.EmailVerifyToken,
		user.EmailVerifiedAt,
		user.CreatedAt,
	)
	if err != nil {
		// Unique constraint violation text differs between SQLite and
		// PostgreSQL; match both.
		errStr := err.Error()
		if strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value") {
			return ErrDuplicateEmail
		}
		return err
	}

	return nil
}

func (r *userRepository) ByID(id int64) (*model.User, error) {
	user := &model.User{}
	err := r.db.Get(user, `SELECT * FROM users WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (r *userRepository) ByEmail(email string) (*model.User, error) {
	user := &model.User{}
	err := r.db.Get(user, `SELECT * FROM users WHERE email = $1`, email)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (r *userRepository) EmailExists(email string) (bool, error) {
	var exists bool
	err := r.db.Get(&exists, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email)
	return exists, err
}

// UpdateFields updates the enumerated subset of columns and returns the
// names of the columns written. An empty field set is a no-op.
func (r *userRepository) UpdateFields(id int64, fields UserFields) ([]string, error) {
	var (
		set     []string
		args    []any
		changed []string
	)

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
		changed = append(changed, column)
	}

	required := []struct {
		column string
		value  *string
	}{
		{"first_name", fields.FirstName},
		{"last_name", fields.LastName},
		{"email", fields.Email},
	}
	for _, f := range required {
		if f.value == nil {
			continue
		}
		v := strings.TrimSpace(*f.value)
		if v == "" {
			return nil, fmt.Errorf("%s: %w", f.column, ErrRequiredFieldBlank)
		}
		if f.column == "email" {
			v = strings.ToLower(v)
		}
		add(f.column, v)
	}

	optional := []struct {
		column string
		value  *string
	}{
		{"preferred_name", fields.PreferredName},
		{"phone", fields.Phone},
		{"description", fields.Description},
		{"street1", fields.Street1},
		{"street2", fields.Street2},
		{"city", fields.City},
		{"state", fields.State},
		{"zip", fields.Zip},
	}
	for _, f := range optional {
		if f.value == nil {
			continue
		}
		v := strings.TrimSpace(*f.value)
		if v == "" {
			add(f.column, nil)
		} else {
			add(f.column, v)
		}
	}

	tristate := []struct {
		column string
		value  *model.TriState
	}{
		{"has_owned_a_dog", fields.HasOwnedDog},
		{"has_children_at_home", fields.HasChildrenAtHome},
		{"has_outdoor_space", fields.HasOutdoorSpace},
	}
	for _, f := range tristate {
		if f.value == nil {
			continue
		}
		add(f.column, *f.value)
	}

	if len(set) == 0 {
		return nil, nil
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`, strings.Join(set, ", "), len(args))

	result, err := r.db.Exec(query, args...)
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value") {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrUserNotFound
	}

	return changed, nil
}

func (r *userRepository) UpdatePhoto(id int64, fileID *string) error {
	result, err := r.db.Exec(`UPDATE users SET photo_file_id = $1 WHERE id = $2`, fileID, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *userRepository) SetPassword(id int64, hash string) error {
	result, err := r.db.Exec(`UPDATE users SET password_hash = $1 WHERE id = $2`, hash, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *userRepository) SetAdmin(id int64, isAdmin bool) error {
	result, err := r.db.Exec(`UPDATE users SET is_admin = $1 WHERE id = $2`, isAdmin, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *userRepository) SetProfileTypeFlags(id int64, ownerEnabled, borrowerEnabled bool) error {
	result, err := r.db.Exec(
		`UPDATE users SET owner_enabled = $1, borrower_enabled = $2 WHERE id = $3`,
		ownerEnabled, borrowerEnabled, id,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *userRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// List returns users ordered by last then first name. A non-empty
// search term filters by case-insensitive substring match against
// first name, last name, or email.
func (r *userRepository) List(search string) ([]*model.User, error) {
	var users []*model.User

	query := `SELECT * FROM users`
	var args []any

	search = strings.TrimSpace(search)
	if search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		query += ` WHERE LOWER(first_name) LIKE $1 ESCAPE '\'
			OR LOWER(last_name) LIKE $1 ESCAPE '\'
			OR LOWER(email) LIKE $1 ESCAPE '\'`
		args = append(args, pattern)
	}

	query += ` ORDER BY LOWER(last_name), LOWER(first_name)`

	err := r.db.Select(&users, query, args...)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) SetResetToken(id int64, tokenHash string, expiresAt time.Time) error {
	result, err := r.db.Exec(
		`UPDATE users SET password_reset_token_hash = $1, password_reset_expires_at = $2 WHERE id = $3`,
		tokenHash, expiresAt, id,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *userRepository) ByResetTokenHash(tokenHash string, now time.Time) (*model.User, error) {
	user := &model.User{}
	err := r.db.Get(user,
		`SELECT * FROM users WHERE password_reset_token_hash = $1 AND password_reset_expires_at > $2`,
		tokenHash, now,
	)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	return user, err
}

// ConsumeResetToken redeems a reset token in a single statement: the
// password write and the token clear happen atomically, so of two
// concurrent redemptions exactly one succeeds.
func (r *userRepository) ConsumeResetToken(tokenHash, passwordHash string, now time.Time) (int64, error) {
	var id int64
	query := `
		UPDATE users
		SET password_hash = $1, password_reset_token_hash = NULL, password_reset_expires_at = NULL
		WHERE password_reset_token_hash = $2 AND password_reset_expires_at > $3
		RETURNING id
	`
	err := r.db.Get(&id, query, passwordHash, tokenHash, now)
	if err == sql.ErrNoRows {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *userRepository) SetVerifyToken(id int64, token string) error {
	result, err := r.db.Exec(
		`UPDATE users SET email_verify_token = $1, email_verified_at = NULL WHERE id = $2`,
		token, id,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *userRepository) ByVerifyToken(token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUserNotFound
	}
	user := &model.User{}
	err := r.db.Get(user, `SELECT * FROM users WHERE email_verify_token = $1`, token)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	return user, err
}

// ConsumeVerifyToken stamps the verification time, stores the user's
// first password, and clears the token in one statement, so a token
// cannot be replayed and a consumed token always has a password.
func (r *userRepository) ConsumeVerifyToken(token, passwordHash string, now time.Time) (int64, error) {
	if token == "" {
		return 0, ErrUserNotFound
	}
	var id int64
	query := `
		UPDATE users
		SET email_verified_at = $1, password_hash = $2, email_verify_token = NULL
		WHERE email_verify_token = $3
		RETURNING id
	`
	err := r.db.Get(&id, query, now, passwordHash, token)
	if err == sql.ErrNoRows {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// escapeLike escapes LIKE wildcards in a user-supplied search term.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
