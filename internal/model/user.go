package model

import (
	"strings"
	"time"
)

type User struct {
	ID           int64  `db:"id"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"` // Empty string means "not yet set"
	FirstName    string `db:"first_name"`
	LastName     string `db:"last_name"`

	PreferredName *string `db:"preferred_name"`
	Phone         *string `db:"phone"`
	Description   *string `db:"description"`
	Street1       *string `db:"street1"`
	Street2       *string `db:"street2"`
	City          *string `db:"city"`
	State         *string `db:"state"`
	Zip           *string `db:"zip"`

	HasOwnedDog       TriState `db:"has_owned_a_dog"`
	HasChildrenAtHome TriState `db:"has_children_at_home"`
	HasOutdoorSpace   TriState `db:"has_outdoor_space"`

	IsAdmin         bool `db:"is_admin"`
	OwnerEnabled    bool `db:"owner_enabled"`
	BorrowerEnabled bool `db:"borrower_enabled"`

	PhotoFileID *string `db:"photo_file_id"`

	EmailVerifyToken       *string    `db:"email_verify_token"`
	EmailVerifiedAt        *time.Time `db:"email_verified_at"`
	PasswordResetTokenHash *string    `db:"password_reset_token_hash"`
	PasswordResetExpiresAt *time.Time `db:"password_reset_expires_at"`

	CreatedAt time.Time `db:"created_at"`

	// Computed, not in database
	PhotoURL string `db:"-"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// DisplayName is the preferred name when set, otherwise the first name.
func (u *User) DisplayName() string {
	if u.PreferredName != nil {
		if name := strings.TrimSpace(*u.PreferredName); name != "" {
			return name
		}
	}
	return u.FirstName
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.DisplayName() + " " + u.LastName)
}

// Initials are shown in place of a photo when none is set.
func (u *User) Initials() string {
	var b strings.Builder
	if u.FirstName != "" {
		b.WriteString(strings.ToUpper(u.FirstName[:1]))
	}
	if u.LastName != "" {
		b.WriteString(strings.ToUpper(u.LastName[:1]))
	}
	return b.String()
}

// AddressLine joins the non-empty address parts into one display line.
func (u *User) AddressLine() string {
	parts := make([]string, 0, 5)
	for _, p := range []*string{u.Street1, u.Street2, u.City, u.State, u.Zip} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	return strings.Join(parts, ", ")
}
