package model

import (
	"time"
)

// ActivityEntry is one append-only audit record. Details is a JSON
// object; writes are best-effort and never affect the mutation that
// produced them.
type ActivityEntry struct {
	ID           string    `db:"id"`
	ActorID      *int64    `db:"actor_id"`
	Action       string    `db:"action"`
	TargetUserID *int64    `db:"target_user_id"`
	Details      string    `db:"details"`
	CreatedAt    time.Time `db:"created_at"`
}

// Activity log actions.
const (
	ActionUserCreate          = "user.create"
	ActionUserUpdate          = "user.update"
	ActionUserProfileUpdate   = "user.profile_update"
	ActionUserSetProfileTypes = "user.set_profile_types"
	ActionUserChangePassword  = "user.change_password"
	ActionUserPasswordReset   = "user.password_reset"
	ActionUserSetAdmin        = "user.set_admin"
	ActionUserDelete          = "user.delete"
	ActionUserPhotoUpdate     = "user.photo_update"
	ActionUserPhotoRemove     = "user.photo_remove"
	ActionUserVerifyTokenSet  = "user.email_verification_token_set"
)
