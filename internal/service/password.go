package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/pawloan/accounts/internal/authz"
	"github.com/pawloan/accounts/internal/model"
	"github.com/pawloan/accounts/internal/repository"
	"github.com/pawloan/accounts/internal/validation"
)

// PasswordService owns the change-password and forgot/reset flows.
// Reset tokens are stored only as a one-way hash with a fixed expiry;
// the raw token leaves the process solely inside the reset email.
type PasswordService struct {
	userRepo    repository.UserRepository
	email       *EmailService
	activity    *ActivityLogger
	tokenExpiry time.Duration
}

func NewPasswordService(userRepo repository.UserRepository, email *EmailService, activity *ActivityLogger, tokenExpiry time.Duration) *PasswordService {
	return &PasswordService{
		userRepo:    userRepo,
		email:       email,
		activity:    activity,
		tokenExpiry: tokenExpiry,
	}
}

// ChangePassword hashes and stores a new password for the target user.
// Current-password verification, minimum length, and confirmation match
// are the calling page's responsibility.
func (s *PasswordService) ChangePassword(caller authz.Caller, targetID int64, newPassword string) error {
	err := authz.CanActSelfOrAdmin(caller, targetID)
	if err != nil {
		return err
	}

	if newPassword == "" {
		return fmt.Errorf("new password is required: %w", ErrValidation)
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.userRepo.SetPassword(targetID, hash)
	if err != nil {
		return err
	}

	s.activity.Log(caller, model.ActionUserChangePassword, targetID, nil)
	return nil
}

// RequestReset issues a reset token for the given email. An unknown
// address returns ("", nil) so callers cannot learn whether it exists.
// The returned raw token is for the caller's context only; storage
// holds its sha256 hash and a 30-minute expiry.
func (s *PasswordService) RequestReset(email string) (string, error) {
	email = validation.NormalizeEmail(email)
	if email == "" {
		return "", nil
	}

	user, err := s.userRepo.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil
		}
		return "", err
	}

	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	err = s.userRepo.SetResetToken(user.ID, hashToken(token), nowUTC().Add(s.tokenExpiry))
	if err != nil {
		return "", err
	}

	err = s.email.SendPasswordResetEmail(email, token, user.FirstName)
	if err != nil {
		return "", err
	}

	return token, nil
}

// RedeemToken resolves a raw reset token to its user without consuming
// it. Wrong and expired tokens are indistinguishable to the caller.
func (s *PasswordService) RedeemToken(rawToken string) (*model.User, error) {
	if rawToken == "" {
		return nil, repository.ErrUserNotFound
	}
	return s.userRepo.ByResetTokenHash(hashToken(rawToken), nowUTC())
}

// CompleteReset redeems the token and stores the new password. The
// token clear and the password write are one atomic statement, so a
// token redeems at most once.
func (s *PasswordService) CompleteReset(rawToken, newPassword string) (bool, error) {
	if rawToken == "" {
		return false, nil
	}

	err := validation.ValidatePassword(newPassword)
	if err != nil {
		return false, fmt.Errorf("%s: %w", err.Error(), ErrValidation)
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.userRepo.ConsumeResetToken(hashToken(rawToken), hash, nowUTC())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}

	s.activity.Log(authz.Caller{ID: userID}, model.ActionUserPasswordReset, userID, nil)
	return true, nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
