package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pawloan/accounts/internal/authz"
	"github.com/pawloan/accounts/internal/model"
	"github.com/pawloan/accounts/internal/repository"
	"github.com/pawloan/accounts/internal/validation"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrSelfDelete = errors.New("you cannot delete your own account")
)

// CreateMode selects the provisioning flow for a new user.
type CreateMode int

const (
	// CreateModeAdminPassword provisions a user with an explicit
	// password, marked verified immediately.
	CreateModeAdminPassword CreateMode = iota
	// CreateModeAdminSetup provisions a user with the empty-hash
	// sentinel and a verification token that leads to password setup.
	CreateModeAdminSetup
	// CreateModeSelfSignup registers a user with a password but an
	// unverified email address.
	CreateModeSelfSignup
)

type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	IsAdmin   bool
}

// ExtendedFieldsInput carries the raw form values of the profile edit
// page. Every field is optional; blank strings normalize to NULL and
// tri-state inputs accept {"1", "0", ""}.
type ExtendedFieldsInput struct {
	PreferredName string
	Street1       string
	Street2       string
	City          string
	State         string
	Zip           string
	Phone         string
	Description   string

	HasOwnedDog       string
	HasChildrenAtHome string
	HasOutdoorSpace   string
}

// UserService orchestrates validated user mutations. Every mutating
// method re-checks authorization before touching storage and emits one
// best-effort activity record on success.
type UserService struct {
	userRepo repository.UserRepository
	email    *EmailService
	activity *ActivityLogger
}

func NewUserService(userRepo repository.UserRepository, email *EmailService, activity *ActivityLogger) *UserService {
	return &UserService{
		userRepo: userRepo,
		email:    email,
		activity: activity,
	}
}

func (s *UserService) ByID(id int64) (*model.User, error) {
	return s.userRepo.ByID(id)
}

func (s *UserService) ByEmail(email string) (*model.User, error) {
	return s.userRepo.ByEmail(validation.NormalizeEmail(email))
}

// CreateUser provisions a new account. The admin modes require an admin
// caller; self-signup does not.
func (s *UserService) CreateUser(caller authz.Caller, input CreateUserInput, mode CreateMode) (*model.User, error) {
	if mode != CreateModeSelfSignup {
		err := authz.RequireAdmin(caller)
		if err != nil {
			return nil, err
		}
	}

	first := strings.TrimSpace(input.FirstName)
	last := strings.TrimSpace(input.LastName)
	email := validation.NormalizeEmail(input.Email)

	if first == "" || last == "" || email == "" {
		return nil, fmt.Errorf("first name, last name, and email are required: %w", ErrValidation)
	}
	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), ErrValidation)
	}

	exists, err := s.userRepo.EmailExists(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, repository.ErrDuplicateEmail
	}

	user := &model.User{
		Email:     email,
		FirstName: first,
		LastName:  last,
		IsAdmin:   input.IsAdmin,
	}

	details := map[string]any{"email": email, "is_admin": input.IsAdmin}

	switch mode {
	case CreateModeAdminSetup:
		// Empty hash sentinel until the user completes setup
		token, err := GenerateToken()
		if err != nil {
			return nil, err
		}
		user.EmailVerifyToken = &token
		details["requires_password_setup"] = true

	case CreateModeAdminPassword:
		if input.Password == "" {
			return nil, fmt.Errorf("password is required when not using the setup flow: %w", ErrValidation)
		}
		hash, err := HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		now := nowUTC()
		user.EmailVerifiedAt = &now

	case CreateModeSelfSignup:
		if input.Password == "" {
			return nil, fmt.Errorf("password is required: %w", ErrValidation)
		}
		err := validation.ValidatePassword(input.Password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", err.Error(), ErrValidation)
		}
		hash, err := HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		token, err := GenerateToken()
		if err != nil {
			return nil, err
		}
		user.EmailVerifyToken = &token
	}

	err = s.userRepo.Create(user)
	if err != nil {
		return nil, err
	}

	if user.EmailVerifyToken != nil {
		var mailErr error
		if mode == CreateModeAdminSetup {
			mailErr = s.email.SendPasswordSetupEmail(email, *user.EmailVerifyToken, first)
		} else {
			mailErr = s.email.SendVerificationEmail(email, *user.EmailVerifyToken, first)
		}
		if mailErr != nil {
			// The account exists either way; the token can be resent
			return nil, fmt.Errorf("user created but email failed: %w", mailErr)
		}
	}

	s.activity.Log(caller, model.ActionUserCreate, user.ID, details)
	return user, nil
}

// UpdateProfileCore updates first name, last name, and email in one
// statement.
func (s *UserService) UpdateProfileCore(caller authz.Caller, targetID int64, firstName, lastName, email string) error {
	err := authz.CanActSelfOrAdmin(caller, targetID)
	if err != nil {
		return err
	}

	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	email = validation.NormalizeEmail(email)

	if firstName == "" || lastName == "" || email == "" {
		return fmt.Errorf("first name, last name, and email are required: %w", ErrValidation)
	}
	err = validation.ValidateEmail(email)
	if err != nil {
		return fmt.Errorf("%s: %w", err.Error(), ErrValidation)
	}

	_, err = s.userRepo.UpdateFields(targetID, repository.UserFields{
		FirstName: &firstName,
		LastName:  &lastName,
		Email:     &email,
	})
	if err != nil {
		if errors.Is(err, repository.ErrRequiredFieldBlank) {
			return fmt.Errorf("%s: %w", err.Error(), ErrValidation)
		}
		return err
	}

	s.activity.Log(caller, model.ActionUserProfileUpdate, targetID, map[string]any{"email": email})
	return nil
}

// UpdateExtendedFields writes the optional profile fields from the edit
// page. No field is individually required.
func (s *UserService) UpdateExtendedFields(caller authz.Caller, targetID int64, input ExtendedFieldsInput) error {
	err := authz.CanActSelfOrAdmin(caller, targetID)
	if err != nil {
		return err
	}

	ownedDog := model.ParseTriState(input.HasOwnedDog)
	children := model.ParseTriState(input.HasChildrenAtHome)
	outdoor := model.ParseTriState(input.HasOutdoorSpace)

	changed, err := s.userRepo.UpdateFields(targetID, repository.UserFields{
		PreferredName:     &input.PreferredName,
		Phone:             &input.Phone,
		Description:       &input.Description,
		Street1:           &input.Street1,
		Street2:           &input.Street2,
		City:              &input.City,
		State:             &input.State,
		Zip:               &input.Zip,
		HasOwnedDog:       &ownedDog,
		HasChildrenAtHome: &children,
		HasOutdoorSpace:   &outdoor,
	})
	if err != nil {
		return err
	}

	s.activity.Log(caller, model.ActionUserUpdate, targetID, map[string]any{"fields": changed})
	return nil
}

// UpdateFeatureFlags unconditionally sets both profile-type flags;
// checkbox absence means false.
func (s *UserService) UpdateFeatureFlags(caller authz.Caller, targetID int64, ownerEnabled, borrowerEnabled bool) error {
	err := authz.CanActSelfOrAdmin(caller, targetID)
	if err != nil {
		return err
	}

	err = s.userRepo.SetProfileTypeFlags(targetID, ownerEnabled, borrowerEnabled)
	if err != nil {
		return err
	}

	s.activity.Log(caller, model.ActionUserSetProfileTypes, targetID, map[string]any{
		"owner_enabled":    ownerEnabled,
		"borrower_enabled": borrowerEnabled,
	})
	return nil
}

// UpdatePhotoRef links or clears the user's photo reference. A nil file
// id unlinks without touching the blob.
func (s *UserService) UpdatePhotoRef(caller authz.Caller, targetID int64, fileID *string) error {
	err := authz.CanActSelfOrAdmin(caller, targetID)
	if err != nil {
		return err
	}

	err = s.userRepo.UpdatePhoto(targetID, fileID)
	if err != nil {
		return err
	}

	action := model.ActionUserPhotoRemove
	details := map[string]any{}
	if fileID != nil {
		action = model.ActionUserPhotoUpdate
		details["photo_file_id"] = *fileID
	}
	s.activity.Log(caller, action, targetID, details)
	return nil
}

func (s *UserService) SetAdminFlag(caller authz.Caller, targetID int64, isAdmin bool) error {
	err := authz.RequireAdmin(caller)
	if err != nil {
		return err
	}

	err = s.userRepo.SetAdmin(targetID, isAdmin)
	if err != nil {
		return err
	}

	s.activity.Log(caller, model.ActionUserSetAdmin, targetID, map[string]any{"is_admin": isAdmin})
	return nil
}

// DeleteUser removes a user row. Admins cannot delete themselves.
func (s *UserService) DeleteUser(caller authz.Caller, targetID int64) error {
	err := authz.RequireAdmin(caller)
	if err != nil {
		return err
	}
	if targetID == caller.ID {
		return ErrSelfDelete
	}

	err = s.userRepo.Delete(targetID)
	if err != nil {
		return err
	}

	s.activity.Log(caller, model.ActionUserDelete, targetID, nil)
	return nil
}

func (s *UserService) ListUsers(caller authz.Caller, search string) ([]*model.User, error) {
	err := authz.RequireAdmin(caller)
	if err != nil {
		return nil, err
	}
	return s.userRepo.List(search)
}

// ResendVerification rotates the target's verification token and
// resends the password setup email.
func (s *UserService) ResendVerification(caller authz.Caller, targetID int64) error {
	err := authz.RequireAdmin(caller)
	if err != nil {
		return err
	}

	user, err := s.userRepo.ByID(targetID)
	if err != nil {
		return err
	}

	token, err := GenerateToken()
	if err != nil {
		return err
	}

	err = s.userRepo.SetVerifyToken(targetID, token)
	if err != nil {
		return err
	}

	err = s.email.SendPasswordSetupEmail(user.Email, token, user.FirstName)
	if err != nil {
		return err
	}

	s.activity.Log(caller, model.ActionUserVerifyTokenSet, targetID, nil)
	return nil
}

// UserByVerifyToken looks up the account a setup link belongs to
// without consuming the token.
func (s *UserService) UserByVerifyToken(token string) (*model.User, error) {
	return s.userRepo.ByVerifyToken(token)
}

// VerifyAndSetPassword consumes a verification token, marks the email
// verified, and stores the user's first password. The token clear and
// the password write are one atomic statement.
func (s *UserService) VerifyAndSetPassword(token, password string) error {
	err := validation.ValidatePassword(password)
	if err != nil {
		return fmt.Errorf("%s: %w", err.Error(), ErrValidation)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	userID, err := s.userRepo.ConsumeVerifyToken(token, hash, nowUTC())
	if err != nil {
		return err
	}

	s.activity.Log(authz.Caller{ID: userID}, model.ActionUserChangePassword, userID, map[string]any{"setup": true})
	return nil
}
