package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pawloan/accounts/internal/authz"
	"github.com/pawloan/accounts/internal/ctxkeys"
	"github.com/pawloan/accounts/internal/model"
	"github.com/pawloan/accounts/internal/repository"
	"github.com/pawloan/accounts/internal/service"
	"github.com/pawloan/accounts/internal/ui"
	"github.com/pawloan/accounts/internal/ui/views"
	"github.com/pawloan/accounts/internal/validation"
)

type passwordHandler struct {
	passwordService *service.PasswordService
	userService     *service.UserService
}

func NewPasswordHandler(passwordService *service.PasswordService, userService *service.UserService) *passwordHandler {
	return &passwordHandler{
		passwordService: passwordService,
		userService:     userService,
	}
}

func (h *passwordHandler) ChangePasswordPage(w http.ResponseWriter, r *http.Request) {
	target, ok := h.changeTarget(w, r)
	if !ok {
		return
	}
	ui.Render(w, r, views.ChangePassword(views.ChangePasswordData{Target: target}))
}

func (h *passwordHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Caller(r.Context())

	target, ok := h.changeTarget(w, r)
	if !ok {
		return
	}

	renderErr := func(msg string) {
		ui.Render(w, r, views.ChangePassword(views.ChangePasswordData{Target: target, Error: msg}))
	}

	password := r.FormValue("password")
	if err := validation.ValidatePassword(password); err != nil {
		renderErr("Password must be at least 8 characters.")
		return
	}
	if password != r.FormValue("password_confirm") {
		renderErr("Passwords do not match.")
		return
	}

	// Users changing their own password must prove they know the
	// current one. Admins acting on another account skip this.
	if target.ID == caller.ID && target.HasPassword() {
		if err := service.ComparePassword(r.FormValue("current_password"), target.PasswordHash); err != nil {
			renderErr("Current password is incorrect.")
			return
		}
	}

	if err := h.passwordService.ChangePassword(caller, target.ID, password); err != nil {
		renderError(w, r, err)
		return
	}

	ui.Render(w, r, views.ChangePassword(views.ChangePasswordData{
		Target:  target,
		Success: "Password changed.",
	}))
}

// changeTarget resolves and authorizes the account whose password is
// being changed.
func (h *passwordHandler) changeTarget(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	caller := ctxkeys.Caller(r.Context())

	targetID, err := targetUserID(r)
	if err != nil {
		renderError(w, r, repository.ErrUserNotFound)
		return nil, false
	}
	if err := authz.CanActSelfOrAdmin(caller, targetID); err != nil {
		renderError(w, r, err)
		return nil, false
	}

	target, err := h.userService.ByID(targetID)
	if err != nil {
		renderError(w, r, err)
		return nil, false
	}
	return target, true
}

func (h *passwordHandler) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, views.ForgotPassword(views.ForgotPasswordData{}))
}

func (h *passwordHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))

	if err := validation.ValidateEmail(email); err != nil {
		ui.Render(w, r, views.ForgotPassword(views.ForgotPasswordData{
			Email: email,
			Error: "Please provide a valid email address.",
		}))
		return
	}

	// Errors are logged but never shown: the response must not reveal
	// whether the address has an account.
	if _, err := h.passwordService.RequestReset(email); err != nil {
		slog.Error("password reset request failed", "error", err)
	}

	ui.Render(w, r, views.ForgotPassword(views.ForgotPasswordData{Sent: true}))
}

func (h *passwordHandler) ResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Redirect(w, r, "/forgot-password", http.StatusSeeOther)
		return
	}
	ui.Render(w, r, views.ResetPassword(views.ResetPasswordData{Token: token}))
}

func (h *passwordHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.FormValue("token")
	password := r.FormValue("password")

	renderErr := func(msg string) {
		ui.Render(w, r, views.ResetPassword(views.ResetPasswordData{Token: token, Error: msg}))
	}

	if err := validation.ValidatePassword(password); err != nil {
		renderErr("Password must be at least 8 characters.")
		return
	}
	if password != r.FormValue("password_confirm") {
		renderErr("Passwords do not match.")
		return
	}

	ok, err := h.passwordService.CompleteReset(token, password)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			renderErr("Password must be at least 8 characters.")
			return
		}
		renderError(w, r, err)
		return
	}
	if !ok {
		renderErr("This reset link is invalid or has expired. Request a new one.")
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *passwordHandler) SetupPasswordPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	user, err := h.userService.UserByVerifyToken(token)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		ui.Render(w, r, views.ErrorPage(views.ErrorData{
			Status:  http.StatusNotFound,
			Message: "This setup link is invalid or has already been used.",
		}))
		return
	}

	ui.Render(w, r, views.SetupPassword(views.SetupPasswordData{Token: token, User: user}))
}

func (h *passwordHandler) SetupPassword(w http.ResponseWriter, r *http.Request) {
	token := r.FormValue("token")
	password := r.FormValue("password")

	user, err := h.userService.UserByVerifyToken(token)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		ui.Render(w, r, views.ErrorPage(views.ErrorData{
			Status:  http.StatusNotFound,
			Message: "This setup link is invalid or has already been used.",
		}))
		return
	}

	renderErr := func(msg string) {
		ui.Render(w, r, views.SetupPassword(views.SetupPasswordData{Token: token, User: user, Error: msg}))
	}

	if err := validation.ValidatePassword(password); err != nil {
		renderErr("Password must be at least 8 characters.")
		return
	}
	if password != r.FormValue("password_confirm") {
		renderErr("Passwords do not match.")
		return
	}

	if err := h.userService.VerifyAndSetPassword(token, password); err != nil {
		renderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
