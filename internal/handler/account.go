package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pawloan/accounts/internal/authz"
	"github.com/pawloan/accounts/internal/ctxkeys"
	"github.com/pawloan/accounts/internal/repository"
	"github.com/pawloan/accounts/internal/service"
	"github.com/pawloan/accounts/internal/ui"
	"github.com/pawloan/accounts/internal/ui/views"
)

type accountHandler struct {
	userService *service.UserService
}

func NewAccountHandler(userService *service.UserService) *accountHandler {
	return &accountHandler{userService: userService}
}

func (h *accountHandler) SettingsPage(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Caller(r.Context())

	targetID, err := targetUserID(r)
	if err != nil {
		renderError(w, r, repository.ErrUserNotFound)
		return
	}
	if err := authz.CanActSelfOrAdmin(caller, targetID); err != nil {
		renderError(w, r, err)
		return
	}

	target, err := h.userService.ByID(targetID)
	if err != nil {
		renderError(w, r, err)
		return
	}

	ui.Render(w, r, views.AccountSettings(views.AccountSettingsData{
		Target: target,
		Saved:  r.URL.Query().Get("saved") == "1",
	}))
}

func (h *accountHandler) SettingsSubmit(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Caller(r.Context())

	targetID, err := targetUserID(r)
	if err != nil {
		renderError(w, r, repository.ErrUserNotFound)
		return
	}

	switch r.FormValue("action") {
	case "update_profile":
		err = h.userService.UpdateProfileCore(caller, targetID,
			strings.TrimSpace(r.FormValue("first_name")),
			strings.TrimSpace(r.FormValue("last_name")),
			strings.TrimSpace(r.FormValue("email")),
		)
	case "update_flags":
		err = h.userService.UpdateFeatureFlags(caller, targetID,
			r.FormValue("owner_enabled") == "1",
			r.FormValue("borrower_enabled") == "1",
		)
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	if err != nil {
		h.renderSettingsError(w, r, caller, targetID, err)
		return
	}

	dest := "/account-settings?saved=1"
	if targetID != caller.ID {
		dest = fmt.Sprintf("/account-settings?saved=1&user_id=%d", targetID)
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// renderSettingsError re-renders the settings page with the submitted
// values and an inline message for user-correctable errors.
func (h *accountHandler) renderSettingsError(w http.ResponseWriter, r *http.Request, caller authz.Caller, targetID int64, err error) {
	var msg string
	key := "form"
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		key, msg = "email", "That email address is already in use."
	case errors.Is(err, service.ErrValidation):
		msg = "Please fill in first name, last name, and a valid email address."
	default:
		renderError(w, r, err)
		return
	}

	target, loadErr := h.userService.ByID(targetID)
	if loadErr != nil {
		renderError(w, r, loadErr)
		return
	}
	// Show what the user typed, not what is stored
	target.FirstName = strings.TrimSpace(r.FormValue("first_name"))
	target.LastName = strings.TrimSpace(r.FormValue("last_name"))
	target.Email = strings.TrimSpace(r.FormValue("email"))

	ui.Render(w, r, views.AccountSettings(views.AccountSettingsData{
		Target: target,
		Errors: map[string]string{key: msg},
	}))
}
