package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pawloan/accounts/internal/ctxkeys"
	"github.com/pawloan/accounts/internal/repository"
	"github.com/pawloan/accounts/internal/service"
	"github.com/pawloan/accounts/internal/ui"
	"github.com/pawloan/accounts/internal/ui/views"
)

type adminHandler struct {
	userService *service.UserService
}

func NewAdminHandler(userService *service.UserService) *adminHandler {
	return &adminHandler{userService: userService}
}

func (h *adminHandler) UsersPage(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Caller(r.Context())
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	users, err := h.userService.ListUsers(caller, search)
	if err != nil {
		renderError(w, r, err)
		return
	}

	ui.Render(w, r, views.AdminUsers(views.AdminUsersData{
		Users:  users,
		Search: search,
		Flash:  flashMessage(r.URL.Query().Get("flash")),
		Error:  flashMessage(r.URL.Query().Get("error")),
	}))
}

func (h *adminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Caller(r.Context())

	input := service.CreateUserInput{
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
		Email:     strings.TrimSpace(r.FormValue("email")),
		Password:  r.FormValue("password"),
	}

	mode := service.CreateModeAdminSetup
	if r.FormValue("mode") == "password" {
		mode = service.CreateModeAdminPassword
	}

	_, err := h.userService.CreateUser(caller, input, mode)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			h.redirect(w, r, "error", "duplicate_email")
		case errors.Is(err, service.ErrValidation):
			h.redirect(w, r, "error", "invalid_input")
		default:
			renderError(w, r, err)
		}
		return
	}

	h.redirect(w, r, "flash", "created")
}

func (h *adminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Caller(r.Context())

	targetID, err := pathUserID(r)
	if err != nil {
		renderError(w, r, repository.ErrUserNotFound)
		return
	}

	if err := h.userService.DeleteUser(caller, targetID); err != nil {
		if errors.Is(err, service.ErrSelfDelete) {
			h.redirect(w, r, "error", "self_delete")
			return
		}
		renderError(w, r, err)
		return
	}

	h.redirect(w, r, "flash", "deleted")
}

func (h *adminHandler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Caller(r.Context())

	targetID, err := pathUserID(r)
	if err != nil {
		renderError(w, r, repository.ErrUserNotFound)
		return
	}

	if err := h.userService.SetAdminFlag(caller, targetID, r.FormValue("is_admin") == "1"); err != nil {
		renderError(w, r, err)
		return
	}

	h.redirect(w, r, "flash", "updated")
}

func (h *adminHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Caller(r.Context())

	targetID, err := pathUserID(r)
	if err != nil {
		renderError(w, r, repository.ErrUserNotFound)
		return
	}

	if err := h.userService.ResendVerification(caller, targetID); err != nil {
		renderError(w, r, err)
		return
	}

	h.redirect(w, r, "flash", "invite_sent")
}

func (h *adminHandler) redirect(w http.ResponseWriter, r *http.Request, key, value string) {
	http.Redirect(w, r, "/admin/users?"+url.Values{key: {value}}.Encode(), http.StatusSeeOther)
}

func pathUserID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// flashMessage translates redirect codes into user-facing copy.
func flashMessage(code string) string {
	switch code {
	case "":
		return ""
	case "created":
		return "User created."
	case "deleted":
		return "User deleted."
	case "updated":
		return "User updated."
	case "invite_sent":
		return "Invitation email sent."
	case "duplicate_email":
		return "That email address is already in use."
	case "invalid_input":
		return "First name, last name, and a valid email address are required."
	case "self_delete":
		return "You cannot delete your own account."
	default:
		return ""
	}
}
