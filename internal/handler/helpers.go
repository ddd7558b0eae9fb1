package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/pawloan/accounts/internal/authz"
	"github.com/pawloan/accounts/internal/ctxkeys"
	"github.com/pawloan/accounts/internal/repository"
	"github.com/pawloan/accounts/internal/ui"
	"github.com/pawloan/accounts/internal/ui/views"
)

// NotFoundPage is the fallback handler for unmatched routes.
func NotFoundPage(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	ui.Render(w, r, views.ErrorPage(views.ErrorData{Status: http.StatusNotFound, Message: "Page not found."}))
}

// targetUserID resolves the ?user_id= parameter, defaulting to the
// logged-in user. Admins use it to act on other accounts.
func targetUserID(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		raw = r.FormValue("user_id")
	}
	if raw == "" {
		if user := ctxkeys.User(r.Context()); user != nil {
			return user.ID, nil
		}
		return 0, errors.New("missing user_id")
	}
	return strconv.ParseInt(raw, 10, 64)
}

// renderError maps service errors onto error pages. Validation errors
// should be handled inline by the caller before reaching here.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, authz.ErrLoginRequired):
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, authz.ErrForbidden):
		w.WriteHeader(http.StatusForbidden)
		ui.Render(w, r, views.ErrorPage(views.ErrorData{Status: http.StatusForbidden, Message: "You don't have access to this page."}))
	case errors.Is(err, repository.ErrUserNotFound):
		w.WriteHeader(http.StatusNotFound)
		ui.Render(w, r, views.ErrorPage(views.ErrorData{Status: http.StatusNotFound, Message: "That account doesn't exist."}))
	default:
		w.WriteHeader(http.StatusInternalServerError)
		ui.Render(w, r, views.ErrorPage(views.ErrorData{Status: http.StatusInternalServerError, Message: "Something went wrong. Please try again."}))
	}
}
