package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pawloan/accounts/internal/service"
	"github.com/pawloan/accounts/internal/ui"
	"github.com/pawloan/accounts/internal/ui/views"
)

type authHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *authHandler {
	return &authHandler{authService: authService}
}

func (h *authHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, views.Login(views.LoginData{}))
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	user, err := h.authService.Login(email, password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			slog.Error("login failed", "error", err)
		}
		// Same message for wrong password and unknown email
		ui.Render(w, r, views.Login(views.LoginData{
			Email: email,
			Error: "Invalid email or password.",
		}))
		return
	}

	token, expiry, err := h.authService.GenerateJWT(user)
	if err != nil {
		slog.Error("generate session token failed", "error", err)
		renderError(w, r, err)
		return
	}

	h.authService.SetSessionCookie(w, token, expiry)
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
