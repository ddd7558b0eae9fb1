package routes

import (
	"net/http"

	"github.com/pawloan/accounts/internal/app"
	"github.com/pawloan/accounts/internal/handler"
	"github.com/pawloan/accounts/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService)
	account := handler.NewAccountHandler(app.UserService)
	password := handler.NewPasswordHandler(app.PasswordService, app.UserService)
	profile := handler.NewProfileHandler(app.UserService, app.PhotoService)
	photo := handler.NewPhotoHandler(app.PhotoService, app.Cfg.UploadMaxBytes)
	admin := handler.NewAdminHandler(app.UserService)

	mux := http.NewServeMux()

	// Session (rate limited alongside the reset flow)
	rateLimiter := middleware.RateLimitAuth()

	mux.HandleFunc("GET /login", middleware.RequireGuest(auth.LoginPage))
	mux.HandleFunc("POST /login", rateLimiter(middleware.RequireGuest(auth.Login)))
	mux.HandleFunc("POST /logout", auth.Logout)

	// Password reset and setup (no session required)
	mux.HandleFunc("GET /forgot-password", password.ForgotPasswordPage)
	mux.HandleFunc("POST /forgot-password", rateLimiter(password.ForgotPassword))
	mux.HandleFunc("GET /reset-password", password.ResetPasswordPage)
	mux.HandleFunc("POST /reset-password", rateLimiter(password.ResetPassword))
	mux.HandleFunc("GET /setup-password", password.SetupPasswordPage)
	mux.HandleFunc("POST /setup-password", rateLimiter(password.SetupPassword))

	// Account settings
	mux.HandleFunc("GET /account-settings", middleware.RequireAuth(account.SettingsPage))
	mux.HandleFunc("POST /account-settings", middleware.RequireAuth(account.SettingsSubmit))
	mux.HandleFunc("GET /change-password", middleware.RequireAuth(password.ChangePasswordPage))
	mux.HandleFunc("POST /change-password", middleware.RequireAuth(password.ChangePassword))

	// Profile
	mux.HandleFunc("GET /profile", middleware.RequireAuth(profile.ProfilePage))
	mux.HandleFunc("GET /profile/edit", middleware.RequireAuth(profile.EditPage))
	mux.HandleFunc("POST /profile/edit/submit", middleware.RequireAuth(profile.EditSubmit))

	// Photos
	mux.HandleFunc("POST /photo/upload", middleware.RequireAuth(photo.Upload))
	mux.HandleFunc("GET /files/{id}", photo.File)

	// Admin
	mux.HandleFunc("GET /admin/users", middleware.RequireAdmin(admin.UsersPage))
	mux.HandleFunc("POST /admin/users", middleware.RequireAdmin(admin.CreateUser))
	mux.HandleFunc("POST /admin/users/{id}/delete", middleware.RequireAdmin(admin.DeleteUser))
	mux.HandleFunc("POST /admin/users/{id}/admin", middleware.RequireAdmin(admin.SetAdmin))
	mux.HandleFunc("POST /admin/users/{id}/resend-verification", middleware.RequireAdmin(admin.ResendVerification))

	// Home
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
	})

	// 404
	mux.HandleFunc("/{path...}", handler.NotFoundPage)

	// Global middleware - executed in order (top to bottom)
	h := middleware.Chain(
		mux,
		middleware.Config(app.Cfg), // Config must be first (CSRF cookie flags depend on it)
		middleware.SecurityHeaders,
		middleware.RequestLogging,
		middleware.AuthMiddleware(app.AuthService, app.UserService),
		middleware.CSRFProtection,
	)

	return h
}
