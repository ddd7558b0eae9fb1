package middleware

import (
	"net/http"

	"github.com/pawloan/accounts/internal/ctxkeys"
	"github.com/pawloan/accounts/internal/service"
)

// AuthMiddleware checks for a JWT session cookie and adds the user to the
// request context when the token is valid. Invalid or stale tokens clear the
// cookie and the request continues anonymously.
func AuthMiddleware(authService *service.AuthService, userService *service.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(authService.SessionCookieName())
			if err != nil {
				// No cookie, continue without auth
				next.ServeHTTP(w, r)
				return
			}

			userID, err := authService.VerifyJWT(cookie.Value)
			if err != nil {
				authService.ClearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			user, err := userService.ByID(userID)
			if err != nil {
				// User deleted since the token was issued
				authService.ClearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			// Security: never carry the password hash through the context
			user.PasswordHash = ""

			ctx := ctxkeys.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth ensures the user is authenticated
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.User(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// RequireAdmin ensures the user is authenticated and has the admin flag
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxkeys.User(r.Context())
		if user == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if !user.IsAdmin {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// RequireGuest ensures the user is not authenticated
func RequireGuest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.User(r.Context()) != nil {
			http.Redirect(w, r, "/profile", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	}
}
