package ctxkeys

import (
	"context"

	"github.com/pawloan/accounts/internal/authz"
	"github.com/pawloan/accounts/internal/config"
	"github.com/pawloan/accounts/internal/model"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	UserKey      contextKey = "user"
	ConfigKey    contextKey = "config"
	CSRFTokenKey contextKey = "csrf_token"
)

// User returns the authenticated user, nil when the request is
// anonymous.
func User(ctx context.Context) *model.User {
	user, _ := ctx.Value(UserKey).(*model.User)
	return user
}

func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// Caller derives the authorization caller from the context user. The
// zero Caller means "not logged in".
func Caller(ctx context.Context) authz.Caller {
	user := User(ctx)
	if user == nil {
		return authz.Caller{}
	}
	return authz.Caller{ID: user.ID, IsAdmin: user.IsAdmin}
}

func Config(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(ConfigKey).(*config.Config)
	return cfg
}

func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, ConfigKey, cfg)
}

func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(CSRFTokenKey).(string)
	return token
}

func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, CSRFTokenKey, token)
}
