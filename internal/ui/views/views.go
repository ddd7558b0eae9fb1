// Package views renders the HTML pages of the accounts app. Each view
// function returns a templ.Component wrapping an embedded html/template,
// so handlers stay agnostic of the rendering mechanism.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/a-h/templ"

	"github.com/pawloan/accounts/internal/ctxkeys"
	"github.com/pawloan/accounts/internal/model"
)

//go:embed templates
var templateFS embed.FS

var pages = mustParsePages()

// mustParsePages parses every page template together with the base layout.
// Each page gets its own template set so page-level block names never clash.
func mustParsePages() map[string]*template.Template {
	funcs := template.FuncMap{
		"str": func(p *string) string {
			if p == nil {
				return ""
			}
			return *p
		},
	}

	entries, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		panic("glob page templates: " + err.Error())
	}

	out := make(map[string]*template.Template, len(entries))
	for _, name := range entries {
		key := strings.TrimSuffix(path.Base(name), ".html")
		out[key] = template.Must(
			template.New("base.html").Funcs(funcs).ParseFS(templateFS, "templates/base.html", name),
		)
	}
	return out
}

// layout carries the fields every page needs: nav state, CSRF token, and
// the page-specific payload.
type layout struct {
	Title     string
	AppName   string
	Viewer    *model.User // logged-in user, nil for guests
	CSRFToken string
	Data      any
}

// page builds a component that fills the layout from the request context
// at render time.
func page(name, title string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		appName := "Pawloan"
		if cfg := ctxkeys.Config(ctx); cfg != nil {
			appName = cfg.AppName
		}
		return pages[name].ExecuteTemplate(w, "base.html", layout{
			Title:     title,
			AppName:   appName,
			Viewer:    ctxkeys.User(ctx),
			CSRFToken: ctxkeys.CSRFToken(ctx),
			Data:      data,
		})
	})
}

type LoginData struct {
	Email string
	Error string
}

func Login(data LoginData) templ.Component {
	return page("login", "Log in", data)
}

type ForgotPasswordData struct {
	Email string
	Error string
	Sent  bool
}

func ForgotPassword(data ForgotPasswordData) templ.Component {
	return page("forgot_password", "Forgot password", data)
}

type ResetPasswordData struct {
	Token string
	Error string
}

func ResetPassword(data ResetPasswordData) templ.Component {
	return page("reset_password", "Reset password", data)
}

type SetupPasswordData struct {
	Token string
	User  *model.User
	Error string
}

func SetupPassword(data SetupPasswordData) templ.Component {
	return page("setup_password", "Set your password", data)
}

type ChangePasswordData struct {
	Target  *model.User // whose password is being changed
	Error   string
	Success string
}

func ChangePassword(data ChangePasswordData) templ.Component {
	return page("change_password", "Change password", data)
}

type AccountSettingsData struct {
	Target *model.User
	Errors map[string]string
	Saved  bool
}

func AccountSettings(data AccountSettingsData) templ.Component {
	return page("account_settings", "Account settings", data)
}

type ProfileViewData struct {
	Target          *model.User
	DescriptionHTML template.HTML
	PhotoURL        string
	CanEdit         bool
}

func ProfileView(data ProfileViewData) templ.Component {
	return page("profile_view", "Profile", data)
}

type ProfileEditData struct {
	Target      *model.User
	PhotoURL    string
	Errors      map[string]string
	UploadError string
}

func ProfileEdit(data ProfileEditData) templ.Component {
	return page("profile_edit", "Edit profile", data)
}

type AdminUsersData struct {
	Users  []*model.User
	Search string
	Flash  string
	Error  string
}

func AdminUsers(data AdminUsersData) templ.Component {
	return page("admin_users", "Users", data)
}

type ErrorData struct {
	Status  int
	Message string
}

func ErrorPage(data ErrorData) templ.Component {
	return page("error", "Error", data)
}
