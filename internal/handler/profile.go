package handler

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pawloan/accounts/internal/authz"
	"github.com/pawloan/accounts/internal/ctxkeys"
	"github.com/pawloan/accounts/internal/markdown"
	"github.com/pawloan/accounts/internal/repository"
	"github.com/pawloan/accounts/internal/service"
	"github.com/pawloan/accounts/internal/ui"
	"github.com/pawloan/accounts/internal/ui/views"
)

type profileHandler struct {
	userService  *service.UserService
	photoService *service.PhotoService
	markdown     *markdown.Renderer
}

func NewProfileHandler(userService *service.UserService, photoService *service.PhotoService) *profileHandler {
	return &profileHandler{
		userService:  userService,
		photoService: photoService,
		markdown:     markdown.NewRenderer(),
	}
}

func (h *profileHandler) ProfilePage(w http.ResponseWriter, r *http.Request) {
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

	var descriptionHTML template.HTML
	if target.Description != nil && strings.TrimSpace(*target.Description) != "" {
		html, err := h.markdown.Render(*target.Description)
		if err != nil {
			slog.Warn("render profile description failed", "user_id", target.ID, "error", err)
		} else {
			descriptionHTML = template.HTML(html)
		}
	}

	ui.Render(w, r, views.ProfileView(views.ProfileViewData{
		Target:          target,
		DescriptionHTML: descriptionHTML,
		PhotoURL:        h.photoService.PhotoURL(target),
		CanEdit:         true, // anyone allowed to view may edit
	}))
}

func (h *profileHandler) EditPage(w http.ResponseWriter, r *http.Request) {
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

	ui.Render(w, r, views.ProfileEdit(views.ProfileEditData{
		Target:      target,
		PhotoURL:    h.photoService.PhotoURL(target),
		UploadError: uploadErrorMessage(r.URL.Query().Get("err")),
	}))
}

func (h *profileHandler) EditSubmit(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Caller(r.Context())

	targetID, err := targetUserID(r)
	if err != nil {
		renderError(w, r, repository.ErrUserNotFound)
		return
	}

	input := service.ExtendedFieldsInput{
		PreferredName: r.FormValue("preferred_name"),
		Street1:       r.FormValue("street1"),
		Street2:       r.FormValue("street2"),
		City:          r.FormValue("city"),
		State:         r.FormValue("state"),
		Zip:           r.FormValue("zip"),
		Phone:         r.FormValue("phone"),
		Description:   r.FormValue("description"),

		HasOwnedDog:       r.FormValue("has_owned_a_dog"),
		HasChildrenAtHome: r.FormValue("has_children_at_home"),
		HasOutdoorSpace:   r.FormValue("has_outdoor_space"),
	}

	if err := h.userService.UpdateExtendedFields(caller, targetID, input); err != nil {
		if errors.Is(err, service.ErrValidation) {
			target, loadErr := h.userService.ByID(targetID)
			if loadErr != nil {
				renderError(w, r, loadErr)
				return
			}
			ui.Render(w, r, views.ProfileEdit(views.ProfileEditData{
				Target:   target,
				PhotoURL: h.photoService.PhotoURL(target),
				Errors:   map[string]string{"form": "Some fields could not be saved. Please check your input."},
			}))
			return
		}
		renderError(w, r, err)
		return
	}

	dest := "/profile"
	if caller.ID != targetID {
		dest = fmt.Sprintf("/profile?user_id=%d", targetID)
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// uploadErrorMessage translates photo upload reason codes into copy.
func uploadErrorMessage(code string) string {
	switch code {
	case "":
		return ""
	case "missing_file":
		return "Choose a photo to upload."
	case "empty_file":
		return "That file is empty."
	case "too_large":
		return "Photos can be at most 8 MB."
	case "invalid_type", "not_image":
		return "Photos must be JPEG, PNG, or WebP images."
	default:
		return "The photo could not be uploaded. Please try again."
	}
}
