package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pawloan/accounts/internal/ctxkeys"
	"github.com/pawloan/accounts/internal/repository"
	"github.com/pawloan/accounts/internal/service"
	"github.com/pawloan/accounts/internal/validation"
)

type photoHandler struct {
	photoService *service.PhotoService
	maxBytes     int64
}

func NewPhotoHandler(photoService *service.PhotoService, maxBytes int64) *photoHandler {
	return &photoHandler{
		photoService: photoService,
		maxBytes:     maxBytes,
	}
}

// Upload handles both photo uploads and the delete action, redirecting
// back to return_to with a result query parameter.
func (h *photoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Caller(r.Context())
	returnTo := safeReturnTo(r)

	rawID := r.URL.Query().Get("user_id")
	if rawID == "" {
		rawID = r.FormValue("user_id")
	}
	targetID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || targetID <= 0 {
		redirectResult(w, r, returnTo, "err", validation.UploadErrMissingUserID)
		return
	}

	if r.FormValue("action") == "delete" {
		if err := h.photoService.Remove(caller, targetID); err != nil {
			renderError(w, r, err)
			return
		}
		redirectResult(w, r, returnTo, "deleted", "1")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		redirectResult(w, r, returnTo, "err", validation.UploadErrMissingFile)
		return
	}
	defer file.Close()

	// Check the part size before reading it into memory.
	if header.Size == 0 {
		redirectResult(w, r, returnTo, "err", validation.UploadErrEmptyFile)
		return
	}
	if header.Size > h.maxBytes {
		redirectResult(w, r, returnTo, "err", validation.UploadErrTooLarge)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Warn("photo upload read failed", "error", err)
		redirectResult(w, r, returnTo, "err", validation.UploadErrTooLarge)
		return
	}

	_, err = h.photoService.Upload(caller, targetID, data, header.Filename)
	if err != nil {
		var uploadErr *validation.UploadError
		if errors.As(err, &uploadErr) {
			redirectResult(w, r, returnTo, "err", uploadErr.Code)
			return
		}
		renderError(w, r, err)
		return
	}

	redirectResult(w, r, returnTo, "uploaded", "1")
}

// File serves an inline-stored blob by id with its sniffed MIME type.
func (h *photoHandler) File(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	file, err := h.photoService.FileByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("file lookup failed", "error", err, "file_id", id)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	// Blobs are immutable, so clients can cache aggressively
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := w.Write(file.Data); err != nil {
		slog.Warn("file write failed", "error", err, "file_id", id)
	}
}

// safeReturnTo restricts the post-upload redirect to local paths.
func safeReturnTo(r *http.Request) string {
	returnTo := r.URL.Query().Get("return_to")
	if returnTo == "" {
		returnTo = r.FormValue("return_to")
	}
	if !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") {
		return "/"
	}
	return returnTo
}

func redirectResult(w http.ResponseWriter, r *http.Request, returnTo, key, value string) {
	u, err := url.Parse(returnTo)
	if err != nil {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}
