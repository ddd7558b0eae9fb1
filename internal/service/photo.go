package service

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pawloan/accounts/internal/authz"
	"github.com/pawloan/accounts/internal/model"
	"github.com/pawloan/accounts/internal/repository"
	"github.com/pawloan/accounts/internal/storage"
	"github.com/pawloan/accounts/internal/validation"
)

// PhotoService runs the profile photo pipeline: validate the uploaded
// bytes, store them as an immutable public file, and link the blob id
// onto the user row. Any failed step aborts with an UploadError and
// leaves the user's photo reference untouched.
//
// With a nil Storage the blob bytes stay inline on the public_files
// row and are served from /files/{id}; with S3 they are written to the
// bucket and the row keeps only metadata.
type PhotoService struct {
	fileRepo repository.FileRepository
	userSvc  *UserService
	store    storage.Storage
	maxBytes int64
}

func NewPhotoService(fileRepo repository.FileRepository, userSvc *UserService, store storage.Storage, maxBytes int64) *PhotoService {
	return &PhotoService{
		fileRepo: fileRepo,
		userSvc:  userSvc,
		store:    store,
		maxBytes: maxBytes,
	}
}

// Upload validates and stores an uploaded photo for the target user and
// returns the new blob record.
func (s *PhotoService) Upload(caller authz.Caller, targetID int64, data []byte, originalName string) (*model.PublicFile, error) {
	err := authz.CanActSelfOrAdmin(caller, targetID)
	if err != nil {
		return nil, err
	}

	mimeType, ext, err := validation.ValidateImage(data, s.maxBytes)
	if err != nil {
		return nil, err
	}

	if originalName == "" {
		originalName = "profile." + ext
	}

	file := &model.PublicFile{
		ID:           uuid.New().String(),
		MimeType:     mimeType,
		OriginalName: originalName,
		Size:         int64(len(data)),
		UploaderID:   caller.ID,
	}

	if s.store != nil {
		file.StoragePath = filepath.Join("photos", file.ID+"."+ext)
		err = s.store.Save(file.StoragePath, bytes.NewReader(data))
		if err != nil {
			slog.Error("photo storage write failed", "error", err, "path", file.StoragePath)
			return nil, validation.NewUploadError(validation.UploadErrSaveFailed, err.Error())
		}
	} else {
		file.Data = data
	}

	err = s.fileRepo.Create(file)
	if err != nil {
		// Clean up the orphaned object before reporting failure
		if s.store != nil {
			delErr := s.store.Delete(file.StoragePath)
			if delErr != nil {
				slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", file.StoragePath)
			}
		}
		return nil, validation.NewUploadError(validation.UploadErrDBFailed, err.Error())
	}

	err = s.userSvc.UpdatePhotoRef(caller, targetID, &file.ID)
	if err != nil {
		if errors.Is(err, authz.ErrForbidden) || errors.Is(err, authz.ErrLoginRequired) {
			return nil, err
		}
		return nil, validation.NewUploadError(validation.UploadErrDBFailed, err.Error())
	}

	return file, nil
}

// Remove clears the target user's photo reference. The blob itself is
// kept; references are soft-unlinked.
func (s *PhotoService) Remove(caller authz.Caller, targetID int64) error {
	return s.userSvc.UpdatePhotoRef(caller, targetID, nil)
}

// FileByID loads a blob with its bytes, for serving inline-stored
// photos.
func (s *PhotoService) FileByID(id string) (*model.PublicFile, error) {
	return s.fileRepo.ByID(id)
}

// PhotoURL resolves the serving URL for a user's photo, empty when the
// user has none.
func (s *PhotoService) PhotoURL(user *model.User) string {
	if user == nil || user.PhotoFileID == nil {
		return ""
	}

	if s.store != nil {
		file, err := s.fileRepo.MetaByID(*user.PhotoFileID)
		if err != nil {
			slog.Warn("photo metadata lookup failed", "error", err, "file_id", *user.PhotoFileID)
			return ""
		}
		return s.store.URL(file.StoragePath)
	}

	return fmt.Sprintf("/files/%s", *user.PhotoFileID)
}
