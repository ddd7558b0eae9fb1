package validation

import (
	"bytes"
	"fmt"
	"image"
	"net/http"

	// Decoders for the allow-listed image formats.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Upload rejection codes, carried to the caller as the machine-readable
// err= redirect parameter.
const (
	UploadErrMissingUserID = "missing_user_id"
	UploadErrMissingFile   = "missing_file"
	UploadErrEmptyFile     = "empty_file"
	UploadErrTooLarge      = "too_large"
	UploadErrInvalidType   = "invalid_type"
	UploadErrNotImage      = "not_image"
	UploadErrSaveFailed    = "save_failed"
	UploadErrDBFailed      = "db_failed"
)

// UploadError is an upload rejection with a machine-readable code.
type UploadError struct {
	Code string
	Msg  string
}

func (e *UploadError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("upload rejected (%s): %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("upload rejected (%s)", e.Code)
}

// NewUploadError builds an UploadError with the given code.
func NewUploadError(code, msg string) *UploadError {
	return &UploadError{Code: code, Msg: msg}
}

// allowedImageTypes maps sniffed MIME types to canonical extensions.
var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// ValidateImage runs the upload chain on raw bytes: size bound, content
// sniffing (the client-declared type is ignored), allow-list check, and
// a decode pass so polyglot files that sniff as images still fail.
// Returns the sniffed MIME type and canonical extension.
func ValidateImage(data []byte, maxBytes int64) (mimeType, ext string, err error) {
	if len(data) == 0 {
		return "", "", NewUploadError(UploadErrEmptyFile, "file is empty")
	}
	if int64(len(data)) > maxBytes {
		return "", "", NewUploadError(UploadErrTooLarge, fmt.Sprintf("file exceeds %d bytes", maxBytes))
	}

	// Sniff actual content type from the leading bytes
	sniffLen := len(data)
	if sniffLen > 512 {
		sniffLen = 512
	}
	mimeType = http.DetectContentType(data[:sniffLen])

	ext, ok := allowedImageTypes[mimeType]
	if !ok {
		return "", "", NewUploadError(UploadErrInvalidType, "detected type "+mimeType)
	}

	// Decode image metadata to confirm the bytes really are an image
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", "", NewUploadError(UploadErrNotImage, "image decoding failed")
	}
	if _, ok := allowedImageTypes["image/"+format]; !ok {
		return "", "", NewUploadError(UploadErrNotImage, "decoded format "+format)
	}

	return mimeType, ext, nil
}
