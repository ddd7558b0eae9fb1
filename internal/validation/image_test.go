package validation

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maxTestBytes = 8 << 20

func encodePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1)), nil))
	return buf.Bytes()
}

func TestValidateImageAcceptsPNG(t *testing.T) {
	mime, ext, err := ValidateImage(encodePNG(t), maxTestBytes)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, "png", ext)
}

func TestValidateImageAcceptsJPEG(t *testing.T) {
	mime, ext, err := ValidateImage(encodeJPEG(t), maxTestBytes)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	assert.Equal(t, "jpg", ext)
}

func TestValidateImageRejectsEmpty(t *testing.T) {
	_, _, err := ValidateImage(nil, maxTestBytes)
	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, UploadErrEmptyFile, uploadErr.Code)
}

func TestValidateImageRejectsOversized(t *testing.T) {
	_, _, err := ValidateImage(encodePNG(t), 4)
	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, UploadErrTooLarge, uploadErr.Code)
}

func TestValidateImageRejectsWrongType(t *testing.T) {
	_, _, err := ValidateImage([]byte("<html><body>hi</body></html>"), maxTestBytes)
	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, UploadErrInvalidType, uploadErr.Code)
}

func TestValidateImageRejectsTruncatedPNG(t *testing.T) {
	// A valid PNG signature with garbage after it sniffs as image/png
	// but does not decode
	data := append([]byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}, bytes.Repeat([]byte{0x00}, 32)...)
	_, _, err := ValidateImage(data, maxTestBytes)
	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, UploadErrNotImage, uploadErr.Code)
}

func TestNormalizeEmailIdempotent(t *testing.T) {
	once := NormalizeEmail("  Ada@Example.COM  ")
	assert.Equal(t, "ada@example.com", once)
	assert.Equal(t, once, NormalizeEmail(once))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("ada@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail(string(bytes.Repeat([]byte{'a'}, 250))+"@example.com"))
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword(""))
	assert.Error(t, ValidatePassword("short"))
	assert.NoError(t, ValidatePassword("longenough"))
	assert.Error(t, ValidatePassword(string(bytes.Repeat([]byte{'p'}, 73))))
}
