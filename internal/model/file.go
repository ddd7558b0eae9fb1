package model

import (
	"time"
)

// PublicFile is an immutable stored blob. For the database storage
// backend the bytes live in the Data column; for S3 they live at
// StoragePath and Data stays empty. Deleting a user's photo reference
// never deletes the blob itself.
type PublicFile struct {
	ID           string    `db:"id"`
	Data         []byte    `db:"data"`
	MimeType     string    `db:"mime_type"`
	OriginalName string    `db:"original_name"`
	StoragePath  string    `db:"storage_path"`
	Size         int64     `db:"size"`
	UploaderID   int64     `db:"uploader_id"`
	CreatedAt    time.Time `db:"created_at"`
}
