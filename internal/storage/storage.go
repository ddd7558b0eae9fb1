// Package storage holds blob bytes for the public files table. The
// default deployment keeps bytes inline on the row and needs no
// Storage at all; the s3 backend moves them to an S3-compatible bucket.
package storage

import (
	"io"
)

// Storage is an external byte store for public file blobs.
type Storage interface {
	// Save stores a file at the given path
	Save(path string, file io.Reader) error

	// Delete removes the file at the given path
	Delete(path string) error

	// URL returns a URL for accessing the file
	URL(path string) string
}
