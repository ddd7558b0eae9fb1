package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pawloan/accounts/internal/model"
)

var ErrFileNotFound = errors.New("file not found")

// FileRepository persists public file blobs. Rows are immutable once
// created; unlinking a photo reference never touches them.
type FileRepository interface {
	Create(file *model.PublicFile) error
	ByID(id string) (*model.PublicFile, error)
	MetaByID(id string) (*model.PublicFile, error)
}

type fileRepository struct {
	db *sqlx.DB
}

func NewFileRepository(db *sqlx.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(file *model.PublicFile) error {
	if file.ID == "" {
		file.ID = uuid.New().String()
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now().UTC()
	}
	if file.Data == nil {
		file.Data = []byte{}
	}

	query := `INSERT INTO public_files (id, data, mime_type, original_name, storage_path, size, uploader_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(query,
		file.ID,
		file.Data,
		file.MimeType,
		file.OriginalName,
		file.StoragePath,
		file.Size,
		file.UploaderID,
		file.CreatedAt,
	)
	return err
}

func (r *fileRepository) ByID(id string) (*model.PublicFile, error) {
	file := &model.PublicFile{}
	err := r.db.Get(file, `SELECT * FROM public_files WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrFileNotFound
	}
	return file, err
}

// MetaByID loads a file row without its bytes.
func (r *fileRepository) MetaByID(id string) (*model.PublicFile, error) {
	file := &model.PublicFile{}
	query := `SELECT id, mime_type, original_name, storage_path, size, uploader_id, created_at
	          FROM public_files WHERE id = $1`
	err := r.db.Get(file, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrFileNotFound
	}
	return file, err
}
