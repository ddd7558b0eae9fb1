package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawloan/accounts/internal/model"
)

func TestFileRepositoryCreateAndLookup(t *testing.T) {
	repo := NewFileRepository(newTestDB(t))

	file := &model.PublicFile{
		Data:         []byte{0x89, 0x50, 0x4e, 0x47},
		MimeType:     "image/png",
		OriginalName: "dog.png",
		Size:         4,
		UploaderID:   1,
	}
	require.NoError(t, repo.Create(file))
	require.NotEmpty(t, file.ID)
	require.False(t, file.CreatedAt.IsZero())

	got, err := repo.ByID(file.ID)
	require.NoError(t, err)
	assert.Equal(t, file.Data, got.Data)
	assert.Equal(t, "image/png", got.MimeType)
	assert.Equal(t, "dog.png", got.OriginalName)
	assert.Equal(t, int64(1), got.UploaderID)

	meta, err := repo.MetaByID(file.ID)
	require.NoError(t, err)
	assert.Empty(t, meta.Data)
	assert.Equal(t, "image/png", meta.MimeType)
	assert.Equal(t, int64(4), meta.Size)

	_, err = repo.ByID("missing")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestActivityRepositoryAppend(t *testing.T) {
	database := newTestDB(t)
	repo := NewActivityRepository(database)

	actor := int64(1)
	target := int64(2)
	entry := &model.ActivityEntry{
		ActorID:      &actor,
		Action:       model.ActionUserProfileUpdate,
		TargetUserID: &target,
		Details:      `{"fields":["first_name"]}`,
	}
	require.NoError(t, repo.Append(entry))
	require.NotEmpty(t, entry.ID)

	var count int
	require.NoError(t, database.Get(&count, `SELECT COUNT(*) FROM activity_log WHERE action = $1`, model.ActionUserProfileUpdate))
	assert.Equal(t, 1, count)
}
