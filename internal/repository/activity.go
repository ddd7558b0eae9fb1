package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pawloan/accounts/internal/model"
)

// ActivityRepository appends audit records. The log is write-only from
// this service's perspective.
type ActivityRepository interface {
	Append(entry *model.ActivityEntry) error
}

type activityRepository struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Append(entry *model.ActivityEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Details == "" {
		entry.Details = "{}"
	}

	query := `INSERT INTO activity_log (id, actor_id, action, target_user_id, details, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(query,
		entry.ID,
		entry.ActorID,
		entry.Action,
		entry.TargetUserID,
		entry.Details,
		entry.CreatedAt,
	)
	return err
}
