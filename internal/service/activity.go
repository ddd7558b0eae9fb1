package service

import (
	"encoding/json"
	"log/slog"

	"github.com/pawloan/accounts/internal/authz"
	"github.com/pawloan/accounts/internal/model"
	"github.com/pawloan/accounts/internal/repository"
)

// ActivityLogger appends audit records on the happy path of every
// mutation. It is strictly best-effort: failures are logged and
// swallowed, and never affect the mutation's result.
type ActivityLogger struct {
	activityRepo repository.ActivityRepository
}

func NewActivityLogger(activityRepo repository.ActivityRepository) *ActivityLogger {
	return &ActivityLogger{activityRepo: activityRepo}
}

func (l *ActivityLogger) Log(caller authz.Caller, action string, targetUserID int64, details map[string]any) {
	entry := &model.ActivityEntry{
		Action: action,
	}
	if caller.ID != 0 {
		actorID := caller.ID
		entry.ActorID = &actorID
	}
	if targetUserID != 0 {
		target := targetUserID
		entry.TargetUserID = &target
	}
	if len(details) > 0 {
		data, err := json.Marshal(details)
		if err == nil {
			entry.Details = string(data)
		}
	}

	err := l.activityRepo.Append(entry)
	if err != nil {
		slog.Warn("activity log write failed", "action", action, "target_user_id", targetUserID, "error", err)
	}
}
