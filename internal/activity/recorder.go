// Package activity writes the audit trail. Entries are best-effort: a
// failed write is logged and counted but never fails the user's action.
package activity

import (
	"context"
	"database/sql"

	"github.com/goccy/go-json"

	"vidstream/internal/database"
	"vidstream/internal/logging"
	"vidstream/internal/metrics"
)

// Actions recorded in activity_log
const (
	UserRegister  = "user.register"
	UserLogin     = "user.login"
	VideoUpload   = "video.upload"
	CommentCreate = "comment.create"
	ReplyCreate   = "reply.create"
	VideoDelete   = "video.delete"
	CommentDelete = "comment.delete"
)

// Entity types
const (
	EntityUser    = "user"
	EntityVideo   = "video"
	EntityComment = "comment"
	EntityReply   = "reply"
)

// Store is the persistence the recorder needs
type Store interface {
	LogActivity(ctx context.Context, e *database.ActivityEntry) error
}

// Recorder appends entries to the audit trail
type Recorder struct {
	store Store
}

// NewRecorder creates a recorder; a nil store disables recording
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record writes one entry. actorID and entityID of 0 are stored as NULL.
func (r *Recorder) Record(ctx context.Context, actorID int64, action, entityType string, entityID int64, details map[string]any) {
	if r == nil || r.store == nil {
		return
	}

	entry := &database.ActivityEntry{
		UserID:     nullID(actorID),
		Action:     action,
		EntityType: entityType,
		EntityID:   nullID(entityID),
	}
	if len(details) > 0 {
		encoded, err := json.Marshal(details)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("action", action).Msg("activity details not encodable")
		} else {
			entry.Details = string(encoded)
		}
	}

	if err := r.store.LogActivity(ctx, entry); err != nil {
		metrics.ActivityLogFailures.Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("action", action).Msg("failed to write activity log")
	}
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}
