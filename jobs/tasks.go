package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeLastLogin stamps the last successful login on a user record.
	TaskTypeLastLogin = "auth:last_login"
	// TaskTypeAuditPrune removes audit log entries past the retention window.
	TaskTypeAuditPrune = "audit:prune"
)

// LastLoginPayload identifies the user and login time to record.
type LastLoginPayload struct {
	UserID int64     `json:"user_id"`
	At     time.Time `json:"at"`
}

// NewLastLoginTask constructs an Asynq task for a login stamp.
func NewLastLoginTask(payload LastLoginPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeLastLogin, data), nil
}

// LastLoginHandler returns a handler that writes the login stamp.
func LastLoginHandler(pool *pgxpool.Pool) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload LastLoginPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		at := payload.At
		if at.IsZero() {
			at = time.Now().UTC()
		}
		_, err := pool.Exec(ctx,
			`UPDATE users SET last_login = $2 WHERE id = $1`,
			payload.UserID, at)
		return err
	}
}

// AuditPrunePayload carries the retention window for the prune job.
type AuditPrunePayload struct {
	KeepDays int `json:"keep_days"`
}

// NewAuditPruneTask constructs an Asynq task for the audit prune job.
func NewAuditPruneTask(payload AuditPrunePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuditPrune, data), nil
}

// AuditPruneHandler returns a handler that deletes stale audit entries.
func AuditPruneHandler(pool *pgxpool.Pool) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AuditPrunePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		keep := payload.KeepDays
		if keep <= 0 {
			keep = 365
		}
		cutoff := time.Now().UTC().AddDate(0, 0, -keep)
		_, err := pool.Exec(ctx, `DELETE FROM audit_logs WHERE at < $1`, cutoff)
		return err
	}
}
