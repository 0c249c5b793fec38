package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// DefaultAuditRetentionDays applies when a cleanup task carries no positive
// retention.
const DefaultAuditRetentionDays = 30

var errNoCleaner = errors.New("audit event cleaner not configured")

// AuditEventCleaner is the audit store operation the purge needs.
type AuditEventCleaner interface {
	DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error)
}

// CleanupAuditEventsTask asks for a purge of the audit trail (saint writes,
// imports and auth events) older than RetentionDays.
type CleanupAuditEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config retries a failed purge three times, five minutes apart. Finished
// tasks stay visible for a day; payloads are kept only for failures.
func (t CleanupAuditEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_audit_events",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration: 24 * time.Hour,
			Data:     &backlite.RetainData{OnlyFailed: true},
		},
	}
}

func (t CleanupAuditEventsTask) retentionDays() int {
	if t.RetentionDays <= 0 {
		return DefaultAuditRetentionDays
	}
	return t.RetentionDays
}

// CleanupAuditEventsProcessor deletes the audit events a task covers.
func CleanupAuditEventsProcessor(cleaner AuditEventCleaner) backlite.QueueProcessor[CleanupAuditEventsTask] {
	return func(ctx context.Context, task CleanupAuditEventsTask) error {
		if cleaner == nil {
			return errNoCleaner
		}

		days := task.retentionDays()
		deleted, err := cleaner.DeleteOldEvents(ctx, time.Duration(days)*24*time.Hour)
		if err != nil {
			return fmt.Errorf("cleanup audit events older than %d days: %w", days, err)
		}

		log.Printf("[TASK] Purged %d audit events older than %d days", deleted, days)
		return nil
	}
}

// NewCleanupAuditEventsQueue registers the purge processor as a backlite queue.
func NewCleanupAuditEventsQueue(cleaner AuditEventCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupAuditEventsProcessor(cleaner))
}
