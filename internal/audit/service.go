// Package audit records who changed the catalog and who signed in.
package audit

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/santos/internal/database/audit"
	"github.com/mrlokans/santos/internal/entities"
)

const maxErrorLen = 500

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(context.Background(), event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Wait blocks until every event passed to LogAsync has been written.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogSaint records a create, update or delete of a single saint.
func (s *Service) LogSaint(userEmail string, eventType entities.AuditEventType, saintID uint, saintName string, err error) {
	event := &entities.AuditEvent{
		UserEmail:   userEmail,
		EventType:   eventType,
		Action:      "saint_" + string(eventType),
		Description: fmt.Sprintf("%s saint #%d %s", eventType, saintID, saintName),
		EntityType:  "saint",
		Status:      entities.AuditStatusSuccess,
	}
	if saintID != 0 {
		event.EntityID = &saintID
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), maxErrorLen)
	}

	s.LogAsync(event)
}

// LogImport records a bulk import of saints.
func (s *Service) LogImport(userEmail, source string, count int, err error) {
	event := &entities.AuditEvent{
		UserEmail:   userEmail,
		EventType:   entities.AuditEventImport,
		Action:      source + "_import",
		Description: fmt.Sprintf("Imported %d saints", count),
		EntityType:  "saint",
		Status:      entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), maxErrorLen)
	}

	s.LogAsync(event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userEmail, action, ipAddr string, success bool) {
	event := &entities.AuditEvent{
		UserEmail:  userEmail,
		EventType:  entities.AuditEventAuth,
		Action:     action,
		EntityType: "user",
		IPAddress:  ipAddr,
		Status:     entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(ctx context.Context, eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(ctx, eventType, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
