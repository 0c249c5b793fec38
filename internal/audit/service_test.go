package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	auditRepo "github.com/mrlokans/santos/internal/database/audit"
	"github.com/mrlokans/santos/internal/entities"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	repo := auditRepo.NewRepository(db)
	svc := NewService(repo)

	return svc, db
}

func TestService_Log(t *testing.T) {
	svc, db := setupTestService(t)

	event := &entities.AuditEvent{
		UserEmail: "maria@example.com",
		EventType: entities.AuditEventAuth,
		Action:    "login",
		Status:    entities.AuditStatusSuccess,
	}

	err := svc.Log(context.Background(), event)
	require.NoError(t, err)

	var saved entities.AuditEvent
	err = db.First(&saved, event.ID).Error
	require.NoError(t, err)
	assert.Equal(t, "login", saved.Action)
	assert.Equal(t, "maria@example.com", saved.UserEmail)
}

func TestService_LogSaint(t *testing.T) {
	svc, db := setupTestService(t)

	t.Run("successful create", func(t *testing.T) {
		svc.LogSaint("maria@example.com", entities.AuditEventCreate, 42, "Santa Clara", nil)
		svc.Wait()

		var event entities.AuditEvent
		err := db.Where("action = ?", "saint_create").First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditStatusSuccess, event.Status)
		assert.Equal(t, "saint", event.EntityType)
		require.NotNil(t, event.EntityID)
		assert.Equal(t, uint(42), *event.EntityID)
		assert.Contains(t, event.Description, "Santa Clara")
	})

	t.Run("failed delete", func(t *testing.T) {
		svc.LogSaint("maria@example.com", entities.AuditEventDelete, 9, "", errors.New("database is locked"))
		svc.Wait()

		var event entities.AuditEvent
		err := db.Where("action = ?", "saint_delete").First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditStatusFailed, event.Status)
		assert.Contains(t, event.ErrorMsg, "database is locked")
	})
}

func TestService_LogImport(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogImport("admin@example.com", "batch", 12, nil)
	svc.Wait()

	var event entities.AuditEvent
	err := db.Where("action = ?", "batch_import").First(&event).Error
	require.NoError(t, err)
	assert.Equal(t, entities.AuditEventImport, event.EventType)
	assert.Equal(t, "Imported 12 saints", event.Description)
	assert.Nil(t, event.EntityID)
}

func TestService_LogAuth(t *testing.T) {
	svc, db := setupTestService(t)

	t.Run("successful login", func(t *testing.T) {
		svc.LogAuth("maria@example.com", "login", "192.168.1.1", true)
		svc.Wait()

		var event entities.AuditEvent
		err := db.Where("action = ?", "login").First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditStatusSuccess, event.Status)
		assert.Equal(t, "192.168.1.1", event.IPAddress)
	})

	t.Run("failed login", func(t *testing.T) {
		svc.LogAuth("intruder@example.com", "login_failed", "10.0.0.1", false)
		svc.Wait()

		var event entities.AuditEvent
		err := db.Where("action = ?", "login_failed").First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditStatusFailed, event.Status)
	})
}

func TestService_GetEvents(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := svc.Log(ctx, &entities.AuditEvent{
			EventType: entities.AuditEventCreate,
			Action:    "saint_create",
			Status:    entities.AuditStatusSuccess,
		})
		require.NoError(t, err)
	}

	events, total, err := svc.GetEvents(ctx, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, events, 5)
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, db := setupTestService(t)

	oldEvent := &entities.AuditEvent{
		EventType: entities.AuditEventAuth,
		Action:    "old",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, db.Create(oldEvent).Error)

	newEvent := &entities.AuditEvent{
		EventType: entities.AuditEventDelete,
		Action:    "new",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(newEvent).Error)

	deleted, err := svc.DeleteOldEvents(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []entities.AuditEvent
	db.Find(&remaining)
	assert.Len(t, remaining, 1)
	assert.Equal(t, "new", remaining[0].Action)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10c", 10, "exactly10c"},
		{"this is a very long string", 10, "this is..."},
		{"", 5, ""},
	}

	for _, tc := range tests {
		result := truncate(tc.input, tc.maxLen)
		assert.Equal(t, tc.expected, result)
	}
}
