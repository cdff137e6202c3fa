// internal/services/notification_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphpa/portal-backend/internal/models"
)

func TestSendWithoutTransportFallsBack(t *testing.T) {
	db := newTestDB(t)
	notifications := NewNotificationService(db, newTestConfig())

	delivered := notifications.Send("someone@test.local", "Hello", "body", "")
	assert.False(t, delivered)

	var entries []models.NotificationLog
	require.NoError(t, db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, "someone@test.local", entries[0].Recipient)
	assert.Equal(t, "Hello", entries[0].Subject)
	assert.False(t, entries[0].Delivered)
	assert.Equal(t, "smtp not configured", entries[0].Reason)
}

func TestSendUnreachableHostFallsBack(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	cfg.Email.SMTPHost = "127.0.0.1"
	cfg.Email.SMTPPort = "1" // nothing listens here
	notifications := NewNotificationService(db, cfg)

	delivered := notifications.Send("someone@test.local", "Hello", "body", "<p>body</p>")
	assert.False(t, delivered)

	var entries []models.NotificationLog
	require.NoError(t, db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].Reason)
	assert.Equal(t, "<p>body</p>", entries[0].HTMLBody)
}

func TestApprovalRequestEmailCarriesLink(t *testing.T) {
	db := newTestDB(t)
	notifications := NewNotificationService(db, newTestConfig())

	instanceID := int64(42)
	req := &models.ApprovalRequest{
		InstanceID:     &instanceID,
		FieldName:      "director_signature",
		ApproverEmail:  "boss@test.local",
		TokenExpiresAt: time.Now().Add(24 * time.Hour),
	}

	link := "http://localhost:4200/approvals/verify?token=secret"
	delivered := notifications.SendApprovalRequest(req, "Asha Mushi", link)
	assert.False(t, delivered)

	var entry models.NotificationLog
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, "boss@test.local", entry.Recipient)
	assert.Contains(t, entry.TextBody, link)
	assert.Contains(t, entry.TextBody, "Asha Mushi")
	assert.Contains(t, entry.Subject, "#42")
}
