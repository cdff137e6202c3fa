// internal/services/approval_store_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphpa/portal-backend/internal/models"
	"github.com/tphpa/portal-backend/internal/utils"
)

func newPendingRequest(t *testing.T, store *ApprovalStore) (*models.ApprovalRequest, string) {
	t.Helper()

	rawToken, err := utils.GenerateApprovalToken()
	require.NoError(t, err)

	instanceID := int64(7)
	req := &models.ApprovalRequest{
		InstanceID:     &instanceID,
		FieldName:      "manager_signature",
		ApproverEmail:  "approver@test.local",
		TokenHash:      utils.HashToken(rawToken),
		TokenExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Create(req))
	return req, rawToken
}

func TestApprovalStoreCreateDefaultsToPending(t *testing.T) {
	store := NewApprovalStore(newTestDB(t))

	req, _ := newPendingRequest(t, store)
	assert.Equal(t, models.ApprovalStatusPending, req.Status)
}

func TestApprovalStoreCreateValidation(t *testing.T) {
	store := NewApprovalStore(newTestDB(t))

	err := store.Create(&models.ApprovalRequest{
		ApproverEmail:  "approver@test.local",
		TokenHash:      "x",
		TokenExpiresAt: time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrValidation)

	instanceID := int64(7)
	err = store.Create(&models.ApprovalRequest{
		InstanceID:     &instanceID,
		FieldName:      "manager_signature",
		TokenHash:      "x",
		TokenExpiresAt: time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestApprovalStoreFindByTokenHash(t *testing.T) {
	store := NewApprovalStore(newTestDB(t))
	req, rawToken := newPendingRequest(t, store)

	found, err := store.FindByTokenHash(utils.HashToken(rawToken))
	require.NoError(t, err)
	assert.Equal(t, req.ID, found.ID)

	_, err = store.FindByTokenHash(utils.HashToken("nope"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApprovalStoreTransitionGuards(t *testing.T) {
	store := NewApprovalStore(newTestDB(t))
	req, _ := newPendingRequest(t, store)

	// Non-terminal target is rejected outright.
	_, err := store.Transition(req.ID, models.ApprovalStatusPending, DecisionFields{DecidedAt: time.Now()})
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := store.Transition(req.ID, models.ApprovalStatusApproved, DecisionFields{
		Comment:   "fine",
		DecidedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusApproved, updated.Status)
	assert.Equal(t, "fine", updated.DecisionComment)
	require.NotNil(t, updated.ApprovedAt)

	// Terminal rows do not transition again.
	_, err = store.Transition(req.ID, models.ApprovalStatusRejected, DecisionFields{DecidedAt: time.Now()})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestApprovalStoreMarkNotifiedIdempotent(t *testing.T) {
	store := NewApprovalStore(newTestDB(t))
	req, _ := newPendingRequest(t, store)

	first := time.Now().Truncate(time.Second)
	require.NoError(t, store.MarkNotified(req.ID, first))
	require.NoError(t, store.MarkNotified(req.ID, first.Add(time.Minute)))

	found, err := store.FindByID(req.ID)
	require.NoError(t, err)
	require.NotNil(t, found.NotifiedAt)
	assert.True(t, found.NotifiedAt.After(first))
}

func TestApprovalStoreList(t *testing.T) {
	db := newTestDB(t)
	store := NewApprovalStore(db)

	first, _ := newPendingRequest(t, store)
	_, err := store.Transition(first.ID, models.ApprovalStatusRejected, DecisionFields{DecidedAt: time.Now()})
	require.NoError(t, err)
	newPendingRequest(t, store)

	pending, total, err := store.List(models.ApprovalStatusPending, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, pending, 1)

	all, total, err := store.List("", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)
}
