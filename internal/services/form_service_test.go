// internal/services/form_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphpa/portal-backend/internal/models"
)

func TestFormSubmitRegistersType(t *testing.T) {
	db := newTestDB(t)
	forms := NewFormService(db)
	user := newTestUser(t, db, "submitter@test.local", models.UserRoleEmployee)

	sub, err := forms.Submit(user.ID, SubmitFormInput{
		InstanceID: 100,
		FormType:   "safari_imprest",
		FormData:   map[string]interface{}{"destination": "Dodoma"},
	})
	require.NoError(t, err)
	assert.Equal(t, "SAFARI_IMPREST", sub.FormType)
	assert.Equal(t, models.SubmissionActionSubmit, sub.ActionType)

	types, err := forms.ListFormTypes()
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "SAFARI_IMPREST", types[0].Code)

	// Re-submitting the same type does not duplicate the registry entry.
	_, err = forms.Submit(user.ID, SubmitFormInput{
		InstanceID: 101,
		FormType:   "SAFARI_IMPREST",
		FormData:   map[string]interface{}{},
	})
	require.NoError(t, err)
	types, err = forms.ListFormTypes()
	require.NoError(t, err)
	assert.Len(t, types, 1)
}

func TestFormHistoryIsAppendOnly(t *testing.T) {
	db := newTestDB(t)
	forms := NewFormService(db)
	user := newTestUser(t, db, "submitter@test.local", models.UserRoleEmployee)
	manager := newTestUser(t, db, "manager@test.local", models.UserRoleUnitManager)

	_, err := forms.Submit(user.ID, SubmitFormInput{
		InstanceID: 100,
		FormType:   "SAFARI_IMPREST",
		FormData:   map[string]interface{}{"destination": "Dodoma"},
	})
	require.NoError(t, err)

	revision, err := forms.Decide(100, models.SubmissionActionApprove, manager, "ok to travel", "manager_signature")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionActionApprove, revision.ActionType)
	assert.Equal(t, "Dodoma", revision.FormData["destination"])

	payload, err := models.ParseSignaturePayload(revision.FormData["manager_signature"])
	require.NoError(t, err)
	assert.Equal(t, manager.FullName(), payload.SignedByName)
	assert.Equal(t, models.SignatureTypeDashboard, payload.SignatureType)
	assert.Nil(t, payload.ApprovalRecordID)

	history, err := forms.History(100)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.SubmissionActionSubmit, history[0].ActionType)
	assert.Nil(t, history[0].FormData["manager_signature"])

	latest, err := forms.Latest(100)
	require.NoError(t, err)
	assert.Equal(t, revision.ID, latest.ID)
}

func TestFormRejectKeepsDataUnsigned(t *testing.T) {
	db := newTestDB(t)
	forms := NewFormService(db)
	user := newTestUser(t, db, "submitter@test.local", models.UserRoleEmployee)
	manager := newTestUser(t, db, "manager@test.local", models.UserRoleUnitManager)

	_, err := forms.Submit(user.ID, SubmitFormInput{
		InstanceID: 100,
		FormType:   "SAFARI_IMPREST",
		FormData:   map[string]interface{}{"destination": "Dodoma"},
	})
	require.NoError(t, err)

	revision, err := forms.Decide(100, models.SubmissionActionReject, manager, "not approved", "manager_signature")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionActionReject, revision.ActionType)
	assert.Nil(t, revision.FormData["manager_signature"])
}

func TestFormDecideUnknownInstance(t *testing.T) {
	db := newTestDB(t)
	forms := NewFormService(db)
	manager := newTestUser(t, db, "manager@test.local", models.UserRoleUnitManager)

	_, err := forms.Decide(999, models.SubmissionActionApprove, manager, "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSignatureServiceFallsBackToFormType(t *testing.T) {
	db := newTestDB(t)
	forms := NewFormService(db)
	signatures := NewSignatureService(db)
	user := newTestUser(t, db, "submitter@test.local", models.UserRoleEmployee)

	_, err := forms.Submit(user.ID, SubmitFormInput{
		InstanceID: 100,
		FormType:   "SAFARI_IMPREST",
		FormData:   map[string]interface{}{"destination": "Dodoma"},
	})
	require.NoError(t, err)

	payload := &models.SignaturePayload{
		SignedByName:  "Big Boss",
		SignatureType: models.SignatureTypeExternal,
	}

	// No instance id: attach correlates through the form type code.
	revision, err := signatures.Attach(nil, "SAFARI_IMPREST", "director_signature", payload)
	require.NoError(t, err)
	assert.Equal(t, int64(100), revision.InstanceID)
	assert.Equal(t, models.SubmissionActionExternalApproval, revision.ActionType)

	_, err = signatures.Attach(nil, "UNKNOWN_FORM", "director_signature", payload)
	assert.ErrorIs(t, err, ErrSubmissionMissing)
}
