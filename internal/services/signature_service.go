// internal/services/signature_service.go
package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/tphpa/portal-backend/internal/models"
)

// SignatureService mirrors approval decisions into form data. The form log
// is append-only; attaching a signature means appending a new revision whose
// form data carries the signature payload under the approved field.
type SignatureService struct {
	db *gorm.DB
}

func NewSignatureService(db *gorm.DB) *SignatureService {
	return &SignatureService{db: db}
}

// latestByInstance returns the newest revision for a durable instance id.
func (s *SignatureService) latestByInstance(instanceID int64) (*models.FormSubmission, error) {
	var sub models.FormSubmission
	err := s.db.Where("instance_id = ?", instanceID).
		Order("created_at DESC").
		First(&sub).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrSubmissionMissing
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// latestByFormType is the legacy correlation path for requests created
// before the submission had an instance id. It can attach to the wrong
// submission when several instances of the same form type are in flight.
func (s *SignatureService) latestByFormType(code string) (*models.FormSubmission, error) {
	var sub models.FormSubmission
	err := s.db.Where("form_type = ?", code).
		Order("created_at DESC").
		First(&sub).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrSubmissionMissing
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Attach appends an external-approval revision whose form data embeds the
// signature payload at fieldName. Returns ErrSubmissionMissing when no
// submission matches; callers treat that as non-fatal.
func (s *SignatureService) Attach(instanceID *int64, formTypeCode, fieldName string, payload *models.SignaturePayload) (*models.FormSubmission, error) {
	var (
		latest *models.FormSubmission
		err    error
	)

	if instanceID != nil {
		latest, err = s.latestByInstance(*instanceID)
	} else if formTypeCode != "" {
		latest, err = s.latestByFormType(formTypeCode)
	} else {
		return nil, fmt.Errorf("%w: no correlation key", ErrValidation)
	}
	if err != nil {
		return nil, err
	}

	// Copy rather than mutate: the loaded revision stays untouched.
	formData := make(models.JSONB, len(latest.FormData)+1)
	for k, v := range latest.FormData {
		formData[k] = v
	}
	formData[fieldName] = map[string]interface{}(payload.AsJSONB())

	revision := &models.FormSubmission{
		InstanceID: latest.InstanceID,
		FormType:   latest.FormType,
		ActionType: models.SubmissionActionExternalApproval,
		Comments:   payload.ApproverComment,
		FormData:   formData,
	}
	if err := s.db.Create(revision).Error; err != nil {
		return nil, err
	}
	return revision, nil
}
