// internal/services/form_service.go
package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tphpa/portal-backend/internal/models"
	"github.com/tphpa/portal-backend/internal/utils"
)

// FormService maintains the append-only submission log. Nothing here ever
// updates a revision in place.
type FormService struct {
	db *gorm.DB
}

func NewFormService(db *gorm.DB) *FormService {
	return &FormService{db: db}
}

type SubmitFormInput struct {
	InstanceID int64                  `json:"instance_id" binding:"required"`
	FormType   string                 `json:"form_type" binding:"required"`
	Comments   string                 `json:"comments"`
	FormData   map[string]interface{} `json:"form_data" binding:"required"`
}

// Submit appends the initial revision of a form instance, registering the
// form type on first sight.
func (s *FormService) Submit(userID uuid.UUID, input SubmitFormInput) (*models.FormSubmission, error) {
	code := strings.ToUpper(strings.TrimSpace(input.FormType))
	if code == "" {
		return nil, fmt.Errorf("%w: form_type is required", ErrValidation)
	}

	var formType models.FormType
	err := s.db.Where("code = ?", code).First(&formType).Error
	if err == gorm.ErrRecordNotFound {
		formType = models.FormType{Code: code, Name: code}
		if err := s.db.Create(&formType).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	submission := &models.FormSubmission{
		InstanceID: input.InstanceID,
		FormType:   code,
		ActionType: models.SubmissionActionSubmit,
		ActionBy:   &userID,
		Comments:   input.Comments,
		FormData:   models.JSONB(input.FormData),
	}
	if err := s.db.Create(submission).Error; err != nil {
		return nil, err
	}
	return submission, nil
}

// Latest returns the newest revision of an instance.
func (s *FormService) Latest(instanceID int64) (*models.FormSubmission, error) {
	var sub models.FormSubmission
	err := s.db.Where("instance_id = ?", instanceID).
		Order("created_at DESC").
		First(&sub).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// History returns every revision of an instance, oldest first.
func (s *FormService) History(instanceID int64) ([]models.FormSubmission, error) {
	var subs []models.FormSubmission
	err := s.db.Where("instance_id = ?", instanceID).
		Order("created_at ASC").
		Find(&subs).Error
	return subs, err
}

// ListByUser pages through the latest revisions of forms a user submitted.
func (s *FormService) ListByUser(userID uuid.UUID, params utils.PaginationParams) ([]models.FormSubmission, int64, error) {
	// Latest revision per instance, restricted to instances the user
	// opened with a submit action.
	subquery := s.db.Model(&models.FormSubmission{}).
		Select("MAX(created_at)").
		Where("form_submissions.instance_id = latest.instance_id")

	base := s.db.Table("form_submissions AS latest").
		Where("latest.instance_id IN (?)",
			s.db.Model(&models.FormSubmission{}).
				Select("instance_id").
				Where("action_by = ? AND action_type = ?", userID, models.SubmissionActionSubmit)).
		Where("latest.created_at = (?)", subquery)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var subs []models.FormSubmission
	err := base.Order("latest.created_at DESC").
		Offset((params.Page - 1) * params.Limit).
		Limit(params.Limit).
		Find(&subs).Error
	return subs, total, err
}

// Decide appends a dashboard decision revision. When fieldName is given the
// new revision's form data carries a dashboard signature under that field.
func (s *FormService) Decide(instanceID int64, decision models.SubmissionAction, actor *models.User, comment, fieldName string) (*models.FormSubmission, error) {
	if decision != models.SubmissionActionApprove && decision != models.SubmissionActionReject {
		return nil, fmt.Errorf("%w: decision must be approve or reject", ErrValidation)
	}

	latest, err := s.Latest(instanceID)
	if err != nil {
		return nil, err
	}

	formData := make(models.JSONB, len(latest.FormData)+1)
	for k, v := range latest.FormData {
		formData[k] = v
	}
	if decision == models.SubmissionActionApprove && fieldName != "" {
		payload := &models.SignaturePayload{
			SignedByName:    actor.FullName(),
			SignatureType:   models.SignatureTypeDashboard,
			SignedAt:        time.Now(),
			ApproverComment: comment,
		}
		formData[fieldName] = map[string]interface{}(payload.AsJSONB())
	}

	actorID := actor.ID
	revision := &models.FormSubmission{
		InstanceID: latest.InstanceID,
		FormType:   latest.FormType,
		ActionType: decision,
		ActionBy:   &actorID,
		Comments:   comment,
		FormData:   formData,
	}
	if err := s.db.Create(revision).Error; err != nil {
		return nil, err
	}
	return revision, nil
}

// ListFormTypes returns the registry of known form kinds.
func (s *FormService) ListFormTypes() ([]models.FormType, error) {
	var types []models.FormType
	err := s.db.Order("code ASC").Find(&types).Error
	return types, err
}
