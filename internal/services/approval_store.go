// internal/services/approval_store.go
package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tphpa/portal-backend/internal/models"
)

// ApprovalStore owns persistence for approval requests. All status
// transitions go through Transition, whose conditional update is the single
// serialization point that keeps concurrent decisions at-most-once.
type ApprovalStore struct {
	db *gorm.DB
}

func NewApprovalStore(db *gorm.DB) *ApprovalStore {
	return &ApprovalStore{db: db}
}

// DecisionFields carries everything a terminal transition writes alongside
// the new status.
type DecisionFields struct {
	Comment           string
	DecidedAt         time.Time
	ApproverIP        string
	ApproverUserAgent string
	SignaturePayload  models.JSONB
}

func (s *ApprovalStore) Create(req *models.ApprovalRequest) error {
	if strings.TrimSpace(req.FieldName) == "" {
		return fmt.Errorf("%w: field_name is required", ErrValidation)
	}
	if strings.TrimSpace(req.ApproverEmail) == "" {
		return fmt.Errorf("%w: approver_email is required", ErrValidation)
	}
	if req.InstanceID == nil && strings.TrimSpace(req.FormTypeCode) == "" {
		return fmt.Errorf("%w: either instance_id or form_type_code is required", ErrValidation)
	}
	if req.TokenHash == "" {
		return fmt.Errorf("%w: token hash is required", ErrValidation)
	}
	if req.Status == "" {
		req.Status = models.ApprovalStatusPending
	}
	return s.db.Create(req).Error
}

// FindByTokenHash looks a request up by the hash of its raw token. Returns
// ErrNotFound when no row matches; callers translate that to ErrInvalidToken
// so lookups never reveal whether a token ever existed.
func (s *ApprovalStore) FindByTokenHash(tokenHash string) (*models.ApprovalRequest, error) {
	var req models.ApprovalRequest
	err := s.db.Where("token_hash = ?", tokenHash).First(&req).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *ApprovalStore) FindByID(id uuid.UUID) (*models.ApprovalRequest, error) {
	var req models.ApprovalRequest
	err := s.db.Preload("Requestor").Where("id = ?", id).First(&req).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Transition moves a pending request to a terminal status. The guarded
// update only matches rows still pending, so among concurrent callers
// exactly one observes RowsAffected == 1; the rest get ErrInvalidState.
func (s *ApprovalStore) Transition(id uuid.UUID, newStatus models.ApprovalStatus, fields DecisionFields) (*models.ApprovalRequest, error) {
	if !newStatus.IsTerminal() {
		return nil, fmt.Errorf("%w: cannot transition to %s", ErrValidation, newStatus)
	}

	current, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return nil, ErrInvalidState
	}
	if current.Expired(fields.DecidedAt) {
		return nil, ErrExpired
	}

	updates := map[string]interface{}{
		"status":              newStatus,
		"decision_comment":    fields.Comment,
		"approved_at":         fields.DecidedAt,
		"approver_ip":         fields.ApproverIP,
		"approver_user_agent": fields.ApproverUserAgent,
	}
	if fields.SignaturePayload != nil {
		updates["signature_payload"] = fields.SignaturePayload
	}

	result := s.db.Model(&models.ApprovalRequest{}).
		Where("id = ? AND status = ?", id, models.ApprovalStatusPending).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// Lost the race to a concurrent decision.
		return nil, ErrInvalidState
	}

	return s.FindByID(id)
}

// MarkNotified records when the requestor was told about the decision.
// Idempotent: re-delivery only moves the timestamp forward.
func (s *ApprovalStore) MarkNotified(id uuid.UUID, at time.Time) error {
	return s.db.Model(&models.ApprovalRequest{}).
		Where("id = ?", id).
		Update("notified_at", at).Error
}

// List returns requests newest first, optionally filtered by status.
func (s *ApprovalStore) List(status models.ApprovalStatus, offset, limit int) ([]models.ApprovalRequest, int64, error) {
	var (
		requests []models.ApprovalRequest
		total    int64
	)

	query := s.db.Model(&models.ApprovalRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&requests).Error
	return requests, total, err
}
