// internal/services/approval_service.go
package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tphpa/portal-backend/internal/config"
	"github.com/tphpa/portal-backend/internal/models"
	"github.com/tphpa/portal-backend/internal/utils"
)

// ApprovalService drives the external signature workflow: mint a single-use
// token, email the approver a decision link, and on redemption settle the
// request exactly once, mirroring approvals into the form log.
type ApprovalService struct {
	store         *ApprovalStore
	users         *UserService
	signatures    *SignatureService
	notifications *NotificationService
	cfg           *config.Config
}

func NewApprovalService(store *ApprovalStore, users *UserService, signatures *SignatureService, notifications *NotificationService, cfg *config.Config) *ApprovalService {
	return &ApprovalService{
		store:         store,
		users:         users,
		signatures:    signatures,
		notifications: notifications,
		cfg:           cfg,
	}
}

// CreateApprovalInput is the caller-supplied half of a new request. FormID
// is either a numeric instance id or, for submissions that predate their
// durable id, a form type code.
type CreateApprovalInput struct {
	FormID        string
	FieldName     string
	RequestorID   *uuid.UUID
	ApproverEmail string
}

// CreateRequest mints a request plus its one-time link. The raw token is
// returned to the caller inside the link and stored only as a hash.
func (s *ApprovalService) CreateRequest(input CreateApprovalInput) (*models.ApprovalRequest, string, error) {
	if strings.TrimSpace(input.FieldName) == "" {
		return nil, "", fmt.Errorf("%w: field_name is required", ErrValidation)
	}
	formID := strings.TrimSpace(input.FormID)
	if formID == "" {
		return nil, "", fmt.Errorf("%w: form_id is required", ErrValidation)
	}

	var (
		instanceID   *int64
		formTypeCode string
	)
	if n, err := strconv.ParseInt(formID, 10, 64); err == nil {
		instanceID = &n
	} else {
		formTypeCode = formID
	}

	approverEmail, err := s.resolveApprover(input.ApproverEmail)
	if err != nil {
		return nil, "", err
	}

	rawToken, err := utils.GenerateApprovalToken()
	if err != nil {
		return nil, "", err
	}

	req := &models.ApprovalRequest{
		InstanceID:      instanceID,
		FormTypeCode:    formTypeCode,
		FieldName:       strings.TrimSpace(input.FieldName),
		RequestorUserID: input.RequestorID,
		ApproverEmail:   approverEmail,
		TokenHash:       utils.HashToken(rawToken),
		TokenExpiresAt:  time.Now().Add(time.Duration(s.cfg.Approval.TokenTTLHours) * time.Hour),
		Status:          models.ApprovalStatusPending,
	}
	if err := s.store.Create(req); err != nil {
		return nil, "", err
	}

	link := fmt.Sprintf("%s?token=%s", s.cfg.Approval.VerifyBaseURL, rawToken)

	requestorName := ""
	if input.RequestorID != nil {
		if requestor, err := s.users.FindByID(*input.RequestorID); err == nil {
			requestorName = requestor.FullName()
		}
	}

	// Delivery is best-effort; the request stands even if the email never
	// leaves. Undeliverable mail lands in the notification log.
	go s.notifications.SendApprovalRequest(req, requestorName, link)

	logrus.WithFields(logrus.Fields{
		"approval_id": req.ID,
		"field_name":  req.FieldName,
	}).Info("Approval request created")

	return req, link, nil
}

func (s *ApprovalService) resolveApprover(override string) (string, error) {
	if email := strings.TrimSpace(override); email != "" {
		return strings.ToLower(email), nil
	}
	if s.cfg.Approval.DefaultApproverEmail != "" {
		return s.cfg.Approval.DefaultApproverEmail, nil
	}

	approvers, err := s.users.FindActiveByRole(models.UserRole(s.cfg.Approval.ApproverRole))
	if err != nil {
		return "", err
	}
	if len(approvers) == 0 {
		return "", ErrNoApprover
	}
	return approvers[0].Email, nil
}

// ApprovalProjection is the read-only view behind the decision page. It
// deliberately excludes the token hash and the requestor's identity.
type ApprovalProjection struct {
	ID            uuid.UUID             `json:"id"`
	InstanceID    *int64                `json:"instance_id"`
	FormTypeCode  string                `json:"form_type_code,omitempty"`
	FieldName     string                `json:"field_name"`
	ApproverEmail string                `json:"approver_email"`
	Status        models.ApprovalStatus `json:"status"`
	CreatedAt     time.Time             `json:"created_at"`
	ExpiresAt     time.Time             `json:"token_expires_at"`
}

// VerifyToken resolves a raw token to the request behind the decision page.
// Unknown and malformed tokens are indistinguishable from the outside.
func (s *ApprovalService) VerifyToken(rawToken string) (*ApprovalProjection, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, fmt.Errorf("%w: token is required", ErrValidation)
	}

	req, err := s.store.FindByTokenHash(utils.HashToken(rawToken))
	if err == ErrNotFound {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	if req.Status.IsTerminal() {
		return nil, ErrAlreadyDecided
	}
	if req.Expired(time.Now()) {
		return nil, ErrExpired
	}

	return &ApprovalProjection{
		ID:            req.ID,
		InstanceID:    req.InstanceID,
		FormTypeCode:  req.FormTypeCode,
		FieldName:     req.FieldName,
		ApproverEmail: req.ApproverEmail,
		Status:        req.Status,
		CreatedAt:     req.CreatedAt,
		ExpiresAt:     req.TokenExpiresAt,
	}, nil
}

// ConfirmDecisionInput is the redeem half of the flow. Decision must be
// approved or rejected; IP and user agent come from the HTTP layer.
type ConfirmDecisionInput struct {
	RawToken          string
	Decision          models.ApprovalStatus
	Comment           string
	ApproverName      string
	ApproverIP        string
	ApproverUserAgent string
}

// ConfirmDecision settles a pending request. At most one confirmation wins;
// later attempts see ErrAlreadyDecided. Approval mirrors a signature into
// the form log and notifies the requestor, both best-effort.
func (s *ApprovalService) ConfirmDecision(input ConfirmDecisionInput) (*models.ApprovalRequest, error) {
	rawToken := strings.TrimSpace(input.RawToken)
	if rawToken == "" {
		return nil, fmt.Errorf("%w: token is required", ErrValidation)
	}
	if input.Decision != models.ApprovalStatusApproved && input.Decision != models.ApprovalStatusRejected {
		return nil, fmt.Errorf("%w: decision must be approved or rejected", ErrValidation)
	}

	req, err := s.store.FindByTokenHash(utils.HashToken(rawToken))
	if err == ErrNotFound {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if req.Status.IsTerminal() {
		return nil, ErrAlreadyDecided
	}
	if req.Expired(now) {
		return nil, ErrExpired
	}

	fields := DecisionFields{
		Comment:           input.Comment,
		DecidedAt:         now,
		ApproverIP:        input.ApproverIP,
		ApproverUserAgent: input.ApproverUserAgent,
	}

	var payload *models.SignaturePayload
	if input.Decision == models.ApprovalStatusApproved {
		signedBy := strings.TrimSpace(input.ApproverName)
		if signedBy == "" {
			signedBy = req.ApproverEmail
		}
		recordID := req.ID
		payload = &models.SignaturePayload{
			SignedByName:      signedBy,
			SignatureType:     models.SignatureTypeExternal,
			SignedAt:          now,
			ApproverComment:   input.Comment,
			ApproverIP:        input.ApproverIP,
			ApproverUserAgent: input.ApproverUserAgent,
			ApprovalRecordID:  &recordID,
		}
		fields.SignaturePayload = payload.AsJSONB()
	}

	updated, err := s.store.Transition(req.ID, input.Decision, fields)
	if err == ErrInvalidState {
		return nil, ErrAlreadyDecided
	}
	if err != nil {
		return nil, err
	}

	if payload != nil {
		if _, err := s.signatures.Attach(updated.InstanceID, updated.FormTypeCode, updated.FieldName, payload); err != nil {
			// The decision stands even when no submission is there to
			// receive the signature.
			logrus.WithError(err).WithField("approval_id", updated.ID).
				Warn("Signature not attached to form data")
		}
	}

	s.notifyRequestor(updated)

	logrus.WithFields(logrus.Fields{
		"approval_id": updated.ID,
		"status":      updated.Status,
	}).Info("Approval request decided")

	return updated, nil
}

func (s *ApprovalService) notifyRequestor(req *models.ApprovalRequest) {
	if req.RequestorUserID == nil {
		return
	}
	requestor, err := s.users.FindByID(*req.RequestorUserID)
	if err != nil {
		logrus.WithError(err).WithField("approval_id", req.ID).
			Warn("Requestor lookup failed for decision notice")
		return
	}

	if s.notifications.SendDecisionNotice(req, requestor.Email) {
		if err := s.store.MarkNotified(req.ID, time.Now()); err != nil {
			logrus.WithError(err).WithField("approval_id", req.ID).
				Warn("Failed to record notification time")
		}
	}
}

// GetApproval returns one request by id for the authenticated dashboard.
func (s *ApprovalService) GetApproval(id uuid.UUID) (*models.ApprovalRequest, error) {
	return s.store.FindByID(id)
}

// Cancel administratively withdraws a pending request.
func (s *ApprovalService) Cancel(id uuid.UUID, comment string) (*models.ApprovalRequest, error) {
	updated, err := s.store.Transition(id, models.ApprovalStatusCancelled, DecisionFields{
		Comment:   comment,
		DecidedAt: time.Now(),
	})
	if err == ErrInvalidState {
		return nil, ErrAlreadyDecided
	}
	return updated, err
}

// List pages through requests for the admin view.
func (s *ApprovalService) List(status models.ApprovalStatus, params utils.PaginationParams) ([]models.ApprovalRequest, int64, error) {
	offset := (params.Page - 1) * params.Limit
	return s.store.List(status, offset, params.Limit)
}
