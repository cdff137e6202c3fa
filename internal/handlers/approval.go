// internal/handlers/approval.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tphpa/portal-backend/internal/i18n"
	"github.com/tphpa/portal-backend/internal/models"
	"github.com/tphpa/portal-backend/internal/services"
	"github.com/tphpa/portal-backend/internal/utils"
)

type ApprovalHandler struct {
	approvals *services.ApprovalService
}

func NewApprovalHandler(approvals *services.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals}
}

type createApprovalRequest struct {
	FormID        string `json:"form_id" binding:"required"`
	FieldName     string `json:"field_name" binding:"required"`
	ApproverEmail string `json:"approver_email" binding:"omitempty,email"`
}

// Create handles POST /api/approvals.
func (h *ApprovalHandler) Create(c *gin.Context) {
	var req createApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	var requestorID *uuid.UUID
	if idStr, ok := utils.GetUserIDFromContext(c); ok {
		if parsed, err := uuid.Parse(idStr); err == nil {
			requestorID = &parsed
		}
	}

	record, link, err := h.approvals.CreateRequest(services.CreateApprovalInput{
		FormID:        req.FormID,
		FieldName:     req.FieldName,
		RequestorID:   requestorID,
		ApproverEmail: req.ApproverEmail,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	lang := utils.GetLangFromContext(c)
	utils.CreatedResponse(c, gin.H{
		"message":      i18n.T(lang, i18n.KeyApprovalCreated),
		"approval":     record,
		"approval_url": link,
	})
}

// Verify handles GET /api/approvals/verify?token=...
func (h *ApprovalHandler) Verify(c *gin.Context) {
	projection, err := h.approvals.VerifyToken(c.Query("token"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.SuccessResponse(c, projection)
}

type confirmDecisionRequest struct {
	Token        string `json:"token" binding:"required"`
	Decision     string `json:"decision" binding:"required,decision"`
	Comment      string `json:"comment"`
	ApproverName string `json:"approver_name"`
}

// Confirm handles POST /api/approvals/confirm.
func (h *ApprovalHandler) Confirm(c *gin.Context) {
	var req confirmDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	record, err := h.approvals.ConfirmDecision(services.ConfirmDecisionInput{
		RawToken:          req.Token,
		Decision:          models.ApprovalStatus(req.Decision),
		Comment:           req.Comment,
		ApproverName:      req.ApproverName,
		ApproverIP:        c.ClientIP(),
		ApproverUserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	lang := utils.GetLangFromContext(c)
	messageKey := i18n.KeyApprovalApproved
	if record.Status == models.ApprovalStatusRejected {
		messageKey = i18n.KeyApprovalRejected
	}
	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, messageKey),
		"approval": record,
	})
}

// Get handles GET /api/approvals/:id.
func (h *ApprovalHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.NotFoundResponse(c, "approval")
		return
	}

	record, err := h.approvals.GetApproval(id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.SuccessResponse(c, record)
}

// List handles GET /api/approvals for administrators.
func (h *ApprovalHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	status := models.ApprovalStatus(c.Query("status"))

	records, total, err := h.approvals.List(status, params)
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(records, total, params))
}

type cancelApprovalRequest struct {
	Comment string `json:"comment"`
}

// Cancel handles POST /api/approvals/:id/cancel for administrators.
func (h *ApprovalHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.NotFoundResponse(c, "approval")
		return
	}

	var req cancelApprovalRequest
	c.ShouldBindJSON(&req)

	record, err := h.approvals.Cancel(id, req.Comment)
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.SuccessResponse(c, record)
}

// writeError maps workflow errors to HTTP statuses. Unknown and malformed
// tokens share a single 404 shape.
func (h *ApprovalHandler) writeError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	switch {
	case errors.Is(err, services.ErrInvalidToken):
		utils.ErrorResponse(c, 404, "INVALID_TOKEN", i18n.T(lang, i18n.KeyApprovalInvalidToken), nil)
	case errors.Is(err, services.ErrAlreadyDecided):
		utils.ErrorResponse(c, 400, "ALREADY_DECIDED", i18n.T(lang, i18n.KeyApprovalAlreadyDecided), nil)
	case errors.Is(err, services.ErrExpired):
		utils.ErrorResponse(c, 400, "TOKEN_EXPIRED", i18n.T(lang, i18n.KeyApprovalExpired), nil)
	case errors.Is(err, services.ErrNoApprover):
		utils.ErrorResponse(c, 400, "NO_APPROVER", i18n.T(lang, i18n.KeyApprovalNoApprover), nil)
	case errors.Is(err, services.ErrValidation):
		utils.BadRequestResponse(c, err.Error(), nil)
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, "approval")
	default:
		logrus.WithError(err).Error("Approval operation failed")
		utils.InternalErrorResponse(c, "")
	}
}
