// internal/handlers/form.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tphpa/portal-backend/internal/i18n"
	"github.com/tphpa/portal-backend/internal/models"
	"github.com/tphpa/portal-backend/internal/services"
	"github.com/tphpa/portal-backend/internal/utils"
)

type FormHandler struct {
	forms *services.FormService
	users *services.UserService
}

func NewFormHandler(forms *services.FormService, users *services.UserService) *FormHandler {
	return &FormHandler{forms: forms, users: users}
}

// Submit handles POST /api/forms.
func (h *FormHandler) Submit(c *gin.Context) {
	var req services.SubmitFormInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	submission, err := h.forms.Submit(userID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	lang := utils.GetLangFromContext(c)
	utils.CreatedResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyFormSubmitted),
		"submission": submission,
	})
}

// Latest handles GET /api/forms/:instanceId.
func (h *FormHandler) Latest(c *gin.Context) {
	instanceID, err := strconv.ParseInt(c.Param("instanceId"), 10, 64)
	if err != nil {
		utils.BadRequestResponse(c, "instance id must be numeric", nil)
		return
	}

	submission, err := h.forms.Latest(instanceID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.SuccessResponse(c, submission)
}

// History handles GET /api/forms/:instanceId/history.
func (h *FormHandler) History(c *gin.Context) {
	instanceID, err := strconv.ParseInt(c.Param("instanceId"), 10, 64)
	if err != nil {
		utils.BadRequestResponse(c, "instance id must be numeric", nil)
		return
	}

	revisions, err := h.forms.History(instanceID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.SuccessResponse(c, revisions)
}

// MyForms handles GET /api/forms.
func (h *FormHandler) MyForms(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	submissions, total, err := h.forms.ListByUser(userID, params)
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(submissions, total, params))
}

type formDecisionRequest struct {
	Comment   string `json:"comment"`
	FieldName string `json:"field_name"`
}

// Approve handles POST /api/forms/:instanceId/approve.
func (h *FormHandler) Approve(c *gin.Context) {
	h.decide(c, models.SubmissionActionApprove, i18n.KeyFormApproved)
}

// Reject handles POST /api/forms/:instanceId/reject.
func (h *FormHandler) Reject(c *gin.Context) {
	h.decide(c, models.SubmissionActionReject, i18n.KeyFormRejected)
}

func (h *FormHandler) decide(c *gin.Context, decision models.SubmissionAction, messageKey string) {
	instanceID, err := strconv.ParseInt(c.Param("instanceId"), 10, 64)
	if err != nil {
		utils.BadRequestResponse(c, "instance id must be numeric", nil)
		return
	}

	var req formDecisionRequest
	c.ShouldBindJSON(&req)

	userID, ok := h.currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	actor, err := h.users.FindByID(userID)
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		return
	}

	revision, err := h.forms.Decide(instanceID, decision, actor, req.Comment, req.FieldName)
	if err != nil {
		h.writeError(c, err)
		return
	}

	lang := utils.GetLangFromContext(c)
	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(lang, messageKey),
		"submission": revision,
	})
}

// FormTypes handles GET /api/forms/types.
func (h *FormHandler) FormTypes(c *gin.Context) {
	types, err := h.forms.ListFormTypes()
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.SuccessResponse(c, types)
}

func (h *FormHandler) currentUserID(c *gin.Context) (uuid.UUID, bool) {
	idStr, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (h *FormHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.BadRequestResponse(c, err.Error(), nil)
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, "form")
	default:
		logrus.WithError(err).Error("Form operation failed")
		utils.InternalErrorResponse(c, "")
	}
}
