// internal/handlers/report.go
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

type ReportHandler struct {
	reports *services.ReportService
	users   *services.UserService
}

func NewReportHandler(reports *services.ReportService, users *services.UserService) *ReportHandler {
	return &ReportHandler{reports: reports, users: users}
}

// Submit handles POST /api/reports.
func (h *ReportHandler) Submit(c *gin.Context) {
	var req services.SubmitReportInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	submitter, ok := h.currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	report, err := h.reports.Submit(submitter, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	lang := utils.GetLangFromContext(c)
	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyReportSubmitted),
		"report":  report,
	})
}

// MyReports handles GET /api/reports.
func (h *ReportHandler) MyReports(c *gin.Context) {
	submitter, ok := h.currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	reports, total, err := h.reports.ListBySubmitter(submitter.ID, params)
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(reports, total, params))
}

// Queue handles GET /api/reports/queue for unit managers.
func (h *ReportHandler) Queue(c *gin.Context) {
	manager, ok := h.currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	if manager.OrgUnitID == nil {
		utils.SuccessResponse(c, []models.Report{})
		return
	}

	params := utils.GetPaginationParams(c)
	reports, total, err := h.reports.ListPendingForUnit(*manager.OrgUnitID, params)
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(reports, total, params))
}

type reportDecisionRequest struct {
	Comment string `json:"comment"`
}

// Approve handles POST /api/reports/:id/approve.
func (h *ReportHandler) Approve(c *gin.Context) {
	h.decide(c, models.ReportStatusApproved, i18n.KeyReportApproved)
}

// Reject handles POST /api/reports/:id/reject.
func (h *ReportHandler) Reject(c *gin.Context) {
	h.decide(c, models.ReportStatusRejected, i18n.KeyReportRejected)
}

func (h *ReportHandler) decide(c *gin.Context, status models.ReportStatus, messageKey string) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.NotFoundResponse(c, "report")
		return
	}

	var req reportDecisionRequest
	c.ShouldBindJSON(&req)

	report, err := h.reports.Decide(id, status, req.Comment)
	if err != nil {
		h.writeError(c, err)
		return
	}

	lang := utils.GetLangFromContext(c)
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, messageKey),
		"report":  report,
	})
}

func (h *ReportHandler) currentUser(c *gin.Context) (*models.User, bool) {
	idStr, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, false
	}
	user, err := h.users.FindByID(id)
	if err != nil {
		return nil, false
	}
	return user, true
}

func (h *ReportHandler) writeError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.BadRequestResponse(c, "", nil)
	case errors.Is(err, services.ErrAlreadyDecided):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyApprovalAlreadyDecided), nil)
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, "report")
	default:
		logrus.WithError(err).Error("Report operation failed")
		utils.InternalErrorResponse(c, "")
	}
}
