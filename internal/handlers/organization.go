// internal/handlers/organization.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tphpa/portal-backend/internal/services"
	"github.com/tphpa/portal-backend/internal/utils"
)

type OrganizationHandler struct {
	users *services.UserService
}

func NewOrganizationHandler(users *services.UserService) *OrganizationHandler {
	return &OrganizationHandler{users: users}
}

// ListUnits handles GET /api/organization/units.
func (h *OrganizationHandler) ListUnits(c *gin.Context) {
	units, err := h.users.ListOrganizationUnits()
	if err != nil {
		logrus.WithError(err).Error("Organization unit listing failed")
		utils.InternalErrorResponse(c, "")
		return
	}
	utils.SuccessResponse(c, units)
}
