// internal/handlers/advertisement.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tphpa/portal-backend/internal/i18n"
	"github.com/tphpa/portal-backend/internal/services"
	"github.com/tphpa/portal-backend/internal/utils"
)

type AdvertisementHandler struct {
	ads *services.AdvertisementService
}

func NewAdvertisementHandler(ads *services.AdvertisementService) *AdvertisementHandler {
	return &AdvertisementHandler{ads: ads}
}

// List handles GET /api/advertisements.
func (h *AdvertisementHandler) List(c *gin.Context) {
	ads, err := h.ads.ListActive()
	if err != nil {
		logrus.WithError(err).Error("Advertisement listing failed")
		utils.InternalErrorResponse(c, "")
		return
	}
	utils.SuccessResponse(c, ads)
}

// Create handles POST /api/advertisements; administrators only.
func (h *AdvertisementHandler) Create(c *gin.Context) {
	var req services.CreateAdvertisementInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	ad, err := h.ads.Create(req)
	if err != nil {
		logrus.WithError(err).Error("Advertisement creation failed")
		utils.InternalErrorResponse(c, "")
		return
	}

	lang := utils.GetLangFromContext(c)
	utils.CreatedResponse(c, gin.H{
		"message":       i18n.T(lang, i18n.KeyAdCreated),
		"advertisement": ad,
	})
}

// Deactivate handles DELETE /api/advertisements/:id; administrators only.
func (h *AdvertisementHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.NotFoundResponse(c, "advertisement")
		return
	}

	if err := h.ads.Deactivate(id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.NotFoundResponse(c, "advertisement")
			return
		}
		logrus.WithError(err).Error("Advertisement deactivation failed")
		utils.InternalErrorResponse(c, "")
		return
	}
	utils.SuccessResponse(c, gin.H{"deactivated": true})
}
