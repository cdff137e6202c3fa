// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tphpa/portal-backend/internal/config"
	"github.com/tphpa/portal-backend/internal/handlers"
	"github.com/tphpa/portal-backend/internal/middleware"
	"github.com/tphpa/portal-backend/internal/models"
	"github.com/tphpa/portal-backend/internal/services"
)

// Setup wires services, handlers, and middleware into the HTTP surface.
func Setup(db *gorm.DB, cfg *config.Config) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Services
	notificationService := services.NewNotificationService(db, cfg)
	userService := services.NewUserService(db, cfg, notificationService)
	approvalStore := services.NewApprovalStore(db)
	signatureService := services.NewSignatureService(db)
	approvalService := services.NewApprovalService(approvalStore, userService, signatureService, notificationService, cfg)
	formService := services.NewFormService(db)
	reportService := services.NewReportService(db)
	adService := services.NewAdvertisementService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	approvalHandler := handlers.NewApprovalHandler(approvalService)
	formHandler := handlers.NewFormHandler(formService, userService)
	reportHandler := handlers.NewReportHandler(reportService, userService)
	adHandler := handlers.NewAdvertisementHandler(adService)
	orgHandler := handlers.NewOrganizationHandler(userService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := r.Group("/api")

	// Authentication
	auth := api.Group("/auth")
	{
		auth.POST("/login", middleware.AuthRateLimit(), authHandler.Login)
		auth.POST("/forgot-password", middleware.AuthRateLimit(), authHandler.ForgotPassword)
		auth.POST("/reset-password", middleware.AuthRateLimit(), authHandler.ResetPassword)
		auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
	}

	// Approvals. Verify and confirm are deliberately unauthenticated:
	// possession of the emailed token is the credential. Both sit behind
	// the token rate limit to keep guessing expensive.
	approvals := api.Group("/approvals")
	{
		approvals.POST("", middleware.OptionalAuth(), approvalHandler.Create)
		approvals.GET("/verify", middleware.ApprovalTokenRateLimit(), approvalHandler.Verify)
		approvals.POST("/confirm", middleware.ApprovalTokenRateLimit(), approvalHandler.Confirm)

		approvals.GET("", middleware.AuthRequired(), middleware.AdminRequired(), approvalHandler.List)
		approvals.GET("/requests/:id", middleware.AuthRequired(), approvalHandler.Get)
		approvals.POST("/requests/:id/cancel", middleware.AuthRequired(), middleware.AdminRequired(), approvalHandler.Cancel)
	}

	managerOnly := middleware.RoleRequired(
		models.UserRoleUnitManager,
		models.UserRoleDirector,
		models.UserRoleDirectorGeneral,
		models.UserRoleAdmin,
	)

	// Forms
	forms := api.Group("/forms", middleware.AuthRequired())
	{
		forms.POST("", formHandler.Submit)
		forms.GET("", formHandler.MyForms)
		forms.GET("/types", formHandler.FormTypes)
		forms.GET("/instances/:instanceId", formHandler.Latest)
		forms.GET("/instances/:instanceId/history", formHandler.History)
		forms.POST("/instances/:instanceId/approve", managerOnly, formHandler.Approve)
		forms.POST("/instances/:instanceId/reject", managerOnly, formHandler.Reject)
	}

	// Reports
	reports := api.Group("/reports", middleware.AuthRequired())
	{
		reports.POST("", reportHandler.Submit)
		reports.GET("", reportHandler.MyReports)
		reports.GET("/queue", managerOnly, reportHandler.Queue)
		reports.POST("/:id/approve", managerOnly, reportHandler.Approve)
		reports.POST("/:id/reject", managerOnly, reportHandler.Reject)
	}

	// Advertisements
	ads := api.Group("/advertisements")
	{
		ads.GET("", adHandler.List)
		ads.POST("", middleware.AuthRequired(), middleware.AdminRequired(), adHandler.Create)
		ads.DELETE("/:id", middleware.AuthRequired(), middleware.AdminRequired(), adHandler.Deactivate)
	}

	// Organization
	org := api.Group("/organization", middleware.AuthRequired())
	{
		org.GET("/units", orgHandler.ListUnits)
	}

	// Users (administration)
	users := api.Group("/users", middleware.AuthRequired(), middleware.AdminRequired())
	{
		users.POST("", authHandler.CreateUser)
	}

	return r
}
