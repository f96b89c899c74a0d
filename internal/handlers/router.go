package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lestari-hub/forestry-service/internal/config"
	"github.com/lestari-hub/forestry-service/internal/rbac"
	"github.com/lestari-hub/forestry-service/internal/repositories"
	"github.com/lestari-hub/forestry-service/internal/services"
	"github.com/lestari-hub/forestry-service/internal/utils"
	"github.com/lestari-hub/forestry-service/internal/validator"
)

type HandlerManager struct {
	serviceManager      services.ServiceManager
	grantHandler        *GrantHandler
	carbonHandler       *CarbonHandler
	sectionHandler      *SectionHandler
	organizationHandler *OrganizationHandler
	financeHandler      *FinanceHandler
	complianceHandler   *ComplianceHandler
	dashboardHandler    *DashboardHandler
	userHandler         *UserHandler
	importExportHandler *ImportExportHandler
	authMiddleware      *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	profileRepo repositories.ProfileRepository,
	evaluator *rbac.Evaluator,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, profileRepo, evaluator)

	grantHandler := NewGrantHandler(serviceManager.Grant(), validator, logger)

	return &HandlerManager{
		serviceManager:      serviceManager,
		grantHandler:        grantHandler,
		carbonHandler:       NewCarbonHandler(serviceManager.Carbon(), validator, logger),
		sectionHandler:      NewSectionHandler(serviceManager.Section(), validator, logger),
		organizationHandler: NewOrganizationHandler(serviceManager.Organization(), validator, logger),
		financeHandler:      NewFinanceHandler(serviceManager.Finance(), validator, logger),
		complianceHandler:   NewComplianceHandler(serviceManager.Compliance(), logger),
		dashboardHandler:    NewDashboardHandler(serviceManager.Dashboard(), logger),
		userHandler:         NewUserHandler(serviceManager.User(), validator, logger),
		importExportHandler: NewImportExportHandler(serviceManager.ImportExport(), grantHandler, logger),
		authMiddleware:      authMiddleware,
	}
}

// SetupRoutes sets up all API routes. Route guards reference permission
// names from the RBAC table; the services repeat the same checks so a
// route without a guard still cannot bypass them.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Grant routes
		grants := v1.Group("/grants")
		{
			grants.POST("", hm.authMiddleware.RequirePermission(rbac.PermissionGrantManage), hm.grantHandler.CreateGrant)
			grants.PUT("/:id", hm.authMiddleware.RequirePermission(rbac.PermissionGrantManage), hm.grantHandler.UpdateGrant)
			grants.PUT("/:id/status", hm.authMiddleware.RequirePermission(rbac.PermissionGrantManage), hm.grantHandler.UpdateGrantStatus)
			grants.DELETE("/:id", hm.authMiddleware.RequirePermission(rbac.PermissionDelete), hm.grantHandler.DeleteGrant)

			// View routes - all authenticated users, read permission enforced in the service
			grants.GET("", hm.grantHandler.ListGrants)
			grants.GET("/search", hm.grantHandler.SearchGrants)
			grants.GET("/:id", hm.grantHandler.GetGrant)
			grants.GET("/:id/details", hm.grantHandler.GetGrantWithDetails)
		}

		// Carbon project routes
		carbon := v1.Group("/carbon-projects")
		{
			carbon.POST("", hm.authMiddleware.RequirePermission(rbac.PermissionCarbonProjects), hm.carbonHandler.CreateCarbonProject)
			carbon.PUT("/:id", hm.authMiddleware.RequirePermission(rbac.PermissionCarbonProjects), hm.carbonHandler.UpdateCarbonProject)
			carbon.PUT("/:id/status", hm.authMiddleware.RequirePermission(rbac.PermissionCarbonProjects), hm.carbonHandler.UpdateCarbonProjectStatus)
			carbon.DELETE("/:id", hm.authMiddleware.RequirePermission(rbac.PermissionDelete), hm.carbonHandler.DeleteCarbonProject)

			carbon.GET("", hm.carbonHandler.ListCarbonProjects)
			carbon.GET("/:id", hm.carbonHandler.GetCarbonProject)
			carbon.GET("/:id/details", hm.carbonHandler.GetCarbonProjectWithDetails)

			carbon.PUT("/:id/estimate", hm.authMiddleware.RequirePermission(rbac.PermissionCarbonProjects), hm.carbonHandler.SetCarbonEstimate)
			carbon.GET("/:id/estimate", hm.carbonHandler.GetCarbonEstimate)
			carbon.PUT("/:id/verification-schedule", hm.authMiddleware.RequirePermission(rbac.PermissionCarbonProjects), hm.carbonHandler.SetVerificationSchedule)
			carbon.GET("/:id/verification-schedule", hm.carbonHandler.GetVerificationSchedule)
		}

		// Project section routes - shared by grants and carbon projects
		projects := v1.Group("/projects")
		{
			projects.PUT("/:id/sections/organizational-profile", hm.authMiddleware.RequirePermission(rbac.PermissionEdit), hm.sectionHandler.UpsertOrganizationalProfile)
			projects.GET("/:id/sections/organizational-profile", hm.sectionHandler.GetOrganizationalProfile)
			projects.PUT("/:id/sections/land-tenure", hm.authMiddleware.RequirePermission(rbac.PermissionEdit), hm.sectionHandler.UpsertLandTenure)
			projects.GET("/:id/sections/land-tenure", hm.sectionHandler.GetLandTenure)
			projects.POST("/:id/sections/forest-status", hm.authMiddleware.RequirePermission(rbac.PermissionEdit), hm.sectionHandler.AddForestStatusRecord)
			projects.GET("/:id/sections/forest-status", hm.sectionHandler.ListForestStatusRecords)
			projects.POST("/:id/sections/deforestation-drivers", hm.authMiddleware.RequirePermission(rbac.PermissionEdit), hm.sectionHandler.AddDeforestationDriver)
			projects.GET("/:id/sections/deforestation-drivers", hm.sectionHandler.ListDeforestationDrivers)
			projects.PUT("/:id/sections/models", hm.authMiddleware.RequirePermission(rbac.PermissionEdit), hm.sectionHandler.UpsertModel)
			projects.GET("/:id/sections/models/:kind", hm.sectionHandler.GetModel)
			projects.POST("/:id/sections/timeline", hm.authMiddleware.RequirePermission(rbac.PermissionEdit), hm.sectionHandler.AddMilestone)
			projects.GET("/:id/sections/timeline", hm.sectionHandler.ListMilestones)
			projects.POST("/:id/sections/kml-files", hm.authMiddleware.RequirePermission(rbac.PermissionEdit), hm.sectionHandler.AddKMLFile)

			// Organization links
			projects.POST("/:id/organizations", hm.authMiddleware.RequirePermission(rbac.PermissionOrganizationManage), hm.organizationHandler.LinkOrganization)
			projects.DELETE("/:id/organizations/:organization_id", hm.authMiddleware.RequirePermission(rbac.PermissionOrganizationManage), hm.organizationHandler.UnlinkOrganization)
			projects.GET("/:id/organizations", hm.organizationHandler.ListProjectOrganizations)

			// Compliance
			projects.POST("/:id/compliance", hm.authMiddleware.RequirePermission(rbac.PermissionComplianceCheck), hm.complianceHandler.CheckProject)

			// Project ledgers
			projects.GET("/:id/ledgers", hm.authMiddleware.RequirePermission(rbac.PermissionFinancialView), hm.financeHandler.ListProjectLedgers)
		}

		// Compliance check by query parameters
		compliance := v1.Group("/compliance")
		{
			compliance.GET("/check", hm.authMiddleware.RequirePermission(rbac.PermissionComplianceCheck), hm.complianceHandler.CheckCompliance)
		}

		// Organization routes
		organizations := v1.Group("/organizations")
		{
			organizations.POST("", hm.authMiddleware.RequirePermission(rbac.PermissionOrganizationManage), hm.organizationHandler.CreateOrganization)
			organizations.PUT("/:id", hm.authMiddleware.RequirePermission(rbac.PermissionOrganizationManage), hm.organizationHandler.UpdateOrganization)
			organizations.DELETE("/:id", hm.authMiddleware.RequirePermission(rbac.PermissionDelete), hm.organizationHandler.DeleteOrganization)
			organizations.GET("", hm.organizationHandler.ListOrganizations)
			organizations.GET("/:id", hm.organizationHandler.GetOrganization)
		}

		// Ledger routes
		ledgers := v1.Group("/ledgers")
		{
			ledgers.POST("", hm.authMiddleware.RequirePermission(rbac.PermissionFinancialBudgetManage), hm.financeHandler.CreateLedger)
			ledgers.GET("/:id", hm.authMiddleware.RequirePermission(rbac.PermissionFinancialView), hm.financeHandler.GetLedger)
			ledgers.GET("/:id/details", hm.authMiddleware.RequirePermission(rbac.PermissionFinancialView), hm.financeHandler.GetLedgerWithDetails)
			ledgers.POST("/:id/close", hm.authMiddleware.RequirePermission(rbac.PermissionFinancialBudgetManage), hm.financeHandler.CloseLedger)
			ledgers.GET("/:id/summary", hm.authMiddleware.RequirePermission(rbac.PermissionFinancialView), hm.financeHandler.GetLedgerSummary)

			// Budget lines
			ledgers.POST("/:id/budget-lines", hm.authMiddleware.RequirePermission(rbac.PermissionFinancialBudgetManage), hm.financeHandler.AddBudgetLine)
			ledgers.PUT("/:id/budget-lines/:line_id", hm.authMiddleware.RequirePermission(rbac.PermissionFinancialBudgetManage), hm.financeHandler.UpdateBudgetLine)
			ledgers.DELETE("/:id/budget-lines/:line_id", hm.authMiddleware.RequirePermission(rbac.PermissionFinancialBudgetManage), hm.financeHandler.DeleteBudgetLine)
			ledgers.GET("/:id/budget-lines", hm.authMiddleware.RequirePermission(rbac.PermissionFinancialView), hm.financeHandler.ListBudgetLines)

			// Transactions
			ledgers.POST("/:id/transactions", hm.authMiddleware.RequirePermission(rbac.PermissionFinancialTransactionManage), hm.financeHandler.RecordTransaction)
			ledgers.GET("/:id/transactions", hm.authMiddleware.RequirePermission(rbac.PermissionFinancialView), hm.financeHandler.ListTransactions)
			ledgers.DELETE("/:id/transactions/:tx_id", hm.authMiddleware.RequirePermission(rbac.PermissionDelete), hm.financeHandler.DeleteTransaction)
			ledgers.POST("/:id/transactions/import", hm.authMiddleware.RequirePermission(rbac.PermissionImportData), hm.importExportHandler.ImportTransactions)
		}

		// Export routes
		export := v1.Group("/export")
		export.Use(hm.authMiddleware.RequirePermission(rbac.PermissionExportReports))
		{
			export.GET("/grants", hm.importExportHandler.ExportGrants)
			export.GET("/ledgers/:id", hm.importExportHandler.ExportLedger)
		}

		// Dashboard routes
		dashboard := v1.Group("/dashboard")
		{
			dashboard.GET("/overview", hm.dashboardHandler.GetOverview)
		}

		// User routes
		users := v1.Group("/users")
		{
			users.GET("/me", hm.userHandler.GetCurrentUser)
			users.GET("/me/permissions", hm.userHandler.GetCurrentUserPermissions)

			users.GET("", hm.authMiddleware.RequirePermission(rbac.PermissionManageUsers), hm.userHandler.ListUsers)
			users.GET("/search", hm.authMiddleware.RequirePermission(rbac.PermissionManageUsers), hm.userHandler.SearchUsers)
			users.GET("/:id", hm.userHandler.GetUser)
			users.PUT("/:id/role", hm.authMiddleware.RequirePermission(rbac.PermissionManageUsers), hm.userHandler.UpdateUserRole)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": "forestry-service",
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "forestry-service",
		})
	})

	// Prometheus metrics endpoint
	router.GET("/metrics", MetricsHandler())
}
