package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/stakevault/stakevault_backend/controllers"
	"github.com/stakevault/stakevault_backend/middleware"
)

// RegisterAdminRoutes sets up the operator workflow routes
func RegisterAdminRoutes(e *echo.Echo,
	adminSalaryController *controllers.AdminSalaryController,
	depositController *controllers.DepositController,
) {
	// Admin routes group
	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.RequireAdmin())

	// Salary request workflow
	admin.GET("/salary/requests/pending", adminSalaryController.GetPendingRequests)
	admin.GET("/salary/requests/processed", adminSalaryController.GetProcessedRequests)
	admin.PUT("/salary/requests/:id/approve", adminSalaryController.ApproveRequest)
	admin.PUT("/salary/requests/:id/reject", adminSalaryController.RejectRequest)
	admin.POST("/salary/requests/bulk-approve", adminSalaryController.BulkApproveRequests)
	admin.POST("/salary/run-monthly", adminSalaryController.RunMonthlyProcessing)

	// Deposit review
	admin.GET("/deposits/pending", depositController.GetPendingDeposits)
	admin.PUT("/deposits/:id/process", depositController.ProcessDeposit)
}
