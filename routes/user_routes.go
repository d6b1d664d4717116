package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/stakevault/stakevault_backend/controllers"
	"github.com/stakevault/stakevault_backend/middleware"
	"github.com/stakevault/stakevault_backend/models"
	"github.com/stakevault/stakevault_backend/websocket"
)

// RegisterUserRoutes sets up all authenticated user routes
func RegisterUserRoutes(e *echo.Echo,
	userController *controllers.UserController,
	salaryController *controllers.SalaryController,
	depositController *controllers.DepositController,
	stakeController *controllers.StakeController,
	hub *websocket.Hub,
) {
	// Protected routes group
	r := e.Group("/api")
	r.Use(middleware.JWTMiddleware())

	// Profile and referrals
	r.GET("/users/profile", userController.GetProfile)
	r.GET("/users/referrals", userController.GetReferrals)
	r.GET("/users/activity", userController.GetActivityLog)

	// Salary engine
	r.GET("/salary/plans", salaryController.GetPlans)
	r.GET("/salary/progress", salaryController.GetProgress)
	r.POST("/salary/request", salaryController.RequestPayment)
	r.GET("/salary/requests", salaryController.GetMyRequests)
	r.PUT("/users/payout-address", salaryController.SetPayoutAddress)

	// Deposits
	r.POST("/deposits", depositController.CreateDeposit)
	r.GET("/deposits", depositController.GetMyDeposits)
	r.GET("/deposits/address-qr", depositController.GetDepositAddressQR)

	// Staking
	r.GET("/stakes/rates", stakeController.GetStakingRates)
	r.POST("/stakes", stakeController.CreateStake)
	r.GET("/stakes", stakeController.GetMyStakes)
	r.POST("/stakes/:id/redeem", stakeController.RedeemStake)

	// WebSocket notifications
	r.GET("/ws", func(c echo.Context) error {
		userID, err := middleware.ExtractUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid token",
			})
		}
		objID, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid user ID",
			})
		}
		return websocket.HandleWebSocket(c, hub, objID, middleware.ExtractUserType(c) == "admin")
	})
}
