package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/stakevault/stakevault_backend/controllers"
)

// RegisterAuthRoutes sets up the public authentication routes
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController) {
	e.POST("/api/auth/register", authController.Register)
	e.POST("/api/auth/login", authController.Login)
	e.POST("/api/auth/verify-otp", authController.VerifyOTP)
	e.POST("/api/auth/resend-otp", authController.ResendOTP)
}
