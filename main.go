package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stakevault/stakevault_backend/config"
	"github.com/stakevault/stakevault_backend/controllers"
	"github.com/stakevault/stakevault_backend/middleware"
	"github.com/stakevault/stakevault_backend/monitoring"
	"github.com/stakevault/stakevault_backend/repositories"
	"github.com/stakevault/stakevault_backend/routes"
	"github.com/stakevault/stakevault_backend/salary"
	"github.com/stakevault/stakevault_backend/utils"
	"github.com/stakevault/stakevault_backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis
	config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()

	// Create WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeaders())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "StakeVault Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Initialize repositories
	userRepo := repositories.NewUserRepository(client)
	salaryRepo := repositories.NewSalaryRepository(client)
	readModelRepo := repositories.NewReadModelRepository(client)
	activityRepo := repositories.NewActivityRepository(client)

	// Wire the salary engine
	registry := salary.DefaultRegistry()
	events := salary.MultiEvents{
		websocket.NewSalaryNotifier(wsHub),
		monitoring.SalaryEvents{},
	}
	salaryService := salary.NewService(salaryRepo, readModelRepo, registry, events, activityRepo, nil)
	salaryScheduler := salary.NewScheduler(salaryRepo, readModelRepo, registry, events, activityRepo, nil)
	salaryScheduler.SummaryHook = func(s salary.Summary) {
		monitoring.RecordSchedulerSummary(s.Checked, s.Eligible, s.Created)
		utils.SendMonthlySalarySummary(salary.MonthKey(time.Now()), s.Checked, s.Eligible, s.Created)
	}

	// Initialize controllers
	authController := controllers.NewAuthController(client)
	userController := controllers.NewUserController(client, activityRepo)
	salaryController := controllers.NewSalaryController(salaryService, userRepo)
	adminSalaryController := controllers.NewAdminSalaryController(salaryService, salaryScheduler)
	depositController := controllers.NewDepositController(client, userRepo, activityRepo, wsHub)
	stakeController := controllers.NewStakeController(client, userRepo, activityRepo)

	// Register routes
	routes.RegisterAuthRoutes(e, authController)
	routes.RegisterUserRoutes(e, userController, salaryController, depositController, stakeController, wsHub)
	routes.RegisterAdminRoutes(e, adminSalaryController, depositController)

	// Start the monthly disbursement scheduler
	go salaryScheduler.Run(context.Background())

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}
