// controllers/salary_controller.go
package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/stakevault/stakevault_backend/middleware"
	"github.com/stakevault/stakevault_backend/models"
	"github.com/stakevault/stakevault_backend/repositories"
	"github.com/stakevault/stakevault_backend/salary"
)

// SalaryController serves the user-facing salary surfaces: progress,
// payment requests, request history and the payout address.
type SalaryController struct {
	Service *salary.Service
	Users   *repositories.UserRepository
}

// NewSalaryController creates a new salary controller
func NewSalaryController(service *salary.Service, users *repositories.UserRepository) *SalaryController {
	return &SalaryController{Service: service, Users: users}
}

func authenticatedUserID(c echo.Context) (primitive.ObjectID, error) {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return primitive.ObjectIDFromHex(userID)
}

// GetProgress returns the per-plan eligibility progress for the
// authenticated user
func (sc *SalaryController) GetProgress(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := authenticatedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	report, err := sc.Service.Progress(ctx, userID)
	if err != nil {
		if errors.Is(err, salary.ErrReadModelUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, models.Response{
				Status:  http.StatusServiceUnavailable,
				Message: "Eligibility data is temporarily unavailable",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to compute salary progress",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Salary progress retrieved successfully",
		Data:    report,
	})
}

// RequestPayment creates a pending salary request for the current month
func (sc *SalaryController) RequestPayment(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := authenticatedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	req, err := sc.Service.RequestPayment(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, salary.ErrNotEligible):
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "You do not meet the requirements of any salary plan",
			})
		case errors.Is(err, salary.ErrMissingPayoutAddress):
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Set a payout address before requesting a salary payment",
			})
		case errors.Is(err, salary.ErrAlreadyExistsThisMonth):
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "A salary request already exists for this month",
			})
		case errors.Is(err, salary.ErrReadModelUnavailable):
			return c.JSON(http.StatusServiceUnavailable, models.Response{
				Status:  http.StatusServiceUnavailable,
				Message: "Eligibility data is temporarily unavailable",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create salary request",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Salary request submitted",
		Data:    req,
	})
}

// GetMyRequests lists the authenticated user's salary requests, newest first
func (sc *SalaryController) GetMyRequests(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := authenticatedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	reqs, err := sc.Service.List(ctx, salary.ListFilter{UserID: &userID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch salary requests",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Salary requests retrieved successfully",
		Data:    reqs,
	})
}

// GetPlans exposes the plan table so clients can render the tiers
func (sc *SalaryController) GetPlans(c echo.Context) error {
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Salary plans retrieved successfully",
		Data:    sc.Service.Registry().All(),
	})
}

// SetPayoutAddress records the user's USDT payout address. The address is
// write-once: changing it later requires operator intervention.
func (sc *SalaryController) SetPayoutAddress(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := authenticatedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	var req models.SetPayoutAddressRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "A valid payout address is required",
		})
	}

	if err := sc.Users.SetPayoutAddress(ctx, userID, req.Address); err != nil {
		if errors.Is(err, repositories.ErrPayoutAddressSet) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Payout address is already set",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to set payout address",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payout address saved",
	})
}
