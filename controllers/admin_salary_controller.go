// controllers/admin_salary_controller.go
package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/stakevault/stakevault_backend/models"
	"github.com/stakevault/stakevault_backend/salary"
)

// AdminSalaryController is the operator workflow over salary requests:
// pending queue, processed history, approve/reject and bulk approval.
type AdminSalaryController struct {
	Service   *salary.Service
	Scheduler *salary.Scheduler
}

// NewAdminSalaryController creates a new admin salary controller
func NewAdminSalaryController(service *salary.Service, scheduler *salary.Scheduler) *AdminSalaryController {
	return &AdminSalaryController{Service: service, Scheduler: scheduler}
}

// GetPendingRequests lists requests awaiting a decision, newest first
func (asc *AdminSalaryController) GetPendingRequests(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reqs, err := asc.Service.List(ctx, salary.ListFilter{
		Statuses:  []salary.Status{salary.StatusPending},
		YearMonth: c.QueryParam("month"),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch pending requests",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending salary requests retrieved successfully",
		Data:    reqs,
	})
}

// GetProcessedRequests lists approved and rejected requests, newest first
func (asc *AdminSalaryController) GetProcessedRequests(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reqs, err := asc.Service.List(ctx, salary.ListFilter{
		Statuses:  []salary.Status{salary.StatusApproved, salary.StatusRejected},
		YearMonth: c.QueryParam("month"),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch processed requests",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Processed salary requests retrieved successfully",
		Data:    reqs,
	})
}

// ApproveRequest approves one pending request with its payout transaction
// reference
func (asc *AdminSalaryController) ApproveRequest(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request ID",
		})
	}
	actorID, err := authenticatedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	var body struct {
		TransactionRef string `json:"transactionRef"`
		Notes          string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	req, err := asc.Service.Approve(ctx, id, actorID, body.TransactionRef, body.Notes)
	if err != nil {
		return asc.transitionError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Salary request approved",
		Data:    req,
	})
}

// RejectRequest rejects one pending request with the operator's reason
func (asc *AdminSalaryController) RejectRequest(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request ID",
		})
	}
	actorID, err := authenticatedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	req, err := asc.Service.Reject(ctx, id, actorID, body.Reason)
	if err != nil {
		return asc.transitionError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Salary request rejected",
		Data:    req,
	})
}

// BulkApproveRequests approves a batch of pending requests in one atomic
// operation. Each request gets the reference "<transactionRef>-<requestId>".
// If any request in the batch is not pending, nothing is approved and the
// per-request failures are returned.
func (asc *AdminSalaryController) BulkApproveRequests(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	actorID, err := authenticatedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	var body struct {
		RequestIDs     []string `json:"requestIds"`
		TransactionRef string   `json:"transactionRef"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if len(body.RequestIDs) == 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "At least one request ID is required",
		})
	}

	ids := make([]primitive.ObjectID, 0, len(body.RequestIDs))
	for _, raw := range body.RequestIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid request ID: " + raw,
			})
		}
		ids = append(ids, id)
	}

	reqs, err := asc.Service.BulkApprove(ctx, ids, actorID, body.TransactionRef)
	if err != nil {
		var bulkErr *salary.BulkError
		if errors.As(err, &bulkErr) {
			failed := make(map[string]string, len(bulkErr.Failed))
			for id, ferr := range bulkErr.Failed {
				failed[id] = ferr.Error()
			}
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Bulk approval rejected, no requests were approved",
				Data:    map[string]interface{}{"failed": failed},
			})
		}
		return asc.transitionError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Salary requests approved",
		Data: map[string]interface{}{
			"approved": len(reqs),
			"requests": reqs,
		},
	})
}

// RunMonthlyProcessing triggers an eligibility sweep for the current month
// outside the schedule. The per-month guard still applies, so a rerun only
// fills in users that were missed.
func (asc *AdminSalaryController) RunMonthlyProcessing(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	summary, err := asc.Scheduler.ProcessMonth(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Monthly processing failed",
			Data:    err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Monthly processing completed",
		Data:    summary,
	})
}

func (asc *AdminSalaryController) transitionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, salary.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Salary request not found",
		})
	case errors.Is(err, salary.ErrAlreadyProcessed):
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Salary request has already been processed",
		})
	case errors.Is(err, salary.ErrMissingTransactionRef):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Transaction reference is required for approval",
		})
	}
	return c.JSON(http.StatusInternalServerError, models.Response{
		Status:  http.StatusInternalServerError,
		Message: "Failed to process salary request",
	})
}
