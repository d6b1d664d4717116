// controllers/deposit_controller.go
package controllers

import (
	"context"
	"image/png"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stakevault/stakevault_backend/config"
	"github.com/stakevault/stakevault_backend/models"
	"github.com/stakevault/stakevault_backend/repositories"
	"github.com/stakevault/stakevault_backend/websocket"
)

// DepositController handles USDT deposits: submission, the platform deposit
// address QR, and the admin approval queue. Approving a deposit credits the
// wallet and pays the referrer's commission.
type DepositController struct {
	DB       *mongo.Client
	Users    *repositories.UserRepository
	Activity *repositories.ActivityRepository
	Hub      *websocket.Hub
}

// NewDepositController creates a new deposit controller
func NewDepositController(db *mongo.Client, users *repositories.UserRepository, activity *repositories.ActivityRepository, hub *websocket.Hub) *DepositController {
	return &DepositController{DB: db, Users: users, Activity: activity, Hub: hub}
}

// CreateDeposit records a pending deposit claim with a unique reference the
// user quotes in their transfer
func (dc *DepositController) CreateDeposit(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := authenticatedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	var req models.CreateDepositRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Deposit amount must be greater than zero",
		})
	}

	deposit := models.Deposit{
		UserID:    userID,
		Amount:    req.Amount,
		Reference: "DEP-" + uuid.New().String(),
		TxHash:    req.TxHash,
		Status:    models.DepositStatusPending,
		CreatedAt: time.Now(),
	}

	depositsCollection := config.GetCollection(dc.DB, "deposits")
	result, err := depositsCollection.InsertOne(ctx, deposit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create deposit",
		})
	}
	deposit.ID = result.InsertedID.(primitive.ObjectID)

	dc.Activity.Log(ctx, userID, "deposit_created",
		"Submitted deposit "+deposit.Reference)

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Deposit submitted and pending review",
		Data:    deposit,
	})
}

// GetDepositAddressQR renders the platform deposit address as a QR code PNG
func (dc *DepositController) GetDepositAddressQR(c echo.Context) error {
	address := os.Getenv("DEPOSIT_WALLET_ADDRESS")
	if address == "" {
		return c.JSON(http.StatusServiceUnavailable, models.Response{
			Status:  http.StatusServiceUnavailable,
			Message: "Deposit address is not configured",
		})
	}

	code, err := qr.Encode(address, qr.M, qr.Auto)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}
	code, err = barcode.Scale(code, 256, 256)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}

	c.Response().Header().Set(echo.HeaderContentType, "image/png")
	c.Response().WriteHeader(http.StatusOK)
	return png.Encode(c.Response(), code)
}

// GetMyDeposits lists the authenticated user's deposits, newest first
func (dc *DepositController) GetMyDeposits(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := authenticatedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	depositsCollection := config.GetCollection(dc.DB, "deposits")
	cursor, err := depositsCollection.Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch deposits",
		})
	}
	var deposits []models.Deposit
	if err := cursor.All(ctx, &deposits); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to read deposits",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Deposits retrieved successfully",
		Data:    deposits,
	})
}

// GetPendingDeposits lists deposits awaiting review (admin)
func (dc *DepositController) GetPendingDeposits(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	depositsCollection := config.GetCollection(dc.DB, "deposits")
	cursor, err := depositsCollection.Find(ctx, bson.M{"status": models.DepositStatusPending},
		options.Find().SetSort(bson.M{"createdAt": 1}))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch pending deposits",
		})
	}
	var deposits []models.Deposit
	if err := cursor.All(ctx, &deposits); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to read pending deposits",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending deposits retrieved successfully",
		Data:    deposits,
	})
}

// ProcessDeposit approves or rejects a pending deposit (admin). Approval
// credits the depositor's wallet and pays the referral commission.
func (dc *DepositController) ProcessDeposit(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	depositID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid deposit ID",
		})
	}
	adminID, err := authenticatedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	var req models.ProcessDepositRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Status must be approved or rejected",
		})
	}

	now := time.Now()
	depositsCollection := config.GetCollection(dc.DB, "deposits")

	// Conditional update so a deposit is processed at most once
	var deposit models.Deposit
	err = depositsCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": depositID, "status": models.DepositStatusPending},
		bson.M{"$set": bson.M{
			"status":      req.Status,
			"adminId":     adminID,
			"adminNote":   req.Note,
			"processedAt": now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&deposit)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Deposit not found or already processed",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process deposit",
		})
	}

	if req.Status == models.DepositStatusApproved {
		if err := dc.Users.CreditWallet(ctx, deposit.UserID, deposit.Amount); err != nil {
			log.Printf("Failed to credit wallet for deposit %s: %v", deposit.ID.Hex(), err)
		}
		dc.payReferralCommission(ctx, &deposit)
	}

	dc.Activity.Log(ctx, deposit.UserID, "deposit_"+req.Status,
		"Deposit "+deposit.Reference+" "+req.Status)

	if dc.Hub != nil {
		dc.Hub.SendToUser(deposit.UserID, websocket.Notification{
			Type:    websocket.NotificationTypeDepositProcessed,
			Message: "Your deposit " + deposit.Reference + " was " + req.Status,
			Data:    deposit,
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Deposit " + req.Status,
		Data:    deposit,
	})
}

// payReferralCommission credits the depositor's referrer with their share of
// the referred user's first approved deposit. Failures are logged, not
// surfaced: the deposit itself has already been approved.
func (dc *DepositController) payReferralCommission(ctx context.Context, deposit *models.Deposit) {
	user, err := dc.Users.FindByID(ctx, deposit.UserID)
	if err != nil || user.ReferredBy == nil {
		return
	}

	commissionsCollection := config.GetCollection(dc.DB, "referral_commissions")

	// One commission per referred user
	count, err := commissionsCollection.CountDocuments(ctx, bson.M{"userId": deposit.UserID})
	if err != nil {
		log.Printf("Failed to check referral commission for deposit %s: %v", deposit.ID.Hex(), err)
		return
	}
	if count > 0 {
		return
	}

	commission := models.ReferralCommission{
		ReferrerID: *user.ReferredBy,
		UserID:     deposit.UserID,
		DepositID:  deposit.ID,
		Amount:     deposit.Amount * models.ReferralCommissionRate,
		CreatedAt:  time.Now(),
	}

	if _, err := commissionsCollection.InsertOne(ctx, commission); err != nil {
		log.Printf("Failed to record referral commission for deposit %s: %v", deposit.ID.Hex(), err)
		return
	}
	if err := dc.Users.CreditWallet(ctx, commission.ReferrerID, commission.Amount); err != nil {
		log.Printf("Failed to credit referral commission for deposit %s: %v", deposit.ID.Hex(), err)
	}
}
