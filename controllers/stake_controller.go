// controllers/stake_controller.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stakevault/stakevault_backend/config"
	"github.com/stakevault/stakevault_backend/models"
	"github.com/stakevault/stakevault_backend/repositories"
)

// StakeController handles stake creation, listing and redemption. Stake
// principal is debited from the wallet on creation and returned with yield
// at redemption.
type StakeController struct {
	DB       *mongo.Client
	Users    *repositories.UserRepository
	Activity *repositories.ActivityRepository
}

// NewStakeController creates a new stake controller
func NewStakeController(db *mongo.Client, users *repositories.UserRepository, activity *repositories.ActivityRepository) *StakeController {
	return &StakeController{DB: db, Users: users, Activity: activity}
}

// GetStakingRates returns the static rate table
func (stc *StakeController) GetStakingRates(c echo.Context) error {
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Staking rates retrieved successfully",
		Data:    models.StakingRates,
	})
}

// CreateStake opens a stake, debiting the principal from the wallet
func (stc *StakeController) CreateStake(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := authenticatedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	var req models.CreateStakeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Coin, amount and duration are required",
		})
	}

	rate, ok := models.LookupStakingRate(req.Coin, req.DurationDays)
	if !ok {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("No staking rate for %s over %d days", req.Coin, req.DurationDays),
		})
	}

	// Debit first so the stake is only recorded against locked funds
	if err := stc.Users.DebitWallet(ctx, userID, req.Amount); err != nil {
		if errors.Is(err, repositories.ErrInsufficientBalance) {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Insufficient wallet balance",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to lock stake amount",
		})
	}

	now := time.Now()
	stake := models.Stake{
		UserID:          userID,
		Coin:            rate.Coin,
		Amount:          req.Amount,
		MonthlyYieldPct: rate.MonthlyYieldPct,
		DurationDays:    rate.DurationDays,
		Status:          models.StakeStatusActive,
		CreatedAt:       now,
		MaturesAt:       now.AddDate(0, 0, rate.DurationDays),
	}

	stakesCollection := config.GetCollection(stc.DB, "stakes")
	result, err := stakesCollection.InsertOne(ctx, stake)
	if err != nil {
		// Return the locked funds if the stake could not be recorded
		if crErr := stc.Users.CreditWallet(ctx, userID, req.Amount); crErr != nil {
			log.Printf("Failed to refund stake debit for user %s: %v", userID.Hex(), crErr)
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create stake",
		})
	}
	stake.ID = result.InsertedID.(primitive.ObjectID)

	stc.Activity.Log(ctx, userID, "stake_created",
		fmt.Sprintf("Staked %.2f %s for %d days", stake.Amount, stake.Coin, stake.DurationDays))

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Stake created successfully",
		Data:    stake,
	})
}

// GetMyStakes lists the authenticated user's stakes, newest first
func (stc *StakeController) GetMyStakes(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := authenticatedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	stakesCollection := config.GetCollection(stc.DB, "stakes")
	cursor, err := stakesCollection.Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch stakes",
		})
	}
	var stakes []models.Stake
	if err := cursor.All(ctx, &stakes); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to read stakes",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Stakes retrieved successfully",
		Data:    stakes,
	})
}

// RedeemStake closes a matured stake, returning principal plus yield to the
// wallet
func (stc *StakeController) RedeemStake(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stakeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid stake ID",
		})
	}
	userID, err := authenticatedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	now := time.Now()
	stakesCollection := config.GetCollection(stc.DB, "stakes")

	// Single conditional update: only the owner can redeem, only once, and
	// only after maturity
	var stake models.Stake
	err = stakesCollection.FindOneAndUpdate(ctx,
		bson.M{
			"_id":       stakeID,
			"userId":    userID,
			"status":    models.StakeStatusActive,
			"maturesAt": bson.M{"$lte": now},
		},
		bson.M{"$set": bson.M{
			"status":   models.StakeStatusMatured,
			"closedAt": now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&stake)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Stake not found, not yours, not yet matured, or already redeemed",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to redeem stake",
		})
	}

	payout := stake.Amount + stake.Yield()
	if err := stc.Users.CreditWallet(ctx, userID, payout); err != nil {
		log.Printf("Failed to credit redemption for stake %s: %v", stake.ID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Stake closed but wallet credit failed, contact support",
		})
	}

	stc.Activity.Log(ctx, userID, "stake_redeemed",
		fmt.Sprintf("Redeemed stake %s for %.2f USDT", stake.ID.Hex(), payout))

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Stake redeemed successfully",
		Data: map[string]interface{}{
			"stake":  stake,
			"payout": payout,
		},
	})
}
