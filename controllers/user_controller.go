// controllers/user_controller.go
package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stakevault/stakevault_backend/config"
	"github.com/stakevault/stakevault_backend/middleware"
	"github.com/stakevault/stakevault_backend/models"
	"github.com/stakevault/stakevault_backend/repositories"
	"github.com/stakevault/stakevault_backend/salary"
)

// UserController serves profile and referral data
type UserController struct {
	DB       *mongo.Client
	Activity *repositories.ActivityRepository
}

// NewUserController creates a new user controller
func NewUserController(db *mongo.Client, activity *repositories.ActivityRepository) *UserController {
	return &UserController{DB: db, Activity: activity}
}

// GetProfile returns the authenticated user's profile
func (uc *UserController) GetProfile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

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

	usersCollection := config.GetCollection(uc.DB, "users")
	var user models.User
	err = usersCollection.FindOne(ctx, bson.M{"_id": objID},
		options.FindOne().SetProjection(bson.M{"password": 0})).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "User not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch profile",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile retrieved successfully",
		Data:    user,
	})
}

// GetReferrals lists the authenticated user's first-level referrals with
// their approved deposit totals. A referral counts as active once its
// approved deposits reach the activation threshold.
func (uc *UserController) GetReferrals(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

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

	usersCollection := config.GetCollection(uc.DB, "users")
	cursor, err := usersCollection.Find(ctx, bson.M{"referredBy": objID},
		options.Find().SetProjection(bson.M{"fullName": 1, "createdAt": 1}))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch referrals",
		})
	}
	var referees []models.User
	if err := cursor.All(ctx, &referees); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to read referrals",
		})
	}

	summaries := make([]models.ReferralSummary, 0, len(referees))
	if len(referees) > 0 {
		ids := make([]primitive.ObjectID, len(referees))
		for i, r := range referees {
			ids[i] = r.ID
		}

		depositsCollection := config.GetCollection(uc.DB, "deposits")
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{
				"userId": bson.M{"$in": ids},
				"status": models.DepositStatusApproved,
			}}},
			{{Key: "$group", Value: bson.M{
				"_id":   "$userId",
				"total": bson.M{"$sum": "$amount"},
			}}},
		}
		aggCursor, err := depositsCollection.Aggregate(ctx, pipeline)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to compute referral deposits",
			})
		}
		var totals []struct {
			ID    primitive.ObjectID `bson:"_id"`
			Total float64            `bson:"total"`
		}
		if err := aggCursor.All(ctx, &totals); err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to read referral deposits",
			})
		}
		totalByID := make(map[primitive.ObjectID]float64, len(totals))
		for _, t := range totals {
			totalByID[t.ID] = t.Total
		}

		for _, r := range referees {
			total := totalByID[r.ID]
			summaries = append(summaries, models.ReferralSummary{
				UserID:         r.ID,
				FullName:       r.FullName,
				TotalDeposited: total,
				Active:         total >= salary.MinActiveReferralDeposit,
				JoinedAt:       r.CreatedAt,
			})
		}
	}

	activeCount := 0
	for _, s := range summaries {
		if s.Active {
			activeCount++
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referrals retrieved successfully",
		Data: map[string]interface{}{
			"referrals":   summaries,
			"total":       len(summaries),
			"activeCount": activeCount,
		},
	})
}

// GetActivityLog returns the authenticated user's recent activity entries
func (uc *UserController) GetActivityLog(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

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

	entries, err := uc.Activity.Recent(ctx, objID, 50)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch activity log",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Activity log retrieved successfully",
		Data:    entries,
	})
}
