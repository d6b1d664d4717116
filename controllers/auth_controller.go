// controllers/auth_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/stakevault/stakevault_backend/config"
	"github.com/stakevault/stakevault_backend/models"
	"github.com/stakevault/stakevault_backend/utils"
)

// AuthController handles registration with phone OTP, verification and login
type AuthController struct {
	DB *mongo.Client
}

// NewAuthController creates a new auth controller
func NewAuthController(db *mongo.Client) *AuthController {
	return &AuthController{DB: db}
}

// Register creates a new user account and sends a verification OTP to the
// provided phone number. A referral code, when supplied, links the new user
// to their referrer.
func (ac *AuthController) Register(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Data:    err.Error(),
		})
	}

	usersCollection := config.GetCollection(ac.DB, "users")

	// Check for existing email or phone
	count, err := usersCollection.CountDocuments(ctx, bson.M{
		"$or": []bson.M{
			{"email": req.Email},
			{"phone": req.Phone},
		},
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to check existing users",
		})
	}
	if count > 0 {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Email or phone number already registered",
		})
	}

	// Resolve referrer if a code was supplied
	var referredBy *primitive.ObjectID
	if req.ReferralCode != "" {
		var referrer models.User
		err := usersCollection.FindOne(ctx, bson.M{"referralCode": req.ReferralCode}).Decode(&referrer)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return c.JSON(http.StatusBadRequest, models.Response{
					Status:  http.StatusBadRequest,
					Message: "Invalid referral code",
				})
			}
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to look up referral code",
			})
		}
		referredBy = &referrer.ID
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process password",
		})
	}

	referralCode, err := utils.GenerateReferralCode()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate referral code",
		})
	}

	now := time.Now()
	user := models.User{
		Email:         req.Email,
		Password:      hashedPassword,
		FullName:      req.FullName,
		Phone:         req.Phone,
		PhoneVerified: false,
		UserType:      "user",
		IsActive:      true,
		WalletBalance: 0,
		ReferralCode:  referralCode,
		ReferredBy:    referredBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	result, err := usersCollection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Email or phone number already registered",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create user",
		})
	}
	user.ID = result.InsertedID.(primitive.ObjectID)
	user.Password = ""

	// Send verification OTP; registration still succeeds if delivery fails,
	// the user can request a resend
	if err := ac.sendOTP(ctx, req.Phone); err != nil {
		log.Printf("Failed to send registration OTP to %s: %v", req.Phone, err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Registration successful. Please verify your phone number with the OTP sent to you.",
		Data:    user,
	})
}

// VerifyOTP confirms the phone number and returns a JWT
func (ac *AuthController) VerifyOTP(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.VerifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Data:    err.Error(),
		})
	}

	rdb := config.GetRedisClient()
	if rdb == nil {
		return c.JSON(http.StatusServiceUnavailable, models.Response{
			Status:  http.StatusServiceUnavailable,
			Message: "OTP verification is temporarily unavailable",
		})
	}

	if err := utils.VerifyOTP(ctx, rdb, req.Phone, req.OTP); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	usersCollection := config.GetCollection(ac.DB, "users")
	var user models.User
	err := usersCollection.FindOneAndUpdate(ctx,
		bson.M{"phone": req.Phone},
		bson.M{"$set": bson.M{"phoneVerified": true, "updatedAt": time.Now()}},
	).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "No account found for this phone number",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to verify phone number",
		})
	}
	user.PhoneVerified = true

	token, err := utils.GenerateToken(&user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Phone number verified successfully",
		Data: map[string]interface{}{
			"token": token,
		},
	})
}

// ResendOTP sends a fresh OTP to a registered, unverified phone number
func (ac *AuthController) ResendOTP(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req struct {
		Phone string `json:"phone" validate:"required"`
	}
	if err := c.Bind(&req); err != nil || req.Phone == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Phone number is required",
		})
	}

	usersCollection := config.GetCollection(ac.DB, "users")
	var user models.User
	if err := usersCollection.FindOne(ctx, bson.M{"phone": req.Phone}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "No account found for this phone number",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to look up account",
		})
	}
	if user.PhoneVerified {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Phone number is already verified",
		})
	}

	rdb := config.GetRedisClient()
	if rdb != nil {
		if err := utils.ValidateOTPAttempts(user.ID.Hex(), rdb); err != nil {
			return c.JSON(http.StatusTooManyRequests, models.Response{
				Status:  http.StatusTooManyRequests,
				Message: err.Error(),
			})
		}
	}

	if err := ac.sendOTP(ctx, req.Phone); err != nil {
		log.Printf("Failed to resend OTP to %s: %v", req.Phone, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to send OTP",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "OTP sent",
	})
}

// Login authenticates by email or phone and returns a JWT
func (ac *AuthController) Login(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if req.Email == "" && req.Phone == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email or phone number is required",
		})
	}

	filter := bson.M{"email": req.Email}
	if req.Email == "" {
		filter = bson.M{"phone": req.Phone}
	}

	usersCollection := config.GetCollection(ac.DB, "users")
	var user models.User
	err := usersCollection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		// Same message for unknown user and wrong password
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid credentials",
		})
	}

	if !utils.CheckPasswordHash(req.Password, user.Password) {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid credentials",
		})
	}
	if !user.IsActive {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Account is deactivated",
		})
	}
	if !user.PhoneVerified {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Phone number not verified",
		})
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	user.Password = ""
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: map[string]interface{}{
			"token": token,
			"user":  user,
		},
	})
}

func (ac *AuthController) sendOTP(ctx context.Context, phone string) error {
	otp, err := utils.GenerateSecureOTP()
	if err != nil {
		return err
	}

	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	if err := utils.StoreOTP(ctx, rdb, phone, otp); err != nil {
		return err
	}

	return utils.SendOTPViaSMS(phone, otp)
}
