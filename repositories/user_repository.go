package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/stakevault/stakevault_backend/config"
	"github.com/stakevault/stakevault_backend/models"
)

var (
	// ErrPayoutAddressSet is returned when a user tries to change a payout
	// address that was already written once.
	ErrPayoutAddressSet = errors.New("payout address already set")

	// ErrInsufficientBalance is returned when a debit would take the wallet
	// below zero.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
)

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(client *mongo.Client) *UserRepository {
	return &UserRepository{
		collection: config.GetCollection(client, "users"),
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"phone": phone}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"referralCode": code}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetPayoutAddress writes the salary payout address exactly once. The filter
// only matches users without an address, so a second write loses atomically.
func (r *UserRepository) SetPayoutAddress(ctx context.Context, userID primitive.ObjectID, address string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{
			"_id": userID,
			"$or": []bson.M{
				{"payoutAddress": bson.M{"$exists": false}},
				{"payoutAddress": ""},
			},
		},
		bson.M{"$set": bson.M{"payoutAddress": address}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPayoutAddressSet
	}
	return nil
}

// CreditWallet adds amount to the user's wallet balance.
func (r *UserRepository) CreditWallet(ctx context.Context, userID primitive.ObjectID, amount float64) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$inc": bson.M{"walletBalance": amount}},
	)
	return err
}

// DebitWallet removes amount from the wallet only if the balance covers it;
// the conditional filter keeps the balance non-negative under concurrency.
func (r *UserRepository) DebitWallet(ctx context.Context, userID primitive.ObjectID, amount float64) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID, "walletBalance": bson.M{"$gte": amount}},
		bson.M{"$inc": bson.M{"walletBalance": -amount}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrInsufficientBalance
	}
	return nil
}
