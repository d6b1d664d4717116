package repositories

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stakevault/stakevault_backend/config"
	"github.com/stakevault/stakevault_backend/models"
	"github.com/stakevault/stakevault_backend/salary"
)

// ReadModelRepository answers the engine's eligibility queries from the
// users, deposits and stakes collections. Snapshot reads go through a
// snapshot session, so referral count and composite balance come from one
// consistent epoch even while deposits are being approved.
type ReadModelRepository struct {
	client   *mongo.Client
	users    *mongo.Collection
	deposits *mongo.Collection
	stakes   *mongo.Collection
}

func NewReadModelRepository(client *mongo.Client) *ReadModelRepository {
	return &ReadModelRepository{
		client:   client,
		users:    config.GetCollection(client, "users"),
		deposits: config.GetCollection(client, "deposits"),
		stakes:   config.GetCollection(client, "stakes"),
	}
}

func (r *ReadModelRepository) Snapshot(ctx context.Context, userID primitive.ObjectID) (salary.UserStats, error) {
	var stats salary.UserStats

	session, err := r.client.StartSession(options.Session().SetSnapshot(true))
	if err != nil {
		// Snapshot sessions need a replica set; read without one rather
		// than failing eligibility outright.
		log.Printf("read model: snapshot session unavailable: %v", err)
		return r.snapshot(ctx, userID)
	}
	defer session.EndSession(ctx)

	err = mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
		s, err := r.snapshot(sc, userID)
		if err != nil {
			return err
		}
		stats = s
		return nil
	})
	if err != nil {
		return salary.UserStats{}, err
	}
	return stats, nil
}

func (r *ReadModelRepository) snapshot(ctx context.Context, userID primitive.ObjectID) (salary.UserStats, error) {
	var stats salary.UserStats

	var user models.User
	err := r.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return stats, nil
	}
	if err != nil {
		return stats, fmt.Errorf("%w: find user: %v", salary.ErrReadModelUnavailable, err)
	}

	stats.Found = true
	stats.Active = user.IsActive
	stats.PayoutAddress = user.PayoutAddress

	referrals, err := r.activeReferralCount(ctx, userID)
	if err != nil {
		return salary.UserStats{}, err
	}
	stats.ActiveReferrals = referrals

	staked, err := r.activeStakeTotal(ctx, userID)
	if err != nil {
		return salary.UserStats{}, err
	}
	stats.CompositeBalance = user.WalletBalance + staked

	return stats, nil
}

// activeReferralCount counts first-level referees whose approved deposits
// sum to at least the configured threshold. Pending and rejected deposits
// never count; deeper ancestry is ignored.
func (r *ReadModelRepository) activeReferralCount(ctx context.Context, userID primitive.ObjectID) (int, error) {
	cursor, err := r.users.Find(ctx, bson.M{"referredBy": userID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return 0, fmt.Errorf("%w: find referees: %v", salary.ErrReadModelUnavailable, err)
	}
	defer cursor.Close(ctx)

	var referees []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &referees); err != nil {
		return 0, fmt.Errorf("%w: decode referees: %v", salary.ErrReadModelUnavailable, err)
	}
	if len(referees) == 0 {
		return 0, nil
	}

	ids := make([]primitive.ObjectID, 0, len(referees))
	for _, ref := range referees {
		ids = append(ids, ref.ID)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"userId": bson.M{"$in": ids},
			"status": models.DepositStatusApproved,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$userId",
			"total": bson.M{"$sum": "$amount"},
		}}},
		{{Key: "$match", Value: bson.M{
			"total": bson.M{"$gte": salary.MinActiveReferralDeposit},
		}}},
		{{Key: "$count", Value: "active"}},
	}

	aggCursor, err := r.deposits.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("%w: aggregate deposits: %v", salary.ErrReadModelUnavailable, err)
	}
	defer aggCursor.Close(ctx)

	var result []struct {
		Active int `bson:"active"`
	}
	if err := aggCursor.All(ctx, &result); err != nil {
		return 0, fmt.Errorf("%w: decode deposit aggregate: %v", salary.ErrReadModelUnavailable, err)
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Active, nil
}

func (r *ReadModelRepository) activeStakeTotal(ctx context.Context, userID primitive.ObjectID) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"userId": userID,
			"status": models.StakeStatusActive,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$amount"},
		}}},
	}

	cursor, err := r.stakes.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("%w: aggregate stakes: %v", salary.ErrReadModelUnavailable, err)
	}
	defer cursor.Close(ctx)

	var result []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, fmt.Errorf("%w: decode stake aggregate: %v", salary.ErrReadModelUnavailable, err)
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Total, nil
}

// ListCandidates returns the scheduler's enumeration: active users that have
// set a payout address.
func (r *ReadModelRepository) ListCandidates(ctx context.Context) ([]salary.Candidate, error) {
	cursor, err := r.users.Find(ctx, bson.M{
		"isActive":      true,
		"payoutAddress": bson.M{"$exists": true, "$ne": ""},
	}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("%w: list candidates: %v", salary.ErrReadModelUnavailable, err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("%w: decode candidates: %v", salary.ErrReadModelUnavailable, err)
	}

	candidates := make([]salary.Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, salary.Candidate{UserID: row.ID})
	}
	return candidates, nil
}
