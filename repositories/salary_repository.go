package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stakevault/stakevault_backend/config"
	"github.com/stakevault/stakevault_backend/salary"
)

// SalaryRepository is the Mongo-backed salary.Store. The one-request-per-
// month invariant is enforced by the unique index on (userId, yearMonth)
// created in config.ConnectDB, so concurrent creates resolve to exactly one
// winner inside the database.
type SalaryRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewSalaryRepository(client *mongo.Client) *SalaryRepository {
	return &SalaryRepository{
		client:     client,
		collection: config.GetCollection(client, "salary_requests"),
	}
}

func (r *SalaryRepository) Create(ctx context.Context, userID primitive.ObjectID, planID int, amount float64, address string, createdAt time.Time) (*salary.Request, error) {
	req := &salary.Request{
		UserID:        userID,
		PlanID:        planID,
		Amount:        amount,
		PayoutAddress: address,
		YearMonth:     salary.MonthKey(createdAt),
		Status:        salary.StatusPending,
		CreatedAt:     createdAt.UTC(),
	}

	res, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, salary.ErrAlreadyExistsThisMonth
		}
		return nil, fmt.Errorf("insert salary request: %w", err)
	}

	req.ID = res.InsertedID.(primitive.ObjectID)
	return req, nil
}

func (r *SalaryRepository) Get(ctx context.Context, id primitive.ObjectID) (*salary.Request, error) {
	var req salary.Request
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err == mongo.ErrNoDocuments {
		return nil, salary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find salary request: %w", err)
	}
	return &req, nil
}

// Transition is a single conditional update on status=pending, which makes
// it linearizable per request: of two operators racing on the same id, one
// matches the filter and the other gets ErrAlreadyProcessed.
func (r *SalaryRepository) Transition(ctx context.Context, id primitive.ObjectID, to salary.Status, actorID primitive.ObjectID, transactionRef, notes string) (*salary.Request, error) {
	if err := salary.ValidateTransition(to, transactionRef); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	set := bson.M{
		"status":      to,
		"processedAt": now,
		"processedBy": actorID,
	}
	if transactionRef != "" {
		set["transactionRef"] = transactionRef
	}
	if notes != "" {
		set["notes"] = notes
	}

	var req salary.Request
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": salary.StatusPending},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&req)
	if err == mongo.ErrNoDocuments {
		// Either the request does not exist or it left pending already.
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, salary.ErrAlreadyProcessed
	}
	if err != nil {
		return nil, fmt.Errorf("transition salary request: %w", err)
	}
	return &req, nil
}

// BulkTransition runs inside a Mongo transaction: every request is checked
// to be pending before any is approved, and an abort rolls the whole batch
// back. The per-id error map tells the operator which rows blocked it.
func (r *SalaryRepository) BulkTransition(ctx context.Context, ids []primitive.ObjectID, actorID primitive.ObjectID, baseRef string) ([]*salary.Request, error) {
	if baseRef == "" {
		return nil, salary.ErrMissingTransactionRef
	}

	session, err := r.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		failed := make(map[string]error)
		pending := make([]*salary.Request, 0, len(ids))
		for _, id := range ids {
			var req salary.Request
			err := r.collection.FindOne(sc, bson.M{"_id": id}).Decode(&req)
			if err == mongo.ErrNoDocuments {
				failed[id.Hex()] = salary.ErrNotFound
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("find salary request: %w", err)
			}
			if req.Status != salary.StatusPending {
				failed[id.Hex()] = salary.ErrAlreadyProcessed
				continue
			}
			pending = append(pending, &req)
		}
		if len(failed) > 0 {
			return nil, &salary.BulkError{Failed: failed}
		}

		now := time.Now().UTC()
		updated := make([]*salary.Request, 0, len(pending))
		for _, req := range pending {
			ref := salary.BulkRef(baseRef, req.ID)
			var out salary.Request
			err := r.collection.FindOneAndUpdate(sc,
				bson.M{"_id": req.ID, "status": salary.StatusPending},
				bson.M{"$set": bson.M{
					"status":         salary.StatusApproved,
					"transactionRef": ref,
					"processedAt":    now,
					"processedBy":    actorID,
				}},
				options.FindOneAndUpdate().SetReturnDocument(options.After),
			).Decode(&out)
			if err != nil {
				return nil, fmt.Errorf("bulk approve %s: %w", req.ID.Hex(), err)
			}
			updated = append(updated, &out)
		}
		return updated, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]*salary.Request), nil
}

func (r *SalaryRepository) List(ctx context.Context, filter salary.ListFilter) ([]*salary.Request, error) {
	query := bson.M{}
	if filter.UserID != nil {
		query["userId"] = *filter.UserID
	}
	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{"$in": filter.Statuses}
	}
	if filter.YearMonth != "" {
		query["yearMonth"] = filter.YearMonth
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list salary requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []*salary.Request
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("decode salary requests: %w", err)
	}
	return requests, nil
}

func (r *SalaryRepository) ExistsForMonth(ctx context.Context, monthKey string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"yearMonth": monthKey}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count salary requests: %w", err)
	}
	return count > 0, nil
}
