// salary/events.go
package salary

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreatedEvent is emitted after a request row is inserted.
type CreatedEvent struct {
	RequestID     primitive.ObjectID `json:"requestId"`
	UserID        primitive.ObjectID `json:"userId"`
	PlanID        int                `json:"planId"`
	Amount        float64            `json:"amount"`
	PayoutAddress string             `json:"payoutAddress"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// TransitionedEvent is emitted after an operator processes a request.
type TransitionedEvent struct {
	RequestID      primitive.ObjectID `json:"requestId"`
	UserID         primitive.ObjectID `json:"userId"`
	From           Status             `json:"from"`
	To             Status             `json:"to"`
	ProcessedAt    time.Time          `json:"processedAt"`
	ProcessedBy    primitive.ObjectID `json:"processedBy"`
	TransactionRef string             `json:"transactionRef,omitempty"`
	Notes          string             `json:"notes,omitempty"`
}

// Events receives engine notifications. Implementations must not block the
// calling path for long; failures are the implementation's problem.
type Events interface {
	RequestCreated(ctx context.Context, ev CreatedEvent)
	RequestTransitioned(ctx context.Context, ev TransitionedEvent)
}

// ActivityLogger records a human-readable audit line per money-moving action.
type ActivityLogger interface {
	Log(ctx context.Context, userID primitive.ObjectID, action, details string)
}

// MultiEvents fans every event out to each sink in order.
type MultiEvents []Events

func (m MultiEvents) RequestCreated(ctx context.Context, ev CreatedEvent) {
	for _, e := range m {
		e.RequestCreated(ctx, ev)
	}
}

func (m MultiEvents) RequestTransitioned(ctx context.Context, ev TransitionedEvent) {
	for _, e := range m {
		e.RequestTransitioned(ctx, ev)
	}
}

// NopEvents discards all events.
type NopEvents struct{}

func (NopEvents) RequestCreated(context.Context, CreatedEvent)           {}
func (NopEvents) RequestTransitioned(context.Context, TransitionedEvent) {}

// NopActivity discards all audit lines.
type NopActivity struct{}

func (NopActivity) Log(context.Context, primitive.ObjectID, string, string) {}
