package salary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMonthKey(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want string
	}{
		{"plain", time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC), "2026-08"},
		{"first instant", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), "2026-08"},
		{"last instant", time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC), "2026-08"},
		{"single digit month", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), "2026-01"},
		{
			// Local December 31 is already January in UTC
			"timezone normalized",
			time.Date(2026, 12, 31, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600)),
			"2027-01",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MonthKey(tc.in))
		})
	}
}

func TestValidateTransition(t *testing.T) {
	assert.NoError(t, ValidateTransition(StatusApproved, "0xabc"))
	assert.NoError(t, ValidateTransition(StatusRejected, ""))
	assert.ErrorIs(t, ValidateTransition(StatusApproved, ""), ErrMissingTransactionRef)
	assert.ErrorIs(t, ValidateTransition(StatusPending, "x"), ErrIllegalTransition)
	assert.ErrorIs(t, ValidateTransition(Status("paid"), "x"), ErrIllegalTransition)
}

func TestBulkRef(t *testing.T) {
	id := primitive.NewObjectID()
	assert.Equal(t, "batch-7-"+id.Hex(), BulkRef("batch-7", id))
}
