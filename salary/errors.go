// salary/errors.go
package salary

import (
	"errors"
	"fmt"
)

// Stable error kinds exposed by the engine. Callers match with errors.Is and
// map them to user-facing messages.
var (
	ErrAlreadyExistsThisMonth = errors.New("salary request already exists for this month")
	ErrIllegalTransition      = errors.New("illegal salary request transition")
	ErrAlreadyProcessed       = errors.New("salary request already processed")
	ErrNotFound               = errors.New("salary request not found")
	ErrMissingTransactionRef  = errors.New("transaction reference is required")
	ErrNotEligible            = errors.New("not eligible for any salary plan")
	ErrMissingPayoutAddress   = errors.New("payout address not set")
	ErrReadModelUnavailable   = errors.New("read model unavailable")
)

// BulkError reports why a bulk transition was rejected. When it is returned
// no writes have been applied; Failed maps request id (hex) to the reason
// that request blocked the batch.
type BulkError struct {
	Failed map[string]error
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("bulk transition rejected: %d request(s) not processable", len(e.Failed))
}
