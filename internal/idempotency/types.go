package idempotency

import "time"

// Status values for idempotency entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusFailed     = "FAILED"
)

// Outcome is the result of trying to claim a key.
type Outcome int

const (
	// Claimed means the caller owns the key and must finish with MarkDone, Complete or MarkFailed.
	Claimed Outcome = iota
	// AlreadyDone means an earlier delivery finished the work.
	AlreadyDone
	// InFlight means another delivery holds the key right now.
	InFlight
)

func (o Outcome) String() string {
	switch o {
	case Claimed:
		return "claimed"
	case AlreadyDone:
		return "already_done"
	case InFlight:
		return "in_flight"
	}
	return "unknown"
}

// Record is the shape persisted in the idempotency DynamoDB table.
type Record struct {
	Key        string    `dynamodbav:"idempotency_key"` // PK
	Status     string    `dynamodbav:"status"`
	BillNumber string    `dynamodbav:"bill_number,omitempty"`
	Result     string    `dynamodbav:"result,omitempty"`
	CreatedAt  time.Time `dynamodbav:"created_at"`
	UpdatedAt  time.Time `dynamodbav:"updated_at"`
	ExpiresAt  int64     `dynamodbav:"expires_at"` // TTL epoch seconds
	Note       string    `dynamodbav:"note,omitempty"`
}

// BillKey is the idempotency key used when exporting a bill.
func BillKey(billNumber string) string {
	return "bill:" + billNumber
}
