package checkout

import (
	"fmt"

	"github.com/imrishuroy/go-table-orderflow/internal/orders"
)

// Stage is the checkout step the customer is looking at.
type Stage int

const (
	StageCart Stage = iota
	StagePayment
	StageVerification
	StageConfirmation
	StageBill
)

var stageNames = [...]string{"cart", "payment", "verification", "confirmation", "bill"}

func (s Stage) String() string {
	if s < StageCart || s > StageBill {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// opener is the stage Close returns to.
func (s Stage) opener() Stage {
	switch s {
	case StageBill:
		return StageConfirmation
	default:
		return StageCart
	}
}

// EstimatedMinutes is the wait shown to the customer for an order status.
func EstimatedMinutes(status orders.Status) int {
	switch status {
	case orders.StatusConfirmed:
		return 25
	case orders.StatusPreparing:
		return 20
	default:
		return 0
	}
}
