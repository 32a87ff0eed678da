package orders

import "github.com/imrishuroy/go-table-orderflow/internal/catalog"

// Status is the order lifecycle position. It only ever moves forward.
type Status string

// Order statuses
const (
	StatusCart      Status = "cart"
	StatusPayment   Status = "payment"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
)

var statusRank = map[Status]int{
	StatusCart:      0,
	StatusPayment:   1,
	StatusConfirmed: 2,
	StatusPreparing: 3,
	StatusReady:     4,
	StatusCompleted: 5,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Before reports whether s comes strictly earlier in the lifecycle than other.
func (s Status) Before(other Status) bool {
	return statusRank[s] < statusRank[other]
}

// DefaultTable is the table a session starts with until the route seeds one.
const DefaultTable = "12"

// LineItem is a menu item in the cart with its quantity (always >= 1).
type LineItem struct {
	catalog.MenuItem
	Quantity int `json:"quantity"`
}

// Amount is price times quantity.
func (l LineItem) Amount() int64 {
	return l.Price * int64(l.Quantity)
}

// State is the whole order aggregate for one session. Totals are never stored
// here; they are derived from Items by the billing package.
type State struct {
	Items         []LineItem `json:"items"`
	CustomerName  string     `json:"customer_name"`
	TableNumber   string     `json:"table_number"`
	PhoneNumber   string     `json:"phone_number"`
	Status        Status     `json:"order_status"`
	OrderID       string     `json:"order_id,omitempty"`
	OTP           string     `json:"-"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	PaymentID     string     `json:"payment_id,omitempty"`
}

// NewState returns the empty cart for a table.
func NewState(table string) State {
	if table == "" {
		table = DefaultTable
	}
	return State{
		Items:       []LineItem{},
		TableNumber: table,
		Status:      StatusCart,
	}
}

// Line returns the cart line for an item id.
func (s State) Line(itemID string) (LineItem, bool) {
	for _, l := range s.Items {
		if l.ID == itemID {
			return l, true
		}
	}
	return LineItem{}, false
}

// ItemCount is the total number of units in the cart.
func (s State) ItemCount() int {
	n := 0
	for _, l := range s.Items {
		n += l.Quantity
	}
	return n
}

func (s State) clone() State {
	out := s
	out.Items = make([]LineItem, len(s.Items))
	copy(out.Items, s.Items)
	return out
}
