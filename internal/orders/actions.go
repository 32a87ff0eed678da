package orders

import "github.com/imrishuroy/go-table-orderflow/internal/catalog"

// Action is a closed set of state mutations. Only types in this package
// implement it; Reduce handles every one of them.
type Action interface {
	isAction()
}

// AddItem adds one unit of Item.
type AddItem struct {
	Item catalog.MenuItem
}

// RemoveItem removes one unit of the item, dropping the line at zero.
type RemoveItem struct {
	ItemID string
}

// SetQuantity sets an exact quantity. Zero removes the line.
type SetQuantity struct {
	Item     catalog.MenuItem
	Quantity int
}

// SetCustomerDetails overwrites name and table. PhoneNumber is only applied
// when non-nil and non-empty.
type SetCustomerDetails struct {
	Name        string
	TableNumber string
	PhoneNumber *string
}

// SetStatus moves the order status forward. Moving backwards is an error.
type SetStatus struct {
	Status Status
}

// SetOrderID assigns the order id.
type SetOrderID struct {
	ID string
}

// SetOTP stores the latest verification code.
type SetOTP struct {
	Code string
}

// SetPaymentDetails records the method and the gateway's payment id.
type SetPaymentDetails struct {
	Method    string
	PaymentID string
}

// Clear resets the state to an empty cart.
type Clear struct{}

func (AddItem) isAction()            {}
func (RemoveItem) isAction()         {}
func (SetQuantity) isAction()        {}
func (SetCustomerDetails) isAction() {}
func (SetStatus) isAction()          {}
func (SetOrderID) isAction()         {}
func (SetOTP) isAction()             {}
func (SetPaymentDetails) isAction()  {}
func (Clear) isAction()              {}
