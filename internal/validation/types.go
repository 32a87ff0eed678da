package validation

// AddItemRequest is the payload for POST /sessions/:id/items
type AddItemRequest struct {
	ItemID string `json:"item_id" validate:"required"`
}

// SetQuantityRequest is the payload for PUT /sessions/:id/items/:itemId.
// Quantity is a pointer so that an explicit 0 (remove) is distinguishable from a missing field.
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0"`
}

// CustomerDetails is what the customer types before paying.
type CustomerDetails struct {
	CustomerName string `json:"customer_name" validate:"notblank"`
	PhoneNumber  string `json:"phone_number" validate:"notblank,min=10"`
}

// PaymentRequest is the payload for POST /sessions/:id/payment
type PaymentRequest struct {
	Method string `json:"method" validate:"required,oneof=card upi wallet"`
}

// VerifyRequest is the payload for POST /sessions/:id/otp/verify
type VerifyRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}
