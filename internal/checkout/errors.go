package checkout

// Kind groups checkout errors by how a caller should react to them.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindMismatch     Kind = "mismatch"
	KindPrecondition Kind = "precondition"
	KindDeclined     Kind = "declined"
	KindRateLimited  Kind = "rate_limited"
	KindClosed       Kind = "closed"
)

// Error is a domain error raised by a session. Values below are sentinels and
// are compared with errors.Is.
type Error struct {
	Kind    Kind
	Code    string
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrInvalidName     = &Error{Kind: KindValidation, Code: "invalid_name", Field: "customer_name", Message: "please enter your name"}
	ErrInvalidPhone    = &Error{Kind: KindValidation, Code: "invalid_phone", Field: "phone_number", Message: "please enter a valid phone number"}
	ErrInvalidMethod   = &Error{Kind: KindValidation, Code: "invalid_method", Field: "method", Message: "payment method must be card, upi or wallet"}
	ErrInvalidCode     = &Error{Kind: KindValidation, Code: "invalid_code", Field: "code", Message: "please enter a valid 6-digit code"}
	ErrInvalidQuantity = &Error{Kind: KindValidation, Code: "invalid_quantity", Field: "quantity", Message: "quantity cannot be negative"}
	ErrUnknownItem     = &Error{Kind: KindValidation, Code: "unknown_item", Field: "item_id", Message: "item is not on the menu"}

	ErrCodeMismatch = &Error{Kind: KindMismatch, Code: "code_mismatch", Message: "invalid code, please try again"}

	ErrEmptyCart  = &Error{Kind: KindPrecondition, Code: "empty_cart", Message: "cart is empty"}
	ErrCartLocked = &Error{Kind: KindPrecondition, Code: "cart_locked", Message: "order has already been placed"}
	ErrWrongStage = &Error{Kind: KindPrecondition, Code: "wrong_stage", Message: "action not available at this step"}
	ErrBusy       = &Error{Kind: KindPrecondition, Code: "busy", Message: "another request is in progress"}

	ErrPaymentDeclined = &Error{Kind: KindDeclined, Code: "payment_declined", Message: "payment failed, please try again"}

	ErrTooManyAttempts    = &Error{Kind: KindRateLimited, Code: "too_many_attempts", Message: "too many attempts, request a new code"}
	ErrResendNotAvailable = &Error{Kind: KindRateLimited, Code: "resend_not_available", Message: "a new code can be requested once the current one expires"}
	ErrResendLimit        = &Error{Kind: KindRateLimited, Code: "resend_limit", Message: "no more codes can be sent for this order"}

	ErrSessionClosed = &Error{Kind: KindClosed, Code: "session_closed", Message: "session is closed"}
)
