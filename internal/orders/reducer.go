package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNegativeQuantity = errors.New("quantity must not be negative")
	ErrStatusRegression = errors.New("order status cannot move backwards")
	ErrUnknownStatus    = errors.New("unknown order status")
	ErrUnknownAction    = errors.New("unknown action")
)

// Reduce applies a to s and returns the resulting state. s is never modified.
// On error the returned state equals s.
func Reduce(s State, a Action) (State, error) {
	switch act := a.(type) {
	case AddItem:
		next := s.clone()
		for i := range next.Items {
			if next.Items[i].ID == act.Item.ID {
				next.Items[i].Quantity++
				return next, nil
			}
		}
		next.Items = append(next.Items, LineItem{MenuItem: act.Item, Quantity: 1})
		return next, nil

	case RemoveItem:
		next := s.clone()
		for i := range next.Items {
			if next.Items[i].ID != act.ItemID {
				continue
			}
			if next.Items[i].Quantity > 1 {
				next.Items[i].Quantity--
				return next, nil
			}
			next.Items = append(next.Items[:i], next.Items[i+1:]...)
			return next, nil
		}
		return next, nil

	case SetQuantity:
		if act.Quantity < 0 {
			return s, fmt.Errorf("%w: %d", ErrNegativeQuantity, act.Quantity)
		}
		next := s.clone()
		for i := range next.Items {
			if next.Items[i].ID != act.Item.ID {
				continue
			}
			if act.Quantity == 0 {
				next.Items = append(next.Items[:i], next.Items[i+1:]...)
			} else {
				next.Items[i].Quantity = act.Quantity
			}
			return next, nil
		}
		if act.Quantity > 0 {
			next.Items = append(next.Items, LineItem{MenuItem: act.Item, Quantity: act.Quantity})
		}
		return next, nil

	case SetCustomerDetails:
		next := s.clone()
		next.CustomerName = act.Name
		next.TableNumber = act.TableNumber
		if act.PhoneNumber != nil && *act.PhoneNumber != "" {
			next.PhoneNumber = *act.PhoneNumber
		}
		return next, nil

	case SetStatus:
		if !act.Status.Valid() {
			return s, fmt.Errorf("%w: %q", ErrUnknownStatus, act.Status)
		}
		if act.Status.Before(s.Status) {
			return s, fmt.Errorf("%w: %s -> %s", ErrStatusRegression, s.Status, act.Status)
		}
		next := s.clone()
		next.Status = act.Status
		return next, nil

	case SetOrderID:
		next := s.clone()
		next.OrderID = act.ID
		return next, nil

	case SetOTP:
		next := s.clone()
		next.OTP = act.Code
		return next, nil

	case SetPaymentDetails:
		next := s.clone()
		next.PaymentMethod = act.Method
		next.PaymentID = act.PaymentID
		return next, nil

	case Clear:
		return NewState(""), nil
	}
	return s, fmt.Errorf("%w: %T", ErrUnknownAction, a)
}
