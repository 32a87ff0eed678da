package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/imrishuroy/go-table-orderflow/internal/orders"
)

// DefaultPaymentMethod is printed when no method was recorded.
const DefaultPaymentMethod = "Card"

var ErrNoOrderID = errors.New("bill requires an order id")

// Line is one row of the printed bill.
type Line struct {
	ItemID    string `json:"item_id" dynamodbav:"item_id"`
	Name      string `json:"name" dynamodbav:"name"`
	UnitPrice int64  `json:"unit_price" dynamodbav:"unit_price"`
	Quantity  int    `json:"quantity" dynamodbav:"quantity"`
	Amount    int64  `json:"amount" dynamodbav:"amount"`
}

// Bill is the read-only receipt handed to export surfaces (download, share,
// print) and archived by the worker.
type Bill struct {
	BillNumber    string    `json:"bill_number" dynamodbav:"bill_number"` // PK
	OrderID       string    `json:"order_id" dynamodbav:"order_id"`
	IssuedAt      time.Time `json:"date" dynamodbav:"issued_at"`
	CustomerName  string    `json:"customer" dynamodbav:"customer_name"`
	TableNumber   string    `json:"table" dynamodbav:"table_number"`
	Phone         string    `json:"phone" dynamodbav:"phone_masked"`
	Lines         []Line    `json:"items" dynamodbav:"lines"`
	CGST          int64     `json:"cgst" dynamodbav:"cgst"`
	SGST          int64     `json:"sgst" dynamodbav:"sgst"`
	PaymentMethod string    `json:"payment_method" dynamodbav:"payment_method"`
	ArchivedAt    time.Time `json:"-" dynamodbav:"archived_at,omitempty"`

	Totals
}

// FileName is the suggested download name for the exported bill.
func (b Bill) FileName() string {
	return fmt.Sprintf("GetMeChai_Bill_%s.json", b.OrderID)
}

// NewBill builds a bill from a state snapshot. It only reads s.
func (c *Calculator) NewBill(s orders.State, issuedAt time.Time) (Bill, error) {
	if s.OrderID == "" {
		return Bill{}, ErrNoOrderID
	}
	totals := c.Totals(s.Items)
	cgst, sgst := SplitTax(totals.Tax)

	lines := make([]Line, 0, len(s.Items))
	for _, l := range s.Items {
		lines = append(lines, Line{
			ItemID:    l.ID,
			Name:      l.Name,
			UnitPrice: l.Price,
			Quantity:  l.Quantity,
			Amount:    l.Amount(),
		})
	}

	method := s.PaymentMethod
	if method == "" {
		method = DefaultPaymentMethod
	}

	return Bill{
		BillNumber:    "BILL-" + s.OrderID,
		OrderID:       s.OrderID,
		IssuedAt:      issuedAt,
		CustomerName:  s.CustomerName,
		TableNumber:   s.TableNumber,
		Phone:         MaskPhone(s.PhoneNumber),
		Lines:         lines,
		Totals:        totals,
		CGST:          cgst,
		SGST:          sgst,
		PaymentMethod: method,
	}, nil
}

// MaskPhone keeps only the last three digits: "****-***-210".
func MaskPhone(phone string) string {
	suffix := "XXX"
	if r := []rune(phone); len(r) > 0 {
		if len(r) > 3 {
			r = r[len(r)-3:]
		}
		suffix = string(r)
	}
	return "****-***-" + suffix
}
