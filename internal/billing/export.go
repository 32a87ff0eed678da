package billing

// ExportMessage is the payload queued by the API and archived by the worker.
type ExportMessage struct {
	SessionID string `json:"session_id,omitempty"`
	Bill      Bill   `json:"bill"`
}

// Attributes are the SQS message attributes sent alongside an export.
func (m ExportMessage) Attributes() map[string]string {
	return map[string]string{
		"bill_number": m.Bill.BillNumber,
		"order_id":    m.Bill.OrderID,
		"session_id":  m.SessionID,
	}
}
