package model

import (
	"time"

	"github.com/iliyamo/split-bill/internal/money"
)

// PaymentCompleted is the only payment status; there is no multi-phase
// payment protocol.
const PaymentCompleted = "completed"

// DefaultPaymentMethod is used when the customer does not name one.
const DefaultPaymentMethod = "card"

// Payment settles one or more items of a single bill. Amount equals the
// sum of the line totals of exactly the items it covers.
type Payment struct {
	ID            uint64      `json:"id"`             // payments.id
	BillID        uint64      `json:"bill_id"`        // payments.bill_id
	CustomerName  *string     `json:"customer_name"`  // payments.customer_name (nullable)
	Amount        money.Money `json:"amount"`         // payments.amount
	Method        string      `json:"payment_method"` // payments.payment_method
	Status        string      `json:"payment_status"` // payments.payment_status
	TransactionID string      `json:"transaction_id"` // payments.transaction_id, unique
	CreatedAt     time.Time   `json:"created_at"`     // payments.created_at
}
