// Package queue carries bill events over RabbitMQ: the payloads, a
// publisher used by the billing service after commit, and the audit
// consumer that writes them to logs/payments.log.
package queue

import "github.com/iliyamo/split-bill/internal/money"

// Queue names. Both are durable and use the default exchange.
const (
	PaymentCompletedQueue = "payment.completed"
	BillClosedQueue       = "bill.closed"
)

// PaymentCompletedEvent is published after a settle commits. It carries
// enough for downstream consumers to log or notify without querying the
// bill store.
type PaymentCompletedEvent struct {
	PaymentID     uint64      `json:"payment_id"`
	TransactionID string      `json:"transaction_id"`
	BillID        uint64      `json:"bill_id"`
	BillNumber    string      `json:"bill_number"`
	TableNumber   int         `json:"table_number"`
	CustomerName  string      `json:"customer_name,omitempty"`
	Method        string      `json:"payment_method"`
	Amount        money.Money `json:"amount"`
	ItemIDs       []uint64    `json:"item_ids"`
	BillStatus    string      `json:"bill_status"`
	PaidAt        string      `json:"paid_at"`
}

// BillClosedEvent is published after staff finish a bill.
type BillClosedEvent struct {
	BillID      uint64      `json:"bill_id"`
	BillNumber  string      `json:"bill_number"`
	TableNumber int         `json:"table_number"`
	TotalAmount money.Money `json:"total_amount"`
	ClosedAt    string      `json:"closed_at"`
}
