package model

import (
	"time"

	"github.com/iliyamo/split-bill/internal/money"
)

// Bill states. A bill is active while it accepts items and payments,
// paid once every item is settled, and closed after staff finish it.
const (
	BillActive = "active"
	BillPaid   = "paid"
	BillClosed = "closed"
)

// Bill is one dining session at a table and its running tab.
//
// TotalAmount always equals the sum of the line totals of the bill's
// items and PaidAmount the sum of its payments; PaidAmount never
// exceeds TotalAmount.
type Bill struct {
	ID             uint64      `json:"id"`               // bills.id
	TableID        uint64      `json:"table_id"`         // bills.table_id
	TableNumber    int         `json:"table_number"`     // restaurant_tables.table_number
	BillNumber     string      `json:"bill_number"`      // bills.bill_number, public lookup key
	NumberOfGuests int         `json:"number_of_guests"` // bills.number_of_guests
	WaiterName     string      `json:"waiter_name"`      // bills.waiter_name
	TotalAmount    money.Money `json:"total_amount"`     // bills.total_amount
	PaidAmount     money.Money `json:"paid_amount"`      // bills.paid_amount
	Status         string      `json:"status"`           // bills.status
	QRCode         string      `json:"qr_code"`          // bills.qr_code, data URL (may be empty)
	Version        int64       `json:"version"`          // bills.version, bumped by every mutation
	CreatedAt      time.Time   `json:"created_at"`       // bills.created_at
	UpdatedAt      time.Time   `json:"updated_at"`       // bills.updated_at
	ClosedAt       *time.Time  `json:"closed_at"`        // bills.closed_at (nullable)
}

// IsOpen reports whether the bill still holds its table.
func (b *Bill) IsOpen() bool { return b.Status != BillClosed }

// BillSummary is a list row with counts of attached records.
type BillSummary struct {
	Bill
	TotalItems    int `json:"total_items"`
	TotalPayments int `json:"total_payments"`
}

// BillDetail is a bill together with its items and payments.
type BillDetail struct {
	Bill
	Items    []BillItem `json:"items"`
	Payments []Payment  `json:"payments"`
}

// ItemScope selects which items a bill lookup returns.
type ItemScope int

const (
	AllItems ItemScope = iota
	UnpaidItems
)
