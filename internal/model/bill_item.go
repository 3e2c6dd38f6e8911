package model

import (
	"time"

	"github.com/iliyamo/split-bill/internal/money"
)

// BillItem is one ordered line on a bill. Name and UnitPrice are copied
// from the menu when the item is ordered so later menu edits never change
// a historical bill. Once IsPaid is set the line is immutable.
type BillItem struct {
	ID         uint64      `json:"id"`           // bill_items.id
	BillID     uint64      `json:"bill_id"`      // bill_items.bill_id
	MenuItemID *uint64     `json:"menu_item_id"` // bill_items.menu_item_id (nullable)
	Name       string      `json:"item_name"`    // bill_items.item_name
	Quantity   int         `json:"quantity"`     // bill_items.quantity
	UnitPrice  money.Money `json:"unit_price"`   // bill_items.unit_price
	TotalPrice money.Money `json:"total_price"`  // bill_items.total_price = quantity * unit_price
	IsPaid     bool        `json:"is_paid"`      // bill_items.is_paid
	PaidBy     *string     `json:"paid_by"`      // bill_items.paid_by (nullable)
	PaymentID  *uint64     `json:"payment_id"`   // bill_items.payment_id (nullable)
	CreatedAt  time.Time   `json:"created_at"`   // bill_items.created_at
}

// NewItem is an order line as submitted by staff. When MenuItemID is set
// and Name or Price is missing, the catalog values fill the gap.
type NewItem struct {
	MenuItemID *uint64      `json:"menuItemId"`
	Name       string       `json:"name"`
	Quantity   int          `json:"quantity"`
	Price      *money.Money `json:"price"`
}
