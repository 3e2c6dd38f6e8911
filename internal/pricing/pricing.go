// Package pricing derives line and bill amounts from ordered items. All
// functions are pure; callers persist the results.
package pricing

import (
	"errors"
	"fmt"

	"github.com/iliyamo/split-bill/internal/model"
	"github.com/iliyamo/split-bill/internal/money"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrNegativePrice   = errors.New("unit price must not be negative")
	ErrTooPrecise      = fmt.Errorf("unit price has more than %d decimal places", money.Scale)
)

// LineTotal returns quantity × unitPrice. The price must fit money.Scale
// so the stored line total is exact.
func LineTotal(quantity int, unitPrice money.Money) (money.Money, error) {
	if quantity < 1 {
		return money.Zero, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	if unitPrice.IsNegative() {
		return money.Zero, fmt.Errorf("%w: got %s", ErrNegativePrice, unitPrice)
	}
	if !unitPrice.WithinScale() {
		return money.Zero, fmt.Errorf("%w: got %s", ErrTooPrecise, unitPrice)
	}
	return unitPrice.MulQty(quantity), nil
}

// BillTotal sums the line totals of every item, paid or not. Line totals
// are recomputed from quantity and unit price rather than trusted from
// the stored column.
func BillTotal(items []model.BillItem) money.Money {
	total := money.Zero
	for _, it := range items {
		total = total.Add(it.UnitPrice.MulQty(it.Quantity))
	}
	return total
}

// SumSettled is the amount owed for settling exactly these items.
func SumSettled(items []model.BillItem) money.Money {
	return BillTotal(items)
}

// Outstanding is total minus paid, never below zero.
func Outstanding(b model.Bill) money.Money {
	rest := b.TotalAmount.Sub(b.PaidAmount)
	if rest.IsNegative() {
		return money.Zero
	}
	return rest
}
