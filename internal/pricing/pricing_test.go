package pricing

import (
	"errors"
	"testing"

	"github.com/iliyamo/split-bill/internal/model"
	"github.com/iliyamo/split-bill/internal/money"
)

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name    string
		qty     int
		price   string
		want    string
		wantErr error
	}{
		{name: "single", qty: 1, price: "12.00", want: "12"},
		{name: "multiple", qty: 2, price: "5.00", want: "10"},
		{name: "keeps precision", qty: 3, price: "0.333", want: "0.999"},
		{name: "free item", qty: 4, price: "0", want: "0"},
		{name: "zero quantity", qty: 0, price: "5", wantErr: ErrInvalidQuantity},
		{name: "negative quantity", qty: -1, price: "5", wantErr: ErrInvalidQuantity},
		{name: "negative price", qty: 1, price: "-1", wantErr: ErrNegativePrice},
		{name: "six decimals", qty: 3, price: "0.123456", want: "0.370368"},
		{name: "seven decimals", qty: 3, price: "0.1234567", wantErr: ErrTooPrecise},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LineTotal(tt.qty, money.MustParse(tt.price))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(money.MustParse(tt.want)) {
				t.Errorf("LineTotal(%d, %s) = %s, want %s", tt.qty, tt.price, got, tt.want)
			}
		})
	}
}

func item(qty int, price string, paid bool) model.BillItem {
	p := money.MustParse(price)
	return model.BillItem{Quantity: qty, UnitPrice: p, TotalPrice: p.MulQty(qty), IsPaid: paid}
}

func TestBillTotalCountsPaidAndUnpaid(t *testing.T) {
	items := []model.BillItem{
		item(1, "12.00", true),
		item(2, "5.00", false),
		item(1, "0.10", false),
	}
	want := money.MustParse("22.10")
	if got := BillTotal(items); !got.Equal(want) {
		t.Errorf("BillTotal = %s, want %s", got, want)
	}
	// idempotent
	if got := BillTotal(items); !got.Equal(want) {
		t.Errorf("second BillTotal = %s, want %s", got, want)
	}
	if got := BillTotal(nil); !got.IsZero() {
		t.Errorf("BillTotal(nil) = %s", got)
	}
}

func TestSumSettled(t *testing.T) {
	got := SumSettled([]model.BillItem{item(2, "5.00", false)})
	if !got.Equal(money.FromInt(10)) {
		t.Errorf("SumSettled = %s", got)
	}
}

func TestOutstanding(t *testing.T) {
	b := model.Bill{TotalAmount: money.MustParse("22"), PaidAmount: money.MustParse("12")}
	if got := Outstanding(b); !got.Equal(money.FromInt(10)) {
		t.Errorf("Outstanding = %s", got)
	}
	b.PaidAmount = money.MustParse("30")
	if got := Outstanding(b); !got.IsZero() {
		t.Errorf("Outstanding over-paid = %s, want 0", got)
	}
}
