package repository

import (
	"database/sql"
	"errors"
	"testing"
)

func TestErrorCategories(t *testing.T) {
	tests := []struct {
		err      error
		category error
	}{
		{ErrBillNotFound, ErrNotFound},
		{ErrItemNotFound, ErrNotFound},
		{ErrMenuItemNotFound, ErrNotFound},
		{ErrNoSettlableItems, ErrConflict},
		{ErrUnsettledItems, ErrConflict},
		{ErrBillClosed, ErrConflict},
		{ErrTableOccupied, ErrConflict},
		{ErrEmailExists, ErrConflict},
		{ValidationError("quantity %d", 0), ErrValidation},
		{TxError("insert payment", sql.ErrConnDone), ErrTransaction},
		{UpstreamError("qrcode", errors.New("boom")), ErrUpstream},
	}
	all := []error{ErrValidation, ErrNotFound, ErrConflict, ErrTransaction, ErrUpstream}

	for _, tt := range tests {
		for _, c := range all {
			got := errors.Is(tt.err, c)
			if want := c == tt.category; got != want {
				t.Errorf("errors.Is(%q, %q) = %v, want %v", tt.err, c, got, want)
			}
		}
	}
}

func TestTxErrorKeepsCause(t *testing.T) {
	err := TxError("mark items paid", sql.ErrTxDone)
	if !errors.Is(err, sql.ErrTxDone) {
		t.Errorf("cause lost: %v", err)
	}
}
