// Package money provides an exact decimal currency amount. Amounts are
// kept at full precision everywhere and only rounded to cents when they
// are formatted for display.
package money

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Symbol is the currency symbol used by Format.
const Symbol = "€"

// Scale is the number of fractional digits the bill store keeps. MySQL
// amount columns are DECIMAL(18,6); an amount with more digits would be
// rounded on write.
const Scale = 6

// ErrFormat is matched by every *FormatError.
var ErrFormat = errors.New("invalid currency amount")

// FormatError reports input that cannot be read as an amount.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid currency amount %q: %s", e.Input, e.Reason)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// Money is an immutable currency amount. The zero value is 0.
type Money struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// New wraps a decimal value.
func New(d decimal.Decimal) Money { return Money{d: d} }

// FromInt returns a whole-unit amount.
func FromInt(units int64) Money { return Money{d: decimal.NewFromInt(units)} }

// MustParse is Parse for constants and tests; it panics on bad input.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

// MulQty multiplies the amount by an integer quantity.
func (m Money) MulQty(qty int) Money { return Money{d: m.d.Mul(decimal.NewFromInt(int64(qty)))} }

// Cmp compares at full precision: -1 if m < o, 0 if equal, +1 if m > o.
func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }
func (m Money) IsZero() bool { return m.d.IsZero() }
func (m Money) IsNegative() bool { return m.d.IsNegative() }
func (m Money) Decimal() decimal.Decimal { return m.d }

// WithinScale reports whether the amount survives storage unchanged.
func (m Money) WithinScale() bool { return m.d.Equal(m.d.Truncate(Scale)) }

// String returns the amount without symbol, with at least two
// fractional digits and no precision lost.
func (m Money) String() string {
	if m.d.Equal(m.d.Round(2)) {
		return m.d.StringFixed(2)
	}
	return m.d.String()
}

// Format renders the amount for display: symbol prefix and exactly two
// fractional digits, rounded half away from zero.
func (m Money) Format() string {
	return Symbol + m.d.StringFixed(2)
}

// Parse reads an amount such as "€19,95", "EUR 1,234.50" or "1.234,50".
// Currency symbols and letter codes are ignored. When both ',' and '.'
// occur, the one appearing last is the decimal separator; a separator
// that occurs more than once on its own is treated as digit grouping.
func Parse(s string) (Money, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Money{}, &FormatError{Input: s, Reason: "empty"}
	}

	var b strings.Builder
	for _, r := range trimmed {
		switch r {
		case ' ', '\t', '\u00a0', '€', '$', '£':
			continue
		}
		b.WriteRune(r)
	}
	// currency codes may lead or trail the number ("EUR 5", "5 USD")
	cleaned := strings.TrimFunc(b.String(), isASCIILetter)
	if cleaned == "" {
		return Money{}, &FormatError{Input: s, Reason: "no digits"}
	}
	for _, r := range cleaned {
		if (r < '0' || r > '9') && r != ',' && r != '.' && r != '-' {
			return Money{}, &FormatError{Input: s, Reason: fmt.Sprintf("unexpected character %q", r)}
		}
	}

	normalized := normalizeSeparators(cleaned)
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return Money{}, &FormatError{Input: s, Reason: "not a number"}
	}
	return Money{d: d}, nil
}

func normalizeSeparators(s string) string {
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	var decimalSep, groupSep string
	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			decimalSep, groupSep = ",", "."
		} else {
			decimalSep, groupSep = ".", ","
		}
	case commas == 1:
		decimalSep = ","
	case commas > 1:
		groupSep = ","
	case dots > 1:
		groupSep = "."
	}

	if groupSep != "" {
		s = strings.ReplaceAll(s, groupSep, "")
	}
	if decimalSep == "," {
		s = strings.Replace(s, ",", ".", 1)
	}
	return s
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// Scan implements sql.Scanner for DECIMAL and TEXT columns.
func (m *Money) Scan(value any) error {
	if value == nil {
		m.d = decimal.Zero
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("scan money: %w", err)
	}
	m.d = d
	return nil
}

// Value implements driver.Valuer; amounts are stored as exact strings.
func (m Money) Value() (driver.Value, error) {
	return m.d.String(), nil
}

// MarshalJSON encodes the amount as a decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts a JSON number or any string Parse accepts.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		m.d = decimal.Zero
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := Parse(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return &FormatError{Input: string(data), Reason: "not a number"}
	}
	m.d = d
	return nil
}
