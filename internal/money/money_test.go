package money

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "euro symbol with comma decimal", input: "€19,95", want: "19.95"},
		{name: "currency code with grouping", input: "EUR 1,234.50", want: "1234.50"},
		{name: "continental grouping", input: "1.234,50", want: "1234.50"},
		{name: "plain integer", input: "12", want: "12"},
		{name: "dollar symbol", input: "$7.5", want: "7.5"},
		{name: "trailing code", input: "5,00 EUR", want: "5"},
		{name: "repeated commas are grouping", input: "1,234,567", want: "1234567"},
		{name: "repeated dots are grouping", input: "1.234.567", want: "1234567"},
		{name: "negative", input: "-3.10", want: "-3.1"},
		{name: "keeps input precision", input: "0.125", want: "0.125"},
		{name: "surrounding whitespace", input: "  £ 4.20 ", want: "4.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			want := MustParse(tt.want)
			if !got.Equal(want) {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	for _, input := range []string{"", "   ", "no money here", "€", "1a2", "1,2,3.4.5", "--5"} {
		_, err := Parse(input)
		if err == nil {
			t.Errorf("Parse(%q) expected error", input)
			continue
		}
		if !errors.Is(err, ErrFormat) {
			t.Errorf("Parse(%q) error %v does not match ErrFormat", input, err)
		}
		var fe *FormatError
		if !errors.As(err, &fe) {
			t.Errorf("Parse(%q) error %T is not *FormatError", input, err)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		amount Money
		want   string
	}{
		{FromInt(12), "€12.00"},
		{MustParse("12.3"), "€12.30"},
		{MustParse("19.958"), "€19.96"},
		{MustParse("0.005"), "€0.01"},
		{Zero, "€0.00"},
	}
	for _, tt := range tests {
		if got := tt.amount.Format(); got != tt.want {
			t.Errorf("Format(%s) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "0.01", "5", "17.50", "1234.99", "-2.25"} {
		x := MustParse(s)
		back, err := Parse(x.Format())
		if err != nil {
			t.Fatalf("Parse(Format(%s)) error: %v", s, err)
		}
		if !back.Equal(x) {
			t.Errorf("Parse(Format(%s)) = %s", s, back)
		}
	}
}

func TestArithmeticIsExact(t *testing.T) {
	// 0.1 added ten times drifts in binary floating point
	sum := Zero
	for i := 0; i < 10; i++ {
		sum = sum.Add(MustParse("0.1"))
	}
	if !sum.Equal(FromInt(1)) {
		t.Errorf("sum = %s, want 1", sum)
	}

	line := MustParse("5.00").MulQty(2)
	if line.Cmp(FromInt(10)) != 0 {
		t.Errorf("5.00 x 2 = %s", line)
	}
	if !FromInt(3).Sub(FromInt(5)).IsNegative() {
		t.Error("3 - 5 should be negative")
	}
}

func TestJSON(t *testing.T) {
	var payload struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": 7.5, "b": "€19,95", "c": null}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !payload.A.Equal(MustParse("7.5")) || !payload.B.Equal(MustParse("19.95")) || !payload.C.IsZero() {
		t.Errorf("unexpected decode: %+v", payload)
	}

	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"a":"7.50","b":"19.95","c":"0.00"}` {
		t.Errorf("marshal = %s", out)
	}

	if err := json.Unmarshal([]byte(`{"a": "abc"}`), &payload); !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
}

func TestScanValue(t *testing.T) {
	var m Money
	if err := m.Scan([]byte("10.500000")); err != nil {
		t.Fatalf("scan bytes: %v", err)
	}
	if !m.Equal(MustParse("10.5")) {
		t.Errorf("scan = %s", m)
	}
	if err := m.Scan("3.25"); err != nil || !m.Equal(MustParse("3.25")) {
		t.Errorf("scan string = %s, %v", m, err)
	}
	if err := m.Scan(nil); err != nil || !m.IsZero() {
		t.Errorf("scan nil = %s, %v", m, err)
	}
	v, err := MustParse("1.005").Value()
	if err != nil || v != "1.005" {
		t.Errorf("Value = %v, %v", v, err)
	}
}

func TestWithinScale(t *testing.T) {
	for s, want := range map[string]bool{
		"12":         true,
		"19.95":      true,
		"0.000001":   true,
		"1.2300000":  true,
		"0.1234567":  false,
		"-0.0000001": false,
	} {
		if got := MustParse(s).WithinScale(); got != want {
			t.Errorf("WithinScale(%s) = %v, want %v", s, got, want)
		}
	}
}
