package qrcode

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
)

func TestDataURL(t *testing.T) {
	g := NewPNGGenerator()
	got, err := g.DataURL(BillURL("http://localhost:3000/", "BILL-1-ABC"))
	if err != nil {
		t.Fatalf("DataURL: %v", err)
	}
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(got, prefix) {
		t.Fatalf("unexpected prefix: %.40s", got)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(got, prefix))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("\x89PNG")) {
		t.Error("payload is not a PNG")
	}

	if _, err := g.DataURL(""); err == nil {
		t.Error("empty content should fail")
	}
}

func TestBillURL(t *testing.T) {
	if got := BillURL("https://pay.example.com/", "BILL-9"); got != "https://pay.example.com/bill/BILL-9" {
		t.Errorf("BillURL = %q", got)
	}
}
