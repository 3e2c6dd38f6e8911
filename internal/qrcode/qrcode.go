// Package qrcode renders the link a customer scans to open a bill.
package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	goqr "github.com/skip2/go-qrcode"
)

// Generator turns content into an image data URL.
type Generator interface {
	DataURL(content string) (string, error)
}

// PNGGenerator encodes content as a PNG QR code.
type PNGGenerator struct {
	Size  int
	Level goqr.RecoveryLevel
}

func NewPNGGenerator() *PNGGenerator {
	return &PNGGenerator{Size: 256, Level: goqr.Medium}
}

func (g *PNGGenerator) DataURL(content string) (string, error) {
	if content == "" {
		return "", errors.New("qrcode: empty content")
	}
	png, err := goqr.Encode(content, g.Level, g.Size)
	if err != nil {
		return "", fmt.Errorf("qrcode: encode: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// BillURL is the customer-facing page for a bill.
func BillURL(frontendURL, billNumber string) string {
	return strings.TrimRight(frontendURL, "/") + "/bill/" + url.PathEscape(billNumber)
}
