package billing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yukikurage/case-billing-api/internal/constants"
)

// FormatInvoiceNumber renders n as a zero-padded invoice number, e.g. 7 -> "000007".
func FormatInvoiceNumber(n int64) string {
	return fmt.Sprintf("%0*d", constants.InvoiceNumberWidth, n)
}

// ParseInvoiceNumber returns the numeric value of an invoice number.
// An empty string parses as zero so an organization without invoices starts at 1.
func ParseInvoiceNumber(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid invoice number %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid invoice number %q", s)
	}
	return n, nil
}
