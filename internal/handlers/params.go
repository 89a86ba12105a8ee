package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	apierrors "github.com/yukikurage/case-billing-api/internal/errors"
)

const dateLayout = "2006-01-02"

// parseIDParam reads a positive numeric path parameter. It writes a 400 and
// returns false when the value is malformed.
func parseIDParam(c *gin.Context, name, label string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, fmt.Sprintf("Invalid %s ID", label))
		return 0, false
	}
	return id, true
}

// parseTime accepts RFC 3339 timestamps and plain dates. A plain date used as
// an upper bound covers the whole day.
func parseTime(value string, endOfDay bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}

	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func parseDecimal(value string) (*decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// queryTime parses an optional time query parameter, writing a 400 on failure
func queryTime(c *gin.Context, key string, endOfDay bool) (*time.Time, bool) {
	t, err := parseTime(c.Query(key), endOfDay)
	if err != nil {
		apierrors.BadRequest(c, fmt.Sprintf("%s must be a date (YYYY-MM-DD) or RFC 3339 timestamp", key))
		return nil, false
	}
	return t, true
}

// queryDecimal parses an optional amount query parameter, writing a 400 on failure
func queryDecimal(c *gin.Context, key string) (*decimal.Decimal, bool) {
	d, err := parseDecimal(c.Query(key))
	if err != nil {
		apierrors.BadRequest(c, fmt.Sprintf("%s must be a number", key))
		return nil, false
	}
	return d, true
}

// queryUint parses an optional positive integer query parameter
func queryUint(c *gin.Context, key string) (*uint64, bool) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, fmt.Sprintf("%s must be a positive integer", key))
		return nil, false
	}
	return &id, true
}

// Date is a JSON date accepting "YYYY-MM-DD" or an RFC 3339 timestamp
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("date must be a string")
	}
	t, err := parseTime(s, false)
	if err != nil {
		return err
	}
	if t == nil {
		d.Time = time.Time{}
		return nil
	}
	d.Time = *t
	return nil
}

// Ptr returns nil for a missing or empty date
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
