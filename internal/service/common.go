// Package service implements the business rules on top of the repositories.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pos-service/internal/apperror"
	"pos-service/pkg/notify"
)

// Notifier sends customer messages
type Notifier interface {
	Send(ctx context.Context, fwd notify.Forward, msg notify.Message) error
}

type noopNotifier struct{}

func (noopNotifier) Send(context.Context, notify.Forward, notify.Message) error { return nil }

// PaymentInput is a single payment
type PaymentInput struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	Note   string          `json:"note"`
}

// notFound turns a missing row into a NOT_FOUND error naming resource
func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(resource)
	}
	return err
}

// ParseDate accepts YYYY-MM-DD or RFC 3339. An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperror.InvalidRequest("invalid date "+s, "date")
	}
	return t, nil
}

// dateOrToday parses s, defaulting to the current day. Days are stored as
// UTC midnight, the same instant ParseDate yields for the date filters.
func dateOrToday(s string, now time.Time) (time.Time, error) {
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	if t.IsZero() {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return t, nil
}

// FormatRupiah renders an amount for customer messages, e.g. "Rp 150.000"
func FormatRupiah(d decimal.Decimal) string {
	s := d.Round(0).StringFixed(0)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "Rp -" + b.String()
	}
	return "Rp " + b.String()
}
