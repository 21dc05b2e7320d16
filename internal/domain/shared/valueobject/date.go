package valueobject

import (
	"fmt"
	"time"
)

// ISODateLayout is the canonical calendar date layout
const ISODateLayout = "2006-01-02"

// Date is a calendar date without time-of-day or zone.
// The zero value is not a valid date.
type Date struct {
	t time.Time
}

// NewDate creates a date from year, month and day
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as observed in t's own location
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseISODate parses a canonical YYYY-MM-DD date.
// Values with extra text, time components or non-padded fields are rejected.
func ParseISODate(s string) (Date, error) {
	t, err := time.Parse(ISODateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid ISO date %q: %w", s, err)
	}
	if t.Format(ISODateLayout) != s {
		return Date{}, fmt.Errorf("invalid ISO date %q: not canonical", s)
	}
	return Date{t: t}, nil
}

// IsZero reports whether d is the zero date
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Time returns the date as midnight UTC
func (d Date) Time() time.Time {
	return d.t
}

// Before reports whether d is strictly before other
func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

// After reports whether d is strictly after other
func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

// Equal reports whether both dates denote the same day
func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

// OnOrBefore reports whether d <= other
func (d Date) OnOrBefore(other Date) bool {
	return !d.After(other)
}

// String returns the date in YYYY-MM-DD form, or "" for the zero date
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(ISODateLayout)
}

// MarshalText implements encoding.TextMarshaler
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseISODate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
