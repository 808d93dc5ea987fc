package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Column names expected in the sales file header.
const (
	ColumnDate        = "Date"
	ColumnCity        = "City"
	ColumnProductLine = "Product line"
	ColumnPayment     = "Payment"
	ColumnTotal       = "Total"
	ColumnRating      = "Rating"
)

// RequiredColumns lists the header cells every sales source must provide.
var RequiredColumns = []string{
	ColumnDate,
	ColumnCity,
	ColumnProductLine,
	ColumnPayment,
	ColumnTotal,
	ColumnRating,
}

type (
	// SalesRecord is one row of the sales file after normalization.
	SalesRecord struct {
		Date time.Time
		// DateValid is false when the date text did not parse.
		DateValid   bool
		City        string
		ProductLine string
		Payment     string
		Total       Amount
		Rating      Amount
	}

	// Table is the in-memory, read-only set of records loaded from a source.
	Table struct {
		Records []SalesRecord
		// Skipped counts rows that could not be tokenised at all.
		Skipped int
	}

	// Month identifies a calendar month bucket.
	Month struct {
		Year  int
		Month time.Month
	}
)

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidMonth = errors.New("invalid month")
)

// HasDate reports whether the record's date parsed.
func (r SalesRecord) HasDate() bool {
	return r.DateValid
}

// Month returns the record's month bucket. ok is false when the date is missing.
func (r SalesRecord) Month() (Month, bool) {
	if !r.HasDate() {
		return Month{}, false
	}
	return MonthOf(r.Date), true
}

// Week returns the Monday that starts the ISO week containing the record's date.
func (r SalesRecord) Week() (time.Time, bool) {
	if !r.HasDate() {
		return time.Time{}, false
	}
	return WeekStart(r.Date), true
}

// Len returns the number of records.
func (t Table) Len() int {
	return len(t.Records)
}

// DateRange returns the minimum and maximum record dates.
// ok is false when no record carries a valid date.
func (t Table) DateRange() (min, max time.Time, ok bool) {
	for _, r := range t.Records {
		if !r.HasDate() {
			continue
		}
		if !ok {
			min, max, ok = r.Date, r.Date, true
			continue
		}
		if r.Date.Before(min) {
			min = r.Date
		}
		if r.Date.After(max) {
			max = r.Date
		}
	}
	return min, max, ok
}

// MonthOf returns the month bucket of t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a "YYYY-MM" label.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return MonthOf(t), nil
}

// String formats the month as "YYYY-MM".
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// IsZero reports whether m is the zero month.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// First returns the first day of the month at midnight UTC.
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the following month.
func (m Month) Next() Month {
	return MonthOf(m.First().AddDate(0, 1, 0))
}

// Before reports whether m is earlier than o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// WeekStart returns the Monday at midnight UTC of the week containing t.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
