package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeRow builds a record from raw cell text. Fields that fail to
// parse become missing; nothing here returns an error.
func NormalizeRow(date, city, productLine, payment, total, rating string) SalesRecord {
	d, ok := CoerceDate(date)
	return SalesRecord{
		Date:        d,
		DateValid:   ok,
		City:        cleanLabel(city),
		ProductLine: cleanLabel(productLine),
		Payment:     cleanLabel(payment),
		Total:       CoerceAmount(total),
		Rating:      CoerceAmount(rating),
	}
}

// RevenueTotal sums Total over the records that carry one.
func (t Table) RevenueTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, r := range t.Records {
		if r.Total.Valid {
			sum = sum.Add(r.Total.Value)
		}
	}
	return sum
}

// Stats summarizes how many fields were coerced to missing.
type Stats struct {
	Records       int
	Skipped       int
	MissingDate   int
	MissingTotal  int
	MissingRating int
}

// Stats counts missing fields across the table.
func (t Table) Stats() Stats {
	s := Stats{Records: len(t.Records), Skipped: t.Skipped}
	for _, r := range t.Records {
		if !r.HasDate() {
			s.MissingDate++
		}
		if !r.Total.Valid {
			s.MissingTotal++
		}
		if !r.Rating.Valid {
			s.MissingRating++
		}
	}
	return s
}

func cleanLabel(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		// tabs become spaces, other control characters are dropped
		if r == '\t' {
			r = ' '
		}
		if r < 32 {
			continue
		}
		out = append(out, r)
	}
	return strings.TrimSpace(string(out))
}
