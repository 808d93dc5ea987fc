// Package aggregate groups sales records by one or two keys and sums a measure.
//
// Every chart of the dashboard is produced by the same call configured with a
// small Spec:
//
//	res, err := aggregate.Aggregate(records, aggregate.By(aggregate.KeyCity).Sum(aggregate.MeasureTotal))
package aggregate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"vendas/internal/core"
)

// Key names a grouping attribute of a record.
type Key string

const (
	KeyDate        Key = "date"
	KeyWeek        Key = "week"
	KeyMonth       Key = "month"
	KeyCity        Key = "city"
	KeyProductLine Key = "product_line"
	KeyPayment     Key = "payment"
)

// Measure names the numeric attribute being summed.
type Measure string

const (
	MeasureTotal  Measure = "total"
	MeasureRating Measure = "rating"
)

// KeyLayout formats date and week key values.
const KeyLayout = "2006-01-02"

// MaxKeys is the largest number of grouping keys a Spec may carry.
const MaxKeys = 2

var ErrInvalidSpec = errors.New("invalid aggregation spec")

// Spec configures one aggregation. Build it with By and Sum.
type Spec struct {
	Keys    []Key
	Measure Measure
}

// By starts a spec grouping on keys. The measure defaults to MeasureTotal.
func By(keys ...Key) Spec {
	return Spec{Keys: append([]Key(nil), keys...), Measure: MeasureTotal}
}

// Sum sets the measure to add up.
func (s Spec) Sum(m Measure) Spec {
	s.Measure = m
	return s
}

// Validate checks key count and names.
func (s Spec) Validate() error {
	if len(s.Keys) == 0 || len(s.Keys) > MaxKeys {
		return fmt.Errorf("%w: need 1 to %d keys, got %d", ErrInvalidSpec, MaxKeys, len(s.Keys))
	}
	for _, k := range s.Keys {
		if !k.valid() {
			return fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, k)
		}
	}
	switch s.Measure {
	case MeasureTotal, MeasureRating:
	default:
		return fmt.Errorf("%w: unknown measure %q", ErrInvalidSpec, s.Measure)
	}
	return nil
}

func (s Spec) String() string {
	names := make([]string, len(s.Keys))
	for i, k := range s.Keys {
		names[i] = string(k)
	}
	return fmt.Sprintf("sum(%s) by %s", s.Measure, strings.Join(names, ","))
}

func (k Key) valid() bool {
	switch k {
	case KeyDate, KeyWeek, KeyMonth, KeyCity, KeyProductLine, KeyPayment:
		return true
	}
	return false
}

// datebased reports whether the key is derived from the record date.
func (k Key) datebased() bool {
	return k == KeyDate || k == KeyWeek || k == KeyMonth
}

// Value returns the key value of r, or ok=false when the record has no
// value for a date based key.
func (k Key) Value(r core.SalesRecord) (string, bool) {
	switch k {
	case KeyDate:
		if !r.HasDate() {
			return "", false
		}
		return r.Date.Format(KeyLayout), true
	case KeyWeek:
		w, ok := r.Week()
		if !ok {
			return "", false
		}
		return w.Format(KeyLayout), true
	case KeyMonth:
		m, ok := r.Month()
		if !ok {
			return "", false
		}
		return m.String(), true
	case KeyCity:
		return r.City, true
	case KeyProductLine:
		return r.ProductLine, true
	case KeyPayment:
		return r.Payment, true
	}
	return "", false
}

func (m Measure) value(r core.SalesRecord) core.Amount {
	if m == MeasureRating {
		return r.Rating
	}
	return r.Total
}

// Group is one distinct key combination and the sum of its measure.
type Group struct {
	Keys  []string
	Sum   decimal.Decimal
	Count int
}

// Key returns the i-th key value, or "" when out of range.
func (g Group) Key(i int) string {
	if i < 0 || i >= len(g.Keys) {
		return ""
	}
	return g.Keys[i]
}

// Result holds groups in first-discovery order and their grand total.
type Result struct {
	Spec   Spec
	Groups []Group
	Total  decimal.Decimal
}

// Len returns the number of groups.
func (r Result) Len() int {
	return len(r.Groups)
}

// Lookup finds the group with exactly the given key values.
func (r Result) Lookup(keys ...string) (Group, bool) {
	for _, g := range r.Groups {
		if equalKeys(g.Keys, keys) {
			return g, true
		}
	}
	return Group{}, false
}

// Shares returns each group's percentage of the grand total, in group order.
// All shares are zero when the grand total is zero.
func (r Result) Shares() []float64 {
	out := make([]float64, len(r.Groups))
	if r.Total.IsZero() {
		return out
	}
	hundred := decimal.NewFromInt(100)
	for i, g := range r.Groups {
		out[i] = g.Sum.Mul(hundred).Div(r.Total).InexactFloat64()
	}
	return out
}

// Aggregate sums spec.Measure over records grouped by spec.Keys.
// Records with a missing measure are excluded, as are records without a
// date when any key is date based.
func Aggregate(records []core.SalesRecord, spec Spec) (Result, error) {
	if err := spec.Validate(); err != nil {
		return Result{}, err
	}

	res := Result{Spec: spec, Total: decimal.Zero}
	index := make(map[string]int)
	keys := make([]string, len(spec.Keys))

	for _, r := range records {
		v := spec.Measure.value(r)
		if !v.Valid {
			continue
		}
		ok := true
		for i, k := range spec.Keys {
			keys[i], ok = k.Value(r)
			if !ok {
				break
			}
		}
		if !ok {
			continue
		}

		id := strings.Join(keys, "\x00")
		pos, seen := index[id]
		if !seen {
			pos = len(res.Groups)
			index[id] = pos
			res.Groups = append(res.Groups, Group{
				Keys: append([]string(nil), keys...),
				Sum:  decimal.Zero,
			})
		}
		res.Groups[pos].Sum = res.Groups[pos].Sum.Add(v.Value)
		res.Groups[pos].Count++
		res.Total = res.Total.Add(v.Value)
	}
	return res, nil
}

// Distinct returns the values of key i in first-discovery order.
func (r Result) Distinct(i int) []string {
	var out []string
	seen := make(map[string]bool)
	for _, g := range r.Groups {
		v := g.Key(i)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
