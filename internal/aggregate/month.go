package aggregate

import (
	"vendas/internal/core"
)

// MonthOptions lists every month from the earliest to the latest record date,
// inclusive. A table without dated records yields nil.
func MonthOptions(t core.Table) []core.Month {
	min, max, ok := t.DateRange()
	if !ok {
		return nil
	}
	last := core.MonthOf(max)
	var out []core.Month
	for m := core.MonthOf(min); !last.Before(m); m = m.Next() {
		out = append(out, m)
	}
	return out
}

// MonthLabels formats options as "YYYY-MM".
func MonthLabels(months []core.Month) []string {
	out := make([]string, len(months))
	for i, m := range months {
		out[i] = m.String()
	}
	return out
}

// FilterMonth returns the records whose month bucket equals m.
// Records without a date never match.
func FilterMonth(t core.Table, m core.Month) core.Table {
	out := core.Table{}
	for _, r := range t.Records {
		if rm, ok := r.Month(); ok && rm == m {
			out.Records = append(out.Records, r)
		}
	}
	return out
}

// SelectMonth returns want when it is one of options, otherwise the first
// option. ok is false when want was not honoured.
func SelectMonth(options []core.Month, want core.Month) (core.Month, bool) {
	if len(options) == 0 {
		return core.Month{}, want.IsZero()
	}
	for _, m := range options {
		if m == want {
			return m, true
		}
	}
	return options[0], want.IsZero()
}
