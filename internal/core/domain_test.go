package core

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeRow(t *testing.T) {
	r := NormalizeRow("01/05/2024", " Yangon ", "Health and beauty", "Ewallet", "100,50", "9,1")
	if !r.HasDate() || r.City != "Yangon" || r.Total.String() != "100.50" || r.Rating.String() != "9.10" {
		t.Fatalf("unexpected record: %+v", r)
	}
	m, ok := r.Month()
	if !ok || m.String() != "2024-01" {
		t.Fatalf("unexpected month: %v ok=%v", m, ok)
	}

	bad := NormalizeRow("2024/01/05", "Mandalay", "Food", "Cash", "abc", "")
	if bad.HasDate() || bad.Total.Valid || bad.Rating.Valid {
		t.Fatalf("expected missing fields, got %+v", bad)
	}
	if _, ok := bad.Month(); ok {
		t.Fatalf("missing date must not yield a month")
	}
	if _, ok := bad.Week(); ok {
		t.Fatalf("missing date must not yield a week")
	}
}

func TestMonthParseAndFormat(t *testing.T) {
	m, err := ParseMonth("2024-03")
	if err != nil {
		t.Fatalf("ParseMonth: %v", err)
	}
	if m.Year != 2024 || m.Month != time.March || m.String() != "2024-03" {
		t.Fatalf("unexpected month %+v", m)
	}
	if m.Next().String() != "2024-04" {
		t.Fatalf("Next = %s", m.Next())
	}
	if (Month{Year: 2024, Month: time.December}).Next().String() != "2025-01" {
		t.Fatalf("year rollover failed")
	}
	if !m.Before(m.Next()) || m.Next().Before(m) {
		t.Fatalf("Before ordering wrong")
	}
	for _, bad := range []string{"", "2024-13", "03/2024", "abc"} {
		if _, err := ParseMonth(bad); err == nil {
			t.Fatalf("ParseMonth(%q) expected error", bad)
		}
	}
}

func TestWeekStart(t *testing.T) {
	cases := []struct {
		in, want time.Time
	}{
		{date(2024, 1, 5), date(2024, 1, 1)},   // Friday
		{date(2024, 1, 1), date(2024, 1, 1)},   // Monday
		{date(2024, 1, 7), date(2024, 1, 1)},   // Sunday
		{date(2024, 3, 2), date(2024, 2, 26)},  // crosses month
		{date(2023, 1, 1), date(2022, 12, 26)}, // crosses year
	}
	for _, tc := range cases {
		if got := WeekStart(tc.in); !got.Equal(tc.want) {
			t.Fatalf("WeekStart(%s) = %s, want %s", tc.in.Format("2006-01-02"), got.Format("2006-01-02"), tc.want.Format("2006-01-02"))
		}
	}
}

func TestNormalizeRow_FirstDayOfYearOne(t *testing.T) {
	r := NormalizeRow("01/01/0001", "Yangon", "Food", "Cash", "10", "5")
	if !r.HasDate() {
		t.Fatalf("01/01/0001 parses and must count as dated: %+v", r)
	}
	m, ok := r.Month()
	if !ok || m != (Month{Year: 1, Month: time.January}) {
		t.Fatalf("unexpected month %v ok=%v", m, ok)
	}
	if st := (Table{Records: []SalesRecord{r}}).Stats(); st.MissingDate != 0 {
		t.Fatalf("MissingDate = %d, want 0", st.MissingDate)
	}
}

func TestTableDateRangeAndStats(t *testing.T) {
	empty := Table{}
	if _, _, ok := empty.DateRange(); ok {
		t.Fatalf("empty table must not report a range")
	}

	tbl := Table{Records: []SalesRecord{
		NormalizeRow("03/02/2024", "A", "P", "Cash", "1", "1"),
		NormalizeRow("bad", "A", "P", "Cash", "x", "1"),
		NormalizeRow("01/15/2024", "B", "P", "Cash", "2,5", ""),
	}, Skipped: 1}
	min, max, ok := tbl.DateRange()
	if !ok || !min.Equal(date(2024, 1, 15)) || !max.Equal(date(2024, 3, 2)) {
		t.Fatalf("unexpected range %v %v %v", min, max, ok)
	}
	if tbl.RevenueTotal().String() != "3.5" {
		t.Fatalf("RevenueTotal = %s", tbl.RevenueTotal())
	}
	st := tbl.Stats()
	if st.Records != 3 || st.Skipped != 1 || st.MissingDate != 1 || st.MissingTotal != 1 || st.MissingRating != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}
