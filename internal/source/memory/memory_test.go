package memory

import (
	"context"
	"errors"
	"testing"

	"vendas/internal/core"
)

func TestStore_RecordsReplaceAndFail(t *testing.T) {
	ctx := context.Background()
	s := New(core.Table{Records: []core.SalesRecord{
		core.NormalizeRow("01/05/2024", "Yangon", "Food", "Cash", "10", "5"),
	}})

	got, err := s.Records(ctx)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if got.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", got.Len())
	}
	got.Records[0].City = "changed"
	again, _ := s.Records(ctx)
	if again.Records[0].City != "Yangon" {
		t.Fatalf("Records must return a copy")
	}

	if err := s.ReplaceSnapshot(ctx, core.Table{}, "file:x.csv"); err != nil {
		t.Fatalf("ReplaceSnapshot: %v", err)
	}
	if s.Name() != "file:x.csv" {
		t.Fatalf("unexpected name %q", s.Name())
	}

	boom := errors.New("boom")
	s.Fail(boom)
	if _, err := s.Records(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if s.Loads() != 3 {
		t.Fatalf("expected 3 loads, got %d", s.Loads())
	}
}
