package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"vendas/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "vendas.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_EmptyHasNoSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.Records(context.Background()); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestSQLiteRepository_ReplaceSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	in := core.Table{Records: []core.SalesRecord{
		core.NormalizeRow("01/05/2024", "Yangon", "Health and beauty", "Ewallet", "100,50", "9,1"),
		core.NormalizeRow("bad", "Mandalay", "Food and beverages", "Cash", "abc", ""),
	}, Skipped: 2}
	if err := repo.ReplaceSnapshot(ctx, in, "file:vendas.csv"); err != nil {
		t.Fatalf("ReplaceSnapshot: %v", err)
	}

	out, err := repo.Records(ctx)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if out.Len() != 2 || out.Skipped != 2 {
		t.Fatalf("unexpected table: len=%d skipped=%d", out.Len(), out.Skipped)
	}
	first := out.Records[0]
	if !first.HasDate() || !first.Date.Equal(in.Records[0].Date) || first.City != "Yangon" || first.Total.String() != "100.50" || first.Rating.String() != "9.10" {
		t.Fatalf("unexpected first record %+v", first)
	}
	second := out.Records[1]
	if second.HasDate() || second.Total.Valid || second.Rating.Valid {
		t.Fatalf("missing fields must stay missing: %+v", second)
	}

	snap, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Origin != "file:vendas.csv" || snap.Records != 2 || snap.Skipped != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	// a second import replaces the rows instead of appending
	if err := repo.ReplaceSnapshot(ctx, core.Table{Records: in.Records[:1]}, "file:other.csv"); err != nil {
		t.Fatalf("ReplaceSnapshot: %v", err)
	}
	out, err = repo.Records(ctx)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if out.Len() != 1 || out.Skipped != 0 {
		t.Fatalf("expected replaced snapshot, got len=%d skipped=%d", out.Len(), out.Skipped)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendas.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	repo.Close()
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second RunMigrations: %v", err)
	}
}
