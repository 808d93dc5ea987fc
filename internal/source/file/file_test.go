package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"vendas/internal/loader"
)

func TestSource_Records(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vendas.csv")
	data := "Date;City;Product line;Payment;Total;Rating\n01/05/2024;Yangon;Food;Cash;100,50;9\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(path, loader.DefaultOptions())
	table, err := s.Records(context.Background())
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if table.Len() != 1 || table.Records[0].Total.String() != "100.50" {
		t.Fatalf("unexpected table %+v", table)
	}
	if s.Name() != "file:"+path {
		t.Fatalf("unexpected name %q", s.Name())
	}

	if _, err := New(filepath.Join(dir, "nope.csv"), loader.DefaultOptions()).Records(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
