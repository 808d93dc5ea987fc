package backend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vendas/internal/config"
	"vendas/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		DataSource:        "sqlite",
		SQLiteDBPath:      "./x.db",
		SalesFile:         "dados/vendas.csv",
		SalesFileEncoding: "latin1",
	}
	bc, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if bc.Type != SQLiteSource || bc.SQLiteDBPath != "./x.db" || bc.Encoding != "latin1" {
		t.Errorf("unexpected config %+v", bc)
	}

	_, err = FromAppConfig(&config.Config{DataSource: "memory"})
	if err == nil || !strings.Contains(err.Error(), "must be one of [file sqlite sheets]") {
		t.Errorf("FromAppConfig(memory) = %v, want error listing valid sources", err)
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"file ok", Config{Type: FileSource, SalesFile: "a.csv"}, ""},
		{"file missing path", Config{Type: FileSource}, "sales file path is required"},
		{"sqlite missing path", Config{Type: SQLiteSource}, "SQLite database path is required"},
		{"sheets missing id", Config{Type: SheetsSource}, "Spreadsheet ID is required"},
		{"unknown", Config{Type: "ftp"}, "invalid source type: ftp (must be one of [file sqlite sheets])"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestFactory_FileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendas.csv")
	content := "Date;City;Product line;Payment;Total;Rating\n01/05/2024;Yangon;Food;Cash;100,50;9\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateSource(context.Background(), Config{Type: FileSource, SalesFile: path})
	if err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	defer res.Close()

	tbl, err := res.Source.Records(context.Background())
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if tbl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tbl.Len())
	}
	if !strings.HasPrefix(res.Source.Name(), "file:") {
		t.Errorf("Name() = %q", res.Source.Name())
	}

	_, err = NewFactory(nil).CreateSource(context.Background(), Config{Type: FileSource, SalesFile: path, Encoding: "ebcdic"})
	if err == nil {
		t.Error("expected error for unsupported encoding")
	}
}

func TestFactory_SQLiteSource(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "vendas.db")

	res, err := NewFactory(nil).CreateSource(context.Background(), Config{Type: SQLiteSource, SQLiteDBPath: dbPath})
	if err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	if _, ok := res.Source.(*storage.SQLiteRepository); !ok {
		t.Fatalf("unexpected source type %T", res.Source)
	}
	if err := res.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
