package backend

import (
	"context"

	"vendas/internal/source"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// SourceResult contains the record source and optional cleanup function
type SourceResult struct {
	Source  source.RecordSource
	Cleanup CleanupFunc
}

// Close runs the cleanup function, if any.
func (r *SourceResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates record sources based on configuration
type Factory interface {
	CreateSource(ctx context.Context, config Config) (*SourceResult, error)
}

// Config holds configuration for source creation
type Config struct {
	Type SourceType

	// File specific
	SalesFile string
	Encoding  string

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID string
	GoogleSheetRange    string
}

// SourceType represents where the sales table is read from
type SourceType string

const (
	FileSource   SourceType = "file"
	SQLiteSource SourceType = "sqlite"
	SheetsSource SourceType = "sheets"
)

// String implements fmt.Stringer
func (st SourceType) String() string {
	return string(st)
}

// IsValid returns true if the source type is valid
func (st SourceType) IsValid() bool {
	switch st {
	case FileSource, SQLiteSource, SheetsSource:
		return true
	default:
		return false
	}
}
