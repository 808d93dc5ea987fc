package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"vendas/internal/core"
	"vendas/internal/source"

	_ "modernc.org/sqlite"
)

// storedDateLayout is how sale dates are kept in the sale_date column.
const storedDateLayout = "2006-01-02"

// ErrNoSnapshot is returned when nothing has been imported yet.
var ErrNoSnapshot = errors.New("no sales snapshot imported")

var (
	_ source.RecordSource   = (*SQLiteRepository)(nil)
	_ source.SnapshotWriter = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	path    string
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		path:    dbPath,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Name() string {
	return "sqlite:" + r.path
}

// ReplaceSnapshot implements source.SnapshotWriter. The previous rows are
// removed and t is written in a single transaction.
func (r *SQLiteRepository) ReplaceSnapshot(ctx context.Context, t core.Table, origin string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.DeleteSalesRecords(ctx); err != nil {
		return fmt.Errorf("delete sales records: %w", err)
	}
	for i, rec := range t.Records {
		if err := q.CreateSalesRecord(ctx, toParams(rec)); err != nil {
			return fmt.Errorf("insert sales record %d: %w", i+1, err)
		}
	}
	if err := q.UpsertSnapshot(ctx, UpsertSnapshotParams{
		Origin:     origin,
		Records:    int64(t.Len()),
		Skipped:    int64(t.Skipped),
		ImportedAt: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Sales snapshot replaced",
		"origin", origin,
		"records", t.Len(),
		"skipped", t.Skipped)
	return nil
}

// Records implements source.RecordSource.
func (r *SQLiteRepository) Records(ctx context.Context) (core.Table, error) {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return core.Table{}, err
	}
	rows, err := r.queries.ListSalesRecords(ctx)
	if err != nil {
		return core.Table{}, fmt.Errorf("list sales records: %w", err)
	}
	t := core.Table{Records: make([]core.SalesRecord, len(rows)), Skipped: int(snap.Skipped)}
	for i, row := range rows {
		t.Records[i] = fromRow(row)
	}
	return t, nil
}

// Snapshot returns metadata of the last import.
func (r *SQLiteRepository) Snapshot(ctx context.Context) (Snapshot, error) {
	snap, err := r.queries.GetSnapshot(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, nil
}

func toParams(rec core.SalesRecord) CreateSalesRecordParams {
	p := CreateSalesRecordParams{
		City:        rec.City,
		ProductLine: rec.ProductLine,
		Payment:     rec.Payment,
		Total:       nullAmount(rec.Total),
		Rating:      nullAmount(rec.Rating),
	}
	if rec.HasDate() {
		p.SaleDate = sql.NullString{String: rec.Date.Format(storedDateLayout), Valid: true}
	}
	return p
}

func nullAmount(a core.Amount) sql.NullString {
	if !a.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: a.Value.String(), Valid: true}
}

func fromRow(row SalesRecord) core.SalesRecord {
	rec := core.SalesRecord{
		City:        row.City,
		ProductLine: row.ProductLine,
		Payment:     row.Payment,
	}
	if row.SaleDate.Valid {
		if d, err := time.Parse(storedDateLayout, row.SaleDate.String); err == nil {
			rec.Date, rec.DateValid = d, true
		}
	}
	if row.Total.Valid {
		rec.Total = core.CoerceAmount(row.Total.String)
	}
	if row.Rating.Valid {
		rec.Rating = core.CoerceAmount(row.Rating.String)
	}
	return rec
}
