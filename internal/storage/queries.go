package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type SalesRecord struct {
	ID          int64
	SaleDate    sql.NullString
	City        string
	ProductLine string
	Payment     string
	Total       sql.NullString
	Rating      sql.NullString
}

type Snapshot struct {
	Origin     string
	Records    int64
	Skipped    int64
	ImportedAt time.Time
}

const deleteSalesRecords = `DELETE FROM sales_records`

func (q *Queries) DeleteSalesRecords(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteSalesRecords)
	return err
}

const createSalesRecord = `INSERT INTO sales_records (sale_date, city, product_line, payment, total, rating)
VALUES (?, ?, ?, ?, ?, ?)`

type CreateSalesRecordParams struct {
	SaleDate    sql.NullString
	City        string
	ProductLine string
	Payment     string
	Total       sql.NullString
	Rating      sql.NullString
}

func (q *Queries) CreateSalesRecord(ctx context.Context, arg CreateSalesRecordParams) error {
	_, err := q.db.ExecContext(ctx, createSalesRecord,
		arg.SaleDate,
		arg.City,
		arg.ProductLine,
		arg.Payment,
		arg.Total,
		arg.Rating,
	)
	return err
}

const listSalesRecords = `SELECT id, sale_date, city, product_line, payment, total, rating
FROM sales_records
ORDER BY id`

func (q *Queries) ListSalesRecords(ctx context.Context) ([]SalesRecord, error) {
	rows, err := q.db.QueryContext(ctx, listSalesRecords)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SalesRecord
	for rows.Next() {
		var i SalesRecord
		if err := rows.Scan(
			&i.ID,
			&i.SaleDate,
			&i.City,
			&i.ProductLine,
			&i.Payment,
			&i.Total,
			&i.Rating,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertSnapshot = `INSERT INTO snapshots (id, origin, records, skipped, imported_at)
VALUES (1, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    origin = excluded.origin,
    records = excluded.records,
    skipped = excluded.skipped,
    imported_at = excluded.imported_at`

type UpsertSnapshotParams struct {
	Origin     string
	Records    int64
	Skipped    int64
	ImportedAt time.Time
}

func (q *Queries) UpsertSnapshot(ctx context.Context, arg UpsertSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, upsertSnapshot,
		arg.Origin,
		arg.Records,
		arg.Skipped,
		arg.ImportedAt,
	)
	return err
}

const getSnapshot = `SELECT origin, records, skipped, imported_at FROM snapshots WHERE id = 1`

func (q *Queries) GetSnapshot(ctx context.Context) (Snapshot, error) {
	row := q.db.QueryRowContext(ctx, getSnapshot)
	var i Snapshot
	err := row.Scan(
		&i.Origin,
		&i.Records,
		&i.Skipped,
		&i.ImportedAt,
	)
	return i, err
}
