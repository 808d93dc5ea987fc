package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"vendas/internal/amqp"
	"vendas/internal/core"
	"vendas/internal/source"
)

// ReloadPublisher announces a new snapshot to running dashboards.
type ReloadPublisher interface {
	PublishDatasetReloaded(ctx context.Context, msg *amqp.DatasetReloadedMessage) error
}

// ImportResult summarizes one import.
type ImportResult struct {
	Origin    string
	Published bool
	core.Stats
}

// ImportService copies a record source into the snapshot store and
// announces the change.
type ImportService struct {
	from      source.RecordSource
	to        source.SnapshotWriter
	publisher ReloadPublisher
}

// NewImportService wires an import. publisher may be nil.
func NewImportService(from source.RecordSource, to source.SnapshotWriter, publisher ReloadPublisher) *ImportService {
	return &ImportService{from: from, to: to, publisher: publisher}
}

// Import loads the source, replaces the snapshot and publishes a reload
// message. A failed publish is logged; the snapshot is already stored.
func (s *ImportService) Import(ctx context.Context) (ImportResult, error) {
	if s.from == nil || s.to == nil {
		return ImportResult{}, errors.New("import service not configured")
	}
	table, err := s.from.Records(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("load %s: %w", s.from.Name(), err)
	}

	origin := s.from.Name()
	if err := s.to.ReplaceSnapshot(ctx, table, origin); err != nil {
		return ImportResult{}, fmt.Errorf("replace snapshot: %w", err)
	}

	res := ImportResult{Origin: origin, Stats: table.Stats()}
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping reload message")
		return res, nil
	}
	msg := amqp.NewDatasetReloadedMessage(origin, table.Len(), table.Skipped)
	if err := s.publisher.PublishDatasetReloaded(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish reload message", "origin", origin, "error", err)
		return res, nil
	}
	res.Published = true
	return res, nil
}
