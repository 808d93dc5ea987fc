// Package source defines where the sales table comes from.
package source

import (
	"context"

	"vendas/internal/core"
)

// Ports for record sources and snapshot sinks.
type (
	// RecordSource loads the full sales table. Each call reads the
	// underlying source again.
	RecordSource interface {
		Records(ctx context.Context) (core.Table, error)
		// Name identifies the source in logs and reload notifications.
		Name() string
	}

	// SnapshotWriter replaces a stored copy of the sales table.
	SnapshotWriter interface {
		ReplaceSnapshot(ctx context.Context, t core.Table, origin string) error
	}
)
