package worker

import (
	"context"
	"fmt"
	"log/slog"

	"vendas/internal/amqp"
	"vendas/internal/services"
)

// DatasetLoader is the part of services.DatasetService the worker drives.
type DatasetLoader interface {
	Load(ctx context.Context) (services.Status, error)
	Status() services.Status
}

// ReloadWorker reloads the served table when a new snapshot is announced.
type ReloadWorker struct {
	dataset DatasetLoader
}

func NewReloadWorker(dataset DatasetLoader) *ReloadWorker {
	return &ReloadWorker{dataset: dataset}
}

// HandleReloadMessage reloads unless the message predates the table already
// served. A returned error makes the consumer requeue the message.
func (w *ReloadWorker) HandleReloadMessage(ctx context.Context, msg *amqp.DatasetReloadedMessage) error {
	slog.InfoContext(ctx, "Processing dataset reloaded message",
		"source", msg.Source,
		"records", msg.Records,
		"timestamp", msg.Timestamp)

	current := w.dataset.Status()
	if current.Loaded && !msg.Timestamp.IsZero() && msg.Timestamp.Before(current.LoadedAt) {
		slog.InfoContext(ctx, "Skipping stale reload message",
			"message_time", msg.Timestamp,
			"loaded_at", current.LoadedAt)
		return nil
	}

	st, err := w.dataset.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload dataset: %w", err)
	}
	if msg.Records > 0 && st.Records != msg.Records {
		slog.WarnContext(ctx, "Reloaded record count differs from announcement",
			"announced", msg.Records,
			"loaded", st.Records,
			"source", st.Source)
	}
	return nil
}

// Reload is the scheduled variant of HandleReloadMessage.
func (w *ReloadWorker) Reload(ctx context.Context) error {
	st, err := w.dataset.Load(ctx)
	if err != nil {
		return fmt.Errorf("scheduled reload: %w", err)
	}
	slog.InfoContext(ctx, "Scheduled reload complete", "records", st.Records, "version", st.Version)
	return nil
}
