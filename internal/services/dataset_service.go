// Package services orchestrates loading the sales table and serving dashboards.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"vendas/internal/aggregate"
	"vendas/internal/cache"
	"vendas/internal/charts"
	"vendas/internal/core"
	"vendas/internal/source"
)

// ErrNotLoaded is returned before the first successful load.
var ErrNotLoaded = errors.New("sales data not loaded")

// Status describes the table currently served.
type Status struct {
	Loaded   bool      `json:"loaded"`
	Source   string    `json:"source"`
	Version  uint64    `json:"version"`
	LoadedAt time.Time `json:"loaded_at"`
	core.Stats
}

type snapshot struct {
	table  core.Table
	status Status
}

// DatasetService holds the immutable table and a cache of built dashboards.
// A reload swaps the table atomically; requests in flight keep the table
// they started with.
type DatasetService struct {
	source     source.RecordSource
	dashboards cache.Cache[charts.Dashboard]
	current    atomic.Pointer[snapshot]
	version    atomic.Uint64
	group      singleflight.Group
	now        func() time.Time
}

func NewDatasetService(src source.RecordSource, dashboards cache.Cache[charts.Dashboard]) *DatasetService {
	return &DatasetService{source: src, dashboards: dashboards, now: time.Now}
}

// Load reads the source and replaces the served table. Concurrent calls share
// one read. On failure the previous table stays in place.
func (s *DatasetService) Load(ctx context.Context) (Status, error) {
	v, err, shared := s.group.Do("load", func() (interface{}, error) {
		start := s.now()
		table, err := s.source.Records(ctx)
		if err != nil {
			return Status{}, fmt.Errorf("load %s: %w", s.source.Name(), err)
		}

		st := Status{
			Loaded:   true,
			Source:   s.source.Name(),
			Version:  s.version.Add(1),
			LoadedAt: s.now(),
			Stats:    table.Stats(),
		}
		s.current.Store(&snapshot{table: table, status: st})
		if s.dashboards != nil {
			s.dashboards.Purge()
		}

		slog.InfoContext(ctx, "Sales data loaded",
			"source", st.Source,
			"records", st.Records,
			"skipped", st.Skipped,
			"missing_date", st.MissingDate,
			"missing_total", st.MissingTotal,
			"version", st.Version,
			"duration", s.now().Sub(start))
		return st, nil
	})
	if err != nil {
		return Status{}, err
	}
	if shared {
		slog.DebugContext(ctx, "Joined in-flight sales data load")
	}
	return v.(Status), nil
}

// Status reports the served table. Loaded is false before the first load.
func (s *DatasetService) Status() Status {
	snap := s.current.Load()
	if snap == nil {
		return Status{Source: s.source.Name()}
	}
	return snap.status
}

// Ready reports whether a table has been loaded.
func (s *DatasetService) Ready() bool {
	return s.current.Load() != nil
}

// Months lists the selectable months of the served table.
func (s *DatasetService) Months() ([]core.Month, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return aggregate.MonthOptions(snap.table), nil
}

// Dashboard returns the dashboard for month and view, building it at most
// once per table version.
func (s *DatasetService) Dashboard(ctx context.Context, month core.Month, view charts.View) (charts.Dashboard, error) {
	snap := s.current.Load()
	if snap == nil {
		return charts.Dashboard{}, ErrNotLoaded
	}

	key := fmt.Sprintf("%d|%s|%s", snap.status.Version, month, view)
	if s.dashboards != nil {
		if d, ok := s.dashboards.Get(key); ok {
			return d, nil
		}
	}

	v, err, _ := s.group.Do("dashboard:"+key, func() (interface{}, error) {
		d, err := charts.Build(snap.table, month, view)
		if err != nil {
			return charts.Dashboard{}, err
		}
		if s.dashboards != nil {
			s.dashboards.Set(key, d)
		}
		return d, nil
	})
	if err != nil {
		return charts.Dashboard{}, fmt.Errorf("build dashboard %s/%s: %w", month, view, err)
	}
	return v.(charts.Dashboard), nil
}
