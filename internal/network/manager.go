package network

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/smarttransit/route-planner/internal/models"
)

// LoadTimeout bounds one shared load of the schedule store
const LoadTimeout = 2 * time.Minute

// ScheduleStore is the read-only source of stops and lines
type ScheduleStore interface {
	ListStops(ctx context.Context) ([]models.Stop, error)
	ListLines(ctx context.Context) ([]models.Line, error)
}

// Manager owns the published network snapshot.
// Readers never block on a reload: a new snapshot is built off to the side
// and published with a single pointer swap.
type Manager struct {
	store   ScheduleStore
	source  string
	opts    BuildOptions
	logger  *logrus.Logger
	current atomic.Pointer[Snapshot]
	group   singleflight.Group
	reloads atomic.Int64
}

// NewManager creates a new Manager. source labels the store in status output.
func NewManager(store ScheduleStore, source string, opts BuildOptions, logger *logrus.Logger) *Manager {
	return &Manager{
		store:  store,
		source: source,
		opts:   opts,
		logger: logger,
	}
}

// Current returns the published snapshot, loading it on first use
func (m *Manager) Current(ctx context.Context) (*Snapshot, error) {
	if snap := m.current.Load(); snap != nil {
		return snap, nil
	}
	return m.Reload(ctx)
}

// Snapshot returns the published snapshot without triggering a load
func (m *Manager) Snapshot() (*Snapshot, bool) {
	snap := m.current.Load()
	return snap, snap != nil
}

// Load fetches stops and lines, builds a snapshot and publishes it.
// On failure the previously published snapshot stays in effect.
func (m *Manager) Load(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	stops, err := m.store.ListStops(ctx)
	if err != nil {
		return nil, m.loadFailed(fmt.Errorf("error listing stops: %v: %w", err, models.ErrDataUnavailable))
	}
	lines, err := m.store.ListLines(ctx)
	if err != nil {
		return nil, m.loadFailed(fmt.Errorf("error listing lines: %v: %w", err, models.ErrDataUnavailable))
	}

	snap, err := Build(stops, lines, m.opts)
	if err != nil {
		return nil, m.loadFailed(err)
	}
	snap.Version = uuid.NewString()
	snap.Source = m.source
	snap.LoadedAt = time.Now()
	snap.LoadDuration = time.Since(start)

	m.current.Store(snap)
	m.reloads.Add(1)

	status := snap.Status()
	m.logger.WithFields(logrus.Fields{
		"version":     status.Version,
		"source":      status.Source,
		"stops":       status.StopCount,
		"lines":       status.LineCount,
		"edges":       status.EdgeCount,
		"walk_edges":  status.WalkEdges,
		"duration_ms": status.LoadTimeMs,
	}).Info("Network snapshot published")

	return snap, nil
}

// Reload rebuilds and publishes the network. Concurrent callers share one load,
// which runs detached from any single caller's context and is bounded by
// LoadTimeout. A caller whose context ends stops waiting; the load carries on.
func (m *Manager) Reload(ctx context.Context) (*Snapshot, error) {
	ch := m.group.DoChan("load", func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), LoadTimeout)
		defer cancel()
		return m.Load(loadCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

// LoadCount returns how many snapshots have been published
func (m *Manager) LoadCount() int64 {
	return m.reloads.Load()
}

func (m *Manager) loadFailed(err error) error {
	entry := m.logger.WithError(err)
	if prev := m.current.Load(); prev != nil {
		entry.WithField("version", prev.Version).Warn("Network load failed, keeping previous snapshot")
	} else {
		entry.Error("Network load failed, no snapshot available")
	}
	if !errors.Is(err, models.ErrDataUnavailable) {
		return fmt.Errorf("%v: %w", err, models.ErrDataUnavailable)
	}
	return err
}
