package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/smarttransit/route-planner/internal/models"
	"github.com/smarttransit/route-planner/internal/network"
)

// NetworkController is the part of the network manager the service needs
type NetworkController interface {
	Snapshot() (*network.Snapshot, bool)
	Reload(ctx context.Context) (*network.Snapshot, error)
	LoadCount() int64
}

// NetworkService reports on and reloads the published network
type NetworkService struct {
	manager NetworkController
	store   *ItineraryStore
	logger  *logrus.Logger
}

// NewNetworkService creates a new network service
func NewNetworkService(manager NetworkController, store *ItineraryStore, logger *logrus.Logger) *NetworkService {
	return &NetworkService{
		manager: manager,
		store:   store,
		logger:  logger,
	}
}

// Status describes the published snapshot without triggering a load
func (s *NetworkService) Status() models.NetworkStatus {
	snap, ok := s.manager.Snapshot()
	if !ok {
		return s.withCounters(models.NetworkStatus{Loaded: false})
	}
	return s.withCounters(snap.Status())
}

func (s *NetworkService) withCounters(status models.NetworkStatus) models.NetworkStatus {
	status.ReloadCount = s.manager.LoadCount()
	if s.store != nil {
		status.ItineraryTTLSeconds = int64(s.store.TTL().Seconds())
	}
	return status
}

// StoredItineraries returns how many itineraries are currently retrievable by ID
func (s *NetworkService) StoredItineraries() int {
	if s.store == nil {
		return 0
	}
	return s.store.Count()
}

// Reload rebuilds the network from the schedule store and publishes it.
// On failure the previous snapshot stays in service.
func (s *NetworkService) Reload(ctx context.Context) (models.NetworkStatus, error) {
	snap, err := s.manager.Reload(ctx)
	if err != nil {
		return s.Status(), fmt.Errorf("error reloading network: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"version": snap.Version,
		"stops":   len(snap.Stops()),
	}).Info("Network reloaded")

	return s.withCounters(snap.Status()), nil
}
