package services

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/smarttransit/route-planner/internal/models"
)

// ItineraryStore keeps planned itineraries for a limited time so clients can fetch them by ID
type ItineraryStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewItineraryStore creates a store whose entries expire after ttl
func NewItineraryStore(ttl time.Duration) *ItineraryStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ItineraryStore{
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Save stores a copy of the itinerary under its ID
func (s *ItineraryStore) Save(it models.Itinerary) {
	s.cache.Set(it.ID, it, cache.DefaultExpiration)
}

// Get returns the itinerary with the given ID if it has not expired
func (s *ItineraryStore) Get(id string) (models.Itinerary, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return models.Itinerary{}, false
	}
	it, ok := v.(models.Itinerary)
	return it, ok
}

// Count returns the number of stored itineraries, including expired ones not yet evicted
func (s *ItineraryStore) Count() int {
	return s.cache.ItemCount()
}

// TTL returns how long itineraries are kept
func (s *ItineraryStore) TTL() time.Duration {
	return s.ttl
}
