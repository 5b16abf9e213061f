// Package memory provides an in-memory procurement.Store for tests and dev.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/warp/procurement-engine/engine"
	"github.com/warp/procurement-engine/procurement"
)

// Store keeps everything in maps behind a RWMutex. Reads and writes
// exchange deep copies so callers never share state with the store.
type Store struct {
	mu          sync.RWMutex
	providers   map[procurement.ProviderID]procurement.Provider
	catalog     procurement.Catalog
	consumption map[procurement.ProviderID]procurement.ConsumptionHistory
}

func New() *Store {
	return &Store{
		providers:   make(map[procurement.ProviderID]procurement.Provider),
		catalog:     procurement.NewCatalog(),
		consumption: make(map[procurement.ProviderID]procurement.ConsumptionHistory),
	}
}

// =============================================================================
// TEAM STORE
// =============================================================================

func (s *Store) SaveProvider(_ context.Context, p procurement.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[p.ID] = p.Clone()
	return nil
}

func (s *Store) GetProvider(_ context.Context, id procurement.ProviderID) (procurement.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.providers[id]
	if !ok {
		return procurement.Provider{}, engine.ErrProviderNotFound
	}
	return p.Clone(), nil
}

func (s *Store) ListProviders(_ context.Context) ([]procurement.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]procurement.Provider, 0, len(s.providers))
	for _, p := range s.providers {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := strings.ToUpper(out[i].Surname), strings.ToUpper(out[j].Surname)
		if si != sj {
			return si < sj
		}
		return out[i].GivenName < out[j].GivenName
	})
	return out, nil
}

func (s *Store) DeleteProvider(_ context.Context, id procurement.ProviderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.providers[id]; !ok {
		return engine.ErrProviderNotFound
	}
	delete(s.providers, id)
	delete(s.consumption, id)
	return nil
}

// =============================================================================
// CATALOG STORE
// =============================================================================

func (s *Store) GetCatalog(_ context.Context) (procurement.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Clone(), nil
}

func (s *Store) SaveCatalog(_ context.Context, c procurement.Catalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = c.Clone()
	return nil
}

// =============================================================================
// CONSUMPTION STORE
// =============================================================================

func (s *Store) GetHistory(_ context.Context, id procurement.ProviderID) (procurement.ConsumptionHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.consumption[id]
	if !ok {
		return procurement.NewConsumptionHistory(), nil
	}
	return h.Clone(), nil
}

func (s *Store) SaveHistory(_ context.Context, id procurement.ProviderID, h procurement.ConsumptionHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consumption[id] = h.Clone()
	return nil
}

func (s *Store) ListHistories(_ context.Context) (procurement.ConsumptionByProvider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(procurement.ConsumptionByProvider, len(s.consumption))
	for id, h := range s.consumption {
		out[id] = h.Clone()
	}
	return out, nil
}
