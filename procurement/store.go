/*
store.go - Persistence interfaces for the procurement domain

PURPOSE:
  Defines the interface between the domain and the database. Every read
  returns a snapshot (deep copy); every write takes a snapshot. The
  engine never mutates stored state directly - the calling layer owns the
  read-modify-write cycle.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - store/memory: in-memory store for tests and dev
*/
package procurement

import "context"

// TeamStore persists providers with their embedded orders and payments.
type TeamStore interface {
	// SaveProvider inserts or replaces a provider snapshot.
	SaveProvider(ctx context.Context, p Provider) error

	// GetProvider returns a snapshot, or engine.ErrProviderNotFound.
	GetProvider(ctx context.Context, id ProviderID) (Provider, error)

	// ListProviders returns all providers, ordered by surname then name.
	ListProviders(ctx context.Context) ([]Provider, error)

	// DeleteProvider removes a provider and their consumption records.
	DeleteProvider(ctx context.Context, id ProviderID) error
}

// CatalogStore persists the unit-price catalog.
type CatalogStore interface {
	GetCatalog(ctx context.Context) (Catalog, error)
	SaveCatalog(ctx context.Context, c Catalog) error
}

// ConsumptionStore persists per-provider consumption histories.
type ConsumptionStore interface {
	GetHistory(ctx context.Context, id ProviderID) (ConsumptionHistory, error)
	SaveHistory(ctx context.Context, id ProviderID, h ConsumptionHistory) error
	ListHistories(ctx context.Context) (ConsumptionByProvider, error)
}

// Store is the full persistence surface the API layer depends on.
type Store interface {
	TeamStore
	CatalogStore
	ConsumptionStore
}
