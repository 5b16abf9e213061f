/*
Package sqlite provides the SQLite-backed procurement.Store.

PURPOSE:
  Persists providers (with embedded orders and payments), the unit-price
  catalog and per-provider consumption records.

KEY TABLES:
  providers:   One row per contractor; orders and payments as JSON
  catalog:     Single row holding prices and the tax rate
  consumption: One row per (provider, period) consumed-day count

STORAGE SHAPES:
  Orders and payments live inside the provider row as a JSON document.
  They are only ever read and written through the provider snapshot, so
  a relational split would buy nothing. Consumption is relational
  because imports rewrite period ranges selectively.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/procurement.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - procurement/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/procurement-engine/engine"
	"github.com/warp/procurement-engine/procurement"
)

// Store implements procurement.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS providers (
		id TEXT PRIMARY KEY,
		surname TEXT NOT NULL,
		given_name TEXT NOT NULL,
		company TEXT NOT NULL DEFAULT '',
		attendance_pct TEXT NOT NULL,
		orders_json TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_providers_surname
		ON providers(surname, given_name);

	-- Single-row table; id is pinned to 1.
	CREATE TABLE IF NOT EXISTS catalog (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		prices_json TEXT NOT NULL DEFAULT '{}',
		tax_rate_pct TEXT NOT NULL DEFAULT '20',
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS consumption (
		provider_id TEXT NOT NULL,
		period TEXT NOT NULL,
		days TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (provider_id, period),
		FOREIGN KEY (provider_id) REFERENCES providers(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_consumption_provider
		ON consumption(provider_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TEAM STORE (procurement.TeamStore interface)
// =============================================================================

// SaveProvider inserts or replaces a provider snapshot.
func (s *Store) SaveProvider(ctx context.Context, p procurement.Provider) error {
	ordersJSON, err := json.Marshal(p.Orders)
	if err != nil {
		return fmt.Errorf("failed to encode orders: %w", err)
	}

	query := `
		INSERT INTO providers (id, surname, given_name, company, attendance_pct, orders_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			surname = excluded.surname,
			given_name = excluded.given_name,
			company = excluded.company,
			attendance_pct = excluded.attendance_pct,
			orders_json = excluded.orders_json,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, query,
		string(p.ID), p.Surname, p.GivenName, p.Company,
		p.AttendancePct.String(), string(ordersJSON), now, now,
	)
	return err
}

// GetProvider returns a provider snapshot, or engine.ErrProviderNotFound.
func (s *Store) GetProvider(ctx context.Context, id procurement.ProviderID) (procurement.Provider, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, surname, given_name, company, attendance_pct, orders_json FROM providers WHERE id = ?",
		string(id),
	)

	p, err := scanProvider(row)
	if err == sql.ErrNoRows {
		return procurement.Provider{}, engine.ErrProviderNotFound
	}
	return p, err
}

// ListProviders returns all providers ordered by surname then given name.
func (s *Store) ListProviders(ctx context.Context) ([]procurement.Provider, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, surname, given_name, company, attendance_pct, orders_json FROM providers ORDER BY surname, given_name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []procurement.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

// DeleteProvider removes a provider; consumption rows cascade.
func (s *Store) DeleteProvider(ctx context.Context, id procurement.ProviderID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM providers WHERE id = ?", string(id))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return engine.ErrProviderNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProvider(row rowScanner) (procurement.Provider, error) {
	var (
		p             procurement.Provider
		id            string
		attendancePct string
		ordersJSON    string
	)

	if err := row.Scan(&id, &p.Surname, &p.GivenName, &p.Company, &attendancePct, &ordersJSON); err != nil {
		return p, err
	}

	p.ID = procurement.ProviderID(id)
	p.AttendancePct = engine.MustParseDecimal(attendancePct)
	if err := json.Unmarshal([]byte(ordersJSON), &p.Orders); err != nil {
		return p, fmt.Errorf("failed to decode orders for provider %s: %w", id, err)
	}
	return p, nil
}

// =============================================================================
// CATALOG STORE (procurement.CatalogStore interface)
// =============================================================================

// GetCatalog returns the catalog; an empty catalog if none was saved yet.
func (s *Store) GetCatalog(ctx context.Context) (procurement.Catalog, error) {
	var pricesJSON, taxRate string
	err := s.db.QueryRowContext(ctx,
		"SELECT prices_json, tax_rate_pct FROM catalog WHERE id = 1",
	).Scan(&pricesJSON, &taxRate)

	if err == sql.ErrNoRows {
		return procurement.NewCatalog(), nil
	}
	if err != nil {
		return procurement.Catalog{}, err
	}

	c := procurement.NewCatalog()
	c.TaxRatePct = engine.MustParseDecimal(taxRate)
	if err := json.Unmarshal([]byte(pricesJSON), &c.Prices); err != nil {
		return procurement.Catalog{}, fmt.Errorf("failed to decode catalog prices: %w", err)
	}
	return c, nil
}

// SaveCatalog replaces the catalog.
func (s *Store) SaveCatalog(ctx context.Context, c procurement.Catalog) error {
	pricesJSON, err := json.Marshal(c.Prices)
	if err != nil {
		return fmt.Errorf("failed to encode catalog prices: %w", err)
	}

	query := `
		INSERT INTO catalog (id, prices_json, tax_rate_pct, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			prices_json = excluded.prices_json,
			tax_rate_pct = excluded.tax_rate_pct,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		string(pricesJSON), c.TaxRatePct.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// =============================================================================
// CONSUMPTION STORE (procurement.ConsumptionStore interface)
// =============================================================================

// GetHistory returns a provider's consumption history; empty if none.
func (s *Store) GetHistory(ctx context.Context, id procurement.ProviderID) (procurement.ConsumptionHistory, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT period, days FROM consumption WHERE provider_id = ?",
		string(id),
	)
	if err != nil {
		return procurement.ConsumptionHistory{}, err
	}
	defer rows.Close()

	h := procurement.NewConsumptionHistory()
	for rows.Next() {
		period, days, err := scanConsumptionRow(rows)
		if err != nil {
			return procurement.ConsumptionHistory{}, err
		}
		h.Periods[period] = days
	}
	return h, rows.Err()
}

// SaveHistory replaces a provider's consumption rows atomically.
func (s *Store) SaveHistory(ctx context.Context, id procurement.ProviderID, h procurement.ConsumptionHistory) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM consumption WHERE provider_id = ?", string(id)); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for period, days := range h.Periods {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO consumption (provider_id, period, days, updated_at) VALUES (?, ?, ?, ?)",
			string(id), period.String(), days.Value.String(), now,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListHistories returns every provider's consumption history.
func (s *Store) ListHistories(ctx context.Context) (procurement.ConsumptionByProvider, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT provider_id, period, days FROM consumption")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(procurement.ConsumptionByProvider)
	for rows.Next() {
		var providerID string
		var periodStr, daysStr string
		if err := rows.Scan(&providerID, &periodStr, &daysStr); err != nil {
			return nil, err
		}
		period, err := engine.ParsePeriodKey(periodStr)
		if err != nil {
			return nil, fmt.Errorf("failed to decode period %q: %w", periodStr, err)
		}

		id := procurement.ProviderID(providerID)
		h, ok := out[id]
		if !ok {
			h = procurement.NewConsumptionHistory()
			out[id] = h
		}
		h.Periods[period] = engine.Amount{Value: engine.MustParseDecimal(daysStr), Unit: engine.UnitDays}
	}
	return out, rows.Err()
}

func scanConsumptionRow(rows *sql.Rows) (engine.PeriodKey, engine.Amount, error) {
	var periodStr, daysStr string
	if err := rows.Scan(&periodStr, &daysStr); err != nil {
		return engine.PeriodKey{}, engine.Amount{}, err
	}
	period, err := engine.ParsePeriodKey(periodStr)
	if err != nil {
		return engine.PeriodKey{}, engine.Amount{}, fmt.Errorf("failed to decode period %q: %w", periodStr, err)
	}
	return period, engine.Amount{Value: engine.MustParseDecimal(daysStr), Unit: engine.UnitDays}, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	tables := []string{"consumption", "catalog", "providers"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
