package graph

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite. The graph is
// modeled relationally: one table per vertex label plus an edge table whose
// composite key enforces at most one SERVES edge per (carrier, order) pair.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given DSN and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "graph: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "graph: sqlite exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS orders (
	id     TEXT PRIMARY KEY,
	hazmat INTEGER NOT NULL DEFAULT 0,
	prime  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS carriers (
	name           TEXT PRIMARY KEY,
	base_price     REAL NOT NULL,
	delivery_time  TEXT NOT NULL,
	co2_emissions  REAL NOT NULL,
	transport_mode TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS serves (
	carrier_name     TEXT NOT NULL REFERENCES carriers(name),
	order_id         TEXT NOT NULL REFERENCES orders(id),
	negotiated_price REAL NOT NULL,
	delivery_time    TEXT NOT NULL,
	transport_mode   TEXT NOT NULL,
	PRIMARY KEY (carrier_name, order_id)
);

CREATE INDEX IF NOT EXISTS idx_serves_order_id ON serves(order_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return &QueryError{Op: "migrate", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertOrder(ctx context.Context, order OrderVertex) error {
	// Get-or-create: an existing order vertex keeps its flags.
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (id, hazmat, prime) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		order.ID, order.Hazmat, order.Prime,
	)
	if err != nil {
		return &QueryError{Op: "upsert order", Err: err}
	}
	return nil
}

func (s *SQLiteStore) UpsertCarrier(ctx context.Context, carrier CarrierVertex) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO carriers (name, base_price, delivery_time, co2_emissions, transport_mode)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			base_price     = excluded.base_price,
			delivery_time  = excluded.delivery_time,
			co2_emissions  = excluded.co2_emissions,
			transport_mode = excluded.transport_mode`,
		carrier.Name, carrier.BasePrice, carrier.DeliveryTime, carrier.CO2Emissions, carrier.TransportMode,
	)
	if err != nil {
		return &QueryError{Op: "upsert carrier", Err: err}
	}
	return nil
}

func (s *SQLiteStore) UpsertServes(ctx context.Context, carrierName, orderID string, props ServesProps) error {
	// Overwrite-in-place: the composite key guarantees a single edge per
	// pair; a re-run replaces the prior edge's properties.
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO serves (carrier_name, order_id, negotiated_price, delivery_time, transport_mode)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(carrier_name, order_id) DO UPDATE SET
			negotiated_price = excluded.negotiated_price,
			delivery_time    = excluded.delivery_time,
			transport_mode   = excluded.transport_mode`,
		carrierName, orderID, props.NegotiatedPrice, props.DeliveryTime, props.TransportMode,
	)
	if err != nil {
		return &QueryError{Op: "upsert serves", Err: err}
	}
	return nil
}

func (s *SQLiteStore) GetOrder(ctx context.Context, orderID string) (*OrderVertex, error) {
	var v OrderVertex
	err := s.db.QueryRowContext(ctx,
		`SELECT id, hazmat, prime FROM orders WHERE id = ?`, orderID,
	).Scan(&v.ID, &v.Hazmat, &v.Prime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &QueryError{Op: "get order", Err: err}
	}
	return &v, nil
}

func (s *SQLiteStore) Offers(ctx context.Context, orderID string) ([]Offer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.carrier_name, s.negotiated_price, s.delivery_time, s.transport_mode, c.co2_emissions
		 FROM serves s
		 JOIN carriers c ON c.name = s.carrier_name
		 WHERE s.order_id = ?
		 ORDER BY s.carrier_name`,
		orderID,
	)
	if err != nil {
		return nil, &QueryError{Op: "offers", Err: err}
	}
	defer rows.Close()

	var offers []Offer
	for rows.Next() {
		var o Offer
		if err := rows.Scan(&o.Carrier, &o.NegotiatedPrice, &o.DeliveryTime, &o.TransportMode, &o.CO2Emissions); err != nil {
			return nil, &QueryError{Op: "offers scan", Err: err}
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Op: "offers rows", Err: err}
	}
	return offers, nil
}

func (s *SQLiteStore) PriceTiers(ctx context.Context) ([]CarrierTier, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, base_price FROM carriers ORDER BY name`,
	)
	if err != nil {
		return nil, &QueryError{Op: "price tiers", Err: err}
	}
	defer rows.Close()

	var tiers []CarrierTier
	for rows.Next() {
		var name string
		var basePrice float64
		if err := rows.Scan(&name, &basePrice); err != nil {
			return nil, &QueryError{Op: "price tiers scan", Err: err}
		}
		tiers = append(tiers, CarrierTier{Carrier: name, Tier: PriceTier(basePrice)})
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Op: "price tiers rows", Err: err}
	}
	return tiers, nil
}
