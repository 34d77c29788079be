package graph

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the graph store uses. pgxmock's pool
// satisfies it for tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "graph: postgres parse config")
	}
	cfg.MaxConns = 10
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "graph: postgres connect")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS orders (
	id     TEXT PRIMARY KEY,
	hazmat BOOLEAN NOT NULL DEFAULT FALSE,
	prime  BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS carriers (
	name           TEXT PRIMARY KEY,
	base_price     DOUBLE PRECISION NOT NULL,
	delivery_time  TEXT NOT NULL,
	co2_emissions  DOUBLE PRECISION NOT NULL,
	transport_mode TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS serves (
	carrier_name     TEXT NOT NULL REFERENCES carriers(name),
	order_id         TEXT NOT NULL REFERENCES orders(id),
	negotiated_price DOUBLE PRECISION NOT NULL,
	delivery_time    TEXT NOT NULL,
	transport_mode   TEXT NOT NULL,
	PRIMARY KEY (carrier_name, order_id)
);

CREATE INDEX IF NOT EXISTS idx_serves_order_id ON serves(order_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return &QueryError{Op: "migrate", Err: err}
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertOrder(ctx context.Context, order OrderVertex) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO orders (id, hazmat, prime) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		order.ID, order.Hazmat, order.Prime,
	)
	if err != nil {
		return &QueryError{Op: "upsert order", Err: err}
	}
	return nil
}

func (s *PostgresStore) UpsertCarrier(ctx context.Context, carrier CarrierVertex) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO carriers (name, base_price, delivery_time, co2_emissions, transport_mode)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (name) DO UPDATE SET
			base_price     = EXCLUDED.base_price,
			delivery_time  = EXCLUDED.delivery_time,
			co2_emissions  = EXCLUDED.co2_emissions,
			transport_mode = EXCLUDED.transport_mode`,
		carrier.Name, carrier.BasePrice, carrier.DeliveryTime, carrier.CO2Emissions, carrier.TransportMode,
	)
	if err != nil {
		return &QueryError{Op: "upsert carrier", Err: err}
	}
	return nil
}

func (s *PostgresStore) UpsertServes(ctx context.Context, carrierName, orderID string, props ServesProps) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO serves (carrier_name, order_id, negotiated_price, delivery_time, transport_mode)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (carrier_name, order_id) DO UPDATE SET
			negotiated_price = EXCLUDED.negotiated_price,
			delivery_time    = EXCLUDED.delivery_time,
			transport_mode   = EXCLUDED.transport_mode`,
		carrierName, orderID, props.NegotiatedPrice, props.DeliveryTime, props.TransportMode,
	)
	if err != nil {
		return &QueryError{Op: "upsert serves", Err: err}
	}
	return nil
}

func (s *PostgresStore) GetOrder(ctx context.Context, orderID string) (*OrderVertex, error) {
	var v OrderVertex
	err := s.pool.QueryRow(ctx,
		`SELECT id, hazmat, prime FROM orders WHERE id = $1`, orderID,
	).Scan(&v.ID, &v.Hazmat, &v.Prime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &QueryError{Op: "get order", Err: err}
	}
	return &v, nil
}

func (s *PostgresStore) Offers(ctx context.Context, orderID string) ([]Offer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT s.carrier_name, s.negotiated_price, s.delivery_time, s.transport_mode, c.co2_emissions
		 FROM serves s
		 JOIN carriers c ON c.name = s.carrier_name
		 WHERE s.order_id = $1
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

func (s *PostgresStore) PriceTiers(ctx context.Context) ([]CarrierTier, error) {
	rows, err := s.pool.Query(ctx,
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
