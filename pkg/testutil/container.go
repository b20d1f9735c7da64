// Package testutil provides testing utilities for stockflow backend services.
// It includes testcontainers for PostgreSQL, mock factories, and common test
// fixtures.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// PostgresContainerConfig configures the test PostgreSQL container
type PostgresContainerConfig struct {
	Database string
	Username string
	Password string
	Image    string // Optional: defaults to postgres:15-alpine
}

// DefaultPostgresConfig returns sensible defaults for test containers
func DefaultPostgresConfig() PostgresContainerConfig {
	return PostgresContainerConfig{
		Database: "stockflow_test",
		Username: "test",
		Password: "test",
		Image:    "postgres:15-alpine",
	}
}

// NewPostgresContainer creates a new PostgreSQL test container.
//
// Usage:
//
//	func TestMain(m *testing.M) {
//	    ctx := context.Background()
//	    container, err := testutil.NewPostgresContainer(ctx, testutil.DefaultPostgresConfig())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer container.Terminate(ctx)
//
//	    // Run tests
//	    code := m.Run()
//	    os.Exit(code)
//	}
func NewPostgresContainer(ctx context.Context, cfg PostgresContainerConfig) (*PostgresContainer, error) {
	if cfg.Image == "" {
		cfg.Image = "postgres:15-alpine"
	}
	if cfg.Database == "" {
		cfg.Database = "stockflow_test"
	}
	if cfg.Username == "" {
		cfg.Username = "test"
	}
	if cfg.Password == "" {
		cfg.Password = "test"
	}

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(cfg.Image),
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.Username),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{
		PostgresContainer: container,
		DSN:               dsn,
	}, nil
}

// Connect returns a sqlx.DB connection to the container
func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// Terminate stops and removes the container
func (c *PostgresContainer) Terminate(ctx context.Context) error {
	return c.PostgresContainer.Terminate(ctx)
}

// CreateStockSchema creates the stock service schema. It mirrors the
// production DDL, including the unique constraints the upsert paths rely on.
func (c *PostgresContainer) CreateStockSchema(ctx context.Context, db *sqlx.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS stock_events (
			id UUID PRIMARY KEY,
			facility_id UUID NOT NULL,
			program_id UUID NOT NULL,
			user_id UUID NOT NULL,
			signature TEXT,
			document_number TEXT,
			processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS stock_cards (
			id UUID PRIMARY KEY,
			origin_event_id UUID NOT NULL REFERENCES stock_events(id),
			facility_id UUID NOT NULL,
			program_id UUID NOT NULL,
			orderable_id UUID NOT NULL,
			lot_id UUID,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE NULLS NOT DISTINCT (facility_id, program_id, orderable_id, lot_id)
		);

		CREATE TABLE IF NOT EXISTS stock_card_line_items (
			id UUID PRIMARY KEY,
			stock_card_id UUID NOT NULL REFERENCES stock_cards(id),
			event_id UUID NOT NULL REFERENCES stock_events(id),
			quantity INTEGER NOT NULL,
			occurred_date DATE NOT NULL,
			processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			reason_id UUID,
			reason_free_text TEXT,
			source_id UUID,
			source_free_text TEXT,
			destination_id UUID,
			destination_free_text TEXT,
			user_id UUID NOT NULL,
			extra_data JSONB,
			stock_on_hand INTEGER,
			position BIGSERIAL
		);
		CREATE INDEX IF NOT EXISTS idx_line_items_card_replay
			ON stock_card_line_items (stock_card_id, occurred_date, processed_at, position);

		CREATE TABLE IF NOT EXISTS calculated_stocks_on_hand (
			id UUID PRIMARY KEY,
			stock_card_id UUID NOT NULL REFERENCES stock_cards(id),
			occurred_date DATE NOT NULL,
			stock_on_hand INTEGER NOT NULL,
			processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (stock_card_id, occurred_date)
		);

		CREATE TABLE IF NOT EXISTS stock_card_line_item_reasons (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			reason_type TEXT NOT NULL,
			reason_category TEXT NOT NULL,
			is_free_text_allowed BOOLEAN NOT NULL DEFAULT FALSE,
			tags TEXT[],
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS valid_reason_assignments (
			id UUID PRIMARY KEY,
			program_id UUID NOT NULL,
			facility_type_id UUID NOT NULL,
			reason_id UUID NOT NULL REFERENCES stock_card_line_item_reasons(id),
			hidden BOOLEAN NOT NULL DEFAULT FALSE,
			UNIQUE (program_id, facility_type_id, reason_id)
		);

		CREATE TABLE IF NOT EXISTS organizations (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS nodes (
			id UUID PRIMARY KEY,
			reference_id UUID NOT NULL UNIQUE,
			is_ref_data_facility BOOLEAN NOT NULL
		);

		CREATE TABLE IF NOT EXISTS valid_source_assignments (
			id UUID PRIMARY KEY,
			program_id UUID NOT NULL,
			facility_type_id UUID NOT NULL,
			node_id UUID NOT NULL REFERENCES nodes(id),
			geo_level_affinity_id UUID,
			UNIQUE (program_id, facility_type_id, node_id)
		);

		CREATE TABLE IF NOT EXISTS valid_destination_assignments (
			id UUID PRIMARY KEY,
			program_id UUID NOT NULL,
			facility_type_id UUID NOT NULL,
			node_id UUID NOT NULL REFERENCES nodes(id),
			geo_level_affinity_id UUID,
			UNIQUE (program_id, facility_type_id, node_id)
		);

		CREATE TABLE IF NOT EXISTS physical_inventories (
			id UUID PRIMARY KEY,
			program_id UUID NOT NULL,
			facility_id UUID NOT NULL,
			event_id UUID REFERENCES stock_events(id),
			occurred_date DATE,
			document_number TEXT,
			signature TEXT,
			is_draft BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_physical_inventory_draft
			ON physical_inventories (program_id, facility_id) WHERE is_draft;

		CREATE TABLE IF NOT EXISTS physical_inventory_line_items (
			id UUID PRIMARY KEY,
			physical_inventory_id UUID NOT NULL REFERENCES physical_inventories(id) ON DELETE CASCADE,
			orderable_id UUID NOT NULL,
			lot_id UUID,
			quantity INTEGER,
			previous_stock_on_hand INTEGER,
			extra_data JSONB
		);
	`

	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create stock schema: %w", err)
	}

	return nil
}

// TruncateStockTables clears all stock tables between tests, preserving the
// schema. Order matters because of the foreign keys.
func (c *PostgresContainer) TruncateStockTables(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		TRUNCATE physical_inventory_line_items, physical_inventories,
			valid_destination_assignments, valid_source_assignments, nodes,
			organizations, valid_reason_assignments, stock_card_line_item_reasons,
			calculated_stocks_on_hand, stock_card_line_items, stock_cards,
			stock_events CASCADE
	`)
	if err != nil {
		return fmt.Errorf("failed to truncate stock tables: %w", err)
	}
	return nil
}
