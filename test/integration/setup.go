package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema creates the database schema for testing.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS products (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			price          DOUBLE PRECISION NOT NULL,
			category       TEXT NOT NULL,
			count_in_stock INT NOT NULL DEFAULT 0,
			sizes          JSONB
		);

		CREATE TABLE IF NOT EXISTS coupons (
			id                      UUID PRIMARY KEY,
			code                    TEXT NOT NULL UNIQUE,
			description             TEXT NOT NULL DEFAULT '',
			discount_type           TEXT NOT NULL,
			discount_value          DOUBLE PRECISION NOT NULL,
			minimum_purchase_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			is_active               BOOLEAN NOT NULL DEFAULT TRUE,
			valid_from              TIMESTAMPTZ NOT NULL,
			valid_until             TIMESTAMPTZ NOT NULL,
			usage_limit_per_coupon  INT,
			usage_limit_per_user    INT,
			times_used              INT NOT NULL DEFAULT 0,
			created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS orders (
			id                     UUID PRIMARY KEY,
			user_id                UUID,
			payment_method         TEXT NOT NULL,
			items_price            DOUBLE PRECISION NOT NULL,
			discount_amount        DOUBLE PRECISION NOT NULL DEFAULT 0,
			discounted_items_price DOUBLE PRECISION NOT NULL,
			shipping_price         DOUBLE PRECISION NOT NULL,
			tax_price              DOUBLE PRECISION NOT NULL,
			total_price            DOUBLE PRECISION NOT NULL,
			applied_coupon         JSONB,
			is_paid                BOOLEAN NOT NULL DEFAULT FALSE,
			paid_at                TIMESTAMPTZ,
			payment_ref            TEXT,
			is_delivered           BOOLEAN NOT NULL DEFAULT FALSE,
			delivered_at           TIMESTAMPTZ,
			refund_amount          DOUBLE PRECISION NOT NULL DEFAULT 0,
			refund_processed       BOOLEAN NOT NULL DEFAULT FALSE,
			is_refunded            BOOLEAN NOT NULL DEFAULT FALSE,
			created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS orders_user_id_idx ON orders (user_id);

		CREATE TABLE IF NOT EXISTS order_items (
			id            UUID PRIMARY KEY,
			order_id      UUID NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
			product_id    TEXT NOT NULL,
			name          TEXT NOT NULL,
			unit_price    DOUBLE PRECISION NOT NULL,
			quantity      INT NOT NULL,
			selected_size TEXT,
			customization JSONB
		);

		CREATE INDEX IF NOT EXISTS order_items_order_id_idx ON order_items (order_id);

		CREATE SEQUENCE IF NOT EXISTS return_number_seq;

		CREATE TABLE IF NOT EXISTS returns (
			id                  UUID PRIMARY KEY,
			return_number       TEXT NOT NULL UNIQUE,
			order_id            UUID NOT NULL REFERENCES orders (id),
			user_id             UUID NOT NULL,
			status              TEXT NOT NULL,
			items               JSONB NOT NULL,
			reason              TEXT NOT NULL,
			detailed_reason     TEXT NOT NULL DEFAULT '',
			customer_notes      TEXT NOT NULL DEFAULT '',
			total_refund_amount DOUBLE PRECISION NOT NULL,
			return_date         TIMESTAMPTZ,
			status_history      JSONB NOT NULL,
			quality_check       JSONB,
			refund_info         JSONB,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS returns_open_order_idx
			ON returns (order_id)
			WHERE status NOT IN ('rejected', 'completed', 'cancelled');
	`

	_, err := pool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// SeedProducts inserts test product data into the database.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	products := []struct {
		id       string
		name     string
		price    float64
		category string
		stock    int
		sizes    string
	}{
		{"P001", "Oxford Shirt", 49.90, "shirts", 35,
			`[{"size":"M","quantity":20},{"size":"L","quantity":15}]`},
		{"P002", "Linen Blazer", 129.00, "jackets", 18,
			`[{"size":"M","quantity":10},{"size":"L","quantity":8}]`},
		{"P003", "Merino Scarf", 35.50, "accessories", 80, ""},
		{"P004", "Selvedge Denim", 98.00, "trousers", 26,
			`[{"size":"32","quantity":14},{"size":"34","quantity":12}]`},
		{"P005", "Leather Belt", 42.00, "accessories", 50, ""},
	}

	for _, p := range products {
		var sizes any
		if p.sizes != "" {
			sizes = []byte(p.sizes)
		}
		_, err := pool.Exec(ctx,
			"INSERT INTO products (id, name, price, category, count_in_stock, sizes) VALUES ($1, $2, $3, $4, $5, $6)",
			p.id, p.name, p.price, p.category, p.stock, sizes,
		)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.id, err)
		}
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"returns", "order_items", "orders", "coupons", "products"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
