package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chrisdamba/orderpulse/internal/models"
	"github.com/chrisdamba/orderpulse/internal/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lucsky/cuid"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id            TEXT PRIMARY KEY,
    customer_name TEXT NOT NULL,
    status        TEXT NOT NULL,
    latitude      DOUBLE PRECISION NOT NULL,
    longitude     DOUBLE PRECISION NOT NULL,
    amount        DOUBLE PRECISION NOT NULL,
    created_at    TIMESTAMPTZ,
    inserted_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS kv_store (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS order_events (
    id         BIGSERIAL PRIMARY KEY,
    topic      TEXT NOT NULL,
    payload    JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// EnsureSchema creates the tables used by the postgres backends.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) FetchAll(ctx context.Context) ([]models.Order, error) {
	query := `
        SELECT id, customer_name, status, latitude, longitude, amount, created_at
        FROM orders
        ORDER BY inserted_at, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var (
			o         models.Order
			status    string
			createdAt *time.Time
		)
		if err := rows.Scan(&o.ID, &o.CustomerName, &status, &o.Latitude, &o.Longitude, &o.Amount, &createdAt); err != nil {
			return nil, err
		}
		o.Status = models.OrderStatus(status)
		if createdAt != nil {
			t := createdAt.UTC()
			o.CreatedAt = &t
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) Create(ctx context.Context, order models.Order) (models.Order, error) {
	order.ID = cuid.New()
	query := `
        INSERT INTO orders (id, customer_name, status, latitude, longitude, amount, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		order.ID,
		order.CustomerName,
		string(order.Status),
		order.Latitude,
		order.Longitude,
		order.Amount,
		order.CreatedAt,
	)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}
	return order, nil
}

func (r *OrderRepository) Patch(ctx context.Context, id string, patch models.OrderPatch) error {
	query, args, err := buildPatchQuery(id, patch)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to patch order %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("patch %s: %w", id, repositories.ErrOrderNotFound)
	}
	return nil
}

func buildPatchQuery(id string, patch models.OrderPatch) (string, []interface{}, error) {
	var (
		sets []string
		args []interface{}
	)
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Latitude != nil {
		add("latitude", *patch.Latitude)
	}
	if patch.Longitude != nil {
		add("longitude", *patch.Longitude)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if len(sets) == 0 {
		return "", nil, errors.New("empty order patch")
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE orders SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	return query, args, nil
}
