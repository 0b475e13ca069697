//go:generate mockgen -source=interfaces.go -destination=../mocks/mock_repositories.go -package=mocks

package repositories

import (
	"context"
	"errors"

	"github.com/chrisdamba/orderpulse/internal/models"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderRepository is the source of truth for orders. Create assigns the
// identifier and echoes the stored order back.
type OrderRepository interface {
	FetchAll(ctx context.Context) ([]models.Order, error)
	Create(ctx context.Context, order models.Order) (models.Order, error)
	Patch(ctx context.Context, id string, patch models.OrderPatch) error
}

// KeyValueStore is a durable string slot store. Get reports absence with
// ok == false rather than an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
