package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Filter narrows order listings
type Filter struct {
	shared.Filter
	Status     *Status
	CustomerID *uuid.UUID
	Email      string
	From       *time.Time
	To         *time.Time
}

// Repository defines the interface for order persistence.
// Orders are always loaded together with their items.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByNumber(ctx context.Context, number string) (*Order, error)
	FindByPaymentIntent(ctx context.Context, intentID string) (*Order, error)
	List(ctx context.Context, filter Filter) ([]Order, int64, error)

	// Save inserts a new order with its items
	Save(ctx context.Context, order *Order) error
	// SaveWithLock updates the order only if its version is unchanged and
	// increments it. Returns shared.ErrConcurrentModification otherwise.
	SaveWithLock(ctx context.Context, order *Order) error

	// FindStalePending returns pending unpaid orders created before cutoff
	FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]Order, error)
	// FindPaidIntentsSince maps payment intents of orders paid after since to their order IDs
	FindPaidIntentsSince(ctx context.Context, since time.Time) (map[string]uuid.UUID, error)
}
