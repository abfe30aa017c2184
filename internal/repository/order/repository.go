package order

import (
	"context"

	"marketplace/internal/domain"
)

// Repository reads settled orders. Orders are written only by checkout; the
// one mutation here is line fulfillment.
type Repository interface {
	// GetForBuyer returns the order with its lines when it belongs to buyerID.
	GetForBuyer(ctx context.Context, buyerID, orderID int64) (*domain.Order, error)
	// ListForBuyer returns the buyer's order headers matching f, newest first
	// unless f says otherwise.
	ListForBuyer(ctx context.Context, buyerID int64, f domain.OrderFilter) ([]domain.Order, error)
	ListLinesForSeller(ctx context.Context, sellerID int64, status domain.FulfillmentStatus) ([]domain.OrderLine, error)
	// FulfillLine moves a pending line owned by sellerID to fulfilled.
	FulfillLine(ctx context.Context, sellerID, lineID int64) (*domain.OrderLine, error)
}
