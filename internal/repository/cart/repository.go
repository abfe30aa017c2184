package cart

import (
	"context"

	"marketplace/internal/domain"
)

type AddLineInput struct {
	BuyerID   int64
	ProductID int64
	SellerID  *int64
	Quantity  int
}

// Repository stores cart lines keyed by (buyer, product, seller). Every method
// scopes lines to the buyer; a line of another buyer is reported as not found.
type Repository interface {
	// AddLine inserts the line or adds to the quantity of the existing one.
	AddLine(ctx context.Context, in AddLineInput) (*domain.CartLine, error)
	List(ctx context.Context, buyerID int64) ([]domain.CartLine, error)
	// ChangeQuantity sets the quantity; zero or less removes the line.
	ChangeQuantity(ctx context.Context, buyerID, lineID int64, quantity int) error
	SetSavedForLater(ctx context.Context, buyerID, lineID int64, saved bool) error
	Remove(ctx context.Context, buyerID, lineID int64) error
}
