package checkout

import "fmt"

// Kind classifies a checkout failure.
type Kind int

const (
	KindEmptyCart Kind = iota + 1
	KindInsufficientBalance
	KindInsufficientBalanceAfterLock
	KindNoSellerAvailable
	KindInsufficientStock
	KindStorageFailure
	KindCartChanged
)

func (k Kind) String() string {
	switch k {
	case KindEmptyCart:
		return "EmptyCart"
	case KindInsufficientBalance:
		return "InsufficientBalance"
	case KindInsufficientBalanceAfterLock:
		return "InsufficientBalanceAfterLock"
	case KindNoSellerAvailable:
		return "NoSellerAvailable"
	case KindInsufficientStock:
		return "InsufficientStock"
	case KindStorageFailure:
		return "StorageFailure"
	case KindCartChanged:
		return "CartChanged"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the only error type Checkout returns.
type Error struct {
	Kind      Kind
	ProductID int64
	Err       error
}

var (
	ErrEmptyCart                    = &Error{Kind: KindEmptyCart}
	ErrInsufficientBalance          = &Error{Kind: KindInsufficientBalance}
	ErrInsufficientBalanceAfterLock = &Error{Kind: KindInsufficientBalanceAfterLock}
	ErrNoSellerAvailable            = &Error{Kind: KindNoSellerAvailable}
	ErrInsufficientStock            = &Error{Kind: KindInsufficientStock}
	ErrStorageFailure               = &Error{Kind: KindStorageFailure}
	ErrCartChanged                  = &Error{Kind: KindCartChanged}
)

// Message is the user-facing text for the failure. It never includes the
// underlying storage error.
func (e *Error) Message() string {
	switch e.Kind {
	case KindEmptyCart:
		return "cart is empty"
	case KindInsufficientBalance:
		return "balance does not cover the cart total, top up and try again"
	case KindInsufficientBalanceAfterLock:
		return "balance changed during checkout and no longer covers the order total"
	case KindNoSellerAvailable:
		return fmt.Sprintf("no seller currently stocks product %d, remove it from the cart", e.ProductID)
	case KindInsufficientStock:
		return fmt.Sprintf("not enough stock for product %d, reduce the quantity or try again later", e.ProductID)
	case KindStorageFailure:
		return "checkout could not be completed, please retry"
	case KindCartChanged:
		return "cart changed while checking out, review it and try again"
	default:
		return "checkout failed"
	}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("checkout: %s: %v", e.Kind, e.Err)
	}
	if e.ProductID != 0 {
		return fmt.Sprintf("checkout: %s (product %d)", e.Kind, e.ProductID)
	}
	return "checkout: " + e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind. A target carrying a product id also requires the
// product to match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.ProductID == 0 || t.ProductID == e.ProductID
}

func storageFailure(err error) *Error {
	return &Error{Kind: KindStorageFailure, Err: err}
}
