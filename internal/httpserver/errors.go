package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"marketplace/internal/domain"
	"marketplace/internal/service/checkout"
)

// writeError maps service errors onto status codes. Unknown errors are 500
// and never echo their text.
func writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Msg})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, domain.ErrProductUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": "product unavailable"})
	case errors.Is(err, domain.ErrAlreadyFulfilled):
		c.JSON(http.StatusConflict, gin.H{"error": "order line already fulfilled"})
	case errors.Is(err, domain.ErrInsufficientFunds):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "insufficient funds"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func checkoutStatus(kind checkout.Kind) int {
	switch kind {
	case checkout.KindEmptyCart:
		return http.StatusUnprocessableEntity
	case checkout.KindInsufficientBalance, checkout.KindInsufficientBalanceAfterLock:
		return http.StatusPaymentRequired
	case checkout.KindNoSellerAvailable, checkout.KindInsufficientStock, checkout.KindCartChanged:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeCheckoutError(c *gin.Context, err error) {
	var ce *checkout.Error
	if !errors.As(err, &ce) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	body := gin.H{"error": ce.Message(), "code": ce.Kind.String()}
	if ce.ProductID != 0 {
		body["productId"] = ce.ProductID
	}
	c.JSON(checkoutStatus(ce.Kind), body)
}
