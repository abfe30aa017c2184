package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"marketplace/internal/idempotency"
	"marketplace/internal/service/checkout"
)

type checkoutRequest struct {
	CouponCode string `json:"couponCode"`
}

// checkoutHandler settles the account's cart. A request carrying an
// Idempotency-Key already seen for this buyer is answered with 409 and, once
// the first attempt committed, the order it created.
func checkoutHandler(svc checkoutService, guard idempotency.Guard, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkoutRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
				return
			}
		}

		ctx := c.Request.Context()
		buyerID := accountFrom(c).ID
		log := logger.With(zap.Int64("buyer_id", buyerID), zap.String("request_id", c.GetString("request_id")))

		key := strings.TrimSpace(c.GetHeader(idempotencyHeader))
		if key != "" {
			ok, prev, err := guard.Acquire(ctx, buyerID, key)
			if err != nil {
				log.Error("idempotency acquire failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "checkout temporarily unavailable, please retry"})
				return
			}
			if !ok {
				body := gin.H{"error": "duplicate checkout request", "code": "DuplicateRequest"}
				if !prev.Pending {
					body["orderId"] = prev.OrderID
				}
				c.JSON(http.StatusConflict, body)
				return
			}
		}

		conf, err := svc.Checkout(ctx, checkout.Request{BuyerID: buyerID, CouponCode: req.CouponCode})
		if err != nil {
			if key != "" {
				if rerr := guard.Release(context.WithoutCancel(ctx), buyerID, key); rerr != nil {
					log.Warn("idempotency release failed", zap.Error(rerr))
				}
			}
			writeCheckoutError(c, err)
			return
		}
		if key != "" {
			if cerr := guard.Complete(context.WithoutCancel(ctx), buyerID, key, conf.OrderID); cerr != nil {
				log.Warn("idempotency complete failed", zap.Int64("order_id", conf.OrderID), zap.Error(cerr))
			}
		}
		c.JSON(http.StatusCreated, conf)
	}
}
