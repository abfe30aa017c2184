package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"marketplace/internal/domain"
	"marketplace/internal/idempotency"
	"marketplace/internal/logging"
	accountsvc "marketplace/internal/service/account"
	cartsvc "marketplace/internal/service/cart"
	"marketplace/internal/service/checkout"
	productsvc "marketplace/internal/service/product"
)

type ctxKey string

const (
	accountCtxKey ctxKey = "account"

	requestIDHeader   = "X-Request-ID"
	idempotencyHeader = "Idempotency-Key"
)

type accountLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
}

type accountService interface {
	Create(ctx context.Context, in accountsvc.CreateInput) (*domain.Account, error)
	Get(ctx context.Context, id int64) (*domain.Account, error)
	Deposit(ctx context.Context, id int64, amount decimal.Decimal) (*domain.Account, error)
	Withdraw(ctx context.Context, id int64, amount decimal.Decimal) (*domain.Account, error)
}

type cartService interface {
	Add(ctx context.Context, buyerID int64, in cartsvc.AddInput) (*domain.CartLine, error)
	Get(ctx context.Context, buyerID int64) (*cartsvc.View, error)
	Update(ctx context.Context, buyerID, lineID int64, in cartsvc.UpdateInput) (*cartsvc.View, error)
	Remove(ctx context.Context, buyerID, lineID int64) error
}

type checkoutService interface {
	Checkout(ctx context.Context, req checkout.Request) (*checkout.Confirmation, error)
}

type orderService interface {
	Get(ctx context.Context, buyerID, orderID int64) (*domain.Order, error)
	List(ctx context.Context, buyerID int64, f domain.OrderFilter) ([]domain.Order, error)
	SellerLines(ctx context.Context, sellerID int64, status string) ([]domain.OrderLine, error)
	Fulfill(ctx context.Context, sellerID, lineID int64) (*domain.OrderLine, error)
}

type inventoryService interface {
	Upsert(ctx context.Context, rec domain.InventoryRecord) (*domain.InventoryRecord, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]domain.InventoryRecord, error)
	Offers(ctx context.Context, productID int64) ([]domain.InventoryRecord, error)
	Remove(ctx context.Context, sellerID, productID int64) error
}

type productService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, creatorID int64, in productsvc.Input) (*domain.Product, error)
	Update(ctx context.Context, creatorID, id int64, in productsvc.Input) (*domain.Product, error)
}

type categoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
	Upsert(ctx context.Context, name string) (*domain.Category, error)
}

// Deps groups the services the router dispatches to.
type Deps struct {
	AccountRepo  accountLookup
	AccountSvc   accountService
	CartSvc      cartService
	CheckoutSvc  checkoutService
	OrderSvc     orderService
	InventorySvc inventoryService
	ProductSvc   productService
	CategorySvc  categoryService
	// Idempotency defaults to idempotency.Noop.
	Idempotency idempotency.Guard
	// CORSAllowedOrigins empty allows every origin.
	CORSAllowedOrigins []string
}

func (d Deps) validate() error {
	switch {
	case d.AccountRepo == nil:
		return errors.New("router: account repository required")
	case d.AccountSvc == nil:
		return errors.New("router: account service required")
	case d.CartSvc == nil:
		return errors.New("router: cart service required")
	case d.CheckoutSvc == nil:
		return errors.New("router: checkout service required")
	case d.OrderSvc == nil:
		return errors.New("router: order service required")
	case d.InventorySvc == nil:
		return errors.New("router: inventory service required")
	case d.ProductSvc == nil:
		return errors.New("router: product service required")
	case d.CategorySvc == nil:
		return errors.New("router: category service required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	logger = logging.OrNop(logger)
	guard := deps.Idempotency
	if guard == nil {
		guard = idempotency.Noop{}
	}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		requestIDMiddleware(),
		gin.LoggerWithWriter(zap.NewStdLog(logger.Named("access")).Writer()),
		gin.Recovery(),
		cors.New(corsConfig(deps.CORSAllowedOrigins)),
	)

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	router.POST("/accounts", createAccountHandler(deps.AccountSvc))
	router.GET("/categories", listCategoriesHandler(deps.CategorySvc))
	router.POST("/categories", upsertCategoryHandler(deps.CategorySvc))
	router.GET("/products", listProductsHandler(deps.ProductSvc))
	router.GET("/products/:productID", getProductHandler(deps.ProductSvc))
	router.GET("/products/:productID/offers", listOffersHandler(deps.InventorySvc))

	acct := router.Group("/accounts/:accountID")
	acct.Use(accountMiddleware(deps.AccountRepo))
	{
		acct.GET("", getAccountHandler())
		acct.POST("/deposit", depositHandler(deps.AccountSvc))
		acct.POST("/withdraw", withdrawHandler(deps.AccountSvc))

		acct.GET("/cart", getCartHandler(deps.CartSvc))
		acct.POST("/cart/lines", addCartLineHandler(deps.CartSvc))
		acct.PATCH("/cart/lines/:lineID", updateCartLineHandler(deps.CartSvc))
		acct.DELETE("/cart/lines/:lineID", removeCartLineHandler(deps.CartSvc))
		acct.POST("/checkout", checkoutHandler(deps.CheckoutSvc, guard, logger))

		acct.GET("/orders", listOrdersHandler(deps.OrderSvc))
		acct.GET("/orders/:orderID", getOrderHandler(deps.OrderSvc))

		acct.POST("/products", createProductHandler(deps.ProductSvc))
		acct.PUT("/products/:productID", updateProductHandler(deps.ProductSvc))
		acct.GET("/inventory", listInventoryHandler(deps.InventorySvc))
		acct.PUT("/inventory/:productID", upsertInventoryHandler(deps.InventorySvc))
		acct.DELETE("/inventory/:productID", removeInventoryHandler(deps.InventorySvc))
		acct.GET("/sales", listSalesHandler(deps.OrderSvc))
		acct.POST("/sales/:lineID/fulfill", fulfillHandler(deps.OrderSvc))
	}

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", idempotencyHeader, requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// requestIDMiddleware echoes X-Request-ID, generating one when absent.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// accountMiddleware resolves :accountID into the request context.
func accountMiddleware(repo accountLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.Param("accountID"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "account id required"})
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
			return
		}
		acct, err := repo.GetByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "account not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load account"})
			return
		}
		ctx := context.WithValue(c.Request.Context(), accountCtxKey, acct)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func accountFrom(c *gin.Context) *domain.Account {
	acct, _ := c.Request.Context().Value(accountCtxKey).(*domain.Account)
	return acct
}

// idParam parses a positive integer path parameter, writing 400 on failure.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
