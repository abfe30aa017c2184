package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"marketplace/internal/domain"
)

type inventoryRequest struct {
	Quantity    int              `json:"quantity"`
	SellerPrice *decimal.Decimal `json:"sellerPrice"`
}

type historyQuery struct {
	Status  string `form:"status"`
	From    string `form:"from"`
	To      string `form:"to"`
	Product string `form:"product"`
	Seller  int64  `form:"seller"`
	Sort    string `form:"sort"`
	Order   string `form:"order"`
}

// filter converts the query into an OrderFilter. Bounds are RFC 3339
// timestamps or calendar dates; a date in to covers that whole day.
func (q historyQuery) filter() (domain.OrderFilter, error) {
	f := domain.OrderFilter{
		Status:   domain.FulfillmentStatus(q.Status),
		Product:  q.Product,
		SellerID: q.Seller,
		Sort:     domain.OrderSort(q.Sort),
	}
	switch strings.ToLower(q.Order) {
	case "", "desc":
	case "asc":
		f.Asc = true
	default:
		return f, domain.Invalid("order must be asc or desc")
	}
	var err error
	if f.From, err = parseBound(q.From, false); err != nil {
		return f, domain.Invalid("from must be a date or RFC 3339 timestamp")
	}
	if f.To, err = parseBound(q.To, true); err != nil {
		return f, domain.Invalid("to must be a date or RFC 3339 timestamp")
	}
	return f, nil
}

func parseBound(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}

// listOrdersHandler lists the account's order history. Query parameters
// status, from, to, product, seller, sort and order narrow and sort it.
func listOrdersHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q historyQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
			return
		}
		f, err := q.filter()
		if err != nil {
			writeError(c, err)
			return
		}
		orders, err := svc.List(c.Request.Context(), accountFrom(c).ID, f)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": orders, "count": len(orders)})
	}
}

func getOrderHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := idParam(c, "orderID")
		if !ok {
			return
		}
		o, err := svc.Get(c.Request.Context(), accountFrom(c).ID, orderID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

func listInventoryHandler(svc inventoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		recs, err := svc.ListBySeller(c.Request.Context(), accountFrom(c).ID)
		if err != nil {
			writeError(c, err)
			return
		}
		if recs == nil {
			recs = []domain.InventoryRecord{}
		}
		c.JSON(http.StatusOK, gin.H{"results": recs, "count": len(recs)})
	}
}

func upsertInventoryHandler(svc inventoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := idParam(c, "productID")
		if !ok {
			return
		}
		var req inventoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		rec, err := svc.Upsert(c.Request.Context(), domain.InventoryRecord{
			SellerID:    accountFrom(c).ID,
			ProductID:   productID,
			Quantity:    req.Quantity,
			SellerPrice: req.SellerPrice,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

func removeInventoryHandler(svc inventoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := idParam(c, "productID")
		if !ok {
			return
		}
		if err := svc.Remove(c.Request.Context(), accountFrom(c).ID, productID); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// listSalesHandler lists the order lines this account sold, optionally
// filtered by ?status=pending|fulfilled.
func listSalesHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		lines, err := svc.SellerLines(c.Request.Context(), accountFrom(c).ID, c.Query("status"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": lines, "count": len(lines)})
	}
}

func fulfillHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		lineID, ok := idParam(c, "lineID")
		if !ok {
			return
		}
		line, err := svc.Fulfill(c.Request.Context(), accountFrom(c).ID, lineID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, line)
	}
}
