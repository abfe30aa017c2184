package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"marketplace/internal/domain"
	productsvc "marketplace/internal/service/product"
)

type categoryRequest struct {
	Name string `json:"name"`
}

func listCategoriesHandler(svc categoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cats, err := svc.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": cats, "count": len(cats)})
	}
}

func upsertCategoryHandler(svc categoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req categoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		cat, err := svc.Upsert(c.Request.Context(), req.Name)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cat)
	}
}

func listProductsHandler(svc productService) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := svc.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": products, "count": len(products)})
	}
}

func getProductHandler(svc productService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "productID")
		if !ok {
			return
		}
		p, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func listOffersHandler(svc inventoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "productID")
		if !ok {
			return
		}
		offers, err := svc.Offers(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		if offers == nil {
			offers = []domain.InventoryRecord{}
		}
		c.JSON(http.StatusOK, gin.H{"productId": id, "offers": offers})
	}
}

func createProductHandler(svc productService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req productsvc.Input
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		p, err := svc.Create(c.Request.Context(), accountFrom(c).ID, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

func updateProductHandler(svc productService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "productID")
		if !ok {
			return
		}
		var req productsvc.Input
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		p, err := svc.Update(c.Request.Context(), accountFrom(c).ID, id, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}
