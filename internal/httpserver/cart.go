package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	cartsvc "marketplace/internal/service/cart"
)

func getCartHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svc.Get(c.Request.Context(), accountFrom(c).ID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func addCartLineHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cartsvc.AddInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		line, err := svc.Add(c.Request.Context(), accountFrom(c).ID, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, line)
	}
}

func updateCartLineHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		lineID, ok := idParam(c, "lineID")
		if !ok {
			return
		}
		var req cartsvc.UpdateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		view, err := svc.Update(c.Request.Context(), accountFrom(c).ID, lineID, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func removeCartLineHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		lineID, ok := idParam(c, "lineID")
		if !ok {
			return
		}
		if err := svc.Remove(c.Request.Context(), accountFrom(c).ID, lineID); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
