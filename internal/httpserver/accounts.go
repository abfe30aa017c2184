package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	accountsvc "marketplace/internal/service/account"
)

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func createAccountHandler(svc accountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req accountsvc.CreateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		acct, err := svc.Create(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, acct)
	}
}

func getAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, accountFrom(c))
	}
}

func depositHandler(svc accountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req amountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		acct, err := svc.Deposit(c.Request.Context(), accountFrom(c).ID, req.Amount)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, acct)
	}
}

func withdrawHandler(svc accountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req amountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		acct, err := svc.Withdraw(c.Request.Context(), accountFrom(c).ID, req.Amount)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, acct)
	}
}
