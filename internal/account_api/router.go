package account_api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bancario/account-service/internal/account_api/handler"
	"github.com/bancario/account-service/internal/account_api/middleware"
	"github.com/bancario/account-service/internal/platform/resilience"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, accountHandler *handler.AccountHandler, breakers []*resilience.Breaker) {
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	v1 := r.Group("/api/v1")
	{
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.Create)
			accounts.GET("", accountHandler.ListByCustomer)
			accounts.GET("/daily-balances", accountHandler.DailyBalances)
			accounts.GET("/by-number/:number", accountHandler.GetByNumber)
			accounts.GET("/:id", accountHandler.GetByID)
			accounts.DELETE("/:id", accountHandler.Close)
			accounts.PUT("/:id/balance", accountHandler.UpdateBalance)
			accounts.GET("/:id/transaction-status", accountHandler.GetTransactionStatus)
			accounts.PATCH("/:id/transactions/increment", accountHandler.IncrementTransactions)
		}
	}

	// Health reports breaker states but stays 200 while the process is serving
	r.GET("/health", func(c *gin.Context) {
		states := make(map[string]string, len(breakers))
		for _, b := range breakers {
			states[b.Name()] = b.State().String()
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"breakers":  states,
		})
	})
}
