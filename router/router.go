package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invest_ledger/controller"
	"github.com/invest_ledger/handler"
	"github.com/invest_ledger/metrics"
)

func SetupRouter(walletHandler *handler.WalletHandler, investmentHandler *handler.InvestmentHandler, admin *controller.AdminController) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), metrics.Middleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api/v1")
	{
		api.POST("/users", walletHandler.Register)
		api.GET("/products", investmentHandler.ListProducts)
		api.GET("/products/:id", investmentHandler.GetProduct)
	}

	authed := api.Group("", handler.Identity())
	{
		authed.GET("/me", walletHandler.Me)
		authed.GET("/me/transactions", walletHandler.Transactions)
		authed.GET("/me/investments", walletHandler.Investments)
		authed.GET("/me/withdrawals", walletHandler.Withdrawals)

		authed.POST("/investments", investmentHandler.Create)
		authed.GET("/investments/:id", investmentHandler.Get)
		authed.PUT("/investments/:id/cancel", investmentHandler.Cancel)

		authed.POST("/withdrawals", walletHandler.RequestWithdraw)
	}

	adm := authed.Group("/admin", handler.RequireAdmin())
	{
		adm.POST("/products", admin.CreateProduct)
		adm.PUT("/products/:id/status", admin.SetProductStatus)
		adm.GET("/withdrawals", admin.ListWithdrawals)
		adm.PUT("/withdrawals/:id/process", admin.ProcessWithdrawal)
		adm.POST("/accrual/run", admin.RunAccrual)
		adm.GET("/accrual/runs", admin.ListAccrualRuns)
		adm.GET("/users/:id/reconcile", admin.Reconcile)
	}

	return r
}
