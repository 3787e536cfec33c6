package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invest_ledger/handler"
	"github.com/invest_ledger/model"
	"github.com/invest_ledger/service"
)

// AdminController serves the back-office endpoints. Every route is mounted
// behind handler.Identity and handler.RequireAdmin.
type AdminController struct {
	ProductService    *service.ProductService
	WithdrawalService *service.WithdrawalService
	WalletService     *service.WalletService
	AccrualDriver     *service.AccrualDriver
}

// POST /api/v1/admin/products
func (c *AdminController) CreateProduct(ctx *gin.Context) {
	var in service.ProductInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := c.ProductService.Create(ctx.Request.Context(), handler.Actor(ctx), in)
	if err != nil {
		handler.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, p)
}

// PUT /api/v1/admin/products/:id/status
func (c *AdminController) SetProductStatus(ctx *gin.Context) {
	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := ctx.Param("id")
	if err := c.ProductService.SetActive(ctx.Request.Context(), handler.Actor(ctx), id, *req.IsActive); err != nil {
		handler.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"id": id, "is_active": *req.IsActive})
}

// GET /api/v1/admin/withdrawals?status=pending&page=1&size=20
func (c *AdminController) ListWithdrawals(ctx *gin.Context) {
	page, size := handler.Page(ctx)
	status := model.WithdrawalStatus(ctx.Query("status"))

	records, total, err := c.WithdrawalService.List(ctx.Request.Context(), handler.Actor(ctx), status, page, size)
	if err != nil {
		handler.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"total": total, "records": records})
}

// PUT /api/v1/admin/withdrawals/:id/process
func (c *AdminController) ProcessWithdrawal(ctx *gin.Context) {
	var req struct {
		Status model.WithdrawalStatus `json:"status" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := c.WithdrawalService.Process(ctx.Request.Context(), handler.Actor(ctx), ctx.Param("id"), req.Status)
	if err != nil {
		handler.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, w)
}

// POST /api/v1/admin/accrual/run
func (c *AdminController) RunAccrual(ctx *gin.Context) {
	run, err := c.AccrualDriver.Run(ctx.Request.Context())
	if err != nil {
		handler.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, run)
}

// GET /api/v1/admin/accrual/runs?day=2025-01-31
func (c *AdminController) ListAccrualRuns(ctx *gin.Context) {
	runs, err := c.AccrualDriver.Runs(ctx.Request.Context(), ctx.Query("day"))
	if err != nil {
		handler.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"records": runs})
}

// GET /api/v1/admin/users/:id/reconcile
func (c *AdminController) Reconcile(ctx *gin.Context) {
	rec, err := c.WalletService.Reconcile(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		handler.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, rec)
}
