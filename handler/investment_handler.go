package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invest_ledger/service"
	"github.com/shopspring/decimal"
)

type InvestmentHandler struct {
	products    *service.ProductService
	investments *service.InvestmentService
}

func NewInvestmentHandler(products *service.ProductService, investments *service.InvestmentService) *InvestmentHandler {
	return &InvestmentHandler{products: products, investments: investments}
}

// GET /api/v1/products
func (h *InvestmentHandler) ListProducts(c *gin.Context) {
	list, err := h.products.ListActive(c.Request.Context())
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": list})
}

// GET /api/v1/products/:id
func (h *InvestmentHandler) GetProduct(c *gin.Context) {
	p, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// POST /api/v1/investments
func (h *InvestmentHandler) Create(c *gin.Context) {
	var req struct {
		ProductID string          `json:"product_id" binding:"required"`
		Amount    decimal.Decimal `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	inv, err := h.investments.Create(c.Request.Context(), Actor(c).UserID, req.ProductID, req.Amount)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// GET /api/v1/investments/:id
func (h *InvestmentHandler) Get(c *gin.Context) {
	inv, err := h.investments.Get(c.Request.Context(), Actor(c), c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// PUT /api/v1/investments/:id/cancel
func (h *InvestmentHandler) Cancel(c *gin.Context) {
	inv, err := h.investments.Cancel(c.Request.Context(), Actor(c), c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}
