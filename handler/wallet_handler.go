package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invest_ledger/model"
	"github.com/invest_ledger/service"
	"github.com/shopspring/decimal"
)

// WalletHandler serves the caller's own account: profile, ledger and withdrawals.
type WalletHandler struct {
	users       *service.UserService
	wallet      *service.WalletService
	investments *service.InvestmentService
	withdrawals *service.WithdrawalService
}

func NewWalletHandler(users *service.UserService, wallet *service.WalletService, investments *service.InvestmentService, withdrawals *service.WithdrawalService) *WalletHandler {
	return &WalletHandler{users: users, wallet: wallet, investments: investments, withdrawals: withdrawals}
}

// POST /api/v1/users
func (h *WalletHandler) Register(c *gin.Context) {
	var req struct {
		Phone        string `json:"phone" binding:"required"`
		ReferralCode string `json:"referral_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.users.Register(c.Request.Context(), req.Phone, req.ReferralCode, false)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// GET /api/v1/me
func (h *WalletHandler) Me(c *gin.Context) {
	p, err := h.users.Profile(c.Request.Context(), Actor(c).UserID)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/v1/me/transactions[?type=gain]
func (h *WalletHandler) Transactions(c *gin.Context) {
	ctx := c.Request.Context()
	userID := Actor(c).UserID
	if typ := c.Query("type"); typ != "" {
		list, err := h.wallet.HistoryByType(ctx, userID, model.TransactionType(typ))
		if err != nil {
			WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"total": len(list), "records": list})
		return
	}
	page, size := Page(c)
	list, total, err := h.wallet.GetHistory(ctx, userID, page, size)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "records": list})
}

// GET /api/v1/me/investments
func (h *WalletHandler) Investments(c *gin.Context) {
	list, err := h.investments.ListByUser(c.Request.Context(), Actor(c).UserID)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": list})
}

// GET /api/v1/me/withdrawals
func (h *WalletHandler) Withdrawals(c *gin.Context) {
	list, err := h.withdrawals.ListByUser(c.Request.Context(), Actor(c).UserID)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": list})
}

// POST /api/v1/withdrawals
func (h *WalletHandler) RequestWithdraw(c *gin.Context) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
		Phone  string          `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := h.withdrawals.Request(c.Request.Context(), Actor(c).UserID, req.Amount, req.Phone)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}
