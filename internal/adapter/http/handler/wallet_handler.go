package handler

import (
	"context"
	"strconv"
	"time"

	"pix-wallet/internal/adapter/http/dto"
	"pix-wallet/internal/adapter/http/middleware"
	"pix-wallet/internal/core/domain"
	"pix-wallet/internal/core/ports"
	"pix-wallet/pkg/apperror"
	"pix-wallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletHandler handles wallet ledger endpoints.
type WalletHandler struct {
	ledger ports.LedgerService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledger ports.LedgerService) *WalletHandler {
	return &WalletHandler{ledger: ledger}
}

// Create handles POST /api/v1/wallets.
func (h *WalletHandler) Create(c *gin.Context) {
	w, err := h.ledger.CreateWallet(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxWalletID, w.ID)
	c.Set(middleware.CtxResourceID, w.ID.String())
	response.Created(c, dto.NewWalletResponse(w))
}

// Get handles GET /api/v1/wallets/:id.
func (h *WalletHandler) Get(c *gin.Context) {
	walletID, ok := walletIDParam(c)
	if !ok {
		return
	}

	w, err := h.ledger.GetWallet(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewWalletResponse(w))
}

// Balance handles GET /api/v1/wallets/:id/balance. With ?at=<RFC3339> it
// returns the balance recorded at that instant.
func (h *WalletHandler) Balance(c *gin.Context) {
	walletID, ok := walletIDParam(c)
	if !ok {
		return
	}

	atParam := c.Query("at")
	if atParam == "" {
		w, err := h.ledger.GetWallet(c.Request.Context(), walletID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, dto.BalanceResponse{
			WalletID: walletID.String(),
			Balance:  domain.FormatAmount(w.Balance),
		})
		return
	}

	at, err := time.Parse(time.RFC3339, atParam)
	if err != nil {
		response.Error(c, apperror.Validation("at must be an RFC3339 timestamp"))
		return
	}

	balance, err := h.ledger.BalanceAt(c.Request.Context(), walletID, at)
	if err != nil {
		response.Error(c, err)
		return
	}

	formatted := dto.FormatTime(at)
	response.OK(c, dto.BalanceResponse{
		WalletID: walletID.String(),
		Balance:  domain.FormatAmount(balance),
		At:       &formatted,
	})
}

// Credit handles POST /api/v1/wallets/:id/credit.
func (h *WalletHandler) Credit(c *gin.Context) {
	h.mutate(c, h.ledger.Credit)
}

// Debit handles POST /api/v1/wallets/:id/debit.
func (h *WalletHandler) Debit(c *gin.Context) {
	h.mutate(c, h.ledger.Debit)
}

func (h *WalletHandler) mutate(c *gin.Context, op func(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)) {
	walletID, ok := walletIDParam(c)
	if !ok {
		return
	}

	var req dto.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	balance, err := op(c.Request.Context(), walletID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, walletID.String())
	response.OK(c, dto.BalanceResponse{
		WalletID: walletID.String(),
		Balance:  domain.FormatAmount(balance),
	})
}

// Transfer handles POST /api/v1/wallets/transfer.
func (h *WalletHandler) Transfer(c *gin.Context) {
	var req dto.WalletTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	fromID, err := uuid.Parse(req.FromWalletID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid from_wallet_id"))
		return
	}
	toID, err := uuid.Parse(req.ToWalletID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid to_wallet_id"))
		return
	}

	result, err := h.ledger.Transfer(c.Request.Context(), fromID, toID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxWalletID, fromID)
	c.Set(middleware.CtxResourceID, toID.String())
	response.OK(c, dto.WalletTransferResponse{
		FromWalletID: fromID.String(),
		ToWalletID:   toID.String(),
		Amount:       domain.FormatAmount(req.Amount),
		FromBalance:  domain.FormatAmount(result.FromBalance),
		ToBalance:    domain.FormatAmount(result.ToBalance),
	})
}

// Transactions handles GET /api/v1/wallets/:id/transactions?limit=N.
func (h *WalletHandler) Transactions(c *gin.Context) {
	walletID, ok := walletIDParam(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.Error(c, apperror.Validation("limit must be a positive integer"))
			return
		}
		limit = n
	}

	txns, err := h.ledger.Transactions(c.Request.Context(), walletID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, dto.NewWalletTransactionResponses(txns), len(txns))
}

// walletIDParam parses the :id path parameter, writing a validation error
// response when it is not a UUID.
func walletIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return uuid.Nil, false
	}
	return id, true
}
