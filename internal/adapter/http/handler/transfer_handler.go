package handler

import (
	"pix-wallet/internal/adapter/http/dto"
	"pix-wallet/internal/adapter/http/middleware"
	"pix-wallet/internal/core/domain"
	"pix-wallet/internal/core/ports"
	"pix-wallet/pkg/apperror"
	"pix-wallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransferHandler handles transfer initiation and lookup.
type TransferHandler struct {
	transfers ports.TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transfers ports.TransferService) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

// Initiate handles POST /api/v1/transfers.
func (h *TransferHandler) Initiate(c *gin.Context) {
	var req dto.InitiateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	sourceID, err := uuid.Parse(req.FromWalletID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid from_wallet_id"))
		return
	}

	transfer, err := h.transfers.Initiate(c.Request.Context(), ports.InitiateTransferRequest{
		SourceWalletID: sourceID,
		PixKeyType:     domain.PixKeyType(req.PixKeyType),
		PixKeyValue:    req.PixKeyValue,
		Amount:         req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxWalletID, transfer.SourceWalletID)
	c.Set(middleware.CtxResourceID, transfer.CorrelationID)
	response.Created(c, dto.NewTransferResponse(transfer))
}

// Get handles GET /api/v1/transfers/:end_to_end_id.
func (h *TransferHandler) Get(c *gin.Context) {
	transfer, err := h.transfers.GetByCorrelationID(c.Request.Context(), c.Param("end_to_end_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewTransferResponse(transfer))
}
