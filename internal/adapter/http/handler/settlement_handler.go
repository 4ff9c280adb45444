package handler

import (
	"pix-wallet/internal/adapter/http/dto"
	"pix-wallet/internal/adapter/http/middleware"
	"pix-wallet/internal/core/domain"
	"pix-wallet/internal/core/ports"
	"pix-wallet/pkg/apperror"
	"pix-wallet/pkg/response"

	"github.com/gin-gonic/gin"
)

// SettlementHandler receives settlement events from the payment rail.
// Responses: 200 applied, 404 unknown transfer, 409 event ignored. The
// provider is expected to stop redelivering on any of them.
type SettlementHandler struct {
	settlement ports.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlement ports.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlement: settlement}
}

// Handle handles POST /api/v1/webhooks/settlement.
func (h *SettlementHandler) Handle(c *gin.Context) {
	var req dto.SettlementEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.settlement.HandleEvent(c.Request.Context(), ports.SettlementEvent{
		CorrelationID:  req.EndToEndID,
		ProposedStatus: domain.TransferStatus(req.Status),
		Timestamp:      req.Timestamp,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxWalletID, result.Transfer.SourceWalletID)
	c.Set(middleware.CtxResourceID, result.Transfer.CorrelationID)
	response.OK(c, dto.SettlementResponse{
		Outcome:  result.Outcome,
		Transfer: dto.NewTransferResponse(result.Transfer),
	})
}
