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

// PixKeyHandler handles alias directory endpoints.
type PixKeyHandler struct {
	keys ports.PixKeyService
}

// NewPixKeyHandler creates a new PixKeyHandler.
func NewPixKeyHandler(keys ports.PixKeyService) *PixKeyHandler {
	return &PixKeyHandler{keys: keys}
}

// Register handles POST /api/v1/wallets/:id/pix-keys.
func (h *PixKeyHandler) Register(c *gin.Context) {
	walletID, ok := walletIDParam(c)
	if !ok {
		return
	}

	var req dto.RegisterPixKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	key, err := h.keys.Register(c.Request.Context(), domain.PixKeyType(req.Type), req.Value, walletID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, key.ID.String())
	response.Created(c, dto.NewPixKeyResponse(key))
}

// Resolve handles GET /api/v1/pix-keys/:type/:value.
func (h *PixKeyHandler) Resolve(c *gin.Context) {
	key, err := h.keys.Resolve(c.Request.Context(), domain.PixKeyType(c.Param("type")), c.Param("value"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewPixKeyResponse(key))
}
