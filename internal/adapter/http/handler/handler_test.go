package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pix-wallet/internal/adapter/http/middleware"
	"pix-wallet/internal/core/domain"
	"pix-wallet/internal/core/ports"
	"pix-wallet/internal/core/ports/mocks"
	"pix-wallet/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJSONContext(method, target, body string, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params
	return c, w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %s", w.Body.String())
	return data
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	code, _ := resp["error_code"].(string)
	return code
}

// --- Wallet Handler Tests ---

func TestWalletHandler_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(ledger)

	w := domain.NewWallet(time.Now().UTC())
	ledger.EXPECT().CreateWallet(gomock.Any()).Return(w, nil)

	c, rec := newJSONContext(http.MethodPost, "/api/v1/wallets", "")
	h.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, w.ID.String(), data["id"])
	assert.Equal(t, "0.00", data["balance"])
	assert.Equal(t, float64(0), data["version"])
}

func TestWalletHandler_Get_InvalidID(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := NewWalletHandler(mocks.NewMockLedgerService(ctrl))

	c, rec := newJSONContext(http.MethodGet, "/api/v1/wallets/nope", "", gin.Param{Key: "id", Value: "nope"})
	h.Get(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL_002", decodeErrorCode(t, rec))
}

func TestWalletHandler_Get_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(ledger)
	id := uuid.New()

	ledger.EXPECT().GetWallet(gomock.Any(), id).Return(nil, apperror.ErrNotFound("wallet"))

	c, rec := newJSONContext(http.MethodGet, "/", "", gin.Param{Key: "id", Value: id.String()})
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NF_001", decodeErrorCode(t, rec))
}

func TestWalletHandler_Credit(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(ledger)
	id := uuid.New()

	ledger.EXPECT().Credit(gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
			assert.Equal(t, "200.00", amount.StringFixed(2))
			return decimal.RequireFromString("200.00"), nil
		})

	c, rec := newJSONContext(http.MethodPost, "/", `{"amount":"200.00"}`, gin.Param{Key: "id", Value: id.String()})
	h.Credit(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, "200.00", data["balance"])
}

func TestWalletHandler_Debit_NumericAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(ledger)
	id := uuid.New()

	ledger.EXPECT().Debit(gomock.Any(), id, decimal.RequireFromString("12.5")).
		Return(decimal.Zero, apperror.ErrInsufficientBalance())

	c, rec := newJSONContext(http.MethodPost, "/", `{"amount":12.5}`, gin.Param{Key: "id", Value: id.String()})
	h.Debit(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "LED_001", decodeErrorCode(t, rec))
}

func TestWalletHandler_Credit_MalformedBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := NewWalletHandler(mocks.NewMockLedgerService(ctrl))
	id := uuid.New()

	c, rec := newJSONContext(http.MethodPost, "/", `{"amount":"abc"}`, gin.Param{Key: "id", Value: id.String()})
	h.Credit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWalletHandler_Balance(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(ledger)
	id := uuid.New()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	ledger.EXPECT().GetWallet(gomock.Any(), id).Return(&domain.Wallet{ID: id, Balance: decimal.RequireFromString("150")}, nil)
	ledger.EXPECT().BalanceAt(gomock.Any(), id, at).Return(decimal.RequireFromString("200"), nil)

	c, rec := newJSONContext(http.MethodGet, "/api/v1/wallets/"+id.String()+"/balance", "", gin.Param{Key: "id", Value: id.String()})
	h.Balance(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "150.00", decodeData(t, rec)["balance"])

	c, rec = newJSONContext(http.MethodGet, "/api/v1/wallets/"+id.String()+"/balance?at=2026-01-02T03:04:05Z", "", gin.Param{Key: "id", Value: id.String()})
	h.Balance(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, "200.00", data["balance"])
	assert.Equal(t, "2026-01-02T03:04:05Z", data["at"])
}

func TestWalletHandler_Balance_BadTimestamp(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := NewWalletHandler(mocks.NewMockLedgerService(ctrl))
	id := uuid.New()

	c, rec := newJSONContext(http.MethodGet, "/x?at=yesterday", "", gin.Param{Key: "id", Value: id.String()})
	h.Balance(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWalletHandler_Transactions(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(ledger)
	id := uuid.New()

	entry := domain.NewWalletTransaction(id, domain.WalletTransactionCredit, decimal.RequireFromString("10"), decimal.RequireFromString("10"), time.Now().UTC())
	ledger.EXPECT().Transactions(gomock.Any(), id, 5).Return([]domain.WalletTransaction{*entry}, nil)

	c, rec := newJSONContext(http.MethodGet, "/x?limit=5", "", gin.Param{Key: "id", Value: id.String()})
	h.Transactions(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "CREDIT", resp.Data[0]["type"])
	assert.Equal(t, "10.00", resp.Data[0]["balance_after"])

	c, rec = newJSONContext(http.MethodGet, "/x?limit=-1", "", gin.Param{Key: "id", Value: id.String()})
	h.Transactions(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWalletHandler_Transfer(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(ledger)
	from, to := uuid.New(), uuid.New()

	ledger.EXPECT().Transfer(gomock.Any(), from, to, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ uuid.UUID, amount decimal.Decimal) (*ports.WalletTransferResult, error) {
			assert.Equal(t, "25.50", amount.StringFixed(2))
			return &ports.WalletTransferResult{
				FromBalance: decimal.RequireFromString("74.5"),
				ToBalance:   decimal.RequireFromString("25.5"),
			}, nil
		})

	c, rec := newJSONContext(http.MethodPost, "/api/v1/wallets/transfer",
		`{"from_wallet_id":"`+from.String()+`","to_wallet_id":"`+to.String()+`","amount":"25.50"}`)
	h.Transfer(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, "25.50", data["amount"])
	assert.Equal(t, "74.50", data["from_balance"])
	assert.Equal(t, "25.50", data["to_balance"])

	walletID, ok := c.Get(middleware.CtxWalletID)
	require.True(t, ok)
	assert.Equal(t, from, walletID)
}

func TestWalletHandler_Transfer_Errors(t *testing.T) {
	from, to := uuid.New(), uuid.New()

	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{"missing destination", `{"from_wallet_id":"` + from.String() + `","amount":"1.00"}`, nil, http.StatusBadRequest, "VAL_002"},
		{"bad uuid", `{"from_wallet_id":"nope","to_wallet_id":"` + to.String() + `","amount":"1.00"}`, nil, http.StatusBadRequest, "VAL_002"},
		{"same wallet", `{"from_wallet_id":"` + from.String() + `","to_wallet_id":"` + to.String() + `","amount":"1.00"}`, apperror.ErrInvalidTransfer("cannot transfer to the same wallet"), http.StatusUnprocessableEntity, "TRF_001"},
		{"insufficient balance", `{"from_wallet_id":"` + from.String() + `","to_wallet_id":"` + to.String() + `","amount":"1.00"}`, apperror.ErrInsufficientBalance(), http.StatusUnprocessableEntity, "LED_001"},
		{"unknown wallet", `{"from_wallet_id":"` + from.String() + `","to_wallet_id":"` + to.String() + `","amount":"1.00"}`, apperror.ErrNotFound("wallet"), http.StatusNotFound, "NF_001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ledger := mocks.NewMockLedgerService(ctrl)
			h := NewWalletHandler(ledger)
			if tt.err != nil {
				ledger.EXPECT().Transfer(gomock.Any(), from, to, gomock.Any()).Return(nil, tt.err)
			}

			c, rec := newJSONContext(http.MethodPost, "/api/v1/wallets/transfer", tt.body)
			h.Transfer(c)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeErrorCode(t, rec))
		})
	}
}

// --- Pix Key Handler Tests ---

func TestPixKeyHandler_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	keys := mocks.NewMockPixKeyService(ctrl)
	h := NewPixKeyHandler(keys)
	walletID := uuid.New()

	keys.EXPECT().Register(gomock.Any(), domain.PixKeyTypeEmail, "a@x.com", walletID).Return(&domain.PixKey{
		ID:       uuid.New(),
		Type:     domain.PixKeyTypeEmail,
		Value:    "a@x.com",
		WalletID: walletID,
	}, nil)

	c, rec := newJSONContext(http.MethodPost, "/", `{"type":"EMAIL","value":" a@x.com "}`, gin.Param{Key: "id", Value: walletID.String()})
	h.Register(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, "a@x.com", data["value"])
	assert.Equal(t, walletID.String(), data["wallet_id"])
}

func TestPixKeyHandler_Register_Duplicate(t *testing.T) {
	ctrl := gomock.NewController(t)
	keys := mocks.NewMockPixKeyService(ctrl)
	h := NewPixKeyHandler(keys)
	walletID := uuid.New()

	keys.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, apperror.ErrPixKeyExists())

	c, rec := newJSONContext(http.MethodPost, "/", `{"type":"EMAIL","value":"a@x.com"}`, gin.Param{Key: "id", Value: walletID.String()})
	h.Register(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "KEY_001", decodeErrorCode(t, rec))
}

func TestPixKeyHandler_Register_UnknownType(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := NewPixKeyHandler(mocks.NewMockPixKeyService(ctrl))

	c, rec := newJSONContext(http.MethodPost, "/", `{"type":"CPF","value":"123"}`, gin.Param{Key: "id", Value: uuid.NewString()})
	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPixKeyHandler_Resolve(t *testing.T) {
	ctrl := gomock.NewController(t)
	keys := mocks.NewMockPixKeyService(ctrl)
	h := NewPixKeyHandler(keys)

	keys.EXPECT().Resolve(gomock.Any(), domain.PixKeyTypePhone, "+5511987654321").Return(nil, apperror.ErrNotFound("pix key"))

	c, rec := newJSONContext(http.MethodGet, "/", "",
		gin.Param{Key: "type", Value: "PHONE"},
		gin.Param{Key: "value", Value: "+5511987654321"},
	)
	h.Resolve(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- Transfer Handler Tests ---

func TestTransferHandler_Initiate(t *testing.T) {
	ctrl := gomock.NewController(t)
	transfers := mocks.NewMockTransferService(ctrl)
	h := NewTransferHandler(transfers)

	source := uuid.New()
	key := &domain.PixKey{ID: uuid.New(), WalletID: uuid.New()}
	transfer := domain.NewTransfer(source, key, decimal.RequireFromString("50"), time.Now().UTC())

	transfers.EXPECT().Initiate(gomock.Any(), ports.InitiateTransferRequest{
		SourceWalletID: source,
		PixKeyType:     domain.PixKeyTypeEmail,
		PixKeyValue:    "y@x.com",
		Amount:         decimal.RequireFromString("50.00"),
	}).Return(transfer, nil)

	body := `{"from_wallet_id":"` + source.String() + `","pix_key_type":"EMAIL","pix_key_value":"y@x.com","amount":"50.00"}`
	c, rec := newJSONContext(http.MethodPost, "/api/v1/transfers", body)
	h.Initiate(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, transfer.CorrelationID, data["end_to_end_id"])
	assert.Equal(t, "50.00", data["amount"])
	assert.Equal(t, key.WalletID.String(), data["to_wallet_id"])
	assert.Equal(t, "PENDING", data["status"])
	assert.NotEmpty(t, data["created_at"])
}

func TestTransferHandler_Initiate_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := NewTransferHandler(mocks.NewMockTransferService(ctrl))

	c, rec := newJSONContext(http.MethodPost, "/api/v1/transfers", `{"from_wallet_id":"not-a-uuid","pix_key_type":"EMAIL","pix_key_value":"y@x.com","amount":"1"}`)
	h.Initiate(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL_002", decodeErrorCode(t, rec))
}

func TestTransferHandler_Get_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	transfers := mocks.NewMockTransferService(ctrl)
	h := NewTransferHandler(transfers)

	transfers.EXPECT().GetByCorrelationID(gomock.Any(), "E2E-x").Return(nil, apperror.ErrTransferNotFound())

	c, rec := newJSONContext(http.MethodGet, "/", "", gin.Param{Key: "end_to_end_id", Value: "E2E-x"})
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SET_001", decodeErrorCode(t, rec))
}

// --- Settlement Handler Tests ---

func TestSettlementHandler_Outcomes(t *testing.T) {
	ts := "2026-03-01T12:00:00Z"
	parsed, _ := time.Parse(time.RFC3339, ts)
	transfer := &domain.Transfer{
		ID:              uuid.New(),
		SourceWalletID:  uuid.New(),
		Amount:          decimal.RequireFromString("50"),
		CorrelationID:   "E2E-abc",
		Status:          domain.TransferStatusConfirmed,
		StatusUpdatedAt: parsed,
	}

	tests := []struct {
		name   string
		result ports.SettlementResult
		err    error
		status int
		code   string
	}{
		{"applied", ports.SettlementResult{Outcome: ports.SettlementOutcomeApplied, Transfer: transfer}, nil, http.StatusOK, ""},
		{"not found", ports.SettlementResult{}, apperror.ErrTransferNotFound(), http.StatusNotFound, "SET_001"},
		{"ignored", ports.SettlementResult{}, apperror.ErrEventIgnored("duplicate"), http.StatusConflict, "SET_002"},
		{"failed", ports.SettlementResult{}, apperror.ErrSettlementFailed(errors.New("insufficient balance")), http.StatusUnprocessableEntity, "SET_003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			settlement := mocks.NewMockSettlementService(ctrl)
			h := NewSettlementHandler(settlement)

			settlement.EXPECT().HandleEvent(gomock.Any(), ports.SettlementEvent{
				CorrelationID:  "E2E-abc",
				ProposedStatus: domain.TransferStatusConfirmed,
				Timestamp:      parsed,
			}).Return(tt.result, tt.err)

			c, rec := newJSONContext(http.MethodPost, "/api/v1/webhooks/settlement",
				`{"end_to_end_id":"E2E-abc","status":"CONFIRMED","timestamp":"`+ts+`"}`)
			h.Handle(c)

			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeErrorCode(t, rec))
				return
			}
			data := decodeData(t, rec)
			assert.Equal(t, "APPLIED", data["outcome"])
		})
	}
}

func TestSettlementHandler_RejectsPendingStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := NewSettlementHandler(mocks.NewMockSettlementService(ctrl))

	c, rec := newJSONContext(http.MethodPost, "/", `{"end_to_end_id":"E2E-abc","status":"PENDING","timestamp":"2026-03-01T12:00:00Z"}`)
	h.Handle(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL_002", decodeErrorCode(t, rec))
}

func TestSettlementHandler_ServiceValidationIsBadRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	settlement := mocks.NewMockSettlementService(ctrl)
	h := NewSettlementHandler(settlement)

	settlement.EXPECT().HandleEvent(gomock.Any(), gomock.Any()).
		Return(ports.SettlementResult{}, apperror.Validation("status must be CONFIRMED or REJECTED"))

	c, rec := newJSONContext(http.MethodPost, "/", `{"end_to_end_id":"E2E-abc","status":"REJECTED","timestamp":"2026-03-01T12:00:00Z"}`)
	h.Handle(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL_002", decodeErrorCode(t, rec))
}

// --- Health / Docs ---

func TestHealthCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	healthy := mocks.NewMockHealthChecker(ctrl)
	healthy.EXPECT().Ping(gomock.Any()).Return(nil).AnyTimes()
	healthy.EXPECT().Name().Return("postgres").AnyTimes()

	c, rec := newJSONContext(http.MethodGet, "/health", "")
	HealthCheck(healthy)(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	ctrl := gomock.NewController(t)
	broken := mocks.NewMockHealthChecker(ctrl)
	broken.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))
	broken.EXPECT().Name().Return("redis").AnyTimes()

	c, rec := newJSONContext(http.MethodGet, "/health", "")
	HealthCheck(broken)(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestDocsHandler(t *testing.T) {
	h := NewDocsHandler([]byte("openapi: '3.0.3'\ninfo:\n  title: Pix Wallet"))

	c, rec := newJSONContext(http.MethodGet, "/swagger", "")
	h.UI(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "/swagger/spec")

	c, rec = newJSONContext(http.MethodGet, "/swagger/spec", "")
	h.Spec(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "openapi")

	c, rec = newJSONContext(http.MethodGet, "/swagger/spec", "")
	NewDocsHandler(nil).Spec(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
