package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/core/ports/mocks"
	"wallet-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func postJSON(t *testing.T, path string, body any) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")
	return w, c
}

func errorCodeOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	code, _ := resp["error_code"].(string)
	return code
}

// --- CreateWallet ---

func TestCreateWallet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockSvc)

	ownerID := uuid.New()
	walletID := uuid.New()
	mockSvc.EXPECT().CreateWallet(gomock.Any(), ownerID).Return(walletID, nil)

	w, c := postJSON(t, "/api/v1/wallets", dto.CreateWalletRequest{OwnerID: ownerID.String()})
	h.CreateWallet(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, walletID.String(), data["wallet_id"])
}

func TestCreateWallet_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockSvc)

	w, c := postJSON(t, "/api/v1/wallets", map[string]string{"owner_id": "not-a-uuid"})
	h.CreateWallet(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VAL_001", errorCodeOf(t, w))
}

// --- Deposit ---

func TestDeposit_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockSvc)

	walletID := uuid.New()
	ownerID := uuid.New()
	mockSvc.EXPECT().Deposit(gomock.Any(), walletID, ownerID, int64(250)).Return(nil)

	w, c := postJSON(t, "/api/v1/wallets/deposit", dto.DepositRequest{
		WalletID: walletID.String(),
		OwnerID:  ownerID.String(),
		Amount:   250,
	})
	h.Deposit(c)
	// Gin defers the status header until the engine flushes it; when calling
	// the handler directly, flush explicitly so the recorder sees the 204.
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestDeposit_NonPositiveAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockSvc)

	w, c := postJSON(t, "/api/v1/wallets/deposit", map[string]any{
		"wallet_id": uuid.NewString(),
		"owner_id":  uuid.NewString(),
		"amount":    -5,
	})
	h.Deposit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeposit_ConflictMapsTo409(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockSvc)

	walletID := uuid.New()
	ownerID := uuid.New()
	mockSvc.EXPECT().Deposit(gomock.Any(), walletID, ownerID, int64(10)).
		Return(apperror.ErrConcurrencyConflict(0, 2, nil))

	w, c := postJSON(t, "/api/v1/wallets/deposit", dto.DepositRequest{
		WalletID: walletID.String(),
		OwnerID:  ownerID.String(),
		Amount:   10,
	})
	h.Deposit(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CON_001", errorCodeOf(t, w))
}

// --- Withdraw ---

func TestWithdraw_InsufficientFundsMapsTo402(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockSvc)

	walletID := uuid.New()
	ownerID := uuid.New()
	mockSvc.EXPECT().Withdraw(gomock.Any(), walletID, ownerID, int64(500)).
		Return(apperror.ErrInsufficientFunds())

	w, c := postJSON(t, "/api/v1/wallets/withdraw", dto.WithdrawRequest{
		WalletID: walletID.String(),
		OwnerID:  ownerID.String(),
		Amount:   500,
	})
	h.Withdraw(c)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, "WAL_002", errorCodeOf(t, w))
}

// --- GetBalance ---

func TestGetBalance_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockWalletService(ctrl)
	walletID := uuid.New()
	ownerID := uuid.New()
	mockSvc.EXPECT().GetBalance(gomock.Any(), walletID, ownerID).Return(int64(70), nil)

	r := SetupRouter(RouterDeps{WalletSvc: mockSvc})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/"+walletID.String()+"/balance?owner_id="+ownerID.String(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, walletID.String(), data["wallet_id"])
	assert.Equal(t, float64(70), data["balance"])
}

func TestGetBalance_BadWalletID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockWalletService(ctrl)
	r := SetupRouter(RouterDeps{WalletSvc: mockSvc})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/nope/balance?owner_id="+uuid.NewString(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- GetOwnerBalance ---

func TestGetOwnerBalance_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockWalletService(ctrl)
	ownerID := uuid.New()
	balance := int64(300)
	mockSvc.EXPECT().GetOwnerBalance(gomock.Any(), ownerID).Return(&balance, nil)

	r := SetupRouter(RouterDeps{WalletSvc: mockSvc})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/owners/"+ownerID.String()+"/balance", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(300), data["balance"])
}

func TestGetOwnerBalance_NotProjectedYet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockWalletService(ctrl)
	ownerID := uuid.New()
	mockSvc.EXPECT().GetOwnerBalance(gomock.Any(), ownerID).Return(nil, nil)

	r := SetupRouter(RouterDeps{WalletSvc: mockSvc})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/owners/"+ownerID.String()+"/balance", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "WAL_003", errorCodeOf(t, w))
}

// --- Health ---

type staticChecker struct {
	name string
	err  error
}

func (s staticChecker) Ping(_ context.Context) error { return s.err }
func (s staticChecker) Name() string                 { return s.name }

func TestHealth_AllHealthy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockWalletService(ctrl)
	r := SetupRouter(RouterDeps{
		WalletSvc: mockSvc,
		HealthCheckers: []ports.HealthChecker{
			staticChecker{name: "postgresql"},
			staticChecker{name: "redis"},
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealth_Degraded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockWalletService(ctrl)
	r := SetupRouter(RouterDeps{
		WalletSvc: mockSvc,
		HealthCheckers: []ports.HealthChecker{
			staticChecker{name: "postgresql"},
			staticChecker{name: "redis", err: errors.New("connection refused")},
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
