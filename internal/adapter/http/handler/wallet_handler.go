package handler

import (
	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet command and query endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// CreateWallet handles POST /api/v1/wallets.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		response.Error(c, apperror.Validation("owner_id must be a valid UUID"))
		return
	}

	walletID, err := h.walletSvc.CreateWallet(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.CreateWalletResponse{WalletID: walletID.String()})
}

// Deposit handles POST /api/v1/wallets/deposit.
func (h *WalletHandler) Deposit(c *gin.Context) {
	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	walletID, ownerID, err := parseIDs(req.WalletID, req.OwnerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.walletSvc.Deposit(c.Request.Context(), walletID, ownerID, req.Amount); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Withdraw handles POST /api/v1/wallets/withdraw.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	walletID, ownerID, err := parseIDs(req.WalletID, req.OwnerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.walletSvc.Withdraw(c.Request.Context(), walletID, ownerID, req.Amount); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// GetBalance handles GET /api/v1/wallets/:wallet_id/balance. The balance is
// computed by replaying the wallet's full event stream.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("wallet_id"))
	if err != nil {
		response.Error(c, apperror.Validation("wallet_id must be a valid UUID"))
		return
	}
	ownerID, err := uuid.Parse(c.Query("owner_id"))
	if err != nil {
		response.Error(c, apperror.Validation("owner_id must be a valid UUID"))
		return
	}

	balance, err := h.walletSvc.GetBalance(c.Request.Context(), walletID, ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{WalletID: walletID.String(), Balance: balance})
}

// GetOwnerBalance handles GET /api/v1/owners/:owner_id/balance. It serves
// from the asynchronous read model and may lag behind recent commands.
func (h *WalletHandler) GetOwnerBalance(c *gin.Context) {
	ownerID, err := uuid.Parse(c.Param("owner_id"))
	if err != nil {
		response.Error(c, apperror.Validation("owner_id must be a valid UUID"))
		return
	}

	balance, err := h.walletSvc.GetOwnerBalance(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if balance == nil {
		response.Error(c, apperror.ErrWalletNotFound())
		return
	}

	response.OK(c, dto.OwnerBalanceResponse{OwnerID: ownerID.String(), Balance: balance})
}

func parseIDs(wallet, owner string) (uuid.UUID, uuid.UUID, error) {
	walletID, err := uuid.Parse(wallet)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperror.Validation("wallet_id must be a valid UUID")
	}
	ownerID, err := uuid.Parse(owner)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperror.Validation("owner_id must be a valid UUID")
	}
	return walletID, ownerID, nil
}
