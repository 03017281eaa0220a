package dto

// CreateWalletRequest is the request body for POST /api/v1/wallets.
type CreateWalletRequest struct {
	OwnerID string `json:"owner_id" binding:"required,uuid"`
}

// CreateWalletResponse returns the generated wallet id.
type CreateWalletResponse struct {
	WalletID string `json:"wallet_id"`
}

// DepositRequest is the request body for POST /api/v1/wallets/deposit.
// Amount is in minor units (cents).
type DepositRequest struct {
	WalletID string `json:"wallet_id" binding:"required,uuid"`
	OwnerID  string `json:"owner_id" binding:"required,uuid"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
}

// WithdrawRequest is the request body for POST /api/v1/wallets/withdraw.
type WithdrawRequest struct {
	WalletID string `json:"wallet_id" binding:"required,uuid"`
	OwnerID  string `json:"owner_id" binding:"required,uuid"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
}

// BalanceResponse is the strict, replay-backed balance of one wallet.
type BalanceResponse struct {
	WalletID string `json:"wallet_id"`
	Balance  int64  `json:"balance"`
}

// OwnerBalanceResponse is the eventually consistent read-model balance of an
// owner's latest wallet. Balance may lag behind recent commands.
type OwnerBalanceResponse struct {
	OwnerID string `json:"owner_id"`
	Balance *int64 `json:"balance"`
}
