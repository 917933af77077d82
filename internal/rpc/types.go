package rpc

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000
	CodeRejected       = -32001 // State transition refused (insufficient funds, unauthorized, paused).
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ── Param types ─────────────────────────────────────────────────────────

// AssetParam selects a ledger by address or symbol.
type AssetParam struct {
	Asset string `json:"asset"`
}

// BalanceParam is used by ledger_balanceOf and native_getBalance.
type BalanceParam struct {
	Asset   string `json:"asset,omitempty"`
	Address string `json:"address"`
}

// AllowanceParam is used by ledger_allowance.
type AllowanceParam struct {
	Asset   string `json:"asset"`
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
}

// TransferParam is used by ledger_transfer, ledger_mint and ledger_burn.
type TransferParam struct {
	Asset  string `json:"asset"`
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// ApproveParam is used by ledger_approve.
type ApproveParam struct {
	Asset   string `json:"asset"`
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Amount  uint64 `json:"amount"`
}

// TransferFromParam is used by ledger_transferFrom.
type TransferFromParam struct {
	Asset   string `json:"asset"`
	Spender string `json:"spender"`
	From    string `json:"from"`
	To      string `json:"to"`
	Amount  uint64 `json:"amount"`
}

// CreateAssetParam is used by ledger_create.
type CreateAssetParam struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	Owner    string `json:"owner"`
}

// PauseParam is used by ledger_pause and ledger_unpause.
type PauseParam struct {
	Asset  string `json:"asset"`
	Caller string `json:"caller"`
}

// ListingParam is used by exchange_listToken and exchange_delistToken.
type ListingParam struct {
	Caller string `json:"caller"`
	Asset  string `json:"asset"`
}

// RateParam is used by exchange_setSwapRate and exchange_getSwapRate.
// The zero address (or empty string) denotes the native currency.
type RateParam struct {
	Sell string `json:"sell"`
	Buy  string `json:"buy"`
	Rate uint64 `json:"rate,omitempty"`
}

// SwapParam is used by exchange_swapTokens.
type SwapParam struct {
	Caller        string `json:"caller"`
	Sell          string `json:"sell,omitempty"` // Empty = native.
	Buy           string `json:"buy,omitempty"`  // Empty = native.
	Amount        uint64 `json:"amount"`
	AttachedValue uint64 `json:"attached_value"`
}

// WithdrawParam is used by exchange_withdrawNative.
type WithdrawParam struct {
	Caller string `json:"caller"`
	Amount uint64 `json:"amount"`
}

// DepositParam is used by native_deposit.
type DepositParam struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

// NFTMintParam is used by nft_mint.
type NFTMintParam struct {
	Caller  string `json:"caller"`
	To      string `json:"to"`
	TokenID uint64 `json:"token_id"`
	URI     string `json:"uri,omitempty"`
}

// NFTTokenParam is used by nft_ownerOf and nft_tokenURI.
type NFTTokenParam struct {
	TokenID uint64 `json:"token_id"`
}

// NFTTransferParam is used by nft_transfer.
type NFTTransferParam struct {
	Caller  string `json:"caller"`
	To      string `json:"to"`
	TokenID uint64 `json:"token_id"`
}

// RecentEventsParam is used by events_getRecent.
type RecentEventsParam struct {
	Limit int `json:"limit,omitempty"`
}

// ── Result types ────────────────────────────────────────────────────────

// AssetInfoResult is returned by ledger_getInfo and listed per asset by
// ledger_list.
type AssetInfoResult struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	TotalSupply uint64 `json:"total_supply"`
	Owner       string `json:"owner"`
	Paused      bool   `json:"paused"`
}

// BalanceResult is returned by ledger_balanceOf and native_getBalance.
type BalanceResult struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}

// AllowanceResult is returned by ledger_allowance.
type AllowanceResult struct {
	Owner     string `json:"owner"`
	Spender   string `json:"spender"`
	Allowance uint64 `json:"allowance"`
}

// OKResult is returned by state-changing endpoints with no payload.
type OKResult struct {
	OK bool `json:"ok"`
}

// RateResult is returned by exchange_getSwapRate.
type RateResult struct {
	Sell string `json:"sell"`
	Buy  string `json:"buy"`
	Rate uint64 `json:"rate"`
}

// ExchangeInfoResult is returned by exchange_getInfo.
type ExchangeInfoResult struct {
	Address    string   `json:"address"`
	Owner      string   `json:"owner"`
	NativePool uint64   `json:"native_pool"`
	Listed     []string `json:"listed"`
}

// NFTOwnerResult is returned by nft_ownerOf.
type NFTOwnerResult struct {
	TokenID uint64 `json:"token_id"`
	Owner   string `json:"owner"`
}

// NFTURIResult is returned by nft_tokenURI.
type NFTURIResult struct {
	TokenID uint64 `json:"token_id"`
	URI     string `json:"uri"`
}

// NodeInfoResult is returned by net_getNodeInfo.
type NodeInfoResult struct {
	NetworkID string   `json:"network_id"`
	PeerID    string   `json:"peer_id,omitempty"`
	Addrs     []string `json:"addrs,omitempty"`
	PeerCount int      `json:"peer_count"`
}
