package rpc

import (
	"errors"
	"fmt"

	"github.com/VadimLarinTech/rps-exchange/internal/exchange"
	"github.com/VadimLarinTech/rps-exchange/internal/ledger"
	"github.com/VadimLarinTech/rps-exchange/internal/nft"
	"github.com/VadimLarinTech/rps-exchange/pkg/types"
)

// decodeAddress parses a bech32 or hex address param.
func decodeAddress(s string) (types.Address, *Error) {
	addr, err := types.ParseAddress(s)
	if err != nil {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid address %q: %v", s, err)}
	}
	return addr, nil
}

// resolveAsset finds a ledger by address or symbol.
func (s *Server) resolveAsset(asset string) (*ledger.Ledger, *Error) {
	if asset == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "asset is required"}
	}
	if addr, err := types.ParseAddress(asset); err == nil {
		l, lerr := s.registry.Get(addr)
		if lerr != nil {
			return nil, &Error{Code: CodeNotFound, Message: fmt.Sprintf("asset %s not found", asset)}
		}
		return l, nil
	}
	l, err := s.registry.BySymbol(asset)
	if err != nil {
		return nil, &Error{Code: CodeNotFound, Message: fmt.Sprintf("asset %s not found", asset)}
	}
	return l, nil
}

// resolveSwapSide maps a swap side param to an asset address. Empty
// string means the native currency (zero address).
func (s *Server) resolveSwapSide(side string) (types.Address, *Error) {
	if side == "" {
		return types.Address{}, nil
	}
	l, rpcErr := s.resolveAsset(side)
	if rpcErr != nil {
		return types.Address{}, rpcErr
	}
	return l.Address(), nil
}

// domainError maps a failed state transition to a JSON-RPC error.
func domainError(err error) *Error {
	switch {
	case errors.Is(err, ledger.ErrUnknownAsset), errors.Is(err, nft.ErrUnknownToken):
		return &Error{Code: CodeNotFound, Message: err.Error()}
	default:
		return &Error{Code: CodeRejected, Message: err.Error()}
	}
}

func assetInfo(l *ledger.Ledger) (*AssetInfoResult, *Error) {
	supply, err := l.TotalSupply()
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	paused, err := l.Paused()
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return &AssetInfoResult{
		Address:     l.Address().String(),
		Name:        l.Name(),
		Symbol:      l.Symbol(),
		Decimals:    l.Decimals(),
		TotalSupply: supply,
		Owner:       l.Owner().String(),
		Paused:      paused,
	}, nil
}

// ── Ledger endpoints ────────────────────────────────────────────────────

func (s *Server) handleLedgerGetInfo(req *Request) (interface{}, *Error) {
	var params AssetParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	l, rpcErr := s.resolveAsset(params.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return assetInfo(l)
}

func (s *Server) handleLedgerList(_ *Request) (interface{}, *Error) {
	ledgers := s.registry.List()
	results := make([]*AssetInfoResult, 0, len(ledgers))
	for _, l := range ledgers {
		info, rpcErr := assetInfo(l)
		if rpcErr != nil {
			return nil, rpcErr
		}
		results = append(results, info)
	}
	return results, nil
}

func (s *Server) handleLedgerCreate(req *Request) (interface{}, *Error) {
	var params CreateAssetParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.Name == "" || params.Symbol == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "name and symbol are required"}
	}
	owner, rpcErr := decodeAddress(params.Owner)
	if rpcErr != nil {
		return nil, rpcErr
	}

	l, err := s.registry.Create(ledger.Metadata{
		Name:     params.Name,
		Symbol:   params.Symbol,
		Decimals: params.Decimals,
	}, owner)
	if err != nil {
		return nil, domainError(err)
	}
	return assetInfo(l)
}

func (s *Server) handleLedgerBalanceOf(req *Request) (interface{}, *Error) {
	var params BalanceParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	l, rpcErr := s.resolveAsset(params.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}
	addr, rpcErr := decodeAddress(params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}

	balance, err := l.BalanceOf(addr)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return &BalanceResult{Address: params.Address, Balance: balance}, nil
}

func (s *Server) handleLedgerAllowance(req *Request) (interface{}, *Error) {
	var params AllowanceParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	l, rpcErr := s.resolveAsset(params.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := decodeAddress(params.Owner)
	if rpcErr != nil {
		return nil, rpcErr
	}
	spender, rpcErr := decodeAddress(params.Spender)
	if rpcErr != nil {
		return nil, rpcErr
	}

	allowance, err := l.Allowance(owner, spender)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return &AllowanceResult{Owner: params.Owner, Spender: params.Spender, Allowance: allowance}, nil
}

func (s *Server) handleLedgerTransfer(req *Request) (interface{}, *Error) {
	var params TransferParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	l, rpcErr := s.resolveAsset(params.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}
	from, rpcErr := decodeAddress(params.From)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := decodeAddress(params.To)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := l.Transfer(from, to, params.Amount); err != nil {
		return nil, domainError(err)
	}
	return &OKResult{OK: true}, nil
}

func (s *Server) handleLedgerApprove(req *Request) (interface{}, *Error) {
	var params ApproveParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	l, rpcErr := s.resolveAsset(params.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := decodeAddress(params.Owner)
	if rpcErr != nil {
		return nil, rpcErr
	}
	spender, rpcErr := decodeAddress(params.Spender)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := l.Approve(owner, spender, params.Amount); err != nil {
		return nil, domainError(err)
	}
	return &OKResult{OK: true}, nil
}

func (s *Server) handleLedgerTransferFrom(req *Request) (interface{}, *Error) {
	var params TransferFromParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	l, rpcErr := s.resolveAsset(params.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}
	spender, rpcErr := decodeAddress(params.Spender)
	if rpcErr != nil {
		return nil, rpcErr
	}
	from, rpcErr := decodeAddress(params.From)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := decodeAddress(params.To)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := l.TransferFrom(spender, from, to, params.Amount); err != nil {
		return nil, domainError(err)
	}
	return &OKResult{OK: true}, nil
}

func (s *Server) handleLedgerMint(req *Request) (interface{}, *Error) {
	var params TransferParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	l, rpcErr := s.resolveAsset(params.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := decodeAddress(params.From)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := decodeAddress(params.To)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := l.Mint(caller, to, params.Amount); err != nil {
		return nil, domainError(err)
	}
	return &OKResult{OK: true}, nil
}

func (s *Server) handleLedgerBurn(req *Request) (interface{}, *Error) {
	var params TransferParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	l, rpcErr := s.resolveAsset(params.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := decodeAddress(params.From)
	if rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := decodeAddress(params.To)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := l.Burn(caller, account, params.Amount); err != nil {
		return nil, domainError(err)
	}
	return &OKResult{OK: true}, nil
}

func (s *Server) handleLedgerPause(req *Request) (interface{}, *Error) {
	return s.handlePauseToggle(req, (*ledger.Ledger).Pause)
}

func (s *Server) handleLedgerUnpause(req *Request) (interface{}, *Error) {
	return s.handlePauseToggle(req, (*ledger.Ledger).Unpause)
}

func (s *Server) handlePauseToggle(req *Request, toggle func(*ledger.Ledger, types.Address) error) (interface{}, *Error) {
	var params PauseParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	l, rpcErr := s.resolveAsset(params.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := decodeAddress(params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := toggle(l, caller); err != nil {
		return nil, domainError(err)
	}
	return &OKResult{OK: true}, nil
}

// ── Exchange endpoints ──────────────────────────────────────────────────

func (s *Server) handleExchangeGetInfo(_ *Request) (interface{}, *Error) {
	pool, err := s.exchange.NativePool()
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	listed, err := s.exchange.Listings()
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	addrs := make([]string, 0, len(listed))
	for _, a := range listed {
		addrs = append(addrs, a.String())
	}
	return &ExchangeInfoResult{
		Address:    s.exchange.Address().String(),
		Owner:      s.exchange.Owner().String(),
		NativePool: pool,
		Listed:     addrs,
	}, nil
}

func (s *Server) handleExchangeListToken(req *Request) (interface{}, *Error) {
	return s.handleListingChange(req, (*exchange.Exchange).ListToken)
}

func (s *Server) handleExchangeDelistToken(req *Request) (interface{}, *Error) {
	return s.handleListingChange(req, (*exchange.Exchange).DelistToken)
}

func (s *Server) handleListingChange(req *Request, change func(*exchange.Exchange, types.Address, types.Address) error) (interface{}, *Error) {
	var params ListingParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := decodeAddress(params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	l, rpcErr := s.resolveAsset(params.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := change(s.exchange, caller, l.Address()); err != nil {
		return nil, domainError(err)
	}
	return &OKResult{OK: true}, nil
}

func (s *Server) handleExchangeSetSwapRate(req *Request) (interface{}, *Error) {
	var params RateParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	sell, rpcErr := s.resolveSwapSide(params.Sell)
	if rpcErr != nil {
		return nil, rpcErr
	}
	buy, rpcErr := s.resolveSwapSide(params.Buy)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := s.exchange.SetSwapRate(sell, buy, params.Rate); err != nil {
		return nil, domainError(err)
	}
	return &OKResult{OK: true}, nil
}

func (s *Server) handleExchangeGetSwapRate(req *Request) (interface{}, *Error) {
	var params RateParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	sell, rpcErr := s.resolveSwapSide(params.Sell)
	if rpcErr != nil {
		return nil, rpcErr
	}
	buy, rpcErr := s.resolveSwapSide(params.Buy)
	if rpcErr != nil {
		return nil, rpcErr
	}

	rate, err := s.exchange.GetSwapRate(sell, buy)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return &RateResult{Sell: params.Sell, Buy: params.Buy, Rate: rate}, nil
}

func (s *Server) handleExchangeSwapTokens(req *Request) (interface{}, *Error) {
	var params SwapParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := decodeAddress(params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	sell, rpcErr := s.resolveSwapSide(params.Sell)
	if rpcErr != nil {
		return nil, rpcErr
	}
	buy, rpcErr := s.resolveSwapSide(params.Buy)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := s.exchange.SwapTokens(caller, sell, buy, params.Amount, params.AttachedValue); err != nil {
		return nil, domainError(err)
	}
	return &OKResult{OK: true}, nil
}

func (s *Server) handleExchangeWithdrawNative(req *Request) (interface{}, *Error) {
	var params WithdrawParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := decodeAddress(params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := s.exchange.WithdrawNative(caller, params.Amount); err != nil {
		return nil, domainError(err)
	}
	return &OKResult{OK: true}, nil
}

// ── Native currency endpoints ───────────────────────────────────────────

func (s *Server) handleNativeGetBalance(req *Request) (interface{}, *Error) {
	var params BalanceParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	addr, rpcErr := decodeAddress(params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}

	balance, err := s.bank.BalanceOf(addr)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return &BalanceResult{Address: params.Address, Balance: balance}, nil
}

func (s *Server) handleNativeDeposit(req *Request) (interface{}, *Error) {
	var params DepositParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	addr, rpcErr := decodeAddress(params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := s.bank.Deposit(addr, params.Amount); err != nil {
		return nil, domainError(err)
	}
	return &OKResult{OK: true}, nil
}

// ── NFT endpoints ───────────────────────────────────────────────────────

func (s *Server) requireCollection() *Error {
	if s.collection == nil {
		return &Error{Code: CodeNotFound, Message: "nft collection not enabled"}
	}
	return nil
}

func (s *Server) handleNFTMint(req *Request) (interface{}, *Error) {
	if rpcErr := s.requireCollection(); rpcErr != nil {
		return nil, rpcErr
	}
	var params NFTMintParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := decodeAddress(params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := decodeAddress(params.To)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := s.collection.Mint(caller, to, params.TokenID, params.URI); err != nil {
		return nil, domainError(err)
	}
	return &OKResult{OK: true}, nil
}

func (s *Server) handleNFTOwnerOf(req *Request) (interface{}, *Error) {
	if rpcErr := s.requireCollection(); rpcErr != nil {
		return nil, rpcErr
	}
	var params NFTTokenParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}

	owner, err := s.collection.OwnerOf(params.TokenID)
	if err != nil {
		return nil, domainError(err)
	}
	return &NFTOwnerResult{TokenID: params.TokenID, Owner: owner.String()}, nil
}

func (s *Server) handleNFTTokenURI(req *Request) (interface{}, *Error) {
	if rpcErr := s.requireCollection(); rpcErr != nil {
		return nil, rpcErr
	}
	var params NFTTokenParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}

	uri, err := s.collection.TokenURI(params.TokenID)
	if err != nil {
		return nil, domainError(err)
	}
	return &NFTURIResult{TokenID: params.TokenID, URI: uri}, nil
}

func (s *Server) handleNFTTransfer(req *Request) (interface{}, *Error) {
	if rpcErr := s.requireCollection(); rpcErr != nil {
		return nil, rpcErr
	}
	var params NFTTransferParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := decodeAddress(params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := decodeAddress(params.To)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := s.collection.Transfer(caller, to, params.TokenID); err != nil {
		return nil, domainError(err)
	}
	return &OKResult{OK: true}, nil
}

// ── Events and network endpoints ────────────────────────────────────────

func (s *Server) handleEventsGetRecent(req *Request) (interface{}, *Error) {
	var params RecentEventsParam
	if req.Params != nil {
		if err := parseParams(req, &params); err != nil {
			return nil, err
		}
	}
	return s.bus.Recent(params.Limit), nil
}

func (s *Server) handleNetGetNodeInfo(_ *Request) (interface{}, *Error) {
	info := &NodeInfoResult{NetworkID: s.genesis.NetworkID}
	if s.gossipNode != nil {
		info.PeerID = s.gossipNode.ID().String()
		info.Addrs = s.gossipNode.Addrs()
		info.PeerCount = s.gossipNode.PeerCount()
	}
	return info, nil
}
