package rpc

import (
	"fmt"
	"strings"

	"github.com/VadimLarinTech/rps-exchange/internal/wallet"
)

// ── Wallet param/result types ───────────────────────────────────────────

// WalletCreateParam is used by wallet_create.
type WalletCreateParam struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// WalletCreateResult is returned by wallet_create. The mnemonic is
// returned exactly once; it is never stored in plaintext.
type WalletCreateResult struct {
	Mnemonic string `json:"mnemonic"`
	Address  string `json:"address"`
}

// WalletImportParam is used by wallet_import.
type WalletImportParam struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Mnemonic string `json:"mnemonic"`
}

// WalletImportResult is returned by wallet_import.
type WalletImportResult struct {
	Address string `json:"address"`
}

// WalletNameParam is used by wallet_getAddress.
type WalletNameParam struct {
	Name string `json:"name"`
}

// WalletAddressResult is returned by wallet_getAddress.
type WalletAddressResult struct {
	Name      string                `json:"name"`
	Addresses []wallet.AccountEntry `json:"addresses"`
}

// requireWallet returns an error if the wallet keystore is not enabled.
func (s *Server) requireWallet() *Error {
	if s.keystore == nil {
		return &Error{Code: CodeInternalError, Message: "wallet not enabled (start node with --wallet)"}
	}
	return nil
}

// deriveDefaultAddress derives the account 0 external address from a
// seed and zeroes the seed before returning.
func deriveDefaultAddress(seed []byte) (string, *Error) {
	defer func() {
		for i := range seed {
			seed[i] = 0
		}
	}()

	master, err := wallet.NewMasterKey(seed)
	if err != nil {
		return "", &Error{Code: CodeInternalError, Message: fmt.Sprintf("derive master key: %v", err)}
	}
	hdKey, err := master.DeriveAddress(0, wallet.ChangeExternal, 0)
	if err != nil {
		return "", &Error{Code: CodeInternalError, Message: fmt.Sprintf("derive address: %v", err)}
	}
	return hdKey.Address().String(), nil
}

func (s *Server) handleWalletCreate(req *Request) (interface{}, *Error) {
	if err := s.requireWallet(); err != nil {
		return nil, err
	}

	var params WalletCreateParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.Name == "" || params.Password == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "name and password are required"}
	}

	mnemonic, genErr := wallet.GenerateMnemonic()
	if genErr != nil {
		return nil, &Error{Code: CodeInternalError, Message: fmt.Sprintf("generate mnemonic: %v", genErr)}
	}

	seed, seedErr := wallet.SeedFromMnemonic(mnemonic, "")
	if seedErr != nil {
		return nil, &Error{Code: CodeInternalError, Message: fmt.Sprintf("derive seed: %v", seedErr)}
	}

	// Encrypt the seed before it is zeroed by deriveDefaultAddress.
	if err := s.keystore.Create(params.Name, seed, []byte(params.Password), wallet.DefaultParams()); err != nil {
		for i := range seed {
			seed[i] = 0
		}
		return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("create wallet: %v", err)}
	}

	addr, rpcErr := deriveDefaultAddress(seed)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := s.keystore.AddAccount(params.Name, wallet.AccountEntry{
		Index:   0,
		Name:    "Default",
		Address: addr,
	}); err != nil {
		return nil, &Error{Code: CodeInternalError, Message: fmt.Sprintf("add account: %v", err)}
	}

	return &WalletCreateResult{
		Mnemonic: mnemonic,
		Address:  addr,
	}, nil
}

func (s *Server) handleWalletImport(req *Request) (interface{}, *Error) {
	if err := s.requireWallet(); err != nil {
		return nil, err
	}

	var params WalletImportParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	// Normalize mnemonic: trim whitespace and collapse internal spaces.
	params.Mnemonic = strings.Join(strings.Fields(params.Mnemonic), " ")

	if params.Name == "" || params.Password == "" || params.Mnemonic == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "name, password, and mnemonic are required"}
	}
	if !wallet.ValidateMnemonic(params.Mnemonic) {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid mnemonic"}
	}

	seed, seedErr := wallet.SeedFromMnemonic(params.Mnemonic, "")
	if seedErr != nil {
		return nil, &Error{Code: CodeInternalError, Message: fmt.Sprintf("derive seed: %v", seedErr)}
	}

	if err := s.keystore.Create(params.Name, seed, []byte(params.Password), wallet.DefaultParams()); err != nil {
		for i := range seed {
			seed[i] = 0
		}
		return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("create wallet: %v", err)}
	}

	addr, rpcErr := deriveDefaultAddress(seed)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := s.keystore.AddAccount(params.Name, wallet.AccountEntry{
		Index:   0,
		Name:    "Default",
		Address: addr,
	}); err != nil {
		return nil, &Error{Code: CodeInternalError, Message: fmt.Sprintf("add account: %v", err)}
	}

	return &WalletImportResult{Address: addr}, nil
}

func (s *Server) handleWalletList(_ *Request) (interface{}, *Error) {
	if err := s.requireWallet(); err != nil {
		return nil, err
	}

	names, listErr := s.keystore.List()
	if listErr != nil {
		return nil, &Error{Code: CodeInternalError, Message: fmt.Sprintf("list wallets: %v", listErr)}
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (s *Server) handleWalletGetAddress(req *Request) (interface{}, *Error) {
	if err := s.requireWallet(); err != nil {
		return nil, err
	}

	var params WalletNameParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "name is required"}
	}

	accounts, err := s.keystore.ListAccounts(params.Name)
	if err != nil {
		return nil, &Error{Code: CodeNotFound, Message: fmt.Sprintf("wallet %q: %v", params.Name, err)}
	}
	return &WalletAddressResult{
		Name:      params.Name,
		Addresses: accounts,
	}, nil
}
