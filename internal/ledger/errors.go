package ledger

import (
	"errors"
	"fmt"

	"github.com/VadimLarinTech/rps-exchange/pkg/types"
)

// Sentinel errors for the ledger failure taxonomy. Context-carrying
// failures use struct types below that unwrap to these, so callers can
// match with errors.Is and extract fields with errors.As.
var (
	// ErrInvalidReceiver rejects the zero address as a transfer, approval
	// or mint endpoint.
	ErrInvalidReceiver = errors.New("invalid receiver: zero address")

	// ErrInvalidSender rejects the zero address as a transfer source.
	ErrInvalidSender = errors.New("invalid sender: zero address")

	// ErrInsufficientBalance means a debit exceeds the holder's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientAllowance means a delegated spend exceeds the
	// granted allowance.
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// ErrMintingPaused rejects mint while the ledger is paused.
	ErrMintingPaused = errors.New("minting is paused")

	// ErrAlreadyPaused rejects pause when already paused.
	ErrAlreadyPaused = errors.New("already paused")

	// ErrNotPaused rejects unpause when not paused.
	ErrNotPaused = errors.New("not paused")

	// ErrAmountOverflow rejects a mint that would overflow the total
	// supply or a balance.
	ErrAmountOverflow = errors.New("amount overflows supply")

	// ErrUnknownAsset is returned by the registry for an address that is
	// not a known ledger.
	ErrUnknownAsset = errors.New("unknown asset")

	// ErrAssetExists is returned when creating a ledger at an address
	// that already holds one.
	ErrAssetExists = errors.New("asset already exists")
)

// InsufficientBalanceError reports a debit that exceeds the holder's
// balance.
type InsufficientBalanceError struct {
	Holder  types.Address
	Balance uint64
	Needed  uint64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: holder %s has %d, needs %d",
		e.Holder, e.Balance, e.Needed)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// InsufficientAllowanceError reports a delegated spend that exceeds the
// spender's allowance.
type InsufficientAllowanceError struct {
	Spender   types.Address
	Allowance uint64
	Needed    uint64
}

func (e *InsufficientAllowanceError) Error() string {
	return fmt.Sprintf("insufficient allowance: spender %s granted %d, needs %d",
		e.Spender, e.Allowance, e.Needed)
}

func (e *InsufficientAllowanceError) Unwrap() error { return ErrInsufficientAllowance }
