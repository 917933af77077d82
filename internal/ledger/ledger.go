// Package ledger implements the balance, allowance and supply
// bookkeeping for one fungible asset.
//
// Every mutation is serialized under the ledger's mutex, validated
// against the conservation invariants (total supply equals the sum of
// all balances, nothing goes negative, the zero address is never a
// transfer endpoint) and committed through a single atomic storage
// batch. Mutations emit Transfer and Approval events on the bus.
package ledger

import (
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/VadimLarinTech/rps-exchange/internal/auth"
	"github.com/VadimLarinTech/rps-exchange/internal/events"
	"github.com/VadimLarinTech/rps-exchange/internal/log"
	"github.com/VadimLarinTech/rps-exchange/internal/storage"
	"github.com/VadimLarinTech/rps-exchange/pkg/types"
)

// Ledger owns the supply, balance and allowance state of one asset.
type Ledger struct {
	mu sync.Mutex

	addr   types.Address
	meta   Metadata
	guard  *auth.Guard
	store  *store
	bus    *events.Bus
	logger zerolog.Logger
}

// New creates a ledger at addr with the given metadata and owner,
// persisting both. The initial supply is minted separately (genesis
// calls Mint with the owner as caller).
func New(addr types.Address, meta Metadata, owner types.Address, db storage.DB, bus *events.Bus) (*Ledger, error) {
	st := newStore(db)
	if err := st.PutMetadata(&meta); err != nil {
		return nil, err
	}
	if err := st.PutOwner(owner); err != nil {
		return nil, err
	}
	return &Ledger{
		addr:   addr,
		meta:   meta,
		guard:  auth.NewGuard(owner),
		store:  st,
		bus:    bus,
		logger: log.Ledger.With().Str("asset", meta.Symbol).Logger(),
	}, nil
}

// Open loads an existing ledger from its storage namespace.
func Open(addr types.Address, db storage.DB, bus *events.Bus) (*Ledger, error) {
	st := newStore(db)
	meta, err := st.GetMetadata()
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", addr, err)
	}
	owner, err := st.GetOwner()
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", addr, err)
	}
	return &Ledger{
		addr:   addr,
		meta:   *meta,
		guard:  auth.NewGuard(owner),
		store:  st,
		bus:    bus,
		logger: log.Ledger.With().Str("asset", meta.Symbol).Logger(),
	}, nil
}

// Address returns the asset's address.
func (l *Ledger) Address() types.Address { return l.addr }

// Name returns the asset's descriptive name.
func (l *Ledger) Name() string { return l.meta.Name }

// Symbol returns the asset's ticker symbol.
func (l *Ledger) Symbol() string { return l.meta.Symbol }

// Decimals returns the asset's display precision.
func (l *Ledger) Decimals() uint8 { return l.meta.Decimals }

// Owner returns the privileged account.
func (l *Ledger) Owner() types.Address { return l.guard.Owner() }

// TotalSupply returns the current total supply.
func (l *Ledger) TotalSupply() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Supply()
}

// BalanceOf returns addr's balance. Unknown addresses hold zero.
func (l *Ledger) BalanceOf(addr types.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Balance(addr)
}

// Allowance returns the amount spender may draw from owner's balance.
func (l *Ledger) Allowance(owner, spender types.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Allowance(owner, spender)
}

// Paused reports whether minting is currently blocked.
func (l *Ledger) Paused() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Paused()
}

// TransferOwnership moves the privilege to newOwner, persisting it.
func (l *Ledger) TransferOwnership(caller, newOwner types.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.guard.TransferOwnership(caller, newOwner); err != nil {
		return err
	}
	if err := l.store.PutOwner(newOwner); err != nil {
		return err
	}
	l.logger.Info().Stringer("new_owner", newOwner).Msg("ownership transferred")
	return nil
}

// Transfer debits from and credits to by exactly amount. Both balance
// changes commit in one batch or not at all.
func (l *Ledger) Transfer(from, to types.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.move(from, to, amount, nil); err != nil {
		return err
	}
	l.emitTransfer(from, to, amount)
	return nil
}

// Approve overwrites the allowance granted by owner to spender.
// Overwrite, not increment: approve(S, 100) then approve(S, 30) leaves
// 30. The classic front-running race on allowance changes is the
// caller's concern (zero-then-set if mitigating).
func (l *Ledger) Approve(owner, spender types.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if spender.IsZero() {
		return fmt.Errorf("approve: %w", ErrInvalidReceiver)
	}
	if owner.IsZero() {
		return fmt.Errorf("approve: %w", ErrInvalidSender)
	}

	batch := l.store.NewBatch()
	if err := setAmount(batch, allowanceKey(owner, spender), amount); err != nil {
		return fmt.Errorf("approve: %w", err)
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("approve: %w", err)
	}

	l.logger.Debug().
		Stringer("owner", owner).
		Stringer("spender", spender).
		Uint64("amount", amount).
		Msg("approval set")
	l.bus.Publish(events.Event{
		Type:    events.TypeApproval,
		Asset:   l.addr,
		From:    owner,
		Spender: spender,
		Amount:  amount,
	})
	return nil
}

// TransferFrom performs a delegated transfer: spender draws amount from
// from's balance and credits to, decrementing the allowance. The
// allowance check runs before the balance checks; all effects commit in
// one batch.
func (l *Ledger) TransferFrom(spender, from, to types.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	allowance, err := l.store.Allowance(from, spender)
	if err != nil {
		return fmt.Errorf("transferFrom: %w", err)
	}
	if allowance < amount {
		return &InsufficientAllowanceError{Spender: spender, Allowance: allowance, Needed: amount}
	}

	commitAllowance := func(batch storage.Batch) error {
		return setAmount(batch, allowanceKey(from, spender), allowance-amount)
	}
	if err := l.move(from, to, amount, commitAllowance); err != nil {
		return err
	}
	l.emitTransfer(from, to, amount)
	return nil
}

// Mint credits account and grows the supply. Owner only, blocked while
// paused. The transfer notification carries a zero sender.
func (l *Ledger) Mint(caller, account types.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.guard.Require(caller); err != nil {
		return fmt.Errorf("mint: %w", err)
	}
	paused, err := l.store.Paused()
	if err != nil {
		return fmt.Errorf("mint: %w", err)
	}
	if paused {
		return fmt.Errorf("mint: %w", ErrMintingPaused)
	}
	if account.IsZero() {
		return fmt.Errorf("mint: %w", ErrInvalidReceiver)
	}

	supply, err := l.store.Supply()
	if err != nil {
		return fmt.Errorf("mint: %w", err)
	}
	if amount > math.MaxUint64-supply {
		return fmt.Errorf("mint: %w", ErrAmountOverflow)
	}
	balance, err := l.store.Balance(account)
	if err != nil {
		return fmt.Errorf("mint: %w", err)
	}

	batch := l.store.NewBatch()
	if err := setAmount(batch, keySupply, supply+amount); err != nil {
		return fmt.Errorf("mint: %w", err)
	}
	if err := setAmount(batch, balanceKey(account), balance+amount); err != nil {
		return fmt.Errorf("mint: %w", err)
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("mint: %w", err)
	}

	l.logger.Info().
		Stringer("account", account).
		Uint64("amount", amount).
		Uint64("supply", supply+amount).
		Msg("minted")
	l.emitTransfer(types.Address{}, account, amount)
	return nil
}

// Burn debits account and shrinks the supply. Owner only. Deliberately
// not blocked by pause; the pause gate covers minting alone. The
// transfer notification carries a zero receiver.
func (l *Ledger) Burn(caller, account types.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.guard.Require(caller); err != nil {
		return fmt.Errorf("burn: %w", err)
	}
	if account.IsZero() {
		return fmt.Errorf("burn: %w", ErrInvalidReceiver)
	}

	balance, err := l.store.Balance(account)
	if err != nil {
		return fmt.Errorf("burn: %w", err)
	}
	if balance < amount {
		return &InsufficientBalanceError{Holder: account, Balance: balance, Needed: amount}
	}
	supply, err := l.store.Supply()
	if err != nil {
		return fmt.Errorf("burn: %w", err)
	}

	batch := l.store.NewBatch()
	if err := setAmount(batch, keySupply, supply-amount); err != nil {
		return fmt.Errorf("burn: %w", err)
	}
	if err := setAmount(batch, balanceKey(account), balance-amount); err != nil {
		return fmt.Errorf("burn: %w", err)
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("burn: %w", err)
	}

	l.logger.Info().
		Stringer("account", account).
		Uint64("amount", amount).
		Uint64("supply", supply-amount).
		Msg("burned")
	l.emitTransfer(account, types.Address{}, amount)
	return nil
}

// Pause blocks minting. Owner only; fails if already paused.
func (l *Ledger) Pause(caller types.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.guard.Require(caller); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	paused, err := l.store.Paused()
	if err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	if paused {
		return fmt.Errorf("pause: %w", ErrAlreadyPaused)
	}

	batch := l.store.NewBatch()
	if err := setPaused(batch, true); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	l.logger.Warn().Msg("minting paused")
	return nil
}

// Unpause re-enables minting. Owner only; fails if not paused.
func (l *Ledger) Unpause(caller types.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.guard.Require(caller); err != nil {
		return fmt.Errorf("unpause: %w", err)
	}
	paused, err := l.store.Paused()
	if err != nil {
		return fmt.Errorf("unpause: %w", err)
	}
	if !paused {
		return fmt.Errorf("unpause: %w", ErrNotPaused)
	}

	batch := l.store.NewBatch()
	if err := setPaused(batch, false); err != nil {
		return fmt.Errorf("unpause: %w", err)
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("unpause: %w", err)
	}
	l.logger.Info().Msg("minting unpaused")
	return nil
}

// move validates and commits a balance movement from -> to. extra, when
// non-nil, adds more writes to the same batch so they commit atomically
// with the balance changes. Caller holds l.mu.
func (l *Ledger) move(from, to types.Address, amount uint64, extra func(storage.Batch) error) error {
	if from.IsZero() {
		return fmt.Errorf("transfer: %w", ErrInvalidSender)
	}
	if to.IsZero() {
		return fmt.Errorf("transfer: %w", ErrInvalidReceiver)
	}

	balFrom, err := l.store.Balance(from)
	if err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	if balFrom < amount {
		return &InsufficientBalanceError{Holder: from, Balance: balFrom, Needed: amount}
	}

	batch := l.store.NewBatch()
	if from == to {
		// Self-transfer: balance is unchanged, but the allowance
		// decrement (when delegated) still applies.
		if err := setAmount(batch, balanceKey(from), balFrom); err != nil {
			return fmt.Errorf("transfer: %w", err)
		}
	} else {
		balTo, err := l.store.Balance(to)
		if err != nil {
			return fmt.Errorf("transfer: %w", err)
		}
		if err := setAmount(batch, balanceKey(from), balFrom-amount); err != nil {
			return fmt.Errorf("transfer: %w", err)
		}
		if err := setAmount(batch, balanceKey(to), balTo+amount); err != nil {
			return fmt.Errorf("transfer: %w", err)
		}
	}
	if extra != nil {
		if err := extra(batch); err != nil {
			return fmt.Errorf("transfer: %w", err)
		}
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}

	l.logger.Debug().
		Stringer("from", from).
		Stringer("to", to).
		Uint64("amount", amount).
		Msg("transferred")
	return nil
}

func (l *Ledger) emitTransfer(from, to types.Address, amount uint64) {
	l.bus.Publish(events.Event{
		Type:   events.TypeTransfer,
		Asset:  l.addr,
		From:   from,
		To:     to,
		Amount: amount,
	})
}
