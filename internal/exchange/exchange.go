// Package exchange implements the bare-bones swap venue: a listing
// registry, an advisory rate table and 1:1 settlement between listed
// assets and native currency.
//
// The zero address is the native-currency sentinel in asset-pair
// parameters. Settlement moves equal nominal amounts on both legs; the
// rate table is recorded but never applied.
package exchange

import (
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/VadimLarinTech/rps-exchange/internal/auth"
	"github.com/VadimLarinTech/rps-exchange/internal/events"
	"github.com/VadimLarinTech/rps-exchange/internal/log"
	"github.com/VadimLarinTech/rps-exchange/internal/native"
	"github.com/VadimLarinTech/rps-exchange/internal/storage"
	"github.com/VadimLarinTech/rps-exchange/pkg/types"
)

// Asset is the standardized fungible interface the exchange settles
// against. It never sees a ledger's internals.
type Asset interface {
	Address() types.Address
	BalanceOf(addr types.Address) (uint64, error)
	Transfer(from, to types.Address, amount uint64) error
	TransferFrom(spender, from, to types.Address, amount uint64) error
}

// Resolve maps an asset address to its Asset implementation.
type Resolve func(types.Address) (Asset, error)

// Key layout within the exchange namespace:
//
//	l/<asset(20)>            -> listing flag, single byte
//	r/<sell(20)><buy(20)>    -> advisory rate, big-endian uint64
var (
	prefixListing = []byte("l/")
	prefixRate    = []byte("r/")
)

// Exchange holds the listing and rate registries and settles swaps
// against its own holdings. Its native pool is its address's balance in
// the bank; its asset inventory is its address's balance in each ledger
// (the owner pre-funds both).
type Exchange struct {
	mu       sync.Mutex
	settling atomic.Bool

	addr    types.Address
	guard   *auth.Guard
	db      storage.DB
	bank    *native.Bank
	resolve Resolve
	bus     *events.Bus
	logger  zerolog.Logger
}

// New creates an exchange at addr owned by owner.
func New(addr, owner types.Address, db storage.DB, bank *native.Bank, resolve Resolve, bus *events.Bus) *Exchange {
	return &Exchange{
		addr:    addr,
		guard:   auth.NewGuard(owner),
		db:      db,
		bank:    bank,
		resolve: resolve,
		bus:     bus,
		logger:  log.Exchange.With().Stringer("exchange", addr).Logger(),
	}
}

// Address returns the exchange's own address.
func (e *Exchange) Address() types.Address { return e.addr }

// Owner returns the privileged account.
func (e *Exchange) Owner() types.Address { return e.guard.Owner() }

func listingKey(asset types.Address) []byte {
	key := make([]byte, 0, len(prefixListing)+types.AddressSize)
	key = append(key, prefixListing...)
	return append(key, asset[:]...)
}

func rateKey(sell, buy types.Address) []byte {
	key := make([]byte, 0, len(prefixRate)+2*types.AddressSize)
	key = append(key, prefixRate...)
	key = append(key, sell[:]...)
	return append(key, buy[:]...)
}

// ListToken marks an asset eligible for swapping. Owner only;
// idempotent. The native sentinel is implicitly eligible and never
// appears in the listing map.
func (e *Exchange) ListToken(caller, asset types.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.guard.Require(caller); err != nil {
		return fmt.Errorf("list token: %w", err)
	}
	if asset.IsZero() {
		return fmt.Errorf("list token: %w", ErrZeroAsset)
	}
	if _, err := e.resolve(asset); err != nil {
		return fmt.Errorf("list token: %w", err)
	}
	if err := e.db.Put(listingKey(asset), []byte{1}); err != nil {
		return fmt.Errorf("list token: %w", err)
	}
	e.logger.Info().Stringer("asset", asset).Msg("token listed")
	return nil
}

// DelistToken clears an asset's listing flag. Owner only; idempotent.
func (e *Exchange) DelistToken(caller, asset types.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.guard.Require(caller); err != nil {
		return fmt.Errorf("delist token: %w", err)
	}
	if err := e.db.Delete(listingKey(asset)); err != nil {
		return fmt.Errorf("delist token: %w", err)
	}
	e.logger.Info().Stringer("asset", asset).Msg("token delisted")
	return nil
}

// IsListed reports whether asset carries a listing flag.
func (e *Exchange) IsListed(asset types.Address) (bool, error) {
	return e.db.Has(listingKey(asset))
}

// Listings returns all listed asset addresses.
func (e *Exchange) Listings() ([]types.Address, error) {
	var out []types.Address
	err := e.db.ForEach(prefixListing, func(key, _ []byte) error {
		if len(key) != len(prefixListing)+types.AddressSize {
			return nil // Malformed key, skip.
		}
		var addr types.Address
		copy(addr[:], key[len(prefixListing):])
		out = append(out, addr)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listings: %w", err)
	}
	return out, nil
}

// SetSwapRate records an advisory rate for the ordered pair. The rate
// is never applied during settlement, and the setter carries no access
// control. Both behaviors are inherited from the contract this venue
// models; the missing owner gate in particular looks like a defect
// there, kept until a decision to diverge.
func (e *Exchange) SetSwapRate(sell, buy types.Address, rate uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], rate)
	if err := e.db.Put(rateKey(sell, buy), buf[:]); err != nil {
		return fmt.Errorf("set swap rate: %w", err)
	}
	return nil
}

// GetSwapRate returns the advisory rate for the ordered pair, zero if
// unset.
func (e *Exchange) GetSwapRate(sell, buy types.Address) (uint64, error) {
	key := rateKey(sell, buy)
	ok, err := e.db.Has(key)
	if err != nil {
		return 0, fmt.Errorf("get swap rate: %w", err)
	}
	if !ok {
		return 0, nil
	}
	data, err := e.db.Get(key)
	if err != nil {
		return 0, fmt.Errorf("get swap rate: %w", err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("get swap rate: value must be 8 bytes, got %d", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// eligible implements the onlyForListed precondition: native sentinel
// or listed.
func (e *Exchange) eligible(asset types.Address) error {
	if asset.IsZero() {
		return nil
	}
	listed, err := e.IsListed(asset)
	if err != nil {
		return err
	}
	if !listed {
		return fmt.Errorf("%w: %s", ErrNotListed, asset)
	}
	return nil
}

// SwapTokens settles a 1:1 swap for caller. sell and buy name the asset
// pair, with the zero address denoting native currency. attachedValue
// is the native value the caller sends along with the call; it is
// debited from the caller's bank balance at entry when selling native
// and must be zero otherwise.
//
// Either every leg settles or none does: a failed payout restores the
// already-pulled leg before the error propagates.
func (e *Exchange) SwapTokens(caller, sell, buy types.Address, amount, attachedValue uint64) error {
	if !e.settling.CompareAndSwap(false, true) {
		return fmt.Errorf("swap: %w", ErrReentrantCall)
	}
	defer e.settling.Store(false)

	e.mu.Lock()
	defer e.mu.Unlock()

	if sell == buy {
		return fmt.Errorf("swap: %w", ErrSameAsset)
	}
	if err := e.eligible(sell); err != nil {
		return fmt.Errorf("swap: %w", err)
	}
	if err := e.eligible(buy); err != nil {
		return fmt.Errorf("swap: %w", err)
	}

	var err error
	switch {
	case sell.IsZero():
		err = e.swapNativeForAsset(caller, buy, amount, attachedValue)
	case buy.IsZero():
		err = e.swapAssetForNative(caller, sell, amount, attachedValue)
	default:
		err = e.swapAssetForAsset(caller, sell, buy, amount, attachedValue)
	}
	if err != nil {
		return fmt.Errorf("swap: %w", err)
	}

	e.logger.Info().
		Stringer("customer", caller).
		Stringer("sell", sell).
		Stringer("buy", buy).
		Uint64("amount", amount).
		Msg("swap settled")
	e.bus.Publish(events.Event{
		Type:      events.TypeSwap,
		From:      caller,
		SellAsset: sell,
		BuyAsset:  buy,
		Amount:    amount,
	})
	return nil
}

// swapNativeForAsset: caller sells native, buys an asset from the
// exchange's inventory. The attached value must equal the amount.
func (e *Exchange) swapNativeForAsset(caller, buy types.Address, amount, attachedValue uint64) error {
	if attachedValue != amount {
		return fmt.Errorf("%w: attached %d, amount %d", ErrValueMismatch, attachedValue, amount)
	}
	asset, err := e.resolve(buy)
	if err != nil {
		return err
	}

	// Precheck the payout leg so the common failure is caught before
	// any value moves.
	inventory, err := asset.BalanceOf(e.addr)
	if err != nil {
		return err
	}
	if inventory < amount {
		return fmt.Errorf("%w: %s inventory %d, needs %d", ErrInsufficientLiquidity, buy, inventory, amount)
	}

	// Take the attached native value into the pool.
	if err := e.bank.Move(caller, e.addr, attachedValue); err != nil {
		return err
	}
	// Pay out the asset; on failure return the native value.
	if err := asset.Transfer(e.addr, caller, amount); err != nil {
		if rbErr := e.bank.Move(e.addr, caller, attachedValue); rbErr != nil {
			return fmt.Errorf("payout failed: %w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	return nil
}

// swapAssetForNative: caller sells an asset (pre-approved to the
// exchange), buys native from the pool.
func (e *Exchange) swapAssetForNative(caller, sell types.Address, amount, attachedValue uint64) error {
	if attachedValue != 0 {
		return fmt.Errorf("%w: attached %d on a non-native sell", ErrValueMismatch, attachedValue)
	}
	asset, err := e.resolve(sell)
	if err != nil {
		return err
	}

	pool, err := e.bank.BalanceOf(e.addr)
	if err != nil {
		return err
	}
	if pool < amount {
		return fmt.Errorf("%w: native pool %d, needs %d", ErrInsufficientLiquidity, pool, amount)
	}

	// Pull the sold asset via the caller's allowance.
	if err := asset.TransferFrom(e.addr, caller, e.addr, amount); err != nil {
		return err
	}
	// Pay out native; on failure return the pulled asset.
	if err := e.bank.Move(e.addr, caller, amount); err != nil {
		if rbErr := asset.Transfer(e.addr, caller, amount); rbErr != nil {
			return fmt.Errorf("payout failed: %w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	return nil
}

// swapAssetForAsset: caller sells one asset, buys another from the
// exchange's inventory.
func (e *Exchange) swapAssetForAsset(caller, sell, buy types.Address, amount, attachedValue uint64) error {
	if attachedValue != 0 {
		return fmt.Errorf("%w: attached %d on an asset-for-asset swap", ErrValueMismatch, attachedValue)
	}
	sellAsset, err := e.resolve(sell)
	if err != nil {
		return err
	}
	buyAsset, err := e.resolve(buy)
	if err != nil {
		return err
	}

	inventory, err := buyAsset.BalanceOf(e.addr)
	if err != nil {
		return err
	}
	if inventory < amount {
		return fmt.Errorf("%w: %s inventory %d, needs %d", ErrInsufficientLiquidity, buy, inventory, amount)
	}

	if err := sellAsset.TransferFrom(e.addr, caller, e.addr, amount); err != nil {
		return err
	}
	if err := buyAsset.Transfer(e.addr, caller, amount); err != nil {
		if rbErr := sellAsset.Transfer(e.addr, caller, amount); rbErr != nil {
			return fmt.Errorf("payout failed: %w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	return nil
}

// WithdrawNative pays out amount from the exchange's native pool to the
// owner. Owner only; fails if the pool is short.
func (e *Exchange) WithdrawNative(caller types.Address, amount uint64) error {
	if !e.settling.CompareAndSwap(false, true) {
		return fmt.Errorf("withdraw: %w", ErrReentrantCall)
	}
	defer e.settling.Store(false)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.guard.Require(caller); err != nil {
		return fmt.Errorf("withdraw: %w", err)
	}

	pool, err := e.bank.BalanceOf(e.addr)
	if err != nil {
		return fmt.Errorf("withdraw: %w", err)
	}
	if pool < amount {
		return fmt.Errorf("withdraw: %w: native pool %d, needs %d", ErrInsufficientLiquidity, pool, amount)
	}
	if err := e.bank.Move(e.addr, caller, amount); err != nil {
		return fmt.Errorf("withdraw: %w", err)
	}

	e.logger.Info().Uint64("amount", amount).Msg("native withdrawn")
	return nil
}

// DepositNative moves native value from from into the exchange's pool.
// Unsolicited; no bookkeeping beyond the pool balance.
func (e *Exchange) DepositNative(from types.Address, amount uint64) error {
	if err := e.bank.Move(from, e.addr, amount); err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	return nil
}

// NativePool returns the exchange's current native balance.
func (e *Exchange) NativePool() (uint64, error) {
	return e.bank.BalanceOf(e.addr)
}
