// Package native models the host chain's native currency as a simple
// per-address bank. The exchange's native pool is the balance held at
// the exchange's own address, and a swap's attached value is a bank
// debit at call entry.
package native

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/VadimLarinTech/rps-exchange/internal/log"
	"github.com/VadimLarinTech/rps-exchange/internal/storage"
	"github.com/VadimLarinTech/rps-exchange/pkg/types"
)

var (
	// ErrInsufficientFunds means a native debit exceeds the holder's
	// balance.
	ErrInsufficientFunds = errors.New("insufficient native funds")

	// ErrAmountOverflow rejects a deposit that would overflow a balance.
	ErrAmountOverflow = errors.New("native amount overflow")
)

var prefixNative = []byte("n/") // n/<addr(20)> -> balance, big-endian uint64

// Bank holds per-address native-currency balances.
type Bank struct {
	mu sync.Mutex
	db storage.DB
}

// NewBank creates a bank over the given database.
func NewBank(db storage.DB) *Bank {
	return &Bank{db: db}
}

func nativeKey(addr types.Address) []byte {
	key := make([]byte, 0, len(prefixNative)+types.AddressSize)
	key = append(key, prefixNative...)
	return append(key, addr[:]...)
}

func (b *Bank) balance(addr types.Address) (uint64, error) {
	key := nativeKey(addr)
	ok, err := b.db.Has(key)
	if err != nil {
		return 0, fmt.Errorf("native has: %w", err)
	}
	if !ok {
		return 0, nil
	}
	data, err := b.db.Get(key)
	if err != nil {
		return 0, fmt.Errorf("native get: %w", err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("native balance must be 8 bytes, got %d", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

func setBalance(batch storage.Batch, addr types.Address, v uint64) error {
	if v == 0 {
		return batch.Delete(nativeKey(addr))
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return batch.Put(nativeKey(addr), buf[:])
}

func (b *Bank) newBatch() storage.Batch {
	return storage.BatchFor(b.db)
}

// BalanceOf returns addr's native balance.
func (b *Bank) BalanceOf(addr types.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance(addr)
}

// Deposit credits addr out of thin air. Used by genesis allocations and
// the faucet RPC; unsolicited deposits to any address are accepted.
func (b *Bank) Deposit(addr types.Address, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	bal, err := b.balance(addr)
	if err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	if amount > math.MaxUint64-bal {
		return fmt.Errorf("deposit: %w", ErrAmountOverflow)
	}

	batch := b.newBatch()
	if err := setBalance(batch, addr, bal+amount); err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("deposit: %w", err)
	}

	log.Native.Debug().
		Stringer("address", addr).
		Uint64("amount", amount).
		Msg("native deposit")
	return nil
}

// Move debits from and credits to atomically.
func (b *Bank) Move(from, to types.Address, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	balFrom, err := b.balance(from)
	if err != nil {
		return fmt.Errorf("native move: %w", err)
	}
	if balFrom < amount {
		return fmt.Errorf("native move: %w: %s has %d, needs %d",
			ErrInsufficientFunds, from, balFrom, amount)
	}
	if from == to {
		return nil
	}
	balTo, err := b.balance(to)
	if err != nil {
		return fmt.Errorf("native move: %w", err)
	}

	batch := b.newBatch()
	if err := setBalance(batch, from, balFrom-amount); err != nil {
		return fmt.Errorf("native move: %w", err)
	}
	if err := setBalance(batch, to, balTo+amount); err != nil {
		return fmt.Errorf("native move: %w", err)
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("native move: %w", err)
	}

	log.Native.Debug().
		Stringer("from", from).
		Stringer("to", to).
		Uint64("amount", amount).
		Msg("native moved")
	return nil
}
