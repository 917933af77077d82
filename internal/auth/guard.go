// Package auth implements the single-owner privilege gate shared by the
// ledger, exchange and NFT components.
package auth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/VadimLarinTech/rps-exchange/pkg/types"
)

var (
	// ErrUnauthorized is returned when a privileged operation is invoked
	// by anyone other than the current owner.
	ErrUnauthorized = errors.New("caller is not the owner")

	// ErrZeroOwner is returned when ownership would be transferred to the
	// zero address.
	ErrZeroOwner = errors.New("new owner is the zero address")
)

// Guard holds the single privileged address for a component.
// The zero address can never become the owner, so a zero-valued Guard
// rejects every caller.
type Guard struct {
	mu    sync.RWMutex
	owner types.Address
}

// NewGuard creates a guard with the given initial owner.
func NewGuard(owner types.Address) *Guard {
	return &Guard{owner: owner}
}

// Owner returns the current privileged address.
func (g *Guard) Owner() types.Address {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.owner
}

// Require returns ErrUnauthorized unless caller is the current owner.
func (g *Guard) Require(caller types.Address) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if caller != g.owner {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller)
	}
	return nil
}

// TransferOwnership moves the privilege to newOwner. Only the current
// owner may call it, and the zero address is rejected.
func (g *Guard) TransferOwnership(caller, newOwner types.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if caller != g.owner {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller)
	}
	if newOwner.IsZero() {
		return ErrZeroOwner
	}
	g.owner = newOwner
	return nil
}
