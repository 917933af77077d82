package nft

import (
	"errors"
	"testing"

	"github.com/VadimLarinTech/rps-exchange/internal/events"
	"github.com/VadimLarinTech/rps-exchange/internal/storage"
	"github.com/VadimLarinTech/rps-exchange/pkg/types"
)

var (
	ownerAddr = types.Address{0x01}
	alice     = types.Address{0xA1}
	bob       = types.Address{0xB1}
)

func newTestCollection(t *testing.T) (*Collection, *events.Bus) {
	t.Helper()
	bus := events.NewBus(16)
	col, err := New(types.Address{0xCC}, Metadata{Name: "Wrapped Items", Symbol: "WRAP"},
		ownerAddr, storage.NewMemory(), bus)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return col, bus
}

func TestCollection_MintAndRead(t *testing.T) {
	col, bus := newTestCollection(t)

	if err := col.Mint(ownerAddr, alice, 1, "ipfs://item-1"); err != nil {
		t.Fatalf("Mint: %v", err)
	}

	holder, err := col.OwnerOf(1)
	if err != nil {
		t.Fatalf("OwnerOf: %v", err)
	}
	if holder != alice {
		t.Errorf("OwnerOf(1) = %s, want %s", holder, alice)
	}

	uri, err := col.TokenURI(1)
	if err != nil {
		t.Fatalf("TokenURI: %v", err)
	}
	if uri != "ipfs://item-1" {
		t.Errorf("TokenURI(1) = %q", uri)
	}

	// Mint emits a transfer from the zero address.
	recent := bus.Recent(0)
	last := recent[len(recent)-1]
	if !last.From.IsZero() || last.To != alice || last.TokenID != 1 {
		t.Errorf("mint event = %+v", last)
	}
}

func TestCollection_Mint_Unauthorized(t *testing.T) {
	col, _ := newTestCollection(t)

	if err := col.Mint(alice, alice, 1, ""); err == nil {
		t.Error("Mint by non-owner should fail")
	}
}

func TestCollection_Mint_DuplicateID(t *testing.T) {
	col, _ := newTestCollection(t)

	if err := col.Mint(ownerAddr, alice, 7, "a"); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	err := col.Mint(ownerAddr, bob, 7, "b")
	if !errors.Is(err, ErrTokenExists) {
		t.Fatalf("duplicate Mint = %v, want ErrTokenExists", err)
	}

	// Original holder and URI untouched.
	holder, _ := col.OwnerOf(7)
	uri, _ := col.TokenURI(7)
	if holder != alice || uri != "a" {
		t.Errorf("token mutated by rejected mint: %s %q", holder, uri)
	}
}

func TestCollection_Mint_ZeroReceiver(t *testing.T) {
	col, _ := newTestCollection(t)

	err := col.Mint(ownerAddr, types.Address{}, 1, "")
	if !errors.Is(err, ErrInvalidReceiver) {
		t.Errorf("Mint to zero = %v, want ErrInvalidReceiver", err)
	}
}

func TestCollection_Transfer(t *testing.T) {
	col, _ := newTestCollection(t)
	if err := col.Mint(ownerAddr, alice, 1, "x"); err != nil {
		t.Fatalf("Mint: %v", err)
	}

	if err := col.Transfer(alice, bob, 1); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	holder, _ := col.OwnerOf(1)
	if holder != bob {
		t.Errorf("OwnerOf after transfer = %s, want %s", holder, bob)
	}

	// URI survives the transfer.
	uri, _ := col.TokenURI(1)
	if uri != "x" {
		t.Errorf("TokenURI after transfer = %q", uri)
	}
}

func TestCollection_Transfer_NotHolder(t *testing.T) {
	col, _ := newTestCollection(t)
	col.Mint(ownerAddr, alice, 1, "")

	err := col.Transfer(bob, bob, 1)
	if !errors.Is(err, ErrNotTokenOwner) {
		t.Fatalf("Transfer by non-holder = %v, want ErrNotTokenOwner", err)
	}
	holder, _ := col.OwnerOf(1)
	if holder != alice {
		t.Errorf("holder changed by rejected transfer: %s", holder)
	}
}

func TestCollection_Transfer_ZeroReceiver(t *testing.T) {
	col, _ := newTestCollection(t)
	col.Mint(ownerAddr, alice, 1, "")

	err := col.Transfer(alice, types.Address{}, 1)
	if !errors.Is(err, ErrInvalidReceiver) {
		t.Errorf("Transfer to zero = %v, want ErrInvalidReceiver", err)
	}
}

func TestCollection_UnknownToken(t *testing.T) {
	col, _ := newTestCollection(t)

	if _, err := col.OwnerOf(99); !errors.Is(err, ErrUnknownToken) {
		t.Errorf("OwnerOf unknown = %v, want ErrUnknownToken", err)
	}
	if _, err := col.TokenURI(99); !errors.Is(err, ErrUnknownToken) {
		t.Errorf("TokenURI unknown = %v, want ErrUnknownToken", err)
	}
	if err := col.Transfer(alice, bob, 99); !errors.Is(err, ErrUnknownToken) {
		t.Errorf("Transfer unknown = %v, want ErrUnknownToken", err)
	}
}
