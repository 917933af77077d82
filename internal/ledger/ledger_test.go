package ledger

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
	carol     = types.Address{0xC1}
)

// newTestLedger creates an in-memory ledger with 1000 units minted to
// alice.
func newTestLedger(t *testing.T) (*Ledger, *events.Bus) {
	t.Helper()
	bus := events.NewBus(64)
	ldg, err := New(types.Address{0xFF}, Metadata{Name: "Test Asset", Symbol: "TST", Decimals: 8},
		ownerAddr, storage.NewMemory(), bus)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := ldg.Mint(ownerAddr, alice, 1000); err != nil {
		t.Fatalf("initial Mint() error: %v", err)
	}
	return ldg, bus
}

// sumBalances adds the balances of the test accounts.
func sumBalances(t *testing.T, ldg *Ledger) uint64 {
	t.Helper()
	var sum uint64
	for _, addr := range []types.Address{ownerAddr, alice, bob, carol} {
		bal, err := ldg.BalanceOf(addr)
		if err != nil {
			t.Fatalf("BalanceOf(%s): %v", addr, err)
		}
		sum += bal
	}
	return sum
}

// checkConservation asserts totalSupply == sum of balances.
func checkConservation(t *testing.T, ldg *Ledger) {
	t.Helper()
	supply, err := ldg.TotalSupply()
	if err != nil {
		t.Fatalf("TotalSupply(): %v", err)
	}
	if sum := sumBalances(t, ldg); sum != supply {
		t.Errorf("conservation violated: supply %d, balance sum %d", supply, sum)
	}
}

func TestLedger_Metadata(t *testing.T) {
	ldg, _ := newTestLedger(t)
	if ldg.Name() != "Test Asset" || ldg.Symbol() != "TST" || ldg.Decimals() != 8 {
		t.Errorf("metadata = %q/%q/%d", ldg.Name(), ldg.Symbol(), ldg.Decimals())
	}
	if ldg.Owner() != ownerAddr {
		t.Errorf("Owner() = %s, want %s", ldg.Owner(), ownerAddr)
	}
}

func TestLedger_Transfer(t *testing.T) {
	ldg, bus := newTestLedger(t)

	if err := ldg.Transfer(alice, bob, 300); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	balA, _ := ldg.BalanceOf(alice)
	balB, _ := ldg.BalanceOf(bob)
	if balA != 700 || balB != 300 {
		t.Errorf("balances = %d/%d, want 700/300", balA, balB)
	}
	checkConservation(t, ldg)

	recent := bus.Recent(0)
	last := recent[len(recent)-1]
	if last.Type != events.TypeTransfer || last.From != alice || last.To != bob || last.Amount != 300 {
		t.Errorf("transfer event = %+v", last)
	}
}

func TestLedger_Transfer_ZeroReceiver(t *testing.T) {
	ldg, _ := newTestLedger(t)

	err := ldg.Transfer(alice, types.Address{}, 1)
	if !errors.Is(err, ErrInvalidReceiver) {
		t.Errorf("Transfer to zero = %v, want ErrInvalidReceiver", err)
	}

	bal, _ := ldg.BalanceOf(alice)
	if bal != 1000 {
		t.Errorf("balance changed on failed transfer: %d", bal)
	}
}

func TestLedger_Transfer_ZeroSender(t *testing.T) {
	ldg, _ := newTestLedger(t)

	err := ldg.Transfer(types.Address{}, bob, 1)
	if !errors.Is(err, ErrInvalidSender) {
		t.Errorf("Transfer from zero = %v, want ErrInvalidSender", err)
	}
}

func TestLedger_Transfer_InsufficientBalance(t *testing.T) {
	ldg, _ := newTestLedger(t)

	err := ldg.Transfer(alice, bob, 1001)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("Transfer = %v, want ErrInsufficientBalance", err)
	}

	var balErr *InsufficientBalanceError
	if !errors.As(err, &balErr) {
		t.Fatalf("error is not *InsufficientBalanceError: %v", err)
	}
	if balErr.Holder != alice || balErr.Balance != 1000 || balErr.Needed != 1001 {
		t.Errorf("error fields = %+v", balErr)
	}

	// State unchanged.
	balA, _ := ldg.BalanceOf(alice)
	balB, _ := ldg.BalanceOf(bob)
	if balA != 1000 || balB != 0 {
		t.Errorf("balances mutated on failed transfer: %d/%d", balA, balB)
	}
}

func TestLedger_Transfer_Self(t *testing.T) {
	ldg, _ := newTestLedger(t)

	if err := ldg.Transfer(alice, alice, 400); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	bal, _ := ldg.BalanceOf(alice)
	if bal != 1000 {
		t.Errorf("self transfer changed balance: %d", bal)
	}
	checkConservation(t, ldg)
}

func TestLedger_Transfer_FullBalance(t *testing.T) {
	ldg, _ := newTestLedger(t)

	if err := ldg.Transfer(alice, bob, 1000); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	balA, _ := ldg.BalanceOf(alice)
	balB, _ := ldg.BalanceOf(bob)
	if balA != 0 || balB != 1000 {
		t.Errorf("balances = %d/%d, want 0/1000", balA, balB)
	}
}

func TestLedger_Approve_Overwrite(t *testing.T) {
	ldg, _ := newTestLedger(t)

	if err := ldg.Approve(alice, bob, 100); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := ldg.Approve(alice, bob, 30); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	allowance, _ := ldg.Allowance(alice, bob)
	if allowance != 30 {
		t.Errorf("allowance = %d, want 30 (overwrite, not increment)", allowance)
	}
}

func TestLedger_Approve_ZeroSpender(t *testing.T) {
	ldg, _ := newTestLedger(t)

	err := ldg.Approve(alice, types.Address{}, 1)
	if !errors.Is(err, ErrInvalidReceiver) {
		t.Errorf("Approve zero spender = %v, want ErrInvalidReceiver", err)
	}
}

func TestLedger_TransferFrom_AllowanceDecrement(t *testing.T) {
	ldg, _ := newTestLedger(t)

	if err := ldg.Approve(alice, bob, 100); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := ldg.TransferFrom(bob, alice, carol, 40); err != nil {
		t.Fatalf("TransferFrom: %v", err)
	}

	allowance, _ := ldg.Allowance(alice, bob)
	if allowance != 60 {
		t.Errorf("allowance after spend = %d, want 60", allowance)
	}
	balC, _ := ldg.BalanceOf(carol)
	if balC != 40 {
		t.Errorf("carol balance = %d, want 40", balC)
	}

	// Spending 61 now exceeds the remaining allowance.
	err := ldg.TransferFrom(bob, alice, carol, 61)
	if !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("TransferFrom = %v, want ErrInsufficientAllowance", err)
	}

	var allowErr *InsufficientAllowanceError
	if !errors.As(err, &allowErr) {
		t.Fatalf("error is not *InsufficientAllowanceError: %v", err)
	}
	if allowErr.Spender != bob || allowErr.Allowance != 60 || allowErr.Needed != 61 {
		t.Errorf("error fields = %+v", allowErr)
	}

	// Balances and allowance unchanged by the failure.
	allowance, _ = ldg.Allowance(alice, bob)
	balA, _ := ldg.BalanceOf(alice)
	balC, _ = ldg.BalanceOf(carol)
	if allowance != 60 || balA != 960 || balC != 40 {
		t.Errorf("state mutated on failed transferFrom: allowance=%d alice=%d carol=%d",
			allowance, balA, balC)
	}
	checkConservation(t, ldg)
}

func TestLedger_TransferFrom_InsufficientBalance(t *testing.T) {
	ldg, _ := newTestLedger(t)

	// Allowance larger than the balance.
	if err := ldg.Approve(alice, bob, 5000); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	err := ldg.TransferFrom(bob, alice, carol, 2000)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("TransferFrom = %v, want ErrInsufficientBalance", err)
	}

	// Allowance must not be consumed by the failed spend.
	allowance, _ := ldg.Allowance(alice, bob)
	if allowance != 5000 {
		t.Errorf("allowance = %d, want 5000", allowance)
	}
}

func TestLedger_TransferFrom_NoApproval(t *testing.T) {
	ldg, _ := newTestLedger(t)

	err := ldg.TransferFrom(bob, alice, carol, 1)
	if !errors.Is(err, ErrInsufficientAllowance) {
		t.Errorf("TransferFrom without approval = %v, want ErrInsufficientAllowance", err)
	}
}

func TestLedger_Mint(t *testing.T) {
	ldg, bus := newTestLedger(t)

	if err := ldg.Mint(ownerAddr, bob, 500); err != nil {
		t.Fatalf("Mint: %v", err)
	}

	supply, _ := ldg.TotalSupply()
	balB, _ := ldg.BalanceOf(bob)
	if supply != 1500 || balB != 500 {
		t.Errorf("supply=%d bob=%d, want 1500/500", supply, balB)
	}
	checkConservation(t, ldg)

	recent := bus.Recent(0)
	last := recent[len(recent)-1]
	if !last.From.IsZero() || last.To != bob || last.Amount != 500 {
		t.Errorf("mint event should carry zero sender: %+v", last)
	}
}

func TestLedger_Mint_Unauthorized(t *testing.T) {
	ldg, _ := newTestLedger(t)

	err := ldg.Mint(alice, alice, 1)
	if err == nil {
		t.Fatal("Mint by non-owner should fail")
	}

	supply, _ := ldg.TotalSupply()
	if supply != 1000 {
		t.Errorf("supply changed on failed mint: %d", supply)
	}
}

func TestLedger_Mint_ZeroReceiver(t *testing.T) {
	ldg, _ := newTestLedger(t)

	err := ldg.Mint(ownerAddr, types.Address{}, 1)
	if !errors.Is(err, ErrInvalidReceiver) {
		t.Errorf("Mint to zero = %v, want ErrInvalidReceiver", err)
	}
}

func TestLedger_Mint_Overflow(t *testing.T) {
	ldg, _ := newTestLedger(t)

	err := ldg.Mint(ownerAddr, bob, ^uint64(0))
	if !errors.Is(err, ErrAmountOverflow) {
		t.Fatalf("Mint overflow = %v, want ErrAmountOverflow", err)
	}

	supply, _ := ldg.TotalSupply()
	if supply != 1000 {
		t.Errorf("supply changed on failed mint: %d", supply)
	}
}

func TestLedger_PauseAsymmetry(t *testing.T) {
	ldg, _ := newTestLedger(t)

	if err := ldg.Pause(ownerAddr); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if paused, _ := ldg.Paused(); !paused {
		t.Fatal("Paused() = false after Pause")
	}

	// Mint is blocked while paused.
	if err := ldg.Mint(ownerAddr, bob, 1); !errors.Is(err, ErrMintingPaused) {
		t.Errorf("Mint while paused = %v, want ErrMintingPaused", err)
	}

	// Transfer and burn still work.
	if err := ldg.Transfer(alice, bob, 10); err != nil {
		t.Errorf("Transfer while paused: %v", err)
	}
	if err := ldg.Burn(ownerAddr, alice, 10); err != nil {
		t.Errorf("Burn while paused: %v", err)
	}
	checkConservation(t, ldg)

	// Unpause restores minting.
	if err := ldg.Unpause(ownerAddr); err != nil {
		t.Fatalf("Unpause: %v", err)
	}
	if err := ldg.Mint(ownerAddr, bob, 1); err != nil {
		t.Errorf("Mint after unpause: %v", err)
	}
}

func TestLedger_PauseStateToggle(t *testing.T) {
	ldg, _ := newTestLedger(t)

	if err := ldg.Unpause(ownerAddr); !errors.Is(err, ErrNotPaused) {
		t.Errorf("Unpause while running = %v, want ErrNotPaused", err)
	}
	if err := ldg.Pause(ownerAddr); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := ldg.Pause(ownerAddr); !errors.Is(err, ErrAlreadyPaused) {
		t.Errorf("double Pause = %v, want ErrAlreadyPaused", err)
	}
	if err := ldg.Pause(alice); err == nil {
		t.Error("Pause by non-owner should fail")
	}
}

func TestLedger_Burn(t *testing.T) {
	ldg, bus := newTestLedger(t)

	if err := ldg.Burn(ownerAddr, alice, 400); err != nil {
		t.Fatalf("Burn: %v", err)
	}

	supply, _ := ldg.TotalSupply()
	balA, _ := ldg.BalanceOf(alice)
	if supply != 600 || balA != 600 {
		t.Errorf("supply=%d alice=%d, want 600/600", supply, balA)
	}
	checkConservation(t, ldg)

	recent := bus.Recent(0)
	last := recent[len(recent)-1]
	if last.From != alice || !last.To.IsZero() || last.Amount != 400 {
		t.Errorf("burn event should carry zero receiver: %+v", last)
	}
}

func TestLedger_Burn_Underflow(t *testing.T) {
	ldg, _ := newTestLedger(t)

	err := ldg.Burn(ownerAddr, alice, 1001)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("Burn underflow = %v, want ErrInsufficientBalance", err)
	}

	supply, _ := ldg.TotalSupply()
	balA, _ := ldg.BalanceOf(alice)
	if supply != 1000 || balA != 1000 {
		t.Errorf("state mutated on failed burn: supply=%d alice=%d", supply, balA)
	}
}

func TestLedger_Burn_Unauthorized(t *testing.T) {
	ldg, _ := newTestLedger(t)

	if err := ldg.Burn(alice, alice, 1); err == nil {
		t.Error("Burn by non-owner should fail")
	}
}

func TestLedger_Conservation_Sequence(t *testing.T) {
	ldg, _ := newTestLedger(t)

	steps := []func() error{
		func() error { return ldg.Transfer(alice, bob, 250) },
		func() error { return ldg.Mint(ownerAddr, carol, 300) },
		func() error { return ldg.Approve(alice, carol, 500) },
		func() error { return ldg.TransferFrom(carol, alice, bob, 100) },
		func() error { return ldg.Burn(ownerAddr, bob, 50) },
		func() error { return ldg.Transfer(carol, alice, 150) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		checkConservation(t, ldg)
	}
}

func TestLedger_TransferOwnership(t *testing.T) {
	ldg, _ := newTestLedger(t)

	if err := ldg.TransferOwnership(ownerAddr, bob); err != nil {
		t.Fatalf("TransferOwnership: %v", err)
	}
	if err := ldg.Mint(ownerAddr, alice, 1); err == nil {
		t.Error("old owner should not mint after ownership transfer")
	}
	if err := ldg.Mint(bob, alice, 1); err != nil {
		t.Errorf("new owner Mint: %v", err)
	}
}

func TestLedger_Persistence(t *testing.T) {
	bus := events.NewBus(64)
	db := storage.NewMemory()
	addr := types.Address{0xFF}

	ldg, err := New(addr, Metadata{Name: "Persist", Symbol: "PER", Decimals: 2}, ownerAddr, db, bus)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ldg.Mint(ownerAddr, alice, 777); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := ldg.Approve(alice, bob, 55); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := ldg.Pause(ownerAddr); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	reopened, err := Open(addr, db, bus)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if reopened.Symbol() != "PER" || reopened.Owner() != ownerAddr {
		t.Errorf("reopened metadata = %q owner %s", reopened.Symbol(), reopened.Owner())
	}
	bal, _ := reopened.BalanceOf(alice)
	allowance, _ := reopened.Allowance(alice, bob)
	paused, _ := reopened.Paused()
	supply, _ := reopened.TotalSupply()
	if bal != 777 || allowance != 55 || !paused || supply != 777 {
		t.Errorf("reopened state: bal=%d allowance=%d paused=%v supply=%d",
			bal, allowance, paused, supply)
	}
}
