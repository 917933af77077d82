package node

import (
	"strings"
	"testing"

	"github.com/VadimLarinTech/rps-exchange/config"
	"github.com/VadimLarinTech/rps-exchange/pkg/types"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultTestnet()
	cfg.DataDir = t.TempDir()
	cfg.Gossip.Enabled = false
	cfg.RPC.Addr = "127.0.0.1"
	cfg.RPC.Port = 0
	cfg.Wallet.Enabled = false
	cfg.Log.Level = "error"
	return cfg
}

func TestNode_GenesisBootstrap(t *testing.T) {
	cfg := testConfig(t)

	n, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer n.Stop()

	gen := n.Genesis()
	if gen.NetworkID != "rpsx-testnet-1" {
		t.Errorf("network id = %s", gen.NetworkID)
	}

	// Assets created with supply minted to their owners.
	assets := n.Registry().List()
	if len(assets) != len(gen.Assets) {
		t.Fatalf("assets = %d, want %d", len(assets), len(gen.Assets))
	}
	for _, def := range gen.Assets {
		l, err := n.Registry().BySymbol(def.Symbol)
		if err != nil {
			t.Fatalf("asset %s: %v", def.Symbol, err)
		}
		supply, _ := l.TotalSupply()
		if supply != def.InitialSupply {
			t.Errorf("%s supply = %d, want %d", def.Symbol, supply, def.InitialSupply)
		}
		owner, _ := types.ParseAddress(def.Owner)
		bal, _ := l.BalanceOf(owner)
		if bal != def.InitialSupply {
			t.Errorf("%s owner balance = %d, want %d", def.Symbol, bal, def.InitialSupply)
		}
	}

	// Native allocations.
	for addrStr, amount := range gen.Alloc {
		addr, _ := types.ParseAddress(addrStr)
		bal, err := n.Bank().BalanceOf(addr)
		if err != nil {
			t.Fatalf("native balance: %v", err)
		}
		if bal != amount {
			t.Errorf("alloc %s = %d, want %d", addrStr, bal, amount)
		}
	}

	// Initial listings.
	listed, err := n.Exchange().Listings()
	if err != nil {
		t.Fatalf("listings: %v", err)
	}
	if len(listed) != len(gen.Exchange.Listed) {
		t.Errorf("listed = %d, want %d", len(listed), len(gen.Exchange.Listed))
	}
}

func TestNode_StartStop(t *testing.T) {
	cfg := testConfig(t)

	n, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := n.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if n.RPCAddr() == "" {
		t.Error("RPC address should be set after Start")
	}
	n.Stop()
}

func TestNode_GenesisAppliedOnce(t *testing.T) {
	cfg := testConfig(t)

	n1, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sym := n1.Genesis().Assets[0].Symbol
	want := n1.Genesis().Assets[0].InitialSupply
	n1.Stop()

	// A restart on the same data dir must not re-mint.
	n2, err := New(cfg)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer n2.Stop()

	l, err := n2.Registry().BySymbol(sym)
	if err != nil {
		t.Fatalf("asset %s: %v", sym, err)
	}
	supply, _ := l.TotalSupply()
	if supply != want {
		t.Errorf("supply after restart = %d, want %d", supply, want)
	}
}

func TestNode_GenesisMismatch(t *testing.T) {
	cfg := testConfig(t)

	n1, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	n1.Stop()

	// Change the genesis file; the initialized state must refuse it.
	gen := config.DefaultGenesis(cfg.Network)
	gen.Alloc = map[string]uint64{"a94f5374fce5edbc8e2a8697c15331677e6ebf0b": 7}
	if err := gen.Save(cfg.GenesisFile()); err != nil {
		t.Fatalf("save genesis: %v", err)
	}

	_, err = New(cfg)
	if err == nil || !strings.Contains(err.Error(), "different genesis") {
		t.Fatalf("New with changed genesis = %v, want mismatch error", err)
	}
}

func TestExchangeAddress_Deterministic(t *testing.T) {
	a := exchangeAddress("rpsx-testnet-1")
	b := exchangeAddress("rpsx-testnet-1")
	if a != b {
		t.Error("exchange address must be deterministic")
	}
	if a == exchangeAddress("rpsx-mainnet-1") {
		t.Error("different networks must get different exchange addresses")
	}
	if a.IsZero() {
		t.Error("exchange address must not be the native sentinel")
	}
}
