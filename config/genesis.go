package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/VadimLarinTech/rps-exchange/pkg/crypto"
	"github.com/VadimLarinTech/rps-exchange/pkg/types"
)

// Genesis declares the initial state of a network: the native currency
// allocations, the fungible asset set, the exchange owner with its
// initial listings, and the NFT collection. It is applied exactly once
// on first start.
type Genesis struct {
	NetworkID    string            `json:"networkId"`
	NativeSymbol string            `json:"nativeSymbol"`
	Alloc        map[string]uint64 `json:"alloc"` // address -> native amount
	Assets       []AssetDef        `json:"assets"`
	Exchange     ExchangeDef       `json:"exchange"`
	NFT          *NFTDef           `json:"nft,omitempty"`
}

// AssetDef declares a fungible asset created at genesis. InitialSupply
// is minted to Owner.
type AssetDef struct {
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Decimals      uint8  `json:"decimals"`
	InitialSupply uint64 `json:"initialSupply"`
	Owner         string `json:"owner"`
}

// ExchangeDef declares the exchange owner and the asset symbols listed
// for trading from the start.
type ExchangeDef struct {
	Owner  string   `json:"owner"`
	Listed []string `json:"listed,omitempty"`
}

// NFTDef declares the NFT collection created at genesis.
type NFTDef struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Owner  string `json:"owner"`
}

// genesisOwner is the bootstrap operator address used by the built-in
// genesis files. Raw hex so the files parse under either HRP.
const genesisOwner = "a94f5374fce5edbc8e2a8697c15331677e6ebf0b"

// MainnetGenesis returns the built-in mainnet genesis.
func MainnetGenesis() *Genesis {
	return &Genesis{
		NetworkID:    "rpsx-mainnet-1",
		NativeSymbol: "RPS",
		Alloc: map[string]uint64{
			genesisOwner: 1_000_000_000,
		},
		Assets: []AssetDef{
			{Name: "Wrapped Rock", Symbol: "WROCK", Decimals: 8, InitialSupply: 100_000_000, Owner: genesisOwner},
			{Name: "Wrapped Paper", Symbol: "WPAPR", Decimals: 8, InitialSupply: 100_000_000, Owner: genesisOwner},
		},
		Exchange: ExchangeDef{
			Owner:  genesisOwner,
			Listed: []string{"WROCK", "WPAPR"},
		},
		NFT: &NFTDef{
			Name:   "RPS Collectibles",
			Symbol: "RPSC",
			Owner:  genesisOwner,
		},
	}
}

// TestnetGenesis returns the built-in testnet genesis.
func TestnetGenesis() *Genesis {
	g := MainnetGenesis()
	g.NetworkID = "rpsx-testnet-1"
	g.NativeSymbol = "tRPS"
	return g
}

// DefaultGenesis returns the built-in genesis for the given network.
func DefaultGenesis(network NetworkType) *Genesis {
	if network == Testnet {
		return TestnetGenesis()
	}
	return MainnetGenesis()
}

// LoadGenesis reads and validates a genesis file.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis: %w", err)
	}
	var g Genesis
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse genesis: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis: %w", err)
	}
	return &g, nil
}

// Save writes the genesis to path as indented JSON.
func (g *Genesis) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal genesis: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks genesis consistency: parseable addresses, non-empty
// unique asset symbols, and listings referencing declared assets.
func (g *Genesis) Validate() error {
	if g.NetworkID == "" {
		return fmt.Errorf("missing networkId")
	}
	if g.NativeSymbol == "" {
		return fmt.Errorf("missing nativeSymbol")
	}

	for addr := range g.Alloc {
		if _, err := types.ParseAddress(addr); err != nil {
			return fmt.Errorf("alloc address %q: %w", addr, err)
		}
	}

	symbols := make(map[string]bool, len(g.Assets))
	for i, asset := range g.Assets {
		if asset.Symbol == "" {
			return fmt.Errorf("asset %d: missing symbol", i)
		}
		if asset.Name == "" {
			return fmt.Errorf("asset %s: missing name", asset.Symbol)
		}
		if symbols[asset.Symbol] {
			return fmt.Errorf("duplicate asset symbol %s", asset.Symbol)
		}
		symbols[asset.Symbol] = true
		if _, err := types.ParseAddress(asset.Owner); err != nil {
			return fmt.Errorf("asset %s owner: %w", asset.Symbol, err)
		}
	}

	if g.Exchange.Owner == "" {
		return fmt.Errorf("missing exchange owner")
	}
	if _, err := types.ParseAddress(g.Exchange.Owner); err != nil {
		return fmt.Errorf("exchange owner: %w", err)
	}
	for _, sym := range g.Exchange.Listed {
		if !symbols[sym] {
			return fmt.Errorf("exchange lists unknown asset %s", sym)
		}
	}

	if g.NFT != nil {
		if g.NFT.Symbol == "" || g.NFT.Name == "" {
			return fmt.Errorf("nft collection: missing name or symbol")
		}
		if _, err := types.ParseAddress(g.NFT.Owner); err != nil {
			return fmt.Errorf("nft owner: %w", err)
		}
	}

	return nil
}

// Hash returns the BLAKE3 hash of the canonical JSON encoding. Used to
// detect genesis mismatch between an existing state database and the
// configured genesis.
func (g *Genesis) Hash() (types.Hash, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return types.Hash{}, fmt.Errorf("marshal genesis: %w", err)
	}
	return crypto.Hash(data), nil
}
