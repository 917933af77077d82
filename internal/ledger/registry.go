package ledger

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/VadimLarinTech/rps-exchange/internal/events"
	"github.com/VadimLarinTech/rps-exchange/internal/log"
	"github.com/VadimLarinTech/rps-exchange/internal/storage"
	"github.com/VadimLarinTech/rps-exchange/pkg/crypto"
	"github.com/VadimLarinTech/rps-exchange/pkg/types"
)

var prefixAsset = []byte("a/") // a/<addr(20)> -> assetRecord JSON

// assetRecord is the registry's persisted entry for one asset.
type assetRecord struct {
	Metadata
	Owner types.Address `json:"owner"`
}

// Registry tracks every ledger hosted by the node, keyed by asset
// address. Each ledger's state lives under its own "l/<addr-hex>/"
// namespace in the shared database.
type Registry struct {
	mu      sync.RWMutex
	db      storage.DB
	bus     *events.Bus
	ledgers map[types.Address]*Ledger
}

// NewRegistry opens the registry and loads every known ledger.
func NewRegistry(db storage.DB, bus *events.Bus) (*Registry, error) {
	r := &Registry{
		db:      db,
		bus:     bus,
		ledgers: make(map[types.Address]*Ledger),
	}

	err := db.ForEach(prefixAsset, func(key, value []byte) error {
		if len(key) != len(prefixAsset)+types.AddressSize {
			return nil // Malformed key, skip.
		}
		var addr types.Address
		copy(addr[:], key[len(prefixAsset):])

		ldg, err := Open(addr, r.ledgerDB(addr), bus)
		if err != nil {
			return fmt.Errorf("load asset %s: %w", addr, err)
		}
		r.ledgers[addr] = ldg
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Ledger.Info().Int("assets", len(r.ledgers)).Msg("registry loaded")
	return r, nil
}

// ledgerDB returns the namespaced view for one asset's state.
func (r *Registry) ledgerDB(addr types.Address) storage.DB {
	prefix := append([]byte("l/"), hex.EncodeToString(addr[:])...)
	return storage.NewPrefixDB(r.db, append(prefix, '/'))
}

func assetKey(addr types.Address) []byte {
	key := make([]byte, 0, len(prefixAsset)+types.AddressSize)
	key = append(key, prefixAsset...)
	return append(key, addr[:]...)
}

// Create registers a new asset owned by owner and returns its ledger.
// The asset address is derived deterministically from the owner and
// symbol, so re-creating the same pair fails with ErrAssetExists.
func (r *Registry) Create(meta Metadata, owner types.Address) (*Ledger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	addr := crypto.AssetAddress(owner, meta.Symbol)
	if _, ok := r.ledgers[addr]; ok {
		return nil, fmt.Errorf("create asset %s: %w", meta.Symbol, ErrAssetExists)
	}

	data, err := json.Marshal(assetRecord{Metadata: meta, Owner: owner})
	if err != nil {
		return nil, fmt.Errorf("create asset %s: %w", meta.Symbol, err)
	}
	if err := r.db.Put(assetKey(addr), data); err != nil {
		return nil, fmt.Errorf("create asset %s: %w", meta.Symbol, err)
	}

	ldg, err := New(addr, meta, owner, r.ledgerDB(addr), r.bus)
	if err != nil {
		return nil, fmt.Errorf("create asset %s: %w", meta.Symbol, err)
	}
	r.ledgers[addr] = ldg

	log.Ledger.Info().
		Str("symbol", meta.Symbol).
		Stringer("address", addr).
		Stringer("owner", owner).
		Msg("asset created")
	return ldg, nil
}

// Get returns the ledger at addr or ErrUnknownAsset.
func (r *Registry) Get(addr types.Address) (*Ledger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ldg, ok := r.ledgers[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, addr)
	}
	return ldg, nil
}

// BySymbol returns the first ledger with the given symbol or
// ErrUnknownAsset. Symbols are unique per owner, not globally; lookup
// by address is the canonical path.
func (r *Registry) BySymbol(symbol string) (*Ledger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ldg := range r.ledgers {
		if ldg.Symbol() == symbol {
			return ldg, nil
		}
	}
	return nil, fmt.Errorf("%w: symbol %s", ErrUnknownAsset, symbol)
}

// List returns all ledgers ordered by symbol.
func (r *Registry) List() []*Ledger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Ledger, 0, len(r.ledgers))
	for _, ldg := range r.ledgers {
		out = append(out, ldg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol() < out[j].Symbol() })
	return out
}
