// Package nft implements the non-fungible wrapper collection: tokens
// minted by the collection owner, each carrying a URI pointing at the
// wrapped external asset.
package nft

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/VadimLarinTech/rps-exchange/internal/auth"
	"github.com/VadimLarinTech/rps-exchange/internal/events"
	"github.com/VadimLarinTech/rps-exchange/internal/log"
	"github.com/VadimLarinTech/rps-exchange/internal/storage"
	"github.com/VadimLarinTech/rps-exchange/pkg/types"
)

var (
	// ErrTokenExists rejects minting an id that is already taken.
	ErrTokenExists = errors.New("token id already minted")

	// ErrUnknownToken is returned for an id that was never minted.
	ErrUnknownToken = errors.New("unknown token id")

	// ErrInvalidReceiver rejects the zero address as a mint or transfer
	// target.
	ErrInvalidReceiver = errors.New("invalid receiver: zero address")

	// ErrNotTokenOwner rejects a transfer by anyone but the token's
	// current holder.
	ErrNotTokenOwner = errors.New("caller does not own the token")
)

// Key layout within the collection namespace:
//
//	t/<id(8)> -> tokenRecord JSON
//	m         -> collection Metadata JSON
var (
	prefixToken = []byte("t/")
	keyMetadata = []byte("m")
)

// Metadata names the collection.
type Metadata struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// tokenRecord is the persisted state of one token.
type tokenRecord struct {
	Owner types.Address `json:"owner"`
	URI   string        `json:"uri"`
}

// Collection is an owner-minted set of unique tokens.
type Collection struct {
	mu sync.Mutex

	addr   types.Address
	meta   Metadata
	guard  *auth.Guard
	db     storage.DB
	bus    *events.Bus
	logger zerolog.Logger
}

// New creates a collection at addr owned by owner.
func New(addr types.Address, meta Metadata, owner types.Address, db storage.DB, bus *events.Bus) (*Collection, error) {
	data, err := json.Marshal(&meta)
	if err != nil {
		return nil, fmt.Errorf("collection metadata marshal: %w", err)
	}
	if err := db.Put(keyMetadata, data); err != nil {
		return nil, fmt.Errorf("collection metadata put: %w", err)
	}
	return &Collection{
		addr:   addr,
		meta:   meta,
		guard:  auth.NewGuard(owner),
		db:     db,
		bus:    bus,
		logger: log.NFT.With().Str("collection", meta.Symbol).Logger(),
	}, nil
}

// Address returns the collection's address.
func (c *Collection) Address() types.Address { return c.addr }

// Name returns the collection name.
func (c *Collection) Name() string { return c.meta.Name }

// Symbol returns the collection symbol.
func (c *Collection) Symbol() string { return c.meta.Symbol }

// Owner returns the privileged account.
func (c *Collection) Owner() types.Address { return c.guard.Owner() }

func tokenKey(id uint64) []byte {
	key := make([]byte, len(prefixToken)+8)
	copy(key, prefixToken)
	binary.BigEndian.PutUint64(key[len(prefixToken):], id)
	return key
}

func (c *Collection) record(id uint64) (*tokenRecord, error) {
	key := tokenKey(id)
	ok, err := c.db.Has(key)
	if err != nil {
		return nil, fmt.Errorf("token has: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownToken, id)
	}
	data, err := c.db.Get(key)
	if err != nil {
		return nil, fmt.Errorf("token get: %w", err)
	}
	var rec tokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("token unmarshal: %w", err)
	}
	return &rec, nil
}

func (c *Collection) putRecord(id uint64, rec *tokenRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("token marshal: %w", err)
	}
	return c.db.Put(tokenKey(id), data)
}

// Mint creates token id held by to with the given URI. Owner only; the
// id must be unused and to must be non-zero. Emits a transfer event
// from the zero address.
func (c *Collection) Mint(caller, to types.Address, id uint64, uri string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guard.Require(caller); err != nil {
		return fmt.Errorf("nft mint: %w", err)
	}
	if to.IsZero() {
		return fmt.Errorf("nft mint: %w", ErrInvalidReceiver)
	}
	ok, err := c.db.Has(tokenKey(id))
	if err != nil {
		return fmt.Errorf("nft mint: %w", err)
	}
	if ok {
		return fmt.Errorf("nft mint: %w: %d", ErrTokenExists, id)
	}

	if err := c.putRecord(id, &tokenRecord{Owner: to, URI: uri}); err != nil {
		return fmt.Errorf("nft mint: %w", err)
	}

	c.logger.Info().
		Uint64("id", id).
		Stringer("to", to).
		Str("uri", uri).
		Msg("token minted")
	c.bus.Publish(events.Event{
		Type:    events.TypeTransfer,
		Asset:   c.addr,
		To:      to,
		TokenID: id,
		Amount:  1,
	})
	return nil
}

// OwnerOf returns the holder of token id.
func (c *Collection) OwnerOf(id uint64) (types.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, err := c.record(id)
	if err != nil {
		return types.Address{}, err
	}
	return rec.Owner, nil
}

// TokenURI returns the URI of token id.
func (c *Collection) TokenURI(id uint64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, err := c.record(id)
	if err != nil {
		return "", err
	}
	return rec.URI, nil
}

// Transfer moves token id from caller to to. The caller must hold the
// token and to must be non-zero.
func (c *Collection) Transfer(caller, to types.Address, id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if to.IsZero() {
		return fmt.Errorf("nft transfer: %w", ErrInvalidReceiver)
	}
	rec, err := c.record(id)
	if err != nil {
		return fmt.Errorf("nft transfer: %w", err)
	}
	if rec.Owner != caller {
		return fmt.Errorf("nft transfer: %w: %d held by %s", ErrNotTokenOwner, id, rec.Owner)
	}

	rec.Owner = to
	if err := c.putRecord(id, rec); err != nil {
		return fmt.Errorf("nft transfer: %w", err)
	}

	c.logger.Debug().
		Uint64("id", id).
		Stringer("from", caller).
		Stringer("to", to).
		Msg("token transferred")
	c.bus.Publish(events.Event{
		Type:    events.TypeTransfer,
		Asset:   c.addr,
		From:    caller,
		To:      to,
		TokenID: id,
		Amount:  1,
	})
	return nil
}
