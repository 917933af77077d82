package ledger

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/VadimLarinTech/rps-exchange/internal/storage"
	"github.com/VadimLarinTech/rps-exchange/pkg/types"
)

// Key layout within one ledger's namespace:
//
//	b/<addr(20)>             -> balance, big-endian uint64
//	w/<owner(20)><spender(20)> -> allowance, big-endian uint64
//	s                        -> total supply, big-endian uint64
//	p                        -> paused flag, single byte
//	m                        -> Metadata JSON
//	o                        -> owner address, 20 raw bytes
var (
	prefixBalance   = []byte("b/")
	prefixAllowance = []byte("w/")
	keySupply       = []byte("s")
	keyPaused       = []byte("p")
	keyMetadata     = []byte("m")
	keyOwner        = []byte("o")
)

// Metadata holds the immutable descriptive fields of an asset.
type Metadata struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// store persists one ledger's balances, allowances, supply and pause
// state. All writes go through storage batches held by the Ledger.
type store struct {
	db storage.DB
}

func newStore(db storage.DB) *store {
	return &store{db: db}
}

func balanceKey(addr types.Address) []byte {
	key := make([]byte, 0, len(prefixBalance)+types.AddressSize)
	key = append(key, prefixBalance...)
	return append(key, addr[:]...)
}

func allowanceKey(owner, spender types.Address) []byte {
	key := make([]byte, 0, len(prefixAllowance)+2*types.AddressSize)
	key = append(key, prefixAllowance...)
	key = append(key, owner[:]...)
	return append(key, spender[:]...)
}

func encodeAmount(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}

func decodeAmount(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("amount must be 8 bytes, got %d", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// amount reads a uint64 value, treating a missing key as zero.
func (s *store) amount(key []byte) (uint64, error) {
	ok, err := s.db.Has(key)
	if err != nil {
		return 0, fmt.Errorf("ledger has: %w", err)
	}
	if !ok {
		return 0, nil
	}
	data, err := s.db.Get(key)
	if err != nil {
		return 0, fmt.Errorf("ledger get: %w", err)
	}
	return decodeAmount(data)
}

func (s *store) Balance(addr types.Address) (uint64, error) {
	return s.amount(balanceKey(addr))
}

func (s *store) Allowance(owner, spender types.Address) (uint64, error) {
	return s.amount(allowanceKey(owner, spender))
}

func (s *store) Supply() (uint64, error) {
	return s.amount(keySupply)
}

func (s *store) Paused() (bool, error) {
	ok, err := s.db.Has(keyPaused)
	if err != nil {
		return false, fmt.Errorf("ledger has: %w", err)
	}
	if !ok {
		return false, nil
	}
	data, err := s.db.Get(keyPaused)
	if err != nil {
		return false, fmt.Errorf("ledger get: %w", err)
	}
	return len(data) == 1 && data[0] == 1, nil
}

func (s *store) PutMetadata(meta *Metadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("metadata marshal: %w", err)
	}
	return s.db.Put(keyMetadata, data)
}

func (s *store) GetMetadata() (*Metadata, error) {
	data, err := s.db.Get(keyMetadata)
	if err != nil {
		return nil, fmt.Errorf("metadata get: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("metadata unmarshal: %w", err)
	}
	return &meta, nil
}

func (s *store) PutOwner(owner types.Address) error {
	return s.db.Put(keyOwner, owner[:])
}

func (s *store) GetOwner() (types.Address, error) {
	data, err := s.db.Get(keyOwner)
	if err != nil {
		return types.Address{}, fmt.Errorf("owner get: %w", err)
	}
	if len(data) != types.AddressSize {
		return types.Address{}, fmt.Errorf("owner must be %d bytes, got %d", types.AddressSize, len(data))
	}
	var addr types.Address
	copy(addr[:], data)
	return addr, nil
}

// NewBatch returns an atomic write batch over the ledger's namespace.
func (s *store) NewBatch() storage.Batch {
	return storage.BatchFor(s.db)
}

// setAmount writes a uint64 into the batch, deleting the key when the
// value is zero to keep the keyspace compact.
func setAmount(batch storage.Batch, key []byte, v uint64) error {
	if v == 0 {
		return batch.Delete(key)
	}
	return batch.Put(key, encodeAmount(v))
}

func setPaused(batch storage.Batch, paused bool) error {
	if !paused {
		return batch.Delete(keyPaused)
	}
	return batch.Put(keyPaused, []byte{1})
}
