// Package crypto provides cryptographic primitives for the RPS asset ledger.
package crypto

import (
	"github.com/VadimLarinTech/rps-exchange/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// AddressFromPubKey derives an address from a compressed public key.
// Address = BLAKE3(compressed_pubkey)[:20].
func AddressFromPubKey(pubKey []byte) types.Address {
	h := Hash(pubKey)
	var addr types.Address
	copy(addr[:], h[:types.AddressSize])
	return addr
}

// assetDomain separates asset address derivation from other hash uses.
const assetDomain = "rps/asset/v1"

// AssetAddress derives a deterministic asset address from the asset symbol
// and the owner who created it. Two assets with the same symbol and owner
// would collide, which is rejected at genesis load instead.
// Address = BLAKE3(domain || owner || symbol)[:20].
func AssetAddress(owner types.Address, symbol string) types.Address {
	buf := make([]byte, 0, len(assetDomain)+types.AddressSize+len(symbol))
	buf = append(buf, assetDomain...)
	buf = append(buf, owner[:]...)
	buf = append(buf, symbol...)
	h := Hash(buf)
	var addr types.Address
	copy(addr[:], h[:types.AddressSize])
	return addr
}
