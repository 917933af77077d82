package exchange

import "errors"

var (
	// ErrNotListed rejects a swap on an asset that is neither listed nor
	// the native sentinel.
	ErrNotListed = errors.New("asset is not listed")

	// ErrSameAsset rejects a swap where sell and buy are the same asset.
	ErrSameAsset = errors.New("sell and buy assets must differ")

	// ErrValueMismatch means the attached native value does not match
	// what the selected swap branch requires.
	ErrValueMismatch = errors.New("attached value mismatch")

	// ErrInsufficientLiquidity means the exchange lacks the funds to
	// complete a payout leg.
	ErrInsufficientLiquidity = errors.New("insufficient exchange liquidity")

	// ErrReentrantCall rejects a swap or withdrawal entered while
	// another one is still settling.
	ErrReentrantCall = errors.New("reentrant call")

	// ErrZeroAsset rejects listing the native sentinel address, which is
	// implicitly always eligible.
	ErrZeroAsset = errors.New("cannot list the native sentinel address")
)
