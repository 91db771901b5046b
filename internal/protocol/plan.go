package protocol

import "context"

// Plan is the ordered set of primitive steps one lock or unlock request
// compiles down to. A backend executes a plan as a single atomic
// transaction against the host ledger: either every step applies or none
// does.
type Plan struct {
	// Asset is the underlying asset the plan operates on. Concurrent
	// plans for different assets are independent.
	Asset Address
	// Caller signs the plan's unauthorized steps and pays for it.
	Caller Address
	Steps  []Step
}

// Step is one primitive ledger operation inside a plan.
type Step interface {
	step()
}

// TransferStep moves amount of Asset from From to To. A nil Authority
// means the plan's caller signs; otherwise the derived authority does.
type TransferStep struct {
	Asset     Address
	From      Address
	To        Address
	Amount    uint64
	Authority *DerivedAuthority
}

// CreateAssetStep deterministically creates the derivative asset at its
// derived address, with both mint and freeze authority held by the derived
// authority, and attaches its metadata. Emitted at most once per
// underlying asset.
type CreateAssetStep struct {
	Asset     Address
	Decimals  uint8
	Authority DerivedAuthority
	Bump      uint8
	Metadata  AssetMetadata
}

// MintStep mints amount of Asset to the To account, signed by the asset's
// derived mint authority.
type MintStep struct {
	Asset     Address
	To        Address
	Amount    uint64
	Authority DerivedAuthority
}

// BurnStep burns amount of Asset from the From account, signed by the
// plan's caller.
type BurnStep struct {
	Asset  Address
	From   Address
	Amount uint64
}

func (TransferStep) step()    {}
func (CreateAssetStep) step() {}
func (MintStep) step()        {}
func (BurnStep) step()        {}

// Backend is a chain adapter: it supplies address derivation, read access
// to the host ledger, and atomic plan submission. The core never talks to
// a chain except through this interface.
type Backend interface {
	Deriver

	// Decimals returns the base-unit precision of asset.
	Decimals(ctx context.Context, asset Address) (uint8, error)

	// BalanceOf returns the asset balance held in account, in base
	// units. The account is a holding account, not a wallet owner.
	BalanceOf(ctx context.Context, asset, account Address) (uint64, error)

	// AssetMetadata returns the metadata attached to asset, or
	// ErrUninitializedMetadata when none exists.
	AssetMetadata(ctx context.Context, asset Address) (AssetMetadata, error)

	// Submit executes the plan atomically and returns the transaction
	// identifier the submission layer can use to fetch logs.
	Submit(ctx context.Context, plan *Plan) (TxID, error)
}
