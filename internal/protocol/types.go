// Package protocol implements the chain-agnostic Twoside accounting core:
// deterministic address derivation contracts, the global registry, the
// per-asset whitelist and vault ledgers, fee distribution and the lock/unlock
// state machine. Chain-specific transfer and mint primitives are supplied by
// the adapters in internal/chain.
package protocol

import (
	"encoding/hex"
	"time"
)

// Address is a chain-neutral account identifier. Solana public keys occupy
// all 32 bytes; EVM addresses occupy the trailing 20 bytes.
type Address [32]byte

// ZeroAddress is the null address. A TokenInfo whose derivative equals
// ZeroAddress has never had a derivative minted.
var ZeroAddress Address

// IsZero reports whether the address is the null address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// String returns the hex form of the address.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Short returns a truncated form suitable for log fields.
func (a Address) Short() string {
	s := a.String()
	return s[:6] + ".." + s[len(s)-4:]
}

// AddressFromBytes builds an Address from raw bytes, right-aligned so that
// 20-byte EVM addresses land in the trailing bytes.
func AddressFromBytes(b []byte) Address {
	var a Address
	if len(b) > len(a) {
		b = b[len(b)-len(a):]
	}
	copy(a[len(a)-len(b):], b)
	return a
}

// Seed is a static derivation namespace tag. The tags mirror the on-chain
// program's seed constants, so every flavour of the protocol derives the
// same logical accounts.
type Seed string

const (
	SeedGlobalInfo          Seed = "global_info"
	SeedTokenInfo           Seed = "token_info"
	SeedVaultAuthority      Seed = "vault_authority"
	SeedAuthorizedUpdater   Seed = "authorized_updater_info"
	SeedDerivativeAuthority Seed = "derivative_authority"
	SeedDerivativeMint      Seed = "derivative_mint"
	SeedMetadata            Seed = "metadata"
)

// Derived is the output of a derivation: the address plus the disambiguation
// bump that took it out of the keyed address space.
type Derived struct {
	Address Address
	Bump    uint8
}

// Deriver deterministically maps (tag, asset) to a program-controlled
// address. Implementations must be pure: the same pair always yields the
// same Derived, and distinct assets never collide under one tag.
type Deriver interface {
	// Derive resolves a per-asset address for the given namespace tag.
	Derive(tag Seed, asset Address) (Derived, error)

	// DeriveStatic resolves a singleton address keyed by the tag alone,
	// such as the global registry record.
	DeriveStatic(tag Seed) (Derived, error)

	// AssociatedAccount resolves the holding account of owner for asset
	// (the ATA on Solana; the owner address itself on EVM).
	AssociatedAccount(owner, asset Address) (Address, error)
}

// DerivedAuthority is an opaque capability for signing as a derived address.
// Only the engine produces values of this type; it carries no secret, just
// the derivation inputs an adapter needs to reproduce the signer seeds.
type DerivedAuthority struct {
	address Address
	seed    Seed
	asset   Address
	bump    uint8
}

// Address returns the authority's derived address.
func (d DerivedAuthority) Address() Address { return d.address }

// Seed returns the namespace tag the authority was derived under.
func (d DerivedAuthority) Seed() Seed { return d.seed }

// Asset returns the underlying asset the authority is tied to.
func (d DerivedAuthority) Asset() Address { return d.asset }

// Bump returns the disambiguation bump.
func (d DerivedAuthority) Bump() uint8 { return d.bump }

// AssetMetadata is the name/symbol/URI triple attached to a fungible asset.
type AssetMetadata struct {
	Name   string
	Symbol string
	URI    string
}

// TxID identifies a submitted transaction on the host ledger.
type TxID string

// Clock supplies timestamps for emitted events. Tests substitute a fixed
// clock for deterministic fixtures.
type Clock func() time.Time
